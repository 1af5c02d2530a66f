package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kyvra-tech/iss-flyover-tracker/internal/config"
	"github.com/kyvra-tech/iss-flyover-tracker/internal/models"
	"github.com/kyvra-tech/iss-flyover-tracker/internal/scheduler"
	"github.com/kyvra-tech/iss-flyover-tracker/internal/services"
	"github.com/kyvra-tech/iss-flyover-tracker/pkg/logger"
)

type stubRunner struct {
	result    *models.FlyoverResult
	err       error
	requestID string
}

func (r *stubRunner) NextISSTimesForMyLocation(ctx context.Context) (*models.FlyoverResult, error) {
	r.requestID = logger.RequestIDFrom(ctx)
	return r.result, r.err
}

type stubSnapshot struct {
	snap scheduler.Snapshot
	ok   bool
}

func (s *stubSnapshot) Latest() (scheduler.Snapshot, bool) {
	return s.snap, s.ok
}

type stubProbe struct {
	results []services.ProbeResult
}

func (p *stubProbe) ProbeAll(ctx context.Context) []services.ProbeResult {
	return p.results
}

func newTestServer(runner FlyoverRunner, snapshot SnapshotSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	cfg := config.ServerConfig{
		RequestTimeout:  time.Second,
		RateLimit:       100,
		RateLimitWindow: time.Minute,
	}
	return NewRouter(
		cfg,
		NewFlyoverHandler(runner, snapshot, log),
		NewHealthHandler(nil, &stubProbe{}, log, "test"),
		log,
		nil,
	)
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestFlyoverHandler_GetPasses(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		runner := &stubRunner{result: &models.FlyoverResult{
			RunID:      "run-1",
			IP:         "162.245.144.188",
			Coordinate: models.Coordinate{Latitude: -22.9, Longitude: -43.2},
			Passes:     []models.PassWindow{{RiseTime: 1500, Duration: 300}, {RiseTime: 1600, Duration: 400}},
		}}
		rec := get(newTestServer(runner, nil), "/api/v1/passes")

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var body models.FlyoverResult
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if len(body.Passes) != 2 || body.Passes[0].RiseTime != 1500 || body.Passes[1].Duration != 400 {
			t.Errorf("Unexpected passes %+v", body.Passes)
		}
		if body.Coordinate.Latitude != -22.9 {
			t.Errorf("Unexpected coordinate %+v", body.Coordinate)
		}
	})

	tests := []struct {
		name         string
		err          error
		expectStatus int
		expectCode   string
	}{
		{
			name:         "Remote status",
			err:          &models.RemoteServiceError{Stage: models.StageCoordinates, StatusCode: 503, Body: "down"},
			expectStatus: http.StatusBadGateway,
			expectCode:   string(models.ErrCodeUpstreamStatus),
		},
		{
			name:         "Transport timeout",
			err:          &models.TransportError{Stage: models.StageIP, Err: context.DeadlineExceeded},
			expectStatus: http.StatusGatewayTimeout,
			expectCode:   string(models.ErrCodeUpstreamUnreachable),
		},
		{
			name:         "Malformed",
			err:          &models.MalformedResponseError{Stage: models.StagePasses, Err: errors.New("no response field")},
			expectStatus: http.StatusBadGateway,
			expectCode:   string(models.ErrCodeUpstreamMalformed),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(newTestServer(&stubRunner{err: tt.err}, nil), "/api/v1/passes")

			if rec.Code != tt.expectStatus {
				t.Fatalf("Expected %d, got %d", tt.expectStatus, rec.Code)
			}

			var body map[string]interface{}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("Failed to decode body: %v", err)
			}
			if body["code"] != tt.expectCode {
				t.Errorf("Expected code %s, got %v", tt.expectCode, body["code"])
			}
			metadata, _ := body["metadata"].(map[string]interface{})
			if metadata["stage"] == nil || metadata["request_id"] == nil {
				t.Errorf("Expected stage and request_id metadata, got %v", metadata)
			}
		})
	}
}

func TestFlyoverHandler_GetPassesRequestID(t *testing.T) {
	runner := &stubRunner{err: &models.RemoteServiceError{Stage: models.StageCoordinates, StatusCode: 418, Body: "teapot"}}
	router := newTestServer(runner, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/passes", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if runner.requestID != "req-42" {
		t.Errorf("Expected the service to see request ID req-42, got %q", runner.requestID)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	metadata, _ := body["metadata"].(map[string]interface{})
	if metadata["request_id"] != "req-42" {
		t.Errorf("Expected request_id metadata req-42, got %v", metadata["request_id"])
	}
}

func TestFlyoverHandler_GetLatestPasses(t *testing.T) {
	t.Run("Watch disabled", func(t *testing.T) {
		rec := get(newTestServer(&stubRunner{}, nil), "/api/v1/passes/latest")
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rec.Code)
		}
	})

	t.Run("No run yet", func(t *testing.T) {
		rec := get(newTestServer(&stubRunner{}, &stubSnapshot{}), "/api/v1/passes/latest")
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rec.Code)
		}
	})

	t.Run("Recorded run", func(t *testing.T) {
		snap := &stubSnapshot{ok: true, snap: scheduler.Snapshot{
			Result:    &models.FlyoverResult{Passes: []models.PassWindow{{RiseTime: 1500, Duration: 300}}},
			LastRunAt: time.Now().UTC(),
		}}
		rec := get(newTestServer(&stubRunner{}, snap), "/api/v1/passes/latest")

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}

		var body scheduler.Snapshot
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if body.Result == nil || len(body.Result.Passes) != 1 {
			t.Errorf("Unexpected snapshot %+v", body)
		}
	})
}

func TestHealthHandler(t *testing.T) {
	router := newTestServer(&stubRunner{}, nil)

	rec := get(router, "/api/v1/health")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}

	rec = get(router, "/api/v1/scheduler")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}

	rec = get(router, "/metrics")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from /metrics, got %d", rec.Code)
	}
}

func TestHealthHandler_Ready(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetLevel(logrus.FatalLevel)

	tests := []struct {
		name         string
		results      []services.ProbeResult
		expectStatus int
	}{
		{
			name: "All reachable",
			results: []services.ProbeResult{
				{Stage: models.StageIP, Reachable: true},
				{Stage: models.StageCoordinates, Reachable: true},
				{Stage: models.StagePasses, Reachable: true},
			},
			expectStatus: http.StatusOK,
		},
		{
			name: "One unreachable",
			results: []services.ProbeResult{
				{Stage: models.StageIP, Reachable: true},
				{Stage: models.StageCoordinates, Reachable: false, ErrorMsg: "connection refused"},
				{Stage: models.StagePasses, Reachable: true},
			},
			expectStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(nil, &stubProbe{results: tt.results}, log, "test")
			router := gin.New()
			router.GET("/ready", h.Ready)

			rec := get(router, "/ready")
			if rec.Code != tt.expectStatus {
				t.Errorf("Expected %d, got %d", tt.expectStatus, rec.Code)
			}
		})
	}
}
