package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kyvra-tech/iss-flyover-tracker/internal/models"
	"github.com/kyvra-tech/iss-flyover-tracker/pkg/metrics"
)

// upstream bodies are tiny; anything past this is not one of ours
const maxBodyBytes = 1 << 20

// payload is an upstream response schema that can check its own required fields
type payload interface {
	validate() error
}

// upstreamClient performs the single GET each stage is allowed
type upstreamClient struct {
	client  *http.Client
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

func newUpstreamClient(timeout time.Duration, logger *logrus.Logger, m *metrics.Metrics) upstreamClient {
	return upstreamClient{
		client: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: m,
	}
}

// getJSON issues one GET to rawURL and decodes the body into out. Failures
// come back as *models.TransportError, *models.RemoteServiceError or
// *models.MalformedResponseError tagged with stage. There are no retries.
func (u upstreamClient) getJSON(ctx context.Context, stage models.Stage, rawURL string, out payload) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		u.record(stage, "transport_error", 0, start)
		return &models.TransportError{Stage: stage, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		u.record(stage, "transport_error", 0, start)
		return &models.TransportError{Stage: stage, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		u.record(stage, "transport_error", resp.StatusCode, start)
		return &models.TransportError{Stage: stage, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		u.record(stage, "remote_error", resp.StatusCode, start)
		return &models.RemoteServiceError{Stage: stage, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		u.record(stage, "malformed", resp.StatusCode, start)
		return &models.MalformedResponseError{Stage: stage, Body: string(body), Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if err := out.validate(); err != nil {
		u.record(stage, "malformed", resp.StatusCode, start)
		return &models.MalformedResponseError{Stage: stage, Body: string(body), Err: err}
	}

	u.record(stage, "success", resp.StatusCode, start)
	u.logger.WithFields(logrus.Fields{
		"stage":    stage,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("Upstream lookup completed")

	return nil
}

func (u upstreamClient) record(stage models.Stage, outcome string, statusCode int, start time.Time) {
	u.metrics.RecordUpstreamRequest(string(stage), outcome, statusCode, time.Since(start))
}
