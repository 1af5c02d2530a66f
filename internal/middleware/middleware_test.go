package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kyvra-tech/iss-flyover-tracker/pkg/logger"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

func newTestRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(mw...)
	return router
}

func TestRequestID(t *testing.T) {
	router := newTestRouter(RequestID())
	router.GET("/ping", func(c *gin.Context) {
		c.Header("X-Context-Request-ID", logger.RequestIDFrom(c.Request.Context()))
		c.String(http.StatusOK, GetRequestID(c))
	})

	t.Run("Generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

		id := rec.Header().Get("X-Request-ID")
		if id == "" {
			t.Fatal("Expected a generated request ID")
		}
		if rec.Body.String() != id {
			t.Errorf("Expected handler to see %s, got %s", id, rec.Body.String())
		}
		if ctxID := rec.Header().Get("X-Context-Request-ID"); ctxID != id {
			t.Errorf("Expected request context to carry %s, got %s", id, ctxID)
		}
	})

	t.Run("Propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Header().Get("X-Request-ID") != "abc-123" {
			t.Errorf("Expected incoming request ID to be kept, got %s", rec.Header().Get("X-Request-ID"))
		}
	})
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(2, time.Minute, newTestLogger(), nil)
	limiter.now = func() time.Time { return now }

	router := newTestRouter(limiter.Middleware())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func() int {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		return rec.Code
	}

	if code := do(); code != http.StatusOK {
		t.Errorf("Expected first request to pass, got %d", code)
	}
	if code := do(); code != http.StatusOK {
		t.Errorf("Expected second request to pass, got %d", code)
	}
	if code := do(); code != http.StatusTooManyRequests {
		t.Errorf("Expected third request to be limited, got %d", code)
	}

	now = now.Add(time.Minute)
	if code := do(); code != http.StatusOK {
		t.Errorf("Expected request in a new window to pass, got %d", code)
	}

	limiter.mu.Lock()
	tracked := len(limiter.clients)
	limiter.mu.Unlock()
	if tracked != 1 {
		t.Errorf("Expected expired window to be evicted, got %d tracked clients", tracked)
	}
}

func TestRecovery(t *testing.T) {
	router := newTestRouter(RequestID(), Recovery(newTestLogger()))
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Expected JSON body: %v", err)
	}
	if body["code"] != "INTERNAL_ERROR" {
		t.Errorf("Expected INTERNAL_ERROR code, got %v", body["code"])
	}
}

func TestTimeout(t *testing.T) {
	router := newTestRouter(Timeout(20*time.Millisecond, newTestLogger()))
	router.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	router.GET("/fast", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slow", nil))
	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("Expected 504, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fast", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	router := newTestRouter(CORS([]string{"http://localhost:5173"}))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("Preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("Expected 204, got %d", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
			t.Errorf("Expected allowed origin header, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
		}
	})

	t.Run("Unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Errorf("Expected no allow-origin header, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
		}
	})
}

func TestSecurity(t *testing.T) {
	router := newTestRouter(Security())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	for _, header := range []string{"X-Frame-Options", "X-Content-Type-Options", "Content-Security-Policy"} {
		if rec.Header().Get(header) == "" {
			t.Errorf("Expected %s header", header)
		}
	}
}
