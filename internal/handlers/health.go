package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kyvra-tech/iss-flyover-tracker/internal/services"
)

type StatusSource interface {
	GetSchedulerStatus() map[string]interface{}
}

type UpstreamProber interface {
	ProbeAll(ctx context.Context) []services.ProbeResult
}

type HealthHandler struct {
	scheduler StatusSource
	probe     UpstreamProber
	logger    *logrus.Logger
	version   string
}

// NewHealthHandler builds the liveness, readiness and scheduler endpoints. scheduler may be nil.
func NewHealthHandler(scheduler StatusSource, probe UpstreamProber, logger *logrus.Logger, version string) *HealthHandler {
	return &HealthHandler{
		scheduler: scheduler,
		probe:     probe,
		logger:    logger,
		version:   version,
	}
}

// Health reports liveness only. Upstreams are not contacted.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   h.version,
	})
}

// Ready reports whether every lookup service accepts connections
func (h *HealthHandler) Ready(c *gin.Context) {
	results := h.probe.ProbeAll(c.Request.Context())

	status := http.StatusOK
	state := "ready"
	for _, r := range results {
		if !r.Reachable {
			status = http.StatusServiceUnavailable
			state = "degraded"
			h.logger.WithFields(logrus.Fields{
				"stage":   r.Stage,
				"address": r.Address,
				"error":   r.ErrorMsg,
			}).Error("Readiness check failed")
		}
	}

	c.JSON(status, gin.H{
		"status":    state,
		"timestamp": time.Now().UTC(),
		"upstreams": results,
	})
}

// SchedulerStatus reports the watch job's schedule and last outcome
func (h *HealthHandler) SchedulerStatus(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusOK, gin.H{
			"running": false,
		})
		return
	}

	c.JSON(http.StatusOK, h.scheduler.GetSchedulerStatus())
}
