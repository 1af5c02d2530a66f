package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kyvra-tech/iss-flyover-tracker/internal/middleware"
	"github.com/kyvra-tech/iss-flyover-tracker/internal/models"
	"github.com/kyvra-tech/iss-flyover-tracker/internal/scheduler"
)

type FlyoverRunner interface {
	NextISSTimesForMyLocation(ctx context.Context) (*models.FlyoverResult, error)
}

type SnapshotSource interface {
	Latest() (scheduler.Snapshot, bool)
}

type FlyoverHandler struct {
	service  FlyoverRunner
	snapshot SnapshotSource
	logger   *logrus.Logger
}

// NewFlyoverHandler builds the pass endpoints. snapshot may be nil when the
// watch job is disabled.
func NewFlyoverHandler(service FlyoverRunner, snapshot SnapshotSource, logger *logrus.Logger) *FlyoverHandler {
	return &FlyoverHandler{
		service:  service,
		snapshot: snapshot,
		logger:   logger,
	}
}

// GetPasses runs one lookup for the server's own location
func (h *FlyoverHandler) GetPasses(c *gin.Context) {
	result, err := h.service.NextISSTimesForMyLocation(c.Request.Context())
	if err != nil {
		// the failing stage is already logged by the service, tagged with the request ID
		appErr := models.NewUpstreamError(err).WithMetadata("request_id", middleware.GetRequestID(c))
		_ = c.Error(err)
		c.JSON(appErr.StatusCode, appErr)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetLatestPasses returns what the watch job saw last
func (h *FlyoverHandler) GetLatestPasses(c *gin.Context) {
	if h.snapshot == nil {
		c.JSON(http.StatusNotFound, models.NewNotFoundError("Flyover watch is disabled"))
		return
	}

	snap, ok := h.snapshot.Latest()
	if !ok {
		c.JSON(http.StatusNotFound, models.NewNotFoundError("No flyover prediction recorded yet"))
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id":  middleware.GetRequestID(c),
		"last_run_at": snap.LastRunAt,
		"stale":       snap.LastError != "",
	}).Debug("Serving recorded flyover prediction")

	c.JSON(http.StatusOK, snap)
}
