package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kyvra-tech/iss-flyover-tracker/internal/config"
	"github.com/kyvra-tech/iss-flyover-tracker/internal/models"
	apperrors "github.com/kyvra-tech/iss-flyover-tracker/pkg/errors"
	"github.com/kyvra-tech/iss-flyover-tracker/pkg/logger"
	"github.com/kyvra-tech/iss-flyover-tracker/pkg/metrics"
)

type IPFetcher interface {
	FetchMyIP(ctx context.Context) (string, error)
}

type CoordinateFetcher interface {
	FetchCoordsByIP(ctx context.Context, ip string) (models.Coordinate, error)
}

type PassTimeFetcher interface {
	FetchISSFlyOverTimes(ctx context.Context, coord models.Coordinate) ([]models.PassWindow, error)
}

// FlyoverState is the position of a run in the IP -> coordinates -> passes chain
type FlyoverState int

const (
	StateAwaitingIP FlyoverState = iota
	StateAwaitingCoords
	StateAwaitingPasses
	StateDone
	StateFailed
)

func (s FlyoverState) String() string {
	switch s {
	case StateAwaitingIP:
		return "awaiting_ip"
	case StateAwaitingCoords:
		return "awaiting_coords"
	case StateAwaitingPasses:
		return "awaiting_passes"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CompletionHandler receives the outcome of a run: either an error or the passes, never both
type CompletionHandler func(err error, passes []models.PassWindow)

// FlyoverService chains the three lookups. It keeps no state between runs
// and is safe for concurrent use.
type FlyoverService struct {
	ip      IPFetcher
	coords  CoordinateFetcher
	passes  PassTimeFetcher
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

func NewFlyoverService(
	ip IPFetcher,
	coords CoordinateFetcher,
	passes PassTimeFetcher,
	logger *logrus.Logger,
	m *metrics.Metrics,
) *FlyoverService {
	return &FlyoverService{
		ip:      ip,
		coords:  coords,
		passes:  passes,
		logger:  logger,
		metrics: m,
	}
}

// NewFlyoverServiceFromConfig wires the HTTP resolvers for the configured endpoints
func NewFlyoverServiceFromConfig(cfg config.UpstreamConfig, logger *logrus.Logger, m *metrics.Metrics) *FlyoverService {
	return NewFlyoverService(
		NewIPResolver(cfg, logger, m),
		NewCoordinateResolver(cfg, logger, m),
		NewPassTimeResolver(cfg, logger, m),
		logger,
		m,
	)
}

// NextISSTimesForMyLocation resolves the public IP, its coordinates and the
// upcoming passes over them, in that order. The first failing stage ends the
// run and its typed error is returned wrapped.
func (s *FlyoverService) NextISSTimesForMyLocation(ctx context.Context) (*models.FlyoverResult, error) {
	run := &flyoverRun{
		id:    uuid.New().String(),
		start: time.Now(),
		state: StateAwaitingIP,
	}
	entry := s.logger.WithField("run_id", run.id)
	if requestID := logger.RequestIDFrom(ctx); requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}

	ip, err := s.ip.FetchMyIP(ctx)
	if err != nil {
		return nil, s.fail(entry, run, models.StageIP, err)
	}
	run.advance(entry, StateAwaitingCoords)

	coord, err := s.coords.FetchCoordsByIP(ctx, ip)
	if err != nil {
		return nil, s.fail(entry, run, models.StageCoordinates, err)
	}
	run.advance(entry, StateAwaitingPasses)

	passes, err := s.passes.FetchISSFlyOverTimes(ctx, coord)
	if err != nil {
		return nil, s.fail(entry, run, models.StagePasses, err)
	}
	run.advance(entry, StateDone)

	duration := time.Since(run.start)
	s.metrics.RecordFlyoverRun(true, len(passes), duration)

	entry.WithFields(logrus.Fields{
		"ip":       ip,
		"passes":   len(passes),
		"duration": duration.String(),
	}).Info("ISS flyover lookup completed")

	return &models.FlyoverResult{
		RunID:       run.id,
		IP:          ip,
		Coordinate:  coord,
		Passes:      passes,
		CompletedAt: time.Now().UTC(),
	}, nil
}

// Run is the callback form of NextISSTimesForMyLocation. handler is called
// exactly once, on the calling goroutine.
func (s *FlyoverService) Run(ctx context.Context, handler CompletionHandler) {
	result, err := s.NextISSTimesForMyLocation(ctx)
	if err != nil {
		handler(err, nil)
		return
	}
	handler(nil, result.Passes)
}

func (s *FlyoverService) fail(entry *logrus.Entry, run *flyoverRun, stage models.Stage, err error) error {
	failedIn := run.state
	run.state = StateFailed

	s.metrics.RecordFlyoverRun(false, 0, time.Since(run.start))

	entry.WithFields(logrus.Fields{
		"stage":   stage,
		"state":   failedIn.String(),
		"failure": failureKind(err),
	}).WithError(err).Warn("ISS flyover lookup failed")

	return apperrors.Wrapf(err, "flyover run %s", run.id)
}

func failureKind(err error) string {
	switch {
	case apperrors.IsTransport(err):
		return "transport"
	case apperrors.IsRemoteService(err):
		return "remote_status"
	case apperrors.IsMalformedResponse(err):
		return "malformed"
	default:
		return "unknown"
	}
}

type flyoverRun struct {
	id    string
	start time.Time
	state FlyoverState
}

func (r *flyoverRun) advance(entry *logrus.Entry, next FlyoverState) {
	entry.WithFields(logrus.Fields{
		"from": r.state.String(),
		"to":   next.String(),
	}).Debug("Flyover run advanced")
	r.state = next
}
