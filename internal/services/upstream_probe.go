package services

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kyvra-tech/iss-flyover-tracker/internal/config"
	"github.com/kyvra-tech/iss-flyover-tracker/internal/models"
)

// UpstreamProbe checks that each lookup service accepts TCP connections.
// It never sends an HTTP request, so it costs no upstream quota.
type UpstreamProbe struct {
	targets map[models.Stage]string
	timeout time.Duration
	logger  *logrus.Logger
}

type ProbeResult struct {
	Stage     models.Stage  `json:"stage"`
	Address   string        `json:"address"`
	Reachable bool          `json:"reachable"`
	ErrorMsg  string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
}

func NewUpstreamProbe(cfg config.UpstreamConfig, logger *logrus.Logger) *UpstreamProbe {
	return &UpstreamProbe{
		targets: map[models.Stage]string{
			models.StageIP:          cfg.IPServiceURL,
			models.StageCoordinates: cfg.GeoServiceURL,
			models.StagePasses:      cfg.ISSPassURL,
		},
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// ProbeAll dials every upstream once, in pipeline order
func (p *UpstreamProbe) ProbeAll(ctx context.Context) []ProbeResult {
	stages := []models.Stage{models.StageIP, models.StageCoordinates, models.StagePasses}

	results := make([]ProbeResult, 0, len(stages))
	for _, stage := range stages {
		results = append(results, p.probe(ctx, stage, p.targets[stage]))
	}
	return results
}

func (p *UpstreamProbe) probe(ctx context.Context, stage models.Stage, rawURL string) ProbeResult {
	result := ProbeResult{Stage: stage}

	addr, err := dialAddress(rawURL)
	if err != nil {
		result.ErrorMsg = fmt.Sprintf("failed to parse address: %v", err)
		return result
	}
	result.Address = addr

	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	result.Duration = time.Since(start)

	if err != nil {
		result.ErrorMsg = err.Error()
		p.logger.WithFields(logrus.Fields{
			"stage":    stage,
			"address":  addr,
			"duration": result.Duration,
		}).WithError(err).Warn("Upstream not reachable")
		return result
	}
	conn.Close()

	result.Reachable = true
	return result
}

// dialAddress derives host:port from an upstream URL, defaulting the port from the scheme
func dialAddress(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("no host in %q", rawURL)
	}

	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "http":
			port = "80"
		case "https":
			port = "443"
		default:
			return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
		}
	}
	return net.JoinHostPort(host, port), nil
}
