package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kyvra-tech/iss-flyover-tracker/internal/config"
	"github.com/kyvra-tech/iss-flyover-tracker/internal/models"
	"github.com/kyvra-tech/iss-flyover-tracker/pkg/metrics"
)

// IPResolver discovers the caller's public IP address
type IPResolver struct {
	upstream upstreamClient
	url      string
}

type ipResponse struct {
	IP string `json:"ip"`
}

func (r *ipResponse) validate() error {
	if strings.TrimSpace(r.IP) == "" {
		return errors.New("response has no ip field")
	}
	return nil
}

func NewIPResolver(cfg config.UpstreamConfig, logger *logrus.Logger, m *metrics.Metrics) *IPResolver {
	return &IPResolver{
		upstream: newUpstreamClient(cfg.Timeout, logger, m),
		url:      cfg.IPServiceURL,
	}
}

// FetchMyIP returns the public IP as reported by the IP service
func (r *IPResolver) FetchMyIP(ctx context.Context) (string, error) {
	var resp ipResponse
	if err := r.upstream.getJSON(ctx, models.StageIP, r.url, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.IP), nil
}
