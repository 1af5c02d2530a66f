package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/kyvra-tech/iss-flyover-tracker/internal/config"
	"github.com/kyvra-tech/iss-flyover-tracker/internal/models"
	"github.com/kyvra-tech/iss-flyover-tracker/pkg/metrics"
)

// PassTimeResolver fetches predicted ISS passes over a coordinate
type PassTimeResolver struct {
	upstream upstreamClient
	baseURL  string
}

type passResponse struct {
	Message  string      `json:"message"`
	Reason   string      `json:"reason"`
	Response *[]passItem `json:"response"`
}

type passItem struct {
	RiseTime *int64 `json:"risetime"`
	Duration *int64 `json:"duration"`
}

func (r *passResponse) validate() error {
	if r.Message == "failure" {
		return fmt.Errorf("pass prediction failed: %s", r.Reason)
	}
	if r.Response == nil {
		return errors.New("response has no response field")
	}
	for i, item := range *r.Response {
		if item.RiseTime == nil || item.Duration == nil {
			return fmt.Errorf("pass %d is missing risetime or duration", i)
		}
	}
	return nil
}

func NewPassTimeResolver(cfg config.UpstreamConfig, logger *logrus.Logger, m *metrics.Metrics) *PassTimeResolver {
	return &PassTimeResolver{
		upstream: newUpstreamClient(cfg.Timeout, logger, m),
		baseURL:  cfg.ISSPassURL,
	}
}

// FetchISSFlyOverTimes returns the upcoming passes over coord in the order
// the prediction service lists them.
func (r *PassTimeResolver) FetchISSFlyOverTimes(ctx context.Context, coord models.Coordinate) ([]models.PassWindow, error) {
	u, err := url.Parse(r.baseURL)
	if err != nil {
		return nil, &models.TransportError{Stage: models.StagePasses, Err: fmt.Errorf("invalid ISS pass URL: %w", err)}
	}
	q := u.Query()
	q.Set("lat", strconv.FormatFloat(coord.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(coord.Longitude, 'f', -1, 64))
	u.RawQuery = q.Encode()

	var resp passResponse
	if err := r.upstream.getJSON(ctx, models.StagePasses, u.String(), &resp); err != nil {
		return nil, err
	}

	passes := make([]models.PassWindow, 0, len(*resp.Response))
	for _, item := range *resp.Response {
		passes = append(passes, models.PassWindow{
			RiseTime: *item.RiseTime,
			Duration: *item.Duration,
		})
	}
	return passes, nil
}
