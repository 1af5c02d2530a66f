package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kyvra-tech/iss-flyover-tracker/internal/config"
	"github.com/kyvra-tech/iss-flyover-tracker/internal/models"
	"github.com/kyvra-tech/iss-flyover-tracker/pkg/metrics"
)

// CoordinateResolver turns an IP address into an approximate position
type CoordinateResolver struct {
	upstream upstreamClient
	baseURL  string
	apiKey   string
	logger   *logrus.Logger
}

// coordsResponse mirrors {"data": {"latitude": ..., "longitude": ...}}
type coordsResponse struct {
	Data *struct {
		Latitude  *coordinate `json:"latitude"`
		Longitude *coordinate `json:"longitude"`
	} `json:"data"`
}

func (r *coordsResponse) validate() error {
	switch {
	case r.Data == nil:
		return errors.New("response has no data object")
	case r.Data.Latitude == nil:
		return errors.New("response has no data.latitude field")
	case r.Data.Longitude == nil:
		return errors.New("response has no data.longitude field")
	}
	return nil
}

// coordinate accepts a JSON number or a numeric string ("49.2767"), which is
// how some geolocation services encode positions.
type coordinate float64

func (c *coordinate) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("coordinate %s is not a number", b)
	}
	*c = coordinate(v)
	return nil
}

func NewCoordinateResolver(cfg config.UpstreamConfig, logger *logrus.Logger, m *metrics.Metrics) *CoordinateResolver {
	return &CoordinateResolver{
		upstream: newUpstreamClient(cfg.Timeout, logger, m),
		baseURL:  cfg.GeoServiceURL,
		apiKey:   cfg.GeoAPIKey,
		logger:   logger,
	}
}

// FetchCoordsByIP looks up the latitude and longitude of ip
func (r *CoordinateResolver) FetchCoordsByIP(ctx context.Context, ip string) (models.Coordinate, error) {
	lookupURL, err := r.lookupURL(ip)
	if err != nil {
		return models.Coordinate{}, &models.TransportError{Stage: models.StageCoordinates, Err: err}
	}

	var resp coordsResponse
	if err := r.upstream.getJSON(ctx, models.StageCoordinates, lookupURL, &resp); err != nil {
		return models.Coordinate{}, err
	}

	coord := models.Coordinate{
		Latitude:  float64(*resp.Data.Latitude),
		Longitude: float64(*resp.Data.Longitude),
	}

	r.logger.WithFields(logrus.Fields{
		"ip":        ip,
		"latitude":  coord.Latitude,
		"longitude": coord.Longitude,
	}).Debug("Resolved coordinates")

	return coord, nil
}

// lookupURL builds <base>/<ip>[?key=<apiKey>]
func (r *CoordinateResolver) lookupURL(ip string) (string, error) {
	u, err := url.Parse(r.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid geolocation service URL: %w", err)
	}
	u = u.JoinPath(ip)

	if r.apiKey != "" {
		q := u.Query()
		q.Set("key", r.apiKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
