// Package routing calls an OSRM compatible HTTP API for walking routes.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sngm3741/menu-recommendation/api/internal/geo"
	"github.com/sngm3741/menu-recommendation/api/internal/public/application"
	"github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

const providerName = "routing"

// Client implements application.RoutingProvider.
type Client struct {
	baseURL    string
	profile    string
	httpClient *http.Client
}

// NewClient returns nil when baseURL is empty so RouteService always falls back to the straight line.
func NewClient(baseURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		profile:    "foot",
		httpClient: &http.Client{Timeout: timeout},
	}
}

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// Route は徒歩経路を 1 本取得する。経路が見つからない場合は ZERO_RESULTS を返す。
func (c *Client) Route(ctx context.Context, origin, destination geo.Coordinate) (*domain.Route, error) {
	// OSRM は経度,緯度の順。
	endpoint := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?overview=full&geometries=geojson",
		c.baseURL, c.profile, origin.Lng, origin.Lat, destination.Lng, destination.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domain.NewProviderError(providerName, domain.StatusInvalidRequest, err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewProviderError(providerName, domain.StatusUnavailable, fmt.Errorf("経路リクエストに失敗: %w", err))
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return nil, domain.NewProviderError(providerName, domain.StatusUnavailable, err)
	}

	var payload routeResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		if res.StatusCode >= 400 {
			return nil, domain.NewProviderError(providerName, statusFromHTTP(res.StatusCode),
				fmt.Errorf("status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body))))
		}
		return nil, domain.NewProviderError(providerName, domain.StatusUnknown, err)
	}

	if payload.Code != "Ok" {
		status := statusFromCode(payload.Code)
		if payload.Code == "" {
			status = statusFromHTTP(res.StatusCode)
		}
		return nil, domain.NewProviderError(providerName, status, errors.New(strings.TrimSpace(payload.Code+" "+payload.Message)))
	}
	if len(payload.Routes) == 0 {
		return nil, domain.NewProviderError(providerName, domain.StatusNoResults, errors.New("no routes"))
	}

	best := payload.Routes[0]
	path := make([]geo.Coordinate, 0, len(best.Geometry.Coordinates))
	for _, pair := range best.Geometry.Coordinates {
		if len(pair) < 2 {
			continue
		}
		path = append(path, geo.Coordinate{Lat: pair[1], Lng: pair[0]})
	}
	if len(path) == 0 {
		path = []geo.Coordinate{origin, destination}
	}

	return &domain.Route{
		DistanceMeters:  best.Distance,
		DurationSeconds: best.Duration,
		DistanceText:    geo.FormatDistance(best.Distance / 1000),
		DurationText:    application.FormatDuration(best.Duration),
		Path:            path,
	}, nil
}

func statusFromCode(code string) domain.ProviderStatus {
	switch code {
	case "NoRoute", "NoSegment":
		return domain.StatusNoResults
	case "InvalidQuery", "InvalidValue", "InvalidUrl", "InvalidService", "InvalidVersion", "InvalidOptions", "TooBig":
		return domain.StatusInvalidRequest
	default:
		return domain.StatusUnknown
	}
}

func statusFromHTTP(code int) domain.ProviderStatus {
	switch {
	case code == http.StatusTooManyRequests:
		return domain.StatusQuotaExceeded
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return domain.StatusPermissionDenied
	case code == http.StatusNotFound:
		return domain.StatusNotFound
	case code >= 500:
		return domain.StatusUnavailable
	case code >= 400:
		return domain.StatusInvalidRequest
	default:
		return domain.StatusUnknown
	}
}
