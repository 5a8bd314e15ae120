package application

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/sngm3741/menu-recommendation/api/internal/geo"
	"github.com/sngm3741/menu-recommendation/api/internal/metrics"
	"github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

// WalkingSpeedKmh は直線距離から所要時間を概算する際の徒歩速度。
const WalkingSpeedKmh = 4.8

type routeService struct {
	provider RoutingProvider
	logger   *log.Logger
}

// NewRouteService wraps provider with the straight-line fallback. provider may be nil.
func NewRouteService(provider RoutingProvider, logger *log.Logger) RouteService {
	return &routeService{provider: provider, logger: logger}
}

// Route は経路サービスの失敗をユーザー操作の失敗にせず、直線経路と haversine 距離で代替する。
func (s *routeService) Route(ctx context.Context, origin, destination geo.Coordinate) (*domain.Route, error) {
	if !origin.Valid() {
		return nil, &domain.ValidationError{Field: "origin", Message: "出発地の座標が不正です"}
	}
	if !destination.Valid() {
		return nil, &domain.ValidationError{Field: "destination", Message: "目的地の座標が不正です"}
	}

	if s.provider != nil {
		route, err := s.provider.Route(ctx, origin, destination)
		if err == nil && route != nil {
			return route, nil
		}
		if err != nil {
			recordProviderError(err)
			if s.logger != nil {
				s.logger.Printf("経路取得に失敗したため直線距離で代替します: %v", err)
			}
		}
	}

	metrics.RouteFallbacks.Inc()
	return StraightLineRoute(origin, destination), nil
}

// StraightLineRoute builds the degraded route between two points.
func StraightLineRoute(origin, destination geo.Coordinate) *domain.Route {
	km := geo.DistanceKm(origin, destination)
	seconds := km / WalkingSpeedKmh * 3600
	return &domain.Route{
		DistanceMeters:  km * 1000,
		DurationSeconds: seconds,
		DistanceText:    geo.FormatDistance(km),
		DurationText:    FormatDuration(seconds),
		Path:            []geo.Coordinate{origin, destination},
		Estimated:       true,
	}
}

// FormatDuration は所要時間を分単位(1 時間以上は時間+分)で表示する。
func FormatDuration(seconds float64) string {
	minutes := int(math.Ceil(seconds / 60))
	if minutes < 1 {
		minutes = 1
	}
	if minutes < 60 {
		return fmt.Sprintf("%d분", minutes)
	}
	if minutes%60 == 0 {
		return fmt.Sprintf("%d시간", minutes/60)
	}
	return fmt.Sprintf("%d시간 %d분", minutes/60, minutes%60)
}
