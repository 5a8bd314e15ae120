package domain

import "github.com/sngm3741/menu-recommendation/api/internal/geo"

// Route is a walking route between two points.
type Route struct {
	DistanceMeters  float64
	DurationSeconds float64
	DistanceText    string
	DurationText    string
	Path            []geo.Coordinate
	// Estimated は経路サービスが失敗し直線距離で代替したことを示す。
	Estimated bool
}
