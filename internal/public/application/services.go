package application

import (
	"context"

	"github.com/sngm3741/menu-recommendation/api/internal/geo"
	"github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

// PlaceSearchProvider abstracts the external places search.
// PlaceSearchProvider は周辺検索と詳細取得を提供する外部サービスのポート。
type PlaceSearchProvider interface {
	// SearchNearby returns places within radiusMeters of center carrying any of categoryTags.
	// An empty result is a success, never an error.
	SearchNearby(ctx context.Context, center geo.Coordinate, radiusMeters int, categoryTags []string) ([]domain.Place, error)
	Details(ctx context.Context, placeID string) (*domain.Place, error)
}

// RoutingProvider calculates walking routes.
type RoutingProvider interface {
	Route(ctx context.Context, origin, destination geo.Coordinate) (*domain.Route, error)
}

// FavoriteRepository persists favorites keyed by (userID, placeID).
// FavoriteRepository はユーザーごとのお気に入りを保存するポート。
type FavoriteRepository interface {
	FindByPlace(ctx context.Context, userID, placeID string) (*domain.FavoriteEntry, error)
	List(ctx context.Context, userID string) ([]domain.FavoriteEntry, error)
	Create(ctx context.Context, entry *domain.FavoriteEntry) error
	Delete(ctx context.Context, userID, placeID string) error
}

// VisitRepository persists check-ins.
type VisitRepository interface {
	Create(ctx context.Context, entry *domain.VisitEntry) error
	List(ctx context.Context, userID string) ([]domain.VisitEntry, error)
}

// NearbyQuery expresses a restaurant list request.
type NearbyQuery struct {
	Center       geo.Coordinate
	Reference    *geo.Coordinate
	RadiusMeters int
	CategoryTags []string
	Filter       domain.CategoryFilter
	Sort         SortKey
}

// PlaceQueryService describes read use-cases over the place search provider.
// PlaceQueryService は周辺店舗一覧と店舗詳細のユースケースを提供するリーダーモデル。
type PlaceQueryService interface {
	Nearby(ctx context.Context, query NearbyQuery) ([]domain.ListedPlace, error)
	Detail(ctx context.Context, placeID string, reference *geo.Coordinate) (*domain.ListedPlace, error)
}

// RouteService answers walking routes, degrading to a straight line when the provider fails.
type RouteService interface {
	Route(ctx context.Context, origin, destination geo.Coordinate) (*domain.Route, error)
}

// FavoriteService handles favorite use-cases except the delayed removal, which goes through FavoriteSessions.
type FavoriteService interface {
	Add(ctx context.Context, userID string, ref domain.PlaceRef) (*domain.FavoriteEntry, bool, error)
	Toggle(ctx context.Context, userID string, ref domain.PlaceRef) (ToggleResult, error)
	IsFavorite(ctx context.Context, userID, placeID string) (bool, error)
	List(ctx context.Context, userID string) ([]domain.FavoriteEntry, error)
	Remove(ctx context.Context, userID, placeID string) error
}

// VisitService handles check-in use-cases.
type VisitService interface {
	Record(ctx context.Context, userID string, ref domain.PlaceRef) (*domain.VisitEntry, error)
	History(ctx context.Context, userID string) ([]domain.VisitEntry, error)
}

// ToggleAction is the outcome of FavoriteService.Toggle.
type ToggleAction string

const (
	ToggleAdded   ToggleAction = "added"
	ToggleRemoved ToggleAction = "removed"
)

// ToggleResult reports what Toggle did.
type ToggleResult struct {
	Action   ToggleAction
	RecordID string
}
