package application

import (
	"context"
	"errors"

	admindomain "github.com/sngm3741/menu-recommendation/api/internal/admin/domain"
	placedomain "github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

// ErrPlaceExists is returned by Create when the requested id is already indexed.
var ErrPlaceExists = errors.New("place already exists")

// PlaceCatalog exposes admin operations on the place index.
type PlaceCatalog interface {
	List(ctx context.Context, keyword string, limit, offset int) ([]placedomain.Place, int64, error)
	Details(ctx context.Context, placeID string) (*placedomain.Place, error)
	Upsert(ctx context.Context, place placedomain.Place) error
}

// PlaceFilter expresses admin search criteria.
type PlaceFilter struct {
	Keyword string
}

// Paging controls pagination.
type Paging struct {
	Limit  int
	Offset int
}

// PlacePage is one page of the catalog.
type PlacePage struct {
	Items []placedomain.Place
	Total int64
}

// PlaceService describes admin place catalog use-cases.
type PlaceService interface {
	List(ctx context.Context, filter PlaceFilter, paging Paging) (PlacePage, error)
	Detail(ctx context.Context, id string) (*placedomain.Place, error)
	Create(ctx context.Context, cmd UpsertPlaceCommand) (*placedomain.Place, error)
	Update(ctx context.Context, id string, cmd UpsertPlaceCommand) (*placedomain.Place, error)
}

// UpsertPlaceCommand contains inputs for creating/updating places.
type UpsertPlaceCommand struct {
	// ID is optional on create. An empty id gets a generated UUID.
	ID    string
	Place admindomain.PlaceInput
}
