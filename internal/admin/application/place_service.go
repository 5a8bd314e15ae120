package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	admindomain "github.com/sngm3741/menu-recommendation/api/internal/admin/domain"
	placedomain "github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// placeService implements PlaceService.
type placeService struct {
	catalog PlaceCatalog
	newID   func() string
}

func NewPlaceService(catalog PlaceCatalog) PlaceService {
	return &placeService{catalog: catalog, newID: uuid.NewString}
}

func (s *placeService) List(ctx context.Context, filter PlaceFilter, paging Paging) (PlacePage, error) {
	limit := paging.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := paging.Offset
	if offset < 0 {
		offset = 0
	}

	items, total, err := s.catalog.List(ctx, filter.Keyword, limit, offset)
	if err != nil {
		return PlacePage{}, err
	}
	return PlacePage{Items: items, Total: total}, nil
}

func (s *placeService) Detail(ctx context.Context, id string) (*placedomain.Place, error) {
	placeID, err := admindomain.NewPlaceID(id)
	if err != nil {
		return nil, err
	}
	return s.catalog.Details(ctx, placeID)
}

// Create は id 指定時に既存ドキュメントを確認し、上書きしない。
func (s *placeService) Create(ctx context.Context, cmd UpsertPlaceCommand) (*placedomain.Place, error) {
	id := s.newID()
	if cmd.ID != "" {
		placeID, err := admindomain.NewPlaceID(cmd.ID)
		if err != nil {
			return nil, err
		}
		existing, err := s.catalog.Details(ctx, placeID)
		if err != nil && !isNotFound(err) {
			return nil, err
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: %s", ErrPlaceExists, placeID)
		}
		id = placeID
	}

	catalogPlace, err := admindomain.NewCatalogPlace(id, cmd.Place)
	if err != nil {
		return nil, err
	}
	place := catalogPlace.ToPlace(nil)
	if err := s.catalog.Upsert(ctx, place); err != nil {
		return nil, err
	}
	return &place, nil
}

// Update replaces the editable fields and keeps the reviews already indexed.
func (s *placeService) Update(ctx context.Context, id string, cmd UpsertPlaceCommand) (*placedomain.Place, error) {
	placeID, err := admindomain.NewPlaceID(id)
	if err != nil {
		return nil, err
	}
	catalogPlace, err := admindomain.NewCatalogPlace(placeID, cmd.Place)
	if err != nil {
		return nil, err
	}

	existing, err := s.catalog.Details(ctx, placeID)
	if err != nil {
		return nil, err
	}

	place := catalogPlace.ToPlace(existing.Reviews)
	if err := s.catalog.Upsert(ctx, place); err != nil {
		return nil, err
	}
	return &place, nil
}

func isNotFound(err error) bool {
	status, ok := placedomain.ProviderStatusOf(err)
	return ok && status == placedomain.StatusNotFound
}
