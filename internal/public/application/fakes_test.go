package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sngm3741/menu-recommendation/api/internal/geo"
	"github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

type memFavoriteRepo struct {
	mu      sync.Mutex
	entries []domain.FavoriteEntry
	nextID  int
	listErr error
	creates int
	deletes []string
}

func (r *memFavoriteRepo) FindByPlace(_ context.Context, userID, placeID string) (*domain.FavoriteEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.UserID == userID && e.PlaceID == placeID {
			found := e
			return &found, nil
		}
	}
	return nil, nil
}

func (r *memFavoriteRepo) List(_ context.Context, userID string) ([]domain.FavoriteEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := []domain.FavoriteEntry{}
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].UserID == userID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

func (r *memFavoriteRepo) Create(_ context.Context, entry *domain.FavoriteEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.creates++
	entry.RecordID = fmt.Sprintf("fav-%d", r.nextID)
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memFavoriteRepo) Delete(_ context.Context, userID, placeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes = append(r.deletes, userID+"/"+placeID)
	for i, e := range r.entries {
		if e.UserID == userID && e.PlaceID == placeID {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *memFavoriteRepo) Deletes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.deletes...)
}

func (r *memFavoriteRepo) setListErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listErr = err
}

type memVisitRepo struct {
	entries []domain.VisitEntry
	err     error
}

func (r *memVisitRepo) Create(_ context.Context, entry *domain.VisitEntry) error {
	if r.err != nil {
		return r.err
	}
	entry.RecordID = fmt.Sprintf("visit-%d", len(r.entries)+1)
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memVisitRepo) List(_ context.Context, userID string) ([]domain.VisitEntry, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := []domain.VisitEntry{}
	for _, e := range r.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

type stubPlaces struct {
	mu          sync.Mutex
	places      []domain.Place
	searchErr   error
	detail      *domain.Place
	detailErr   error
	detailCalls int
	gate        chan struct{}
	entered     chan struct{}
	lastRadius  int
	lastTags    []string
}

func (p *stubPlaces) SearchNearby(_ context.Context, _ geo.Coordinate, radiusMeters int, categoryTags []string) ([]domain.Place, error) {
	p.lastRadius = radiusMeters
	p.lastTags = categoryTags
	if p.searchErr != nil {
		return nil, p.searchErr
	}
	return p.places, nil
}

func (p *stubPlaces) Details(ctx context.Context, placeID string) (*domain.Place, error) {
	p.mu.Lock()
	p.detailCalls++
	p.mu.Unlock()
	if p.gate != nil {
		select {
		case p.entered <- struct{}{}:
		default:
		}
		select {
		case <-p.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.detailErr != nil {
		return nil, p.detailErr
	}
	if p.detail == nil || p.detail.ID != placeID {
		return nil, domain.NewProviderError("places", domain.StatusNotFound, errors.New("no such place"))
	}
	return p.detail, nil
}

func placeRef(placeID, name string) domain.PlaceRef {
	return domain.PlaceRef{
		PlaceID:  placeID,
		Name:     name,
		Location: geo.Coordinate{Lat: 37.5665, Lng: 126.9780},
	}
}
