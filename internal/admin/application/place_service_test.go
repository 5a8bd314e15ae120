package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	admindomain "github.com/sngm3741/menu-recommendation/api/internal/admin/domain"
	placedomain "github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

type memCatalog struct {
	mu        sync.Mutex
	places    map[string]placedomain.Place
	listArgs  []int
	detailErr error
}

func newMemCatalog(places ...placedomain.Place) *memCatalog {
	c := &memCatalog{places: make(map[string]placedomain.Place)}
	for _, p := range places {
		c.places[p.ID] = p
	}
	return c
}

func (c *memCatalog) List(_ context.Context, _ string, limit, offset int) ([]placedomain.Place, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listArgs = []int{limit, offset}
	items := make([]placedomain.Place, 0, len(c.places))
	for _, p := range c.places {
		items = append(items, p)
	}
	return items, int64(len(items)), nil
}

func (c *memCatalog) Details(_ context.Context, placeID string) (*placedomain.Place, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detailErr != nil {
		return nil, c.detailErr
	}
	p, ok := c.places[placeID]
	if !ok {
		return nil, placedomain.NewProviderError("places", placedomain.StatusNotFound, errors.New("not found"))
	}
	return &p, nil
}

func (c *memCatalog) Upsert(_ context.Context, place placedomain.Place) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.places[place.ID] = place
	return nil
}

func input(name string) admindomain.PlaceInput {
	return admindomain.PlaceInput{
		Name:  name,
		Lat:   37.5665,
		Lng:   126.978,
		Types: []string{"cafe"},
	}
}

func TestCreateGeneratesID(t *testing.T) {
	catalog := newMemCatalog()
	svc := NewPlaceService(catalog).(*placeService)
	svc.newID = func() string { return "generated" }

	place, err := svc.Create(context.Background(), UpsertPlaceCommand{Place: input("Cafe")})
	require.NoError(t, err)
	assert.Equal(t, "generated", place.ID)
	assert.Contains(t, catalog.places, "generated")
}

func TestCreateRejectsExistingID(t *testing.T) {
	catalog := newMemCatalog(placedomain.Place{ID: "p1", Name: "Old"})
	svc := NewPlaceService(catalog)

	_, err := svc.Create(context.Background(), UpsertPlaceCommand{ID: "p1", Place: input("New")})
	require.ErrorIs(t, err, ErrPlaceExists)
	assert.Equal(t, "Old", catalog.places["p1"].Name)
}

func TestCreateSurfacesLookupFailure(t *testing.T) {
	catalog := newMemCatalog()
	catalog.detailErr = placedomain.NewProviderError("places", placedomain.StatusUnavailable, errors.New("down"))
	svc := NewPlaceService(catalog)

	_, err := svc.Create(context.Background(), UpsertPlaceCommand{ID: "p1", Place: input("New")})
	status, ok := placedomain.ProviderStatusOf(err)
	require.True(t, ok)
	assert.Equal(t, placedomain.StatusUnavailable, status)
	assert.Empty(t, catalog.places)
}

func TestCreateValidates(t *testing.T) {
	svc := NewPlaceService(newMemCatalog())

	_, err := svc.Create(context.Background(), UpsertPlaceCommand{ID: "bad/id", Place: input("Cafe")})
	assert.True(t, placedomain.IsValidation(err))

	_, err = svc.Create(context.Background(), UpsertPlaceCommand{Place: input("")})
	assert.True(t, placedomain.IsValidation(err))
}

func TestUpdateKeepsReviews(t *testing.T) {
	reviews := []placedomain.PlaceReview{{AuthorName: "lee", Rating: 4}}
	catalog := newMemCatalog(placedomain.Place{ID: "p1", Name: "Old", Reviews: reviews})
	svc := NewPlaceService(catalog)

	place, err := svc.Update(context.Background(), "p1", UpsertPlaceCommand{Place: input("Renamed")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", place.Name)
	assert.Equal(t, reviews, catalog.places["p1"].Reviews)
}

func TestUpdateMissingPlace(t *testing.T) {
	svc := NewPlaceService(newMemCatalog())

	_, err := svc.Update(context.Background(), "nope", UpsertPlaceCommand{Place: input("Renamed")})
	status, ok := placedomain.ProviderStatusOf(err)
	require.True(t, ok)
	assert.Equal(t, placedomain.StatusNotFound, status)
}

func TestListClampsPaging(t *testing.T) {
	catalog := newMemCatalog(placedomain.Place{ID: "p1"})
	svc := NewPlaceService(catalog)

	page, err := svc.List(context.Background(), PlaceFilter{}, Paging{Limit: 500, Offset: -3})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, []int{maxPageSize, 0}, catalog.listArgs)

	_, err = svc.List(context.Background(), PlaceFilter{Keyword: "x"}, Paging{})
	require.NoError(t, err)
	assert.Equal(t, []int{defaultPageSize, 0}, catalog.listArgs)
}
