package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/menu-recommendation/api/internal/geo"
	"github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

func TestFavoriteServiceAddIsIdempotent(t *testing.T) {
	repo := &memFavoriteRepo{}
	svc := NewFavoriteService(repo)
	ctx := context.Background()

	first, created, err := svc.Add(ctx, "u1", placeRef("p1", "을지로 국수"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "fav-1", first.RecordID)

	second, created, err := svc.Add(ctx, "u1", placeRef("p1", "을지로 국수"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.RecordID, second.RecordID)
	assert.Equal(t, 1, repo.creates)
}

func TestFavoriteServiceRejectsAnonymousCaller(t *testing.T) {
	svc := NewFavoriteService(&memFavoriteRepo{})

	_, _, err := svc.Add(context.Background(), "", placeRef("p1", "x"))
	assert.True(t, domain.IsValidation(err))

	err = svc.Remove(context.Background(), " ", "p1")
	assert.True(t, domain.IsValidation(err))
}

func TestFavoriteServiceAddValidatesReference(t *testing.T) {
	svc := NewFavoriteService(&memFavoriteRepo{})

	_, _, err := svc.Add(context.Background(), "u1", domain.PlaceRef{PlaceID: "p1", Name: "x", Location: geo.Coordinate{Lat: 91}})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "location", verr.Field)
}

func TestFavoriteServiceToggle(t *testing.T) {
	repo := &memFavoriteRepo{}
	svc := NewFavoriteService(repo)
	ctx := context.Background()

	res, err := svc.Toggle(ctx, "u1", placeRef("p1", "카페"))
	require.NoError(t, err)
	assert.Equal(t, ToggleAdded, res.Action)

	fav, err := svc.IsFavorite(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.True(t, fav)

	res, err = svc.Toggle(ctx, "u1", placeRef("p1", "카페"))
	require.NoError(t, err)
	assert.Equal(t, ToggleRemoved, res.Action)
	assert.Equal(t, "fav-1", res.RecordID)

	fav, err = svc.IsFavorite(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.False(t, fav)
}

func TestFavoriteServiceListWithoutUserIsEmpty(t *testing.T) {
	items, err := NewFavoriteService(&memFavoriteRepo{}).List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
}

func TestVisitServiceHistoryNewestFirst(t *testing.T) {
	repo := &memVisitRepo{}
	svc := NewVisitService(repo).(*visitService)
	base := time.Date(2026, 10, 12, 12, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Hour)
	}
	ctx := context.Background()

	for _, id := range []string{"p1", "p2", "p1"} {
		_, err := svc.Record(ctx, "u1", placeRef(id, "식당 "+id))
		require.NoError(t, err)
	}

	history, err := svc.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "visit-3", history[0].RecordID)
	assert.Equal(t, "visit-1", history[2].RecordID)
	assert.True(t, history[0].VisitedAt.After(history[1].VisitedAt))
}

func TestVisitServicePropagatesStoreError(t *testing.T) {
	svc := NewVisitService(&memVisitRepo{err: errors.New("down")})

	_, err := svc.History(context.Background(), "u1")
	assert.Error(t, err)
}

func TestPlaceQueryServiceNearby(t *testing.T) {
	provider := &stubPlaces{places: samplePlaces()}
	svc := NewPlaceQueryService(provider, time.UTC)

	got, err := svc.Nearby(context.Background(), NearbyQuery{
		Center:       cityHall,
		Reference:    &cityHall,
		RadiusMeters: 1000,
		CategoryTags: []string{"restaurant"},
		Filter:       domain.CategoryAll,
	})
	require.NoError(t, err)
	assert.Len(t, got, len(samplePlaces()))
	assert.Equal(t, 1000, provider.lastRadius)
	assert.Equal(t, []string{"restaurant"}, provider.lastTags)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].DistanceKm, got[i].DistanceKm)
	}
}

func TestPlaceQueryServiceZeroResultsIsEmptySuccess(t *testing.T) {
	provider := &stubPlaces{searchErr: domain.NewProviderError("places", domain.StatusNoResults, nil)}
	svc := NewPlaceQueryService(provider, nil)

	got, err := svc.Nearby(context.Background(), NearbyQuery{Center: cityHall, RadiusMeters: 500})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPlaceQueryServiceSurfacesProviderStatus(t *testing.T) {
	provider := &stubPlaces{searchErr: domain.NewProviderError("places", domain.StatusQuotaExceeded, nil)}
	svc := NewPlaceQueryService(provider, nil)

	_, err := svc.Nearby(context.Background(), NearbyQuery{Center: cityHall, RadiusMeters: 500})
	status, ok := domain.ProviderStatusOf(err)
	require.True(t, ok)
	assert.Equal(t, domain.StatusQuotaExceeded, status)
}

func TestPlaceQueryServiceValidatesQuery(t *testing.T) {
	svc := NewPlaceQueryService(&stubPlaces{}, nil)
	ctx := context.Background()

	_, err := svc.Nearby(ctx, NearbyQuery{Center: geo.Coordinate{Lat: 100}, RadiusMeters: 500})
	assert.True(t, domain.IsValidation(err))

	bad := geo.Coordinate{Lng: 200}
	_, err = svc.Nearby(ctx, NearbyQuery{Center: cityHall, Reference: &bad, RadiusMeters: 500})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Nearby(ctx, NearbyQuery{Center: cityHall})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Detail(ctx, "", nil)
	assert.True(t, domain.IsValidation(err))
}

func TestPlaceQueryServiceDetail(t *testing.T) {
	places := samplePlaces()
	provider := &stubPlaces{detail: &places[0]}
	svc := NewPlaceQueryService(provider, nil)

	got, err := svc.Detail(context.Background(), places[0].ID, &cityHall)
	require.NoError(t, err)
	assert.Equal(t, places[0].ID, got.ID)
	assert.True(t, got.HasDistance())

	_, err = svc.Detail(context.Background(), "missing", nil)
	status, ok := domain.ProviderStatusOf(err)
	require.True(t, ok)
	assert.Equal(t, domain.StatusNotFound, status)
}

func TestFavoriteSessionsRemoveAndUndo(t *testing.T) {
	repo := &memFavoriteRepo{}
	favorites := NewFavoriteService(repo)
	ctx := context.Background()
	for _, id := range []string{"p1", "p2"} {
		_, _, err := favorites.Add(ctx, "u1", placeRef(id, "식당 "+id))
		require.NoError(t, err)
	}

	sched := &fakeScheduler{}
	sessions := NewFavoriteSessions(SessionsConfig{Favorites: favorites, Scheduler: sched})
	defer sessions.CloseAll()

	// 一覧を開く前の削除でもストアから読み直して処理する。
	pending, err := sessions.Remove(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", pending.Entry.PlaceID)

	view, err := sessions.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, placeIDs(view.Items))
	require.NotNil(t, view.Pending)
	assert.Equal(t, "p1", view.Pending.Entry.PlaceID)

	restored, items := sessions.Undo("u1")
	assert.True(t, restored)
	assert.Equal(t, []string{"p2", "p1"}, placeIDs(items))
	assert.Empty(t, repo.Deletes())
}

func TestFavoriteSessionsCommitsAfterWindow(t *testing.T) {
	repo := &memFavoriteRepo{}
	favorites := NewFavoriteService(repo)
	ctx := context.Background()
	_, _, err := favorites.Add(ctx, "u1", placeRef("p1", "식당"))
	require.NoError(t, err)

	sched := &fakeScheduler{}
	sessions := NewFavoriteSessions(SessionsConfig{Favorites: favorites, Scheduler: sched})
	defer sessions.CloseAll()

	_, err = sessions.Remove(ctx, "u1", "p1")
	require.NoError(t, err)
	sched.fire(0)

	assert.Equal(t, []string{"u1/p1"}, repo.Deletes())
	view, err := sessions.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Nil(t, view.Pending)
}

func TestFavoriteSessionsListReadFailure(t *testing.T) {
	repo := &memFavoriteRepo{}
	favorites := NewFavoriteService(repo)
	ctx := context.Background()
	_, _, err := favorites.Add(ctx, "u1", placeRef("p1", "식당"))
	require.NoError(t, err)

	sessions := NewFavoriteSessions(SessionsConfig{Favorites: favorites, Scheduler: &fakeScheduler{}})
	defer sessions.CloseAll()

	view, err := sessions.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)

	repo.setListErr(errors.New("timeout"))
	view, err = sessions.List(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, view.ReadFailed)
	assert.Len(t, view.Items, 1)
}

func TestFavoriteSessionsCloseDropsPending(t *testing.T) {
	repo := &memFavoriteRepo{}
	favorites := NewFavoriteService(repo)
	ctx := context.Background()
	_, _, err := favorites.Add(ctx, "u1", placeRef("p1", "식당"))
	require.NoError(t, err)

	sched := &fakeScheduler{}
	sessions := NewFavoriteSessions(SessionsConfig{Favorites: favorites, Scheduler: sched})

	_, err = sessions.Remove(ctx, "u1", "p1")
	require.NoError(t, err)
	sessions.Close("u1")
	sched.fire(0)

	assert.Empty(t, repo.Deletes())
	restored, items := sessions.Undo("u1")
	assert.False(t, restored)
	assert.Empty(t, items)
}

func TestFavoriteSessionsReAddCancelsPendingRemoval(t *testing.T) {
	repo := &memFavoriteRepo{}
	sched := &fakeScheduler{}
	sessions := NewFavoriteSessions(SessionsConfig{Favorites: NewFavoriteService(repo), Scheduler: sched})
	defer sessions.CloseAll()
	ctx := context.Background()

	_, created, err := sessions.Add(ctx, "u1", placeRef("x", "식당 x"))
	require.NoError(t, err)
	assert.True(t, created)
	_, err = sessions.Remove(ctx, "u1", "x")
	require.NoError(t, err)

	fav, err := sessions.IsFavorite(ctx, "u1", "x")
	require.NoError(t, err)
	assert.False(t, fav)

	entry, created, err := sessions.Add(ctx, "u1", placeRef("x", "식당 x"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "x", entry.PlaceID)

	// 取り消し済みのタイマーが発火しても削除されない。
	sched.fire(0)
	assert.Empty(t, repo.Deletes())

	fav, err = sessions.IsFavorite(ctx, "u1", "x")
	require.NoError(t, err)
	assert.True(t, fav)
	view, err := sessions.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, placeIDs(view.Items))
	assert.Nil(t, view.Pending)
}

func TestFavoriteSessionsToggleDuringUndoWindowAdds(t *testing.T) {
	repo := &memFavoriteRepo{}
	sched := &fakeScheduler{}
	sessions := NewFavoriteSessions(SessionsConfig{Favorites: NewFavoriteService(repo), Scheduler: sched})
	defer sessions.CloseAll()
	ctx := context.Background()

	_, _, err := sessions.Add(ctx, "u1", placeRef("y", "식당 y"))
	require.NoError(t, err)
	_, err = sessions.Remove(ctx, "u1", "y")
	require.NoError(t, err)

	result, err := sessions.Toggle(ctx, "u1", placeRef("y", "식당 y"))
	require.NoError(t, err)
	assert.Equal(t, ToggleAdded, result.Action)
	assert.NotEmpty(t, result.RecordID)

	sched.fire(0)
	assert.Empty(t, repo.Deletes())
	fav, err := sessions.IsFavorite(ctx, "u1", "y")
	require.NoError(t, err)
	assert.True(t, fav)

	// 表示中のお気に入りは従来どおり削除される。
	result, err = sessions.Toggle(ctx, "u1", placeRef("y", "식당 y"))
	require.NoError(t, err)
	assert.Equal(t, ToggleRemoved, result.Action)
	assert.Equal(t, []string{"u1/y"}, repo.Deletes())
}

func TestFavoriteSessionsRemoveUnknownPlace(t *testing.T) {
	sessions := NewFavoriteSessions(SessionsConfig{Favorites: NewFavoriteService(&memFavoriteRepo{}), Scheduler: &fakeScheduler{}})
	defer sessions.CloseAll()

	_, err := sessions.Remove(context.Background(), "u1", "nope")
	assert.ErrorIs(t, err, ErrFavoriteNotListed)
}

func TestPlaceQueryServiceDetailSharesInflightCalls(t *testing.T) {
	places := samplePlaces()
	provider := &stubPlaces{detail: &places[1]}
	svc := NewPlaceQueryService(provider, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Detail(context.Background(), places[1].ID, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	provider.mu.Lock()
	defer provider.mu.Unlock()
	assert.GreaterOrEqual(t, provider.detailCalls, 1)
	assert.LessOrEqual(t, provider.detailCalls, 4)
}

func TestPlaceQueryServiceDetailCancelledCallerDoesNotFailOthers(t *testing.T) {
	places := samplePlaces()
	provider := &stubPlaces{detail: &places[1], gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	svc := NewPlaceQueryService(provider, nil)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := svc.Detail(ctx, places[1].ID, nil)
		first <- err
	}()
	<-provider.entered

	second := make(chan error, 1)
	go func() {
		_, err := svc.Detail(context.Background(), places[1].ID, nil)
		second <- err
	}()

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)
	close(provider.gate)
	assert.NoError(t, <-second)
}
