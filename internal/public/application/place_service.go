package application

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sngm3741/menu-recommendation/api/internal/geo"
	"github.com/sngm3741/menu-recommendation/api/internal/metrics"
	"github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

const detailFetchTimeout = 10 * time.Second

// placeQueryService is the concrete implementation of PlaceQueryService.
type placeQueryService struct {
	provider PlaceSearchProvider
	location *time.Location
	now      func() time.Time
	details  singleflight.Group
}

// NewPlaceQueryService creates a new place query service. Open status is evaluated in loc.
func NewPlaceQueryService(provider PlaceSearchProvider, loc *time.Location) PlaceQueryService {
	if loc == nil {
		loc = time.UTC
	}
	return &placeQueryService{provider: provider, location: loc, now: time.Now}
}

func (s *placeQueryService) Nearby(ctx context.Context, query NearbyQuery) ([]domain.ListedPlace, error) {
	if !query.Center.Valid() {
		return nil, &domain.ValidationError{Field: "center", Message: "検索中心の座標が不正です"}
	}
	if query.Reference != nil && !query.Reference.Valid() {
		return nil, &domain.ValidationError{Field: "reference", Message: "現在地の座標が不正です"}
	}
	if query.RadiusMeters <= 0 {
		return nil, &domain.ValidationError{Field: "radius", Message: "検索半径は正の値で指定してください"}
	}

	places, err := s.provider.SearchNearby(ctx, query.Center, query.RadiusMeters, query.CategoryTags)
	if err != nil {
		if status, ok := domain.ProviderStatusOf(err); ok && status == domain.StatusNoResults {
			places = nil
		} else {
			recordProviderError(err)
			return nil, err
		}
	}

	listed := ProcessList(places, ListOptions{
		Reference: query.Reference,
		Filter:    query.Filter,
		Sort:      query.Sort,
		Now:       s.now().In(s.location),
	})
	metrics.ListedPlaces.Observe(float64(len(listed)))
	return listed, nil
}

func (s *placeQueryService) Detail(ctx context.Context, placeID string, reference *geo.Coordinate) (*domain.ListedPlace, error) {
	if placeID == "" {
		return nil, &domain.ValidationError{Field: "placeId", Message: "店舗IDが指定されていません"}
	}

	// 同一店舗への同時リクエストは 1 回の外部呼び出しにまとめる。
	// 共有の呼び出しは最初の呼び出し元のキャンセルに影響されない。
	ch := s.details.DoChan(placeID, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), detailFetchTimeout)
		defer cancel()
		return s.provider.Details(fetchCtx, placeID)
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		recordProviderError(res.Err)
		return nil, res.Err
	}
	place, ok := res.Val.(*domain.Place)
	if !ok || place == nil {
		return nil, domain.NewProviderError("places", domain.StatusNotFound, errors.New("empty details"))
	}

	listed := ProcessList([]domain.Place{*place}, ListOptions{
		Reference: reference,
		Filter:    domain.CategoryAll,
		Now:       s.now().In(s.location),
	})
	return &listed[0], nil
}

func recordProviderError(err error) {
	var perr *domain.ProviderError
	if errors.As(err, &perr) {
		metrics.ProviderErrors.WithLabelValues(perr.Provider, string(perr.Status)).Inc()
		return
	}
	metrics.ProviderErrors.WithLabelValues("unknown", string(domain.StatusUnknown)).Inc()
}
