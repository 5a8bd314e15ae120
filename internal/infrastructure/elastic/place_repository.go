// Package elastic implements the place search provider and the place catalog on Elasticsearch.
package elastic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	es "github.com/olivere/elastic/v7"

	"github.com/sngm3741/menu-recommendation/api/internal/geo"
	"github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

const (
	providerName = "places"
	// maxNearbyResults matches what the nearby search ever shows on one map.
	maxNearbyResults = 60
)

// NewClient connects to a single node without sniffing, which suits a container network.
func NewClient(url string, logger *log.Logger) (*es.Client, error) {
	opts := []es.ClientOptionFunc{
		es.SetURL(url),
		es.SetSniff(false),
		es.SetHealthcheckInterval(30 * time.Second),
	}
	if logger != nil {
		opts = append(opts, es.SetErrorLog(logger))
	}
	client, err := es.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch クライアントの作成に失敗: %w", err)
	}
	return client, nil
}

// PlaceRepository implements application.PlaceSearchProvider and the admin catalog store.
type PlaceRepository struct {
	client *es.Client
	index  string
	now    func() time.Time
}

// NewPlaceRepository creates a new Elasticsearch-backed place repository.
func NewPlaceRepository(client *es.Client, index string) *PlaceRepository {
	return &PlaceRepository{client: client, index: index, now: time.Now}
}

// EnsureIndex creates the index with the geo_point mapping when it does not exist.
func (r *PlaceRepository) EnsureIndex(ctx context.Context) error {
	exists, err := r.client.IndexExists(r.index).Do(ctx)
	if err != nil {
		return classify(err)
	}
	if exists {
		return nil
	}
	res, err := r.client.CreateIndex(r.index).BodyString(placeMapping).Do(ctx)
	if err != nil {
		return classify(err)
	}
	if !res.Acknowledged {
		return fmt.Errorf("インデックス %s の作成が確認できませんでした", r.index)
	}
	return nil
}

// SearchNearby は中心から radiusMeters 以内で categoryTags のいずれかを持つ店舗を近い順に返す。
// インデックスが存在しない場合は ZERO_RESULTS として扱う。
func (r *PlaceRepository) SearchNearby(ctx context.Context, center geo.Coordinate, radiusMeters int, categoryTags []string) ([]domain.Place, error) {
	query := es.NewBoolQuery().Filter(
		es.NewGeoDistanceQuery("location").
			Point(center.Lat, center.Lng).
			Distance(fmt.Sprintf("%dm", radiusMeters)),
	)
	if len(categoryTags) > 0 {
		values := make([]any, 0, len(categoryTags))
		for _, tag := range categoryTags {
			values = append(values, tag)
		}
		query = query.Filter(es.NewTermsQuery("types", values...))
	}

	res, err := r.client.Search().
		Index(r.index).
		Query(query).
		SortBy(es.NewGeoDistanceSort("location").
			Point(center.Lat, center.Lng).
			Asc().
			Unit("m").
			DistanceType("arc")).
		Size(maxNearbyResults).
		Do(ctx)
	if err != nil {
		if es.IsNotFound(err) {
			return nil, domain.NewProviderError(providerName, domain.StatusNoResults, err)
		}
		return nil, classify(err)
	}

	return decodeHits(res), nil
}

// Details returns one place or a NOT_FOUND ProviderError.
func (r *PlaceRepository) Details(ctx context.Context, placeID string) (*domain.Place, error) {
	res, err := r.client.Get().Index(r.index).Id(placeID).Do(ctx)
	if err != nil {
		return nil, classify(err)
	}
	if !res.Found || res.Source == nil {
		return nil, domain.NewProviderError(providerName, domain.StatusNotFound, fmt.Errorf("place %q", placeID))
	}
	var doc PlaceDocument
	if err := json.Unmarshal(res.Source, &doc); err != nil {
		return nil, domain.NewProviderError(providerName, domain.StatusUnknown, err)
	}
	if doc.ID == "" {
		doc.ID = res.Id
	}
	place := mapPlaceDocument(doc)
	return &place, nil
}

// Upsert indexes a single place and waits until it is searchable.
func (r *PlaceRepository) Upsert(ctx context.Context, place domain.Place) error {
	_, err := r.client.Index().
		Index(r.index).
		Id(place.ID).
		BodyJson(NewPlaceDocument(place, r.now())).
		Refresh("wait_for").
		Do(ctx)
	if err != nil {
		return classify(err)
	}
	return nil
}

// BulkUpsert indexes places in one request and returns how many items failed.
func (r *PlaceRepository) BulkUpsert(ctx context.Context, places []domain.Place) (int, error) {
	if len(places) == 0 {
		return 0, nil
	}
	now := r.now()
	bulk := r.client.Bulk().Refresh("wait_for")
	for _, place := range places {
		bulk = bulk.Add(es.NewBulkIndexRequest().Index(r.index).Id(place.ID).Doc(NewPlaceDocument(place, now)))
	}

	res, err := bulk.Do(ctx)
	if err != nil {
		return len(places), classify(err)
	}
	return len(res.Failed()), nil
}

// List はキーワード(店名・住所)で絞り込み、店名順にページングした結果と総件数を返す。
func (r *PlaceRepository) List(ctx context.Context, keyword string, limit, offset int) ([]domain.Place, int64, error) {
	var query es.Query = es.NewMatchAllQuery()
	if kw := strings.TrimSpace(keyword); kw != "" {
		query = es.NewMultiMatchQuery(kw, "name", "address")
	}

	res, err := r.client.Search().
		Index(r.index).
		Query(query).
		Sort("name.raw", true).
		From(offset).
		Size(limit).
		TrackTotalHits(true).
		Do(ctx)
	if err != nil {
		if es.IsNotFound(err) {
			return []domain.Place{}, 0, nil
		}
		return nil, 0, classify(err)
	}
	return decodeHits(res), res.TotalHits(), nil
}

func decodeHits(res *es.SearchResult) []domain.Place {
	places := make([]domain.Place, 0)
	if res == nil || res.Hits == nil {
		return places
	}
	for _, hit := range res.Hits.Hits {
		var doc PlaceDocument
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			continue
		}
		if doc.ID == "" {
			doc.ID = hit.Id
		}
		places = append(places, mapPlaceDocument(doc))
	}
	return places
}

// classify maps client errors onto the provider status taxonomy.
func classify(err error) error {
	var status domain.ProviderStatus
	switch {
	case es.IsNotFound(err):
		status = domain.StatusNotFound
	case es.IsForbidden(err), es.IsUnauthorized(err):
		status = domain.StatusPermissionDenied
	case es.IsStatusCode(err, http.StatusTooManyRequests):
		status = domain.StatusQuotaExceeded
	case es.IsStatusCode(err, http.StatusBadRequest):
		status = domain.StatusInvalidRequest
	case es.IsConnErr(err), es.IsTimeout(err), errors.Is(err, context.DeadlineExceeded),
		es.IsStatusCode(err, http.StatusServiceUnavailable):
		status = domain.StatusUnavailable
	default:
		status = domain.StatusUnknown
	}
	return domain.NewProviderError(providerName, status, err)
}
