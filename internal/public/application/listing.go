package application

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sngm3741/menu-recommendation/api/internal/geo"
	"github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

// SortKey selects the ordering of the processed list.
type SortKey string

const (
	SortDistance    SortKey = "DISTANCE"
	SortRating      SortKey = "RATING"
	SortReviewCount SortKey = "REVIEW_COUNT"
)

// ParseSortKey は空文字を DISTANCE として扱う。
func ParseSortKey(raw string) (SortKey, error) {
	switch key := SortKey(strings.ToUpper(strings.TrimSpace(raw))); key {
	case "":
		return SortDistance, nil
	case SortDistance, SortRating, SortReviewCount:
		return key, nil
	}
	return "", &domain.ValidationError{Field: "sort", Message: "must be one of DISTANCE, RATING, REVIEW_COUNT"}
}

// ListOptions are the inputs of ProcessList besides the raw places.
type ListOptions struct {
	Reference *geo.Coordinate
	Filter    domain.CategoryFilter
	Sort      SortKey
	// Now is the local time used for open status. Zero leaves every status unknown.
	Now time.Time
}

// ProcessList は検索結果から表示用リストを導出する純粋関数。
// 全件に距離・カテゴリを付与してからフィルタし、安定ソートする。入力スライスと要素は変更しない。
func ProcessList(places []domain.Place, opts ListOptions) []domain.ListedPlace {
	annotated := make([]domain.ListedPlace, 0, len(places))
	for _, place := range places {
		annotated = append(annotated, annotate(place, opts.Reference, opts.Now))
	}

	filter := opts.Filter
	if filter == "" {
		filter = domain.CategoryAll
	}
	filtered := make([]domain.ListedPlace, 0, len(annotated))
	for _, item := range annotated {
		if filter.Matches(item.Category) {
			filtered = append(filtered, item)
		}
	}

	sortListed(filtered, opts.Sort)
	return filtered
}

func annotate(place domain.Place, reference *geo.Coordinate, now time.Time) domain.ListedPlace {
	item := domain.ListedPlace{
		Place:      place.Clone(),
		DistanceKm: math.Inf(1),
		Category:   domain.Classify(place.Types, place.PrimaryType),
		OpenStatus: domain.OpenStatus{State: domain.OpenStateUnknown},
	}
	if reference != nil {
		item.DistanceKm = geo.DistanceKm(*reference, place.Location)
		item.DistanceDisplay = geo.FormatDistance(item.DistanceKm)
	}
	if !now.IsZero() {
		item.OpenStatus = domain.EvaluateOpenStatus(place.OpeningPeriods, now)
	}
	return item
}

func sortListed(items []domain.ListedPlace, key SortKey) {
	switch key {
	case SortRating:
		sort.SliceStable(items, func(i, j int) bool {
			return floatOrZero(items[i].Rating) > floatOrZero(items[j].Rating)
		})
	case SortReviewCount:
		sort.SliceStable(items, func(i, j int) bool {
			return intOrZero(items[i].ReviewCount) > intOrZero(items[j].ReviewCount)
		})
	default:
		sort.SliceStable(items, func(i, j int) bool {
			return distanceKey(items[i].DistanceKm) < distanceKey(items[j].DistanceKm)
		})
	}
}

// NaN は比較不能なので +Inf と同じく末尾へ送る。
func distanceKey(km float64) float64 {
	if math.IsNaN(km) {
		return math.Inf(1)
	}
	return km
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
