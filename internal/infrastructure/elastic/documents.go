package elastic

import (
	"time"

	es "github.com/olivere/elastic/v7"

	"github.com/sngm3741/menu-recommendation/api/internal/geo"
	"github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

// placeMapping is the index body used by EnsureIndex.
const placeMapping = `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "max_result_window": 20000
  },
  "mappings": {
    "properties": {
      "id":             {"type": "keyword"},
      "name":           {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "address":        {"type": "text"},
      "location":       {"type": "geo_point"},
      "rating":         {"type": "float"},
      "reviewCount":    {"type": "integer"},
      "types":          {"type": "keyword"},
      "primaryType":    {"type": "keyword"},
      "openingPeriods": {"type": "object", "enabled": false},
      "photoRef":       {"type": "keyword", "index": false},
      "mapsUri":        {"type": "keyword", "index": false},
      "reviews":        {"type": "object", "enabled": false},
      "updatedAt":      {"type": "date"}
    }
  }
}`

// PlaceDocument は Elasticsearch 上の店舗スキーマ。
type PlaceDocument struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Address        string           `json:"address,omitempty"`
	Location       es.GeoPoint      `json:"location"`
	Rating         *float64         `json:"rating,omitempty"`
	ReviewCount    *int             `json:"reviewCount,omitempty"`
	Types          []string         `json:"types,omitempty"`
	PrimaryType    string           `json:"primaryType,omitempty"`
	OpeningPeriods []PeriodDocument `json:"openingPeriods,omitempty"`
	PhotoRef       string           `json:"photoRef,omitempty"`
	MapsURI        string           `json:"mapsUri,omitempty"`
	Reviews        []ReviewDocument `json:"reviews,omitempty"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// PeriodDocument stores one opening period. A missing close means open around the clock.
type PeriodDocument struct {
	Open  DayTimeDocument  `json:"open"`
	Close *DayTimeDocument `json:"close,omitempty"`
}

type DayTimeDocument struct {
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

type ReviewDocument struct {
	AuthorName   string     `json:"authorName"`
	Rating       int        `json:"rating"`
	Text         string     `json:"text,omitempty"`
	RelativeTime string     `json:"relativeTime,omitempty"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
}

func mapPlaceDocument(doc PlaceDocument) domain.Place {
	place := domain.Place{
		ID:          doc.ID,
		Name:        doc.Name,
		Address:     doc.Address,
		Location:    geo.Coordinate{Lat: doc.Location.Lat, Lng: doc.Location.Lon},
		Rating:      doc.Rating,
		ReviewCount: doc.ReviewCount,
		Types:       append([]string{}, doc.Types...),
		PrimaryType: doc.PrimaryType,
		PhotoRef:    doc.PhotoRef,
		MapsURI:     doc.MapsURI,
	}
	for _, p := range doc.OpeningPeriods {
		period := domain.Period{Open: domain.DayTime{Day: p.Open.Day, Hour: p.Open.Hour, Minute: p.Open.Minute}}
		if p.Close != nil {
			period.Close = &domain.DayTime{Day: p.Close.Day, Hour: p.Close.Hour, Minute: p.Close.Minute}
		}
		place.OpeningPeriods = append(place.OpeningPeriods, period)
	}
	for _, r := range doc.Reviews {
		place.Reviews = append(place.Reviews, domain.PlaceReview{
			AuthorName:   r.AuthorName,
			Rating:       r.Rating,
			Text:         r.Text,
			RelativeTime: r.RelativeTime,
			PublishedAt:  r.PublishedAt,
		})
	}
	return place
}

// NewPlaceDocument converts a domain place for indexing.
func NewPlaceDocument(place domain.Place, updatedAt time.Time) PlaceDocument {
	doc := PlaceDocument{
		ID:          place.ID,
		Name:        place.Name,
		Address:     place.Address,
		Location:    es.GeoPoint{Lat: place.Location.Lat, Lon: place.Location.Lng},
		Rating:      place.Rating,
		ReviewCount: place.ReviewCount,
		Types:       append([]string{}, place.Types...),
		PrimaryType: place.PrimaryType,
		PhotoRef:    place.PhotoRef,
		MapsURI:     place.MapsURI,
		UpdatedAt:   updatedAt.UTC(),
	}
	for _, p := range place.OpeningPeriods {
		period := PeriodDocument{Open: DayTimeDocument{Day: p.Open.Day, Hour: p.Open.Hour, Minute: p.Open.Minute}}
		if p.Close != nil {
			period.Close = &DayTimeDocument{Day: p.Close.Day, Hour: p.Close.Hour, Minute: p.Close.Minute}
		}
		doc.OpeningPeriods = append(doc.OpeningPeriods, period)
	}
	for _, r := range place.Reviews {
		doc.Reviews = append(doc.Reviews, ReviewDocument{
			AuthorName:   r.AuthorName,
			Rating:       r.Rating,
			Text:         r.Text,
			RelativeTime: r.RelativeTime,
			PublishedAt:  r.PublishedAt,
		})
	}
	return doc
}
