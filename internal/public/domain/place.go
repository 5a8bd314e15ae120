package domain

import (
	"time"

	"github.com/sngm3741/menu-recommendation/api/internal/geo"
)

// Place represents one point of interest returned by the place search provider.
type Place struct {
	ID             string
	Name           string
	Location       geo.Coordinate
	Address        string
	Rating         *float64
	ReviewCount    *int
	Types          []string
	PrimaryType    string
	OpeningPeriods []Period
	PhotoRef       string
	MapsURI        string
	Reviews        []PlaceReview
}

// PlaceReview is a single external review attached to place details.
type PlaceReview struct {
	AuthorName   string
	Rating       int
	Text         string
	RelativeTime string
	PublishedAt  *time.Time
}

// ListedPlace は一覧表示用に距離・カテゴリ・営業状態を付与した Place。
type ListedPlace struct {
	Place
	DistanceKm      float64
	DistanceDisplay string
	Category        Category
	OpenStatus      OpenStatus
}

// HasDistance reports whether a reference location was known when annotating.
func (p ListedPlace) HasDistance() bool {
	return p.DistanceDisplay != ""
}

// Clone returns a deep copy so annotated views never share slices with their source.
func (p Place) Clone() Place {
	out := p
	if p.Rating != nil {
		v := *p.Rating
		out.Rating = &v
	}
	if p.ReviewCount != nil {
		v := *p.ReviewCount
		out.ReviewCount = &v
	}
	out.Types = append([]string(nil), p.Types...)
	out.OpeningPeriods = clonePeriods(p.OpeningPeriods)
	out.Reviews = append([]PlaceReview(nil), p.Reviews...)
	return out
}

func clonePeriods(periods []Period) []Period {
	if periods == nil {
		return nil
	}
	out := make([]Period, len(periods))
	for i, period := range periods {
		out[i] = period
		if period.Close != nil {
			c := *period.Close
			out[i].Close = &c
		}
	}
	return out
}
