package domain

import (
	"github.com/sngm3741/menu-recommendation/api/internal/geo"
	placedomain "github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

// CatalogPlace aggregates the fields an operator may edit on a place in the search index.
// Reviews are not editable and are carried over from the stored document.
type CatalogPlace struct {
	ID             string
	Name           PlaceName
	Location       geo.Coordinate
	Address        Address
	Rating         *Rating
	ReviewCount    *ReviewCount
	Types          PlaceTypeList
	PrimaryType    PlaceType
	OpeningPeriods []placedomain.Period
	PhotoRef       string
	MapsURI        URL
}

// PlaceInput is the unvalidated form of CatalogPlace.
type PlaceInput struct {
	Name           string
	Lat            float64
	Lng            float64
	Address        string
	Rating         *float64
	ReviewCount    *int
	Types          []string
	PrimaryType    string
	OpeningPeriods []PeriodInput
	PhotoRef       string
	MapsURI        string
}

// NewCatalogPlace validates input. primaryType が空の場合は types の先頭を使う。
func NewCatalogPlace(id string, input PlaceInput) (*CatalogPlace, error) {
	name, err := NewPlaceName(input.Name)
	if err != nil {
		return nil, err
	}
	location, err := NewLocation(input.Lat, input.Lng)
	if err != nil {
		return nil, err
	}
	address, err := NewAddress(input.Address)
	if err != nil {
		return nil, err
	}
	rating, err := NewRating(input.Rating)
	if err != nil {
		return nil, err
	}
	reviewCount, err := NewReviewCount(input.ReviewCount)
	if err != nil {
		return nil, err
	}
	types, err := NewPlaceTypeList(input.Types)
	if err != nil {
		return nil, err
	}
	primary := types[0]
	if input.PrimaryType != "" {
		if primary, err = NewPlaceType(input.PrimaryType); err != nil {
			return nil, err
		}
		if !types.Contains(primary) {
			return nil, invalid("primaryType", "primaryType must be one of types")
		}
	}
	periods, err := NewPeriods(input.OpeningPeriods)
	if err != nil {
		return nil, err
	}
	mapsURI, err := NewURL(input.MapsURI)
	if err != nil {
		return nil, err
	}

	return &CatalogPlace{
		ID:             id,
		Name:           name,
		Location:       location,
		Address:        address,
		Rating:         rating,
		ReviewCount:    reviewCount,
		Types:          types,
		PrimaryType:    primary,
		OpeningPeriods: periods,
		PhotoRef:       input.PhotoRef,
		MapsURI:        mapsURI,
	}, nil
}

// ToPlace converts the aggregate into the read-side Place, attaching reviews kept from the index.
func (p CatalogPlace) ToPlace(reviews []placedomain.PlaceReview) placedomain.Place {
	return placedomain.Place{
		ID:             p.ID,
		Name:           p.Name.String(),
		Location:       p.Location,
		Address:        string(p.Address),
		Rating:         p.Rating.Float64Ptr(),
		ReviewCount:    p.ReviewCount.IntPtr(),
		Types:          p.Types.Strings(),
		PrimaryType:    string(p.PrimaryType),
		OpeningPeriods: p.OpeningPeriods,
		PhotoRef:       p.PhotoRef,
		MapsURI:        p.MapsURI.String(),
		Reviews:        reviews,
	}
}
