package domain

import (
	"time"

	"github.com/sngm3741/menu-recommendation/api/internal/geo"
)

// FavoriteEntry is one saved place of a user. (UserID, PlaceID) is unique.
type FavoriteEntry struct {
	RecordID  string
	UserID    string
	PlaceID   string
	Name      string
	Location  geo.Coordinate
	Address   string
	CreatedAt time.Time
}

// VisitEntry is one check-in. Multiple entries per place are allowed.
type VisitEntry struct {
	RecordID  string
	UserID    string
	PlaceID   string
	Name      string
	Location  geo.Coordinate
	Address   string
	VisitedAt time.Time
}

// PlaceRef は お気に入り登録・チェックインで保存する店舗の最小情報。
type PlaceRef struct {
	PlaceID  string
	Name     string
	Location geo.Coordinate
	Address  string
}

// Validate rejects references missing the fields the store needs.
func (r PlaceRef) Validate() error {
	if r.PlaceID == "" {
		return &ValidationError{Field: "placeId", Message: "required"}
	}
	if r.Name == "" {
		return &ValidationError{Field: "name", Message: "required"}
	}
	if !r.Location.Valid() {
		return &ValidationError{Field: "location", Message: "out of range"}
	}
	return nil
}

// RefOf builds a PlaceRef from a search result.
func RefOf(p Place) PlaceRef {
	return PlaceRef{PlaceID: p.ID, Name: p.Name, Location: p.Location, Address: p.Address}
}
