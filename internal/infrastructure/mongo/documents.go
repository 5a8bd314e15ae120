package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sngm3741/menu-recommendation/api/internal/geo"
	"github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

// providerName is the label used for document store failures.
const providerName = "documents"

// LocationDocument は緯度経度の埋め込みドキュメント。
type LocationDocument struct {
	Lat float64 `bson:"lat"`
	Lng float64 `bson:"lng"`
}

// FavoriteDocument は MongoDB 上でのお気に入りスキーマ。(userId, placeId) はユニーク。
type FavoriteDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	UserID    string             `bson:"userId"`
	PlaceID   string             `bson:"placeId"`
	Name      string             `bson:"name"`
	Location  LocationDocument   `bson:"location"`
	Address   string             `bson:"address,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// VisitDocument は来店記録 1 件分。同一店舗への複数回の来店を許す。
type VisitDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	UserID    string             `bson:"userId"`
	PlaceID   string             `bson:"placeId"`
	Name      string             `bson:"name"`
	Location  LocationDocument   `bson:"location"`
	Address   string             `bson:"address,omitempty"`
	VisitedAt time.Time          `bson:"visitedAt"`
}

// RevokedTokenDocument records a signed-out token until expiresAt. A TTL index removes it afterwards.
type RevokedTokenDocument struct {
	TokenID   string    `bson:"_id"`
	UserID    string    `bson:"userId,omitempty"`
	RevokedAt time.Time `bson:"revokedAt"`
	ExpiresAt time.Time `bson:"expiresAt"`
}

func locationDocument(c geo.Coordinate) LocationDocument {
	return LocationDocument{Lat: c.Lat, Lng: c.Lng}
}

func (d LocationDocument) coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: d.Lat, Lng: d.Lng}
}

func mapFavoriteDocument(doc FavoriteDocument) domain.FavoriteEntry {
	return domain.FavoriteEntry{
		RecordID:  doc.ID.Hex(),
		UserID:    doc.UserID,
		PlaceID:   doc.PlaceID,
		Name:      doc.Name,
		Location:  doc.Location.coordinate(),
		Address:   doc.Address,
		CreatedAt: doc.CreatedAt,
	}
}

func newFavoriteDocument(entry domain.FavoriteEntry) FavoriteDocument {
	return FavoriteDocument{
		ID:        primitive.NewObjectID(),
		UserID:    entry.UserID,
		PlaceID:   entry.PlaceID,
		Name:      entry.Name,
		Location:  locationDocument(entry.Location),
		Address:   entry.Address,
		CreatedAt: entry.CreatedAt,
	}
}

func mapVisitDocument(doc VisitDocument) domain.VisitEntry {
	return domain.VisitEntry{
		RecordID:  doc.ID.Hex(),
		UserID:    doc.UserID,
		PlaceID:   doc.PlaceID,
		Name:      doc.Name,
		Location:  doc.Location.coordinate(),
		Address:   doc.Address,
		VisitedAt: doc.VisitedAt,
	}
}

func newVisitDocument(entry domain.VisitEntry) VisitDocument {
	return VisitDocument{
		ID:        primitive.NewObjectID(),
		UserID:    entry.UserID,
		PlaceID:   entry.PlaceID,
		Name:      entry.Name,
		Location:  locationDocument(entry.Location),
		Address:   entry.Address,
		VisitedAt: entry.VisitedAt,
	}
}

// storeError はドライバのエラーを ProviderError に変換する。
func storeError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), mongo.IsTimeout(err), mongo.IsNetworkError(err):
		return domain.NewProviderError(providerName, domain.StatusUnavailable, err)
	case errors.Is(err, mongo.ErrNoDocuments):
		return domain.NewProviderError(providerName, domain.StatusNotFound, err)
	default:
		return domain.NewProviderError(providerName, domain.StatusUnknown, err)
	}
}
