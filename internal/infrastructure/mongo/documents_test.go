package mongo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sngm3741/menu-recommendation/api/internal/geo"
	"github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

func TestFavoriteDocumentMapping(t *testing.T) {
	createdAt := time.Date(2026, 10, 1, 3, 0, 0, 0, time.UTC)
	entry := domain.FavoriteEntry{
		UserID:    "u1",
		PlaceID:   "ChIJ123",
		Name:      "을지면옥",
		Location:  geo.Coordinate{Lat: 37.566, Lng: 126.991},
		Address:   "서울 중구",
		CreatedAt: createdAt,
	}

	doc := newFavoriteDocument(entry)
	assert.False(t, doc.ID.IsZero())

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var decoded bson.M
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	assert.Equal(t, "u1", decoded["userId"])
	assert.Equal(t, "ChIJ123", decoded["placeId"])
	assert.Contains(t, decoded, "location")

	back := mapFavoriteDocument(doc)
	assert.Equal(t, doc.ID.Hex(), back.RecordID)
	back.RecordID = ""
	assert.Equal(t, entry, back)
}

func TestVisitDocumentMapping(t *testing.T) {
	entry := domain.VisitEntry{
		UserID:    "u1",
		PlaceID:   "p1",
		Name:      "카페",
		Location:  geo.Coordinate{Lat: 37.5, Lng: 127.0},
		VisitedAt: time.Date(2026, 10, 2, 12, 30, 0, 0, time.UTC),
	}
	doc := newVisitDocument(entry)
	back := mapVisitDocument(doc)
	assert.Equal(t, doc.ID.Hex(), back.RecordID)
	back.RecordID = ""
	assert.Equal(t, entry, back)
}

func TestStoreErrorClassification(t *testing.T) {
	assert.NoError(t, storeError(nil))

	status, ok := domain.ProviderStatusOf(storeError(fmt.Errorf("find: %w", context.DeadlineExceeded)))
	require.True(t, ok)
	assert.Equal(t, domain.StatusUnavailable, status)

	status, _ = domain.ProviderStatusOf(storeError(mongo.ErrNoDocuments))
	assert.Equal(t, domain.StatusNotFound, status)

	boom := errors.New("boom")
	err := storeError(boom)
	status, _ = domain.ProviderStatusOf(err)
	assert.Equal(t, domain.StatusUnknown, status)
	assert.ErrorIs(t, err, boom)
}
