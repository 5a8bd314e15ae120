package main

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	placedomain "github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

func TestSampleFixturesAreValid(t *testing.T) {
	f, err := os.Open("places.yaml")
	require.NoError(t, err)
	defer f.Close()

	places, err := loadFixtures(f)
	require.NoError(t, err)
	require.Len(t, places, 5)

	kyoja := places[0]
	assert.Equal(t, "seoul-myeongdong-kyoja", kyoja.ID)
	assert.Equal(t, "korean_restaurant", kyoja.PrimaryType)
	assert.Len(t, kyoja.OpeningPeriods, 7)
	require.Len(t, kyoja.Reviews, 1)
	assert.Equal(t, "김민지", kyoja.Reviews[0].AuthorName)

	ramen := places[4]
	assert.Nil(t, ramen.Rating)
	assert.Empty(t, ramen.OpeningPeriods)
	assert.Equal(t, placedomain.CategoryJapanese, placedomain.Classify(ramen.Types, ramen.PrimaryType))
}

func TestDailyAcrossMidnightClosesNextDay(t *testing.T) {
	periods, err := expandDaily("16:00-02:00")
	require.NoError(t, err)
	require.Len(t, periods, 7)

	saturday := periods[6]
	assert.Equal(t, 6, saturday.OpenDay)
	assert.Equal(t, 0, saturday.Close.Day)
	assert.Equal(t, 2, saturday.Close.Hour)

	sameDay, err := expandDaily("09:00-18:30")
	require.NoError(t, err)
	assert.Equal(t, 3, sameDay[3].Close.Day)
	assert.Equal(t, 30, sameDay[3].Close.Minute)
}

func TestLoadFixturesRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "duplicate id",
			yaml: "places:\n  - {id: a, name: A, lat: 37.5, lng: 127, types: [cafe]}\n  - {id: a, name: B, lat: 37.5, lng: 127, types: [cafe]}\n",
			want: "重複",
		},
		{
			name: "invalid rating",
			yaml: "places:\n  - {id: a, name: A, lat: 37.5, lng: 127, types: [cafe], rating: 9}\n",
			want: "rating",
		},
		{
			name: "bad daily",
			yaml: "places:\n  - {id: a, name: A, lat: 37.5, lng: 127, types: [cafe], daily: \"9-18\"}\n",
			want: "HH:MM",
		},
		{
			name: "hour out of range",
			yaml: "places:\n  - {id: a, name: A, lat: 37.5, lng: 127, types: [cafe], daily: \"09:00-25:00\"}\n",
			want: "hour",
		},
		{
			name: "unknown field",
			yaml: "places:\n  - {id: a, name: A, lat: 37.5, lng: 127, types: [cafe], menu: x}\n",
			want: "menu",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadFixtures(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
