package common

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sngm3741/menu-recommendation/api/internal/geo"
	"github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

// ParsePositiveInt parses positive integers with fallback.
func ParsePositiveInt(value string, fallback int) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, false
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback, false
	}
	return parsed, true
}

// ParsePositiveIntParam reads key from query. A missing value yields fallback; anything other than a
// positive integer is a ValidationError.
func ParsePositiveIntParam(query url.Values, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return 0, &domain.ValidationError{Field: key, Message: fmt.Sprintf("%s は正の整数で指定してください", key)}
	}
	return parsed, nil
}

// ParseCoordinate reads a lat/lng pair from query. It returns nil, nil when both keys are absent.
// 片方だけ、または範囲外の値は ValidationError。
func ParseCoordinate(query url.Values, latKey, lngKey string) (*geo.Coordinate, error) {
	rawLat := strings.TrimSpace(query.Get(latKey))
	rawLng := strings.TrimSpace(query.Get(lngKey))
	if rawLat == "" && rawLng == "" {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return nil, &domain.ValidationError{Field: latKey, Message: fmt.Sprintf("%s の値が不正です", latKey)}
	}
	lng, err := strconv.ParseFloat(rawLng, 64)
	if err != nil {
		return nil, &domain.ValidationError{Field: lngKey, Message: fmt.Sprintf("%s の値が不正です", lngKey)}
	}

	c := geo.Coordinate{Lat: lat, Lng: lng}
	if !c.Valid() {
		return nil, &domain.ValidationError{Field: latKey, Message: "座標が範囲外です"}
	}
	return &c, nil
}
