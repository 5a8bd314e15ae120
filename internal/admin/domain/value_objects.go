package domain

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sngm3741/menu-recommendation/api/internal/geo"
	placedomain "github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

const (
	maxNameLength    = 120
	maxAddressLength = 300
	maxTypes         = 20
)

var placeTypePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func invalid(field, format string, args ...any) error {
	return &placedomain.ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

type PlaceName string

func NewPlaceName(value string) (PlaceName, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", invalid("name", "name is required")
	}
	if utf8.RuneCountInString(trimmed) > maxNameLength {
		return "", invalid("name", "name must be <= %d characters", maxNameLength)
	}
	return PlaceName(trimmed), nil
}

func (n PlaceName) String() string {
	return string(n)
}

type Address string

func NewAddress(value string) (Address, error) {
	trimmed := strings.TrimSpace(value)
	if utf8.RuneCountInString(trimmed) > maxAddressLength {
		return "", invalid("address", "address must be <= %d characters", maxAddressLength)
	}
	return Address(trimmed), nil
}

// NewLocation rejects out-of-range coordinates and the (0,0) placeholder some imports carry.
func NewLocation(lat, lng float64) (geo.Coordinate, error) {
	c := geo.Coordinate{Lat: lat, Lng: lng}
	if !c.Valid() {
		return geo.Coordinate{}, invalid("location", "lat must be within [-90,90] and lng within [-180,180]")
	}
	if lat == 0 && lng == 0 {
		return geo.Coordinate{}, invalid("location", "location is required")
	}
	return c, nil
}

type Rating float64

// NewRating は nil を「評価なし」として通す。
func NewRating(value *float64) (*Rating, error) {
	if value == nil {
		return nil, nil
	}
	if *value < 0 || *value > 5 {
		return nil, invalid("rating", "rating must be between 0 and 5")
	}
	r := Rating(*value)
	return &r, nil
}

func (r *Rating) Float64Ptr() *float64 {
	if r == nil {
		return nil
	}
	v := float64(*r)
	return &v
}

type ReviewCount int

func NewReviewCount(value *int) (*ReviewCount, error) {
	if value == nil {
		return nil, nil
	}
	if *value < 0 {
		return nil, invalid("reviewCount", "reviewCount must be >= 0")
	}
	c := ReviewCount(*value)
	return &c, nil
}

func (c *ReviewCount) IntPtr() *int {
	if c == nil {
		return nil
	}
	v := int(*c)
	return &v
}

type PlaceType string

func NewPlaceType(value string) (PlaceType, error) {
	code := strings.ToLower(strings.TrimSpace(value))
	if code == "" {
		return "", invalid("types", "type must not be empty")
	}
	if !placeTypePattern.MatchString(code) {
		return "", invalid("types", "invalid type: %s", value)
	}
	return PlaceType(code), nil
}

type PlaceTypeList []PlaceType

func NewPlaceTypeList(values []string) (PlaceTypeList, error) {
	if len(values) == 0 {
		return nil, invalid("types", "types must not be empty")
	}
	if len(values) > maxTypes {
		return nil, invalid("types", "types must be <= %d", maxTypes)
	}
	result := make([]PlaceType, 0, len(values))
	seen := make(map[PlaceType]struct{})
	for _, raw := range values {
		value, err := NewPlaceType(raw)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return PlaceTypeList(result), nil
}

func (l PlaceTypeList) Strings() []string {
	result := make([]string, 0, len(l))
	for _, v := range l {
		result = append(result, string(v))
	}
	return result
}

func (l PlaceTypeList) Contains(value PlaceType) bool {
	for _, v := range l {
		if v == value {
			return true
		}
	}
	return false
}

func newDayTime(field string, day, hour, minute int) (placedomain.DayTime, error) {
	if day < 0 || day > 6 {
		return placedomain.DayTime{}, invalid(field, "day must be between 0 (Sunday) and 6")
	}
	if hour < 0 || hour > 23 {
		return placedomain.DayTime{}, invalid(field, "hour must be between 0 and 23")
	}
	if minute < 0 || minute > 59 {
		return placedomain.DayTime{}, invalid(field, "minute must be between 0 and 59")
	}
	return placedomain.DayTime{Day: day, Hour: hour, Minute: minute}, nil
}

// PeriodInput is an unvalidated opening period. A nil Close means open around the clock.
type PeriodInput struct {
	OpenDay, OpenHour, OpenMinute int
	Close                         *DayTimeInput
}

type DayTimeInput struct {
	Day, Hour, Minute int
}

// NewPeriods validates opening periods. Open and close may not be the same instant.
func NewPeriods(inputs []PeriodInput) ([]placedomain.Period, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	periods := make([]placedomain.Period, 0, len(inputs))
	for i, in := range inputs {
		field := fmt.Sprintf("openingPeriods[%d]", i)
		open, err := newDayTime(field+".open", in.OpenDay, in.OpenHour, in.OpenMinute)
		if err != nil {
			return nil, err
		}
		period := placedomain.Period{Open: open}
		if in.Close != nil {
			closeAt, err := newDayTime(field+".close", in.Close.Day, in.Close.Hour, in.Close.Minute)
			if err != nil {
				return nil, err
			}
			if closeAt == open {
				return nil, invalid(field, "open and close must differ")
			}
			period.Close = &closeAt
		}
		periods = append(periods, period)
	}
	return periods, nil
}

type URL string

func NewURL(value string) (URL, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", nil
	}
	parsed, err := url.ParseRequestURI(trimmed)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", invalid("mapsUri", "invalid URL: %s", trimmed)
	}
	return URL(trimmed), nil
}

func (u URL) String() string {
	return string(u)
}

var placeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// NewPlaceID validates a caller-supplied document id. Only URL-safe characters are allowed.
func NewPlaceID(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if !placeIDPattern.MatchString(trimmed) {
		return "", invalid("id", "id must be 1-128 characters of [A-Za-z0-9_-]")
	}
	return trimmed, nil
}
