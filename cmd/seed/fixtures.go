package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	admindomain "github.com/sngm3741/menu-recommendation/api/internal/admin/domain"
	placedomain "github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

type fixtureFile struct {
	Places []placeFixture `yaml:"places"`
}

type dayTimeFixture struct {
	Day    int `yaml:"day"`
	Hour   int `yaml:"hour"`
	Minute int `yaml:"minute"`
}

type periodFixture struct {
	Open  dayTimeFixture  `yaml:"open"`
	Close *dayTimeFixture `yaml:"close"`
}

type reviewFixture struct {
	Author       string `yaml:"author"`
	Rating       int    `yaml:"rating"`
	Text         string `yaml:"text"`
	RelativeTime string `yaml:"relativeTime"`
}

type placeFixture struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Lat         float64  `yaml:"lat"`
	Lng         float64  `yaml:"lng"`
	Address     string   `yaml:"address"`
	Rating      *float64 `yaml:"rating"`
	ReviewCount *int     `yaml:"reviewCount"`
	Types       []string `yaml:"types"`
	PrimaryType string   `yaml:"primaryType"`
	// Daily は "HH:MM-HH:MM" 形式で毎日同じ営業時間を表す。Hours と併用した場合は両方を登録する。
	Daily   string          `yaml:"daily"`
	Hours   []periodFixture `yaml:"hours"`
	MapsURI string          `yaml:"mapsUri"`
	Reviews []reviewFixture `yaml:"reviews"`
}

// loadFixtures decodes a fixture file and validates every place the same way the admin API does.
func loadFixtures(r io.Reader) ([]placedomain.Place, error) {
	var file fixtureFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("fixture の読み込みに失敗: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Places))
	places := make([]placedomain.Place, 0, len(file.Places))
	for i, fx := range file.Places {
		id, err := admindomain.NewPlaceID(fx.ID)
		if err != nil {
			return nil, fmt.Errorf("places[%d]: %w", i, err)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("places[%d]: id %q が重複しています", i, id)
		}
		seen[id] = struct{}{}

		periods, err := fx.periodInputs()
		if err != nil {
			return nil, fmt.Errorf("places[%d] (%s): %w", i, id, err)
		}
		catalogPlace, err := admindomain.NewCatalogPlace(id, admindomain.PlaceInput{
			Name:           fx.Name,
			Lat:            fx.Lat,
			Lng:            fx.Lng,
			Address:        fx.Address,
			Rating:         fx.Rating,
			ReviewCount:    fx.ReviewCount,
			Types:          fx.Types,
			PrimaryType:    fx.PrimaryType,
			OpeningPeriods: periods,
			MapsURI:        fx.MapsURI,
		})
		if err != nil {
			return nil, fmt.Errorf("places[%d] (%s): %w", i, id, err)
		}

		reviews := make([]placedomain.PlaceReview, 0, len(fx.Reviews))
		for _, r := range fx.Reviews {
			reviews = append(reviews, placedomain.PlaceReview{
				AuthorName:   r.Author,
				Rating:       r.Rating,
				Text:         r.Text,
				RelativeTime: r.RelativeTime,
			})
		}
		places = append(places, catalogPlace.ToPlace(reviews))
	}
	return places, nil
}

func (fx placeFixture) periodInputs() ([]admindomain.PeriodInput, error) {
	var inputs []admindomain.PeriodInput
	if fx.Daily != "" {
		daily, err := expandDaily(fx.Daily)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, daily...)
	}
	for _, h := range fx.Hours {
		in := admindomain.PeriodInput{OpenDay: h.Open.Day, OpenHour: h.Open.Hour, OpenMinute: h.Open.Minute}
		if h.Close != nil {
			in.Close = &admindomain.DayTimeInput{Day: h.Close.Day, Hour: h.Close.Hour, Minute: h.Close.Minute}
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// expandDaily turns "HH:MM-HH:MM" into one period per weekday. A close time at or before the
// open time closes on the following day, so "18:00-02:00" on Saturday closes Sunday 02:00.
func expandDaily(window string) ([]admindomain.PeriodInput, error) {
	openRaw, closeRaw, ok := strings.Cut(strings.TrimSpace(window), "-")
	if !ok {
		return nil, fmt.Errorf("daily %q は HH:MM-HH:MM 形式で指定してください", window)
	}
	openHour, openMinute, err := parseClock(openRaw)
	if err != nil {
		return nil, err
	}
	closeHour, closeMinute, err := parseClock(closeRaw)
	if err != nil {
		return nil, err
	}
	nextDay := closeHour*60+closeMinute <= openHour*60+openMinute

	inputs := make([]admindomain.PeriodInput, 0, 7)
	for day := 0; day < 7; day++ {
		closeDay := day
		if nextDay {
			closeDay = (day + 1) % 7
		}
		inputs = append(inputs, admindomain.PeriodInput{
			OpenDay:    day,
			OpenHour:   openHour,
			OpenMinute: openMinute,
			Close:      &admindomain.DayTimeInput{Day: closeDay, Hour: closeHour, Minute: closeMinute},
		})
	}
	return inputs, nil
}

func parseClock(raw string) (int, int, error) {
	hourRaw, minuteRaw, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return 0, 0, fmt.Errorf("時刻 %q は HH:MM 形式で指定してください", raw)
	}
	hour, err := strconv.Atoi(hourRaw)
	if err != nil {
		return 0, 0, fmt.Errorf("時刻 %q の時が不正です", raw)
	}
	minute, err := strconv.Atoi(minuteRaw)
	if err != nil {
		return 0, 0, fmt.Errorf("時刻 %q の分が不正です", raw)
	}
	return hour, minute, nil
}
