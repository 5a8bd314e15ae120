package admin

import (
	"strings"

	admindomain "github.com/sngm3741/menu-recommendation/api/internal/admin/domain"
	adminapp "github.com/sngm3741/menu-recommendation/api/internal/admin/application"
	"github.com/sngm3741/menu-recommendation/api/internal/geo"
	placedomain "github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

type adminDayTimePayload struct {
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

type adminPeriodPayload struct {
	Open  adminDayTimePayload  `json:"open"`
	Close *adminDayTimePayload `json:"close,omitempty"`
}

type adminReviewResponse struct {
	AuthorName   string `json:"authorName"`
	Rating       int    `json:"rating"`
	Text         string `json:"text,omitempty"`
	RelativeTime string `json:"relativeTime,omitempty"`
}

type adminPlaceResponse struct {
	ID             string                `json:"id"`
	Name           string                `json:"name"`
	Location       geo.Coordinate        `json:"location"`
	Address        string                `json:"address,omitempty"`
	Rating         *float64              `json:"rating,omitempty"`
	ReviewCount    *int                  `json:"reviewCount,omitempty"`
	Types          []string              `json:"types"`
	PrimaryType    string                `json:"primaryType,omitempty"`
	Category       string                `json:"category"`
	OpeningPeriods []adminPeriodPayload  `json:"openingPeriods,omitempty"`
	PhotoRef       string                `json:"photoRef,omitempty"`
	MapsURI        string                `json:"mapsUri,omitempty"`
	Reviews        []adminReviewResponse `json:"reviews,omitempty"`
}

type adminPlaceListResponse struct {
	Items  []adminPlaceResponse `json:"items"`
	Total  int64                `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

type adminPlaceCreateResponse struct {
	Place   adminPlaceResponse `json:"place"`
	Created bool               `json:"created"`
}

type adminPlaceUpsertRequest struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	Lat            float64              `json:"lat"`
	Lng            float64              `json:"lng"`
	Address        string               `json:"address"`
	Rating         *float64             `json:"rating"`
	ReviewCount    *int                 `json:"reviewCount"`
	Types          []string             `json:"types"`
	PrimaryType    string               `json:"primaryType"`
	OpeningPeriods []adminPeriodPayload `json:"openingPeriods"`
	PhotoRef       string               `json:"photoRef"`
	MapsURI        string               `json:"mapsUri"`
}

func (req adminPlaceUpsertRequest) toCommand() adminapp.UpsertPlaceCommand {
	periods := make([]admindomain.PeriodInput, 0, len(req.OpeningPeriods))
	for _, p := range req.OpeningPeriods {
		in := admindomain.PeriodInput{OpenDay: p.Open.Day, OpenHour: p.Open.Hour, OpenMinute: p.Open.Minute}
		if p.Close != nil {
			in.Close = &admindomain.DayTimeInput{Day: p.Close.Day, Hour: p.Close.Hour, Minute: p.Close.Minute}
		}
		periods = append(periods, in)
	}

	return adminapp.UpsertPlaceCommand{
		ID: strings.TrimSpace(req.ID),
		Place: admindomain.PlaceInput{
			Name:           req.Name,
			Lat:            req.Lat,
			Lng:            req.Lng,
			Address:        req.Address,
			Rating:         req.Rating,
			ReviewCount:    req.ReviewCount,
			Types:          req.Types,
			PrimaryType:    req.PrimaryType,
			OpeningPeriods: periods,
			PhotoRef:       strings.TrimSpace(req.PhotoRef),
			MapsURI:        req.MapsURI,
		},
	}
}

// adminPlaceDomainToResponse は Place を Admin UI 用レスポンスへ変換する。
func adminPlaceDomainToResponse(place placedomain.Place) adminPlaceResponse {
	resp := adminPlaceResponse{
		ID:          place.ID,
		Name:        place.Name,
		Location:    place.Location,
		Address:     place.Address,
		Rating:      place.Rating,
		ReviewCount: place.ReviewCount,
		Types:       append([]string{}, place.Types...),
		PrimaryType: place.PrimaryType,
		Category:    string(placedomain.Classify(place.Types, place.PrimaryType)),
		PhotoRef:    place.PhotoRef,
		MapsURI:     place.MapsURI,
	}
	for _, p := range place.OpeningPeriods {
		payload := adminPeriodPayload{Open: adminDayTimePayload(p.Open)}
		if p.Close != nil {
			c := adminDayTimePayload(*p.Close)
			payload.Close = &c
		}
		resp.OpeningPeriods = append(resp.OpeningPeriods, payload)
	}
	for _, r := range place.Reviews {
		resp.Reviews = append(resp.Reviews, adminReviewResponse{
			AuthorName:   r.AuthorName,
			Rating:       r.Rating,
			Text:         r.Text,
			RelativeTime: r.RelativeTime,
		})
	}
	return resp
}
