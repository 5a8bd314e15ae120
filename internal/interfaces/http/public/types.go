package public

import (
	"strings"
	"time"

	"github.com/sngm3741/menu-recommendation/api/internal/geo"
	publicapp "github.com/sngm3741/menu-recommendation/api/internal/public/application"
	"github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

type placeSummaryResponse struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Address        string         `json:"address,omitempty"`
	Location       geo.Coordinate `json:"location"`
	Rating         *float64       `json:"rating,omitempty"`
	ReviewCount    *int           `json:"reviewCount,omitempty"`
	Types          []string       `json:"types"`
	Category       string         `json:"category"`
	DistanceKm     *float64       `json:"distanceKm,omitempty"`
	DistanceText   string         `json:"distanceText,omitempty"`
	OpenState      string         `json:"openState"`
	OpenStatusText string         `json:"openStatusText"`
	OpenBadge      string         `json:"openBadge,omitempty"`
	PhotoRef       string         `json:"photoRef,omitempty"`
}

type restaurantListResponse struct {
	Items    []placeSummaryResponse `json:"items"`
	Total    int                    `json:"total"`
	Category string                 `json:"category"`
	Sort     string                 `json:"sort"`
}

type reviewResponse struct {
	AuthorName   string     `json:"authorName"`
	Rating       int        `json:"rating"`
	Text         string     `json:"text,omitempty"`
	RelativeTime string     `json:"relativeTime,omitempty"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
}

type placeDetailResponse struct {
	placeSummaryResponse
	MapsURI        string           `json:"mapsUri,omitempty"`
	DirectionsURL  string           `json:"directionsUrl"`
	OpeningPeriods []domain.Period  `json:"openingPeriods,omitempty"`
	Reviews        []reviewResponse `json:"reviews"`
}

type routeResponse struct {
	DistanceMeters  float64          `json:"distanceMeters"`
	DurationSeconds float64          `json:"durationSeconds"`
	DistanceText    string           `json:"distanceText"`
	DurationText    string           `json:"durationText"`
	Path            []geo.Coordinate `json:"path"`
	Estimated       bool             `json:"estimated"`
}

type placeRefRequest struct {
	PlaceID string  `json:"placeId"`
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

func (r placeRefRequest) toDomain() domain.PlaceRef {
	return domain.PlaceRef{
		PlaceID:  strings.TrimSpace(r.PlaceID),
		Name:     strings.TrimSpace(r.Name),
		Location: geo.Coordinate{Lat: r.Lat, Lng: r.Lng},
		Address:  strings.TrimSpace(r.Address),
	}
}

type favoriteResponse struct {
	ID        string         `json:"id"`
	PlaceID   string         `json:"placeId"`
	Name      string         `json:"name"`
	Location  geo.Coordinate `json:"location"`
	Address   string         `json:"address,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

type pendingRemovalResponse struct {
	PlaceID      string    `json:"placeId"`
	Name         string    `json:"name"`
	UndoDeadline time.Time `json:"undoDeadline"`
}

type favoriteListResponse struct {
	Items       []favoriteResponse      `json:"items"`
	Pending     *pendingRemovalResponse `json:"pending,omitempty"`
	ReadFailed  bool                    `json:"readFailed,omitempty"`
	CommitError string                  `json:"commitError,omitempty"`
}

type visitResponse struct {
	ID        string         `json:"id"`
	PlaceID   string         `json:"placeId"`
	Name      string         `json:"name"`
	Location  geo.Coordinate `json:"location"`
	Address   string         `json:"address,omitempty"`
	VisitedAt time.Time      `json:"visitedAt"`
}

type visitListResponse struct {
	Items      []visitResponse `json:"items"`
	ReadFailed bool            `json:"readFailed,omitempty"`
}

func buildPlaceSummaryResponse(item domain.ListedPlace) placeSummaryResponse {
	resp := placeSummaryResponse{
		ID:             item.ID,
		Name:           item.Name,
		Address:        item.Address,
		Location:       item.Location,
		Rating:         item.Rating,
		ReviewCount:    item.ReviewCount,
		Types:          append([]string{}, item.Types...),
		Category:       string(item.Category),
		OpenState:      string(item.OpenStatus.State),
		OpenStatusText: item.OpenStatus.StatusText,
		OpenBadge:      item.OpenStatus.Badge(),
		PhotoRef:       item.PhotoRef,
	}
	// 現在地が不明な場合は距離を出さない(+Inf は JSON にできない)。
	if item.HasDistance() {
		km := item.DistanceKm
		resp.DistanceKm = &km
		resp.DistanceText = item.DistanceDisplay
	}
	return resp
}

func buildPlaceDetailResponse(item domain.ListedPlace, origin *geo.Coordinate) placeDetailResponse {
	reviews := make([]reviewResponse, 0, len(item.Reviews))
	for _, r := range item.Reviews {
		reviews = append(reviews, reviewResponse{
			AuthorName:   r.AuthorName,
			Rating:       r.Rating,
			Text:         r.Text,
			RelativeTime: r.RelativeTime,
			PublishedAt:  r.PublishedAt,
		})
	}
	return placeDetailResponse{
		placeSummaryResponse: buildPlaceSummaryResponse(item),
		MapsURI:              item.MapsURI,
		DirectionsURL:        walkingDirectionsURL(origin, item.Location),
		OpeningPeriods:       item.OpeningPeriods,
		Reviews:              reviews,
	}
}

func buildRouteResponse(route *domain.Route) routeResponse {
	return routeResponse{
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
		DistanceText:    route.DistanceText,
		DurationText:    route.DurationText,
		Path:            route.Path,
		Estimated:       route.Estimated,
	}
}

func buildFavoriteResponse(entry domain.FavoriteEntry) favoriteResponse {
	return favoriteResponse{
		ID:        entry.RecordID,
		PlaceID:   entry.PlaceID,
		Name:      entry.Name,
		Location:  entry.Location,
		Address:   entry.Address,
		CreatedAt: entry.CreatedAt,
	}
}

func buildFavoriteResponses(entries []domain.FavoriteEntry) []favoriteResponse {
	items := make([]favoriteResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, buildFavoriteResponse(entry))
	}
	return items
}

func buildPendingResponse(p publicapp.PendingDeletion) *pendingRemovalResponse {
	return &pendingRemovalResponse{
		PlaceID:      p.Entry.PlaceID,
		Name:         p.Entry.Name,
		UndoDeadline: p.Deadline,
	}
}

func buildVisitResponse(entry domain.VisitEntry) visitResponse {
	return visitResponse{
		ID:        entry.RecordID,
		PlaceID:   entry.PlaceID,
		Name:      entry.Name,
		Location:  entry.Location,
		Address:   entry.Address,
		VisitedAt: entry.VisitedAt,
	}
}
