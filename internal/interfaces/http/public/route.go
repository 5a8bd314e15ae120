package public

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sngm3741/menu-recommendation/api/internal/geo"
	"github.com/sngm3741/menu-recommendation/api/internal/interfaces/http/common"
)

// routeHandler は徒歩経路を返す。経路サービスが失敗しても直線経路(estimated=true)で 200 を返す。
func (h *Handler) routeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		query := r.URL.Query()
		origin, err := common.ParseCoordinate(query, "fromLat", "fromLng")
		if err != nil {
			common.WriteDomainError(h.logger, w, err, "")
			return
		}
		destination, err := common.ParseCoordinate(query, "toLat", "toLng")
		if err != nil {
			common.WriteDomainError(h.logger, w, err, "")
			return
		}
		if origin == nil || destination == nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, "出発地と目的地の座標を指定してください")
			return
		}

		route, err := h.routes.Route(ctx, *origin, *destination)
		if err != nil {
			common.WriteDomainError(h.logger, w, err, "経路の取得に失敗しました")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, buildRouteResponse(route))
	}
}

// directionsLinkHandler は外部地図アプリの徒歩ナビ URL を返す。
func (h *Handler) directionsLinkHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		destination, err := common.ParseCoordinate(query, "lat", "lng")
		if err != nil {
			common.WriteDomainError(h.logger, w, err, "")
			return
		}
		if destination == nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, "目的地の座標を指定してください")
			return
		}
		origin, err := common.ParseCoordinate(query, "myLat", "myLng")
		if err != nil {
			common.WriteDomainError(h.logger, w, err, "")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, map[string]string{
			"url": walkingDirectionsURL(origin, *destination),
		})
	}
}

func walkingDirectionsURL(origin *geo.Coordinate, destination geo.Coordinate) string {
	params := url.Values{}
	params.Set("api", "1")
	params.Set("destination", formatLatLng(destination))
	if origin != nil {
		params.Set("origin", formatLatLng(*origin))
	}
	params.Set("travelmode", "walking")
	return "https://www.google.com/maps/dir/?" + params.Encode()
}

func formatLatLng(c geo.Coordinate) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}
