package public

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/menu-recommendation/api/internal/interfaces/http/common"
	publicapp "github.com/sngm3741/menu-recommendation/api/internal/public/application"
	"github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

// clientConfigHandler はクライアント起動時に必要な既定値(地図の初期中心・検索半径・選択肢)を返す。
func (h *Handler) clientConfigHandler() http.HandlerFunc {
	categories := make([]string, 0, len(domain.Categories)+1)
	categories = append(categories, string(domain.CategoryAll))
	for _, c := range domain.Categories {
		categories = append(categories, string(c))
	}
	sortKeys := []string{
		string(publicapp.SortDistance),
		string(publicapp.SortRating),
		string(publicapp.SortReviewCount),
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{
			"defaultCenter":     DefaultCenter,
			"radiusMeters":      h.radiusMeters,
			"categories":        categories,
			"sortKeys":          sortKeys,
			"undoWindowSeconds": h.undoWindow.Seconds(),
		})
	}
}

func (h *Handler) restaurantListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		query := r.URL.Query()
		center, err := common.ParseCoordinate(query, "lat", "lng")
		if err != nil {
			common.WriteDomainError(h.logger, w, err, "")
			return
		}
		if center == nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "検索中心の座標を指定してください", "field": "lat"})
			return
		}
		reference, err := common.ParseCoordinate(query, "myLat", "myLng")
		if err != nil {
			common.WriteDomainError(h.logger, w, err, "")
			return
		}

		filter, err := domain.ParseCategoryFilter(query.Get("category"))
		if err != nil {
			common.WriteDomainError(h.logger, w, err, "")
			return
		}
		sortKey, err := publicapp.ParseSortKey(query.Get("sort"))
		if err != nil {
			common.WriteDomainError(h.logger, w, err, "")
			return
		}
		radius, err := common.ParsePositiveIntParam(query, "radius", h.radiusMeters)
		if err != nil {
			common.WriteDomainError(h.logger, w, err, "")
			return
		}
		if radius > 50000 {
			radius = 50000
		}

		tags := h.categoryTags
		if raw := strings.TrimSpace(query.Get("types")); raw != "" {
			tags = splitList(raw)
		}

		items, err := h.places.Nearby(ctx, publicapp.NearbyQuery{
			Center:       *center,
			Reference:    reference,
			RadiusMeters: radius,
			CategoryTags: tags,
			Filter:       filter,
			Sort:         sortKey,
		})
		if err != nil {
			common.WriteDomainError(h.logger, w, err, "店舗一覧の取得に失敗しました")
			return
		}

		resp := restaurantListResponse{
			Items:    make([]placeSummaryResponse, 0, len(items)),
			Total:    len(items),
			Category: string(filter),
			Sort:     string(sortKey),
		}
		for _, item := range items {
			resp.Items = append(resp.Items, buildPlaceSummaryResponse(item))
		}
		common.WriteJSON(h.logger, w, http.StatusOK, resp)
	}
}

func (h *Handler) restaurantDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		idParam := strings.TrimSpace(chi.URLParam(r, "id"))
		if idParam == "" {
			common.WriteError(h.logger, w, http.StatusBadRequest, "店舗IDが指定されていません")
			return
		}
		reference, err := common.ParseCoordinate(r.URL.Query(), "myLat", "myLng")
		if err != nil {
			common.WriteDomainError(h.logger, w, err, "")
			return
		}

		item, err := h.places.Detail(ctx, idParam, reference)
		if err != nil {
			common.WriteDomainError(h.logger, w, err, "店舗情報の取得に失敗しました")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, buildPlaceDetailResponse(*item, reference))
	}
}
