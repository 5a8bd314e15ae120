package admin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	adminapp "github.com/sngm3741/menu-recommendation/api/internal/admin/application"
	"github.com/sngm3741/menu-recommendation/api/internal/interfaces/http/common"
)

func (h *Handler) placeSearchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		queryValues := r.URL.Query()
		keyword := strings.TrimSpace(queryValues.Get("keyword"))
		limit, _ := common.ParsePositiveInt(queryValues.Get("limit"), 20)
		offset, _ := common.ParsePositiveInt(queryValues.Get("offset"), 0)

		page, err := h.placeService.List(ctx, adminapp.PlaceFilter{Keyword: keyword}, adminapp.Paging{Limit: limit, Offset: offset})
		if err != nil {
			h.logger.Printf("admin place search failed: %v", err)
			common.WriteDomainError(h.logger, w, err, "店舗一覧の取得に失敗しました")
			return
		}

		items := make([]adminPlaceResponse, 0, len(page.Items))
		for _, place := range page.Items {
			items = append(items, adminPlaceDomainToResponse(place))
		}

		common.WriteJSON(h.logger, w, http.StatusOK, adminPlaceListResponse{
			Items:  items,
			Total:  page.Total,
			Limit:  limit,
			Offset: offset,
		})
	}
}

func (h *Handler) placeDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idParam := strings.TrimSpace(chi.URLParam(r, "id"))

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		place, err := h.placeService.Detail(ctx, idParam)
		if err != nil {
			common.WriteDomainError(h.logger, w, err, "店舗情報の取得に失敗しました")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, adminPlaceDomainToResponse(*place))
	}
}

func (h *Handler) placeCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := h.decodeUpsertRequest(w, r)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		place, err := h.placeService.Create(ctx, req.toCommand())
		if err != nil {
			if errors.Is(err, adminapp.ErrPlaceExists) {
				common.WriteError(h.logger, w, http.StatusConflict, "同じIDの店舗が既に登録されています")
				return
			}
			common.WriteDomainError(h.logger, w, err, "店舗の登録に失敗しました")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusCreated, adminPlaceCreateResponse{Place: adminPlaceDomainToResponse(*place), Created: true})
	}
}

// placeUpdateHandler は編集可能な項目を丸ごと置き換える。レビューはインデックスの値を引き継ぐ。
func (h *Handler) placeUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idParam := strings.TrimSpace(chi.URLParam(r, "id"))
		req, ok := h.decodeUpsertRequest(w, r)
		if !ok {
			return
		}
		if req.ID != "" && strings.TrimSpace(req.ID) != idParam {
			common.WriteError(h.logger, w, http.StatusBadRequest, "URL と本文の店舗IDが一致しません")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		place, err := h.placeService.Update(ctx, idParam, req.toCommand())
		if err != nil {
			common.WriteDomainError(h.logger, w, err, "店舗の更新に失敗しました")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, adminPlaceDomainToResponse(*place))
	}
}

func (h *Handler) decodeUpsertRequest(w http.ResponseWriter, r *http.Request) (adminPlaceUpsertRequest, bool) {
	var req adminPlaceUpsertRequest
	decoder := json.NewDecoder(io.LimitReader(r.Body, common.MaxAdminRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		common.WriteError(h.logger, w, http.StatusBadRequest, "リクエストの形式が不正です")
		return req, false
	}
	return req, true
}
