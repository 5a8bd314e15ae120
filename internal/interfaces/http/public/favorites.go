package public

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/menu-recommendation/api/internal/interfaces/http/common"
	publicapp "github.com/sngm3741/menu-recommendation/api/internal/public/application"
	"github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

// favoriteListHandler は保留中の削除を除いた一覧を返す。ストアの読み込みに失敗しても 200 で手元の一覧を返す。
func (h *Handler) favoriteListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		user, _ := common.UserFromContext(r.Context())
		view, err := h.sessions.List(ctx, user.ID)
		if err != nil {
			common.WriteDomainError(h.logger, w, err, "お気に入りの取得に失敗しました")
			return
		}

		resp := favoriteListResponse{
			Items:      buildFavoriteResponses(view.Items),
			ReadFailed: view.ReadFailed,
		}
		if view.Pending != nil {
			resp.Pending = buildPendingResponse(*view.Pending)
		}
		if view.CommitErr != nil {
			resp.CommitError = "お気に入りの削除に失敗したため元に戻しました"
		}
		common.WriteJSON(h.logger, w, http.StatusOK, resp)
	}
}

func (h *Handler) favoriteAddHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, ok := h.decodePlaceRef(w, r)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		user, _ := common.UserFromContext(r.Context())
		entry, created, err := h.sessions.Add(ctx, user.ID, ref)
		if err != nil {
			common.WriteDomainError(h.logger, w, err, "お気に入りの登録に失敗しました")
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		common.WriteJSON(h.logger, w, status, map[string]any{
			"created":  created,
			"favorite": buildFavoriteResponse(*entry),
		})
	}
}

func (h *Handler) favoriteToggleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, ok := h.decodePlaceRef(w, r)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		user, _ := common.UserFromContext(r.Context())
		result, err := h.sessions.Toggle(ctx, user.ID, ref)
		if err != nil {
			common.WriteDomainError(h.logger, w, err, "お気に入りの切り替えに失敗しました")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{
			"action":     result.Action,
			"id":         result.RecordID,
			"isFavorite": result.Action == publicapp.ToggleAdded,
		})
	}
}

// favoriteStatusHandler は削除が保留中またはコミット中の店舗をお気に入りではないものとして扱う。
func (h *Handler) favoriteStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		user, _ := common.UserFromContext(r.Context())
		placeID := strings.TrimSpace(chi.URLParam(r, "placeId"))

		fav, err := h.sessions.IsFavorite(ctx, user.ID, placeID)
		if err != nil {
			common.WriteDomainError(h.logger, w, err, "お気に入り状態の取得に失敗しました")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{"placeId": placeID, "isFavorite": fav})
	}
}

// favoriteRemoveHandler は一覧から即座に外し、取り消し期限を返す。削除の確定は期限後に行われる。
func (h *Handler) favoriteRemoveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		user, _ := common.UserFromContext(r.Context())
		placeID := strings.TrimSpace(chi.URLParam(r, "placeId"))

		pending, err := h.sessions.Remove(ctx, user.ID, placeID)
		if err != nil {
			if errors.Is(err, publicapp.ErrFavoriteNotListed) {
				common.WriteError(h.logger, w, http.StatusNotFound, "お気に入りに登録されていません")
				return
			}
			common.WriteDomainError(h.logger, w, err, "お気に入りの削除に失敗しました")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusAccepted, map[string]any{
			"pending": buildPendingResponse(pending),
		})
	}
}

func (h *Handler) favoriteUndoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := common.UserFromContext(r.Context())
		restored, items := h.sessions.Undo(user.ID)
		common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{
			"restored": restored,
			"items":    buildFavoriteResponses(items),
		})
	}
}

func (h *Handler) decodePlaceRef(w http.ResponseWriter, r *http.Request) (domain.PlaceRef, bool) {
	var req placeRefRequest
	decoder := json.NewDecoder(io.LimitReader(r.Body, common.MaxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		common.WriteError(h.logger, w, http.StatusBadRequest, "リクエストの形式が不正です")
		return domain.PlaceRef{}, false
	}
	return req.toDomain(), true
}
