package public

import (
	"context"
	"net/http"

	"github.com/sngm3741/menu-recommendation/api/internal/interfaces/http/common"
)

// visitListHandler は読み込み失敗時に警告ログを出し、空の一覧を返す。
func (h *Handler) visitListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		user, _ := common.UserFromContext(r.Context())
		visits, err := h.visits.History(ctx, user.ID)
		if err != nil {
			h.logger.Printf("来店履歴の取得に失敗 user=%q err=%v", user.ID, err)
			common.WriteJSON(h.logger, w, http.StatusOK, visitListResponse{Items: []visitResponse{}, ReadFailed: true})
			return
		}

		items := make([]visitResponse, 0, len(visits))
		for _, v := range visits {
			items = append(items, buildVisitResponse(v))
		}
		common.WriteJSON(h.logger, w, http.StatusOK, visitListResponse{Items: items})
	}
}

func (h *Handler) visitRecordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, ok := h.decodePlaceRef(w, r)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		user, _ := common.UserFromContext(r.Context())
		entry, err := h.visits.Record(ctx, user.ID, ref)
		if err != nil {
			common.WriteDomainError(h.logger, w, err, "来店記録の保存に失敗しました")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusCreated, buildVisitResponse(*entry))
	}
}
