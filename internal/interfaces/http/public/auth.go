package public

import (
	"context"
	"net/http"

	"github.com/sngm3741/menu-recommendation/api/internal/interfaces/http/common"
)

func (h *Handler) signInHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		session, err := h.identity.SignInAnonymously(ctx)
		if err != nil {
			h.logger.Printf("匿名サインインに失敗: %v", err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "サインインに失敗しました")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusCreated, session)
	}
}

func (h *Handler) authVerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := common.UserFromContext(r.Context())
		if !ok {
			common.WriteError(h.logger, w, http.StatusInternalServerError, "認証情報の取得に失敗しました")
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{
			"status": "ok",
			"user":   user,
		})
	}
}

// signOutHandler はトークンを失効させる。お気に入りの保留中の削除はサインアウト通知を受けて破棄される。
func (h *Handler) signOutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), common.RequestTimeout)
		defer cancel()

		user, ok := common.UserFromContext(r.Context())
		if !ok {
			common.WriteError(h.logger, w, http.StatusInternalServerError, "認証情報の取得に失敗しました")
			return
		}

		if err := h.identity.SignOut(ctx, user.Token); err != nil {
			h.logger.Printf("サインアウトに失敗 user=%q err=%v", user.ID, err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "サインアウトに失敗しました")
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, map[string]string{"status": "signed_out"})
	}
}
