package common

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/sngm3741/menu-recommendation/api/internal/public/domain"
)

// WriteJSON serializes payload to JSON with status and logs on failure.
func WriteJSON(logger *log.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Printf("JSON エンコードに失敗: %v", err)
	}
}

// WriteError writes {"error": message}.
func WriteError(logger *log.Logger, w http.ResponseWriter, status int, message string) {
	WriteJSON(logger, w, status, map[string]string{"error": message})
}

// WriteDomainError は入力エラーと外部サービスのエラーをステータスコードとユーザー向けメッセージへ変換する。
// どちらでもないエラーは fallback のメッセージで 500 を返す。
func WriteDomainError(logger *log.Logger, w http.ResponseWriter, err error, fallback string) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		WriteJSON(logger, w, http.StatusBadRequest, map[string]string{"error": verr.Message, "field": verr.Field})
		return
	}

	var perr *domain.ProviderError
	if errors.As(err, &perr) {
		status, message := ProviderErrorResponse(perr.Status)
		if logger != nil {
			logger.Printf("外部サービスエラー provider=%s status=%s err=%v", perr.Provider, perr.Status, perr.Err)
		}
		WriteJSON(logger, w, status, map[string]string{"error": message, "status": string(perr.Status)})
		return
	}

	if logger != nil {
		logger.Printf("%s: %v", fallback, err)
	}
	WriteError(logger, w, http.StatusInternalServerError, fallback)
}

// ProviderErrorResponse maps a provider status to the HTTP status and message shown to users.
func ProviderErrorResponse(status domain.ProviderStatus) (int, string) {
	switch status {
	case domain.StatusNoResults:
		return http.StatusOK, "検索結果がありません"
	case domain.StatusNotFound:
		return http.StatusNotFound, "店舗が見つかりません"
	case domain.StatusPermissionDenied:
		return http.StatusBadGateway, "外部サービスへのアクセスが拒否されました"
	case domain.StatusQuotaExceeded:
		return http.StatusServiceUnavailable, "リクエストが多すぎます。しばらくしてから再度お試しください"
	case domain.StatusInvalidRequest:
		return http.StatusBadRequest, "リクエストの内容が不正です"
	case domain.StatusUnavailable:
		return http.StatusServiceUnavailable, "外部サービスに接続できません。しばらくしてから再度お試しください"
	default:
		return http.StatusBadGateway, "外部サービスでエラーが発生しました"
	}
}
