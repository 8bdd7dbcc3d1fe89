package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"jotter/internal/middleware"
	"jotter/internal/service"
)

// writeJSON сериализует payload с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, payload map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeOK — успешный ответ; extra добавляется к {"ok": true}.
func writeOK(w http.ResponseWriter, status int, extra map[string]any) {
	payload := map[string]any{"ok": true}
	for k, v := range extra {
		payload[k] = v
	}
	writeJSON(w, status, payload)
}

// writeFail — отказ с сообщением для пользователя.
func writeFail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"ok": false, "message": message})
}

// writeErr транслирует отказ бизнес-уровня в HTTP-статус.
// Неожиданные ошибки логируются, наружу уходит только "Server error".
func writeErr(w http.ResponseWriter, logger *zap.SugaredLogger, err error) {
	var status int
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrUnsupportedContent):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrStorage):
		status = http.StatusInternalServerError
	default:
		logger.Errorw("unexpected error", "error", err)
		writeFail(w, http.StatusInternalServerError, "Server error")
		return
	}

	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		writeFail(w, status, svcErr.Message)
		return
	}
	writeFail(w, status, http.StatusText(status))
}

// requireUser достаёт id пользователя из контекста; без него — 401.
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeFail(w, http.StatusUnauthorized, "Not authenticated. Please login.")
	}
	return userID, ok
}

// decodeJSON читает JSON-тело запроса в dst.
func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
