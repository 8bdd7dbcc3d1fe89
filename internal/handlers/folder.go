package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"jotter/internal/service"
)

// FolderHandler обрабатывает замок папки и просмотр её содержимого.
type FolderHandler struct {
	Folders *service.FolderService
	Logger  *zap.SugaredLogger
}

// NewFolderHandler создаёт хендлер папок.
func NewFolderHandler(folders *service.FolderService, logger *zap.SugaredLogger) *FolderHandler {
	return &FolderHandler{Folders: folders, Logger: logger}
}

type folderPasswordRequest struct {
	Password string `json:"password"`
}

func (req folderPasswordRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Password, validation.Required),
	)
}

func (h *FolderHandler) readPassword(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req folderPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "Invalid request body")
		return "", false
	}
	if err := req.Validate(); err != nil {
		writeFail(w, http.StatusBadRequest, "Password is required")
		return "", false
	}
	return req.Password, true
}

// Contents возвращает папку и её прямых детей.
func (h *FolderHandler) Contents(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	contents, err := h.Folders.Contents(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"folder":   contents.Folder,
		"items":    contents.Items,
		"isLocked": contents.IsLocked,
	})
}

// Lock ставит пароль на папку.
func (h *FolderHandler) Lock(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	password, ok := h.readPassword(w, r)
	if !ok {
		return
	}
	if err := h.Folders.Lock(r.Context(), userID, chi.URLParam(r, "id"), password); err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"message": "Folder locked successfully"})
}

// Unlock проверяет пароль и отдаёт содержимое; замок остаётся на месте.
func (h *FolderHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	password, ok := h.readPassword(w, r)
	if !ok {
		return
	}
	contents, err := h.Folders.Unlock(r.Context(), userID, chi.URLParam(r, "id"), password)
	if err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"message": "Folder unlocked successfully",
		"folder":  contents.Folder,
		"items":   contents.Items,
	})
}

// RemoveLock снимает замок с папки.
func (h *FolderHandler) RemoveLock(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	password, ok := h.readPassword(w, r)
	if !ok {
		return
	}
	if err := h.Folders.RemoveLock(r.Context(), userID, chi.URLParam(r, "id"), password); err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"message": "Lock removed successfully"})
}
