package handlers

import (
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"jotter/internal/config"
	"jotter/internal/service"
)

// ProfileHandler — профиль, смена пароля, общеаккаунтный замок,
// удаление аккаунта.
type ProfileHandler struct {
	Users  *service.UserService
	Logger *zap.SugaredLogger
	Config *config.Config
}

// NewProfileHandler создаёт хендлер профиля.
func NewProfileHandler(users *service.UserService, logger *zap.SugaredLogger, cfg *config.Config) *ProfileHandler {
	return &ProfileHandler{Users: users, Logger: logger, Config: cfg}
}

// Get возвращает профиль текущего пользователя.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	user, err := h.Users.GetUser(r.Context(), userID)
	if err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"user": user})
}

// Update меняет имя и/или аватар (multipart: username, avatar).
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	maxAvatar := int64(h.Config.AvatarMaxSizeMB) * 1024 * 1024
	var username *string
	var avatar *service.Upload

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxAvatar+1024*1024)
		if err := r.ParseMultipartForm(maxAvatar); err != nil {
			writeFail(w, http.StatusBadRequest, "Invalid multipart form")
			return
		}
		if v := r.FormValue("username"); v != "" {
			username = &v
		}
		if file, header, err := r.FormFile("avatar"); err == nil {
			defer file.Close()
			avatar = &service.Upload{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Data:        file,
				MaxSize:     maxAvatar,
			}
		}
	} else {
		var body struct {
			Username *string `json:"username"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeFail(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		username = body.Username
	}

	user, err := h.Users.UpdateProfile(r.Context(), userID, username, avatar)
	if err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"message": "Profile updated successfully", "user": user})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (req changePasswordRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.CurrentPassword, validation.Required),
		validation.Field(&req.NewPassword, validation.Required, validation.Length(6, 0)),
	)
}

// ChangePassword меняет пароль аккаунта.
func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeFail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Users.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"message": "Password changed successfully"})
}

// Delete удаляет аккаунт со всем содержимым.
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.Users.DeleteAccount(r.Context(), userID, req.Password); err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"message": "Account deleted successfully"})
}

type lockPasswordRequest struct {
	LockPassword string `json:"lockPassword"`
}

func (req lockPasswordRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.LockPassword, validation.Required),
	)
}

func (h *ProfileHandler) readLockPassword(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req lockPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "Invalid request body")
		return "", false
	}
	if err := req.Validate(); err != nil {
		writeFail(w, http.StatusBadRequest, "Lock password is required")
		return "", false
	}
	return req.LockPassword, true
}

// SetLock ставит секрет приватного раздела.
func (h *ProfileHandler) SetLock(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	secret, ok := h.readLockPassword(w, r)
	if !ok {
		return
	}
	if err := h.Users.SetLockPassword(r.Context(), userID, secret); err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"message": "Lock password set"})
}

// VerifyLock проверяет секрет приватного раздела.
func (h *ProfileHandler) VerifyLock(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	secret, ok := h.readLockPassword(w, r)
	if !ok {
		return
	}
	if err := h.Users.VerifyLockPassword(r.Context(), userID, secret); err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	writeOK(w, http.StatusOK, nil)
}

// RemoveLock снимает общеаккаунтный замок.
func (h *ProfileHandler) RemoveLock(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	secret, ok := h.readLockPassword(w, r)
	if !ok {
		return
	}
	if err := h.Users.ClearLockPassword(r.Context(), userID, secret); err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"message": "Lock removed"})
}
