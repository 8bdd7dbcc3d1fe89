package handlers

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.uber.org/zap"

	"jotter/internal/config"
	"jotter/internal/middleware"
	"jotter/internal/service"
)

// AuthHandler — регистрация, вход и восстановление пароля.
type AuthHandler struct {
	Users  *service.UserService
	Logger *zap.SugaredLogger
	Config *config.Config
}

// NewAuthHandler создаёт хендлер аутентификации.
func NewAuthHandler(users *service.UserService, logger *zap.SugaredLogger, cfg *config.Config) *AuthHandler {
	return &AuthHandler{Users: users, Logger: logger, Config: cfg}
}

type signupRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (req signupRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Username, validation.Required, validation.Length(1, 64)),
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required, validation.Length(6, 0)),
	)
}

// Signup регистрирует аккаунт.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeFail(w, http.StatusBadRequest, err.Error())
		return
	}

	_, err := h.Users.Register(r.Context(), req.Username, req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	writeOK(w, http.StatusCreated, map[string]any{"message": "Account created successfully. Please login."})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req loginRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required),
	)
}

// Login проверяет учётные данные и ставит auth-cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeFail(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	if err := middleware.SetLoginCookie(w, user.ID, h.Config.AuthSecret); err != nil {
		h.Logger.Errorw("login: failed to set cookie", "error", err)
		writeFail(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"message": "Login successful", "user": user})
}

// Logout сбрасывает auth-cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearLoginCookie(w)
	writeOK(w, http.StatusOK, map[string]any{"message": "Logged out successfully"})
}

// Me возвращает текущего пользователя.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
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

type emailRequest struct {
	Email string `json:"email"`
}

func (req emailRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Email, validation.Required, is.Email),
	)
}

// ForgotPassword высылает код восстановления.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeFail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Users.ForgotPassword(r.Context(), req.Email); err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"message": "Verification code sent to your email",
		"email":   req.Email,
	})
}

// ResendCode выдаёт новый код восстановления.
func (h *AuthHandler) ResendCode(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeFail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Users.ResendCode(r.Context(), req.Email); err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"message": "New code sent to your email"})
}

// VerifyCode проверяет код восстановления.
func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.Users.VerifyCode(r.Context(), req.Email, req.Code); err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"message": "Code verified successfully"})
}

// ResetPassword устанавливает новый пароль по коду.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email           string `json:"email"`
		Code            string `json:"code"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.Users.ResetPassword(r.Context(), req.Email, req.Code, req.Password, req.ConfirmPassword); err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"message": "Password reset successful. Please login."})
}
