package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"jotter/internal/config"
	"jotter/internal/middleware"
	"jotter/internal/service"
)

// Handler собирает роутер приложения.
type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров.
func NewHandler(
	itemService *service.ItemService,
	folderService *service.FolderService,
	userService *service.UserService,
	logger *zap.SugaredLogger,
	cfg *config.Config,
	uploadsDir string,
) *Handler {
	r := chi.NewRouter()

	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.ClientURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}).Handler)
	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithAuth(cfg.AuthSecret))

	// Handlers
	authHandler := NewAuthHandler(userService, logger, cfg)
	profileHandler := NewProfileHandler(userService, logger, cfg)
	itemHandler := NewItemHandler(itemService, logger, cfg)
	folderHandler := NewFolderHandler(folderService, logger)

	// Auth routes
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/verify-code", authHandler.VerifyCode)
		r.Post("/resend-code", authHandler.ResendCode)
		r.Post("/reset-password", authHandler.ResetPassword)
	})

	// Profile routes
	r.Route("/api/profile", func(r chi.Router) {
		r.Get("/", profileHandler.Get)
		r.Put("/", profileHandler.Update)
		r.Put("/password", profileHandler.ChangePassword)
		r.Post("/delete", profileHandler.Delete)
		r.Post("/lock", profileHandler.SetLock)
		r.Post("/lock/verify", profileHandler.VerifyLock)
		r.Post("/lock/remove", profileHandler.RemoveLock)
	})

	// Item routes
	r.Route("/api/items", func(r chi.Router) {
		r.Get("/stats", itemHandler.Stats)
		r.Get("/recent", itemHandler.Recent)
		r.Get("/locked", itemHandler.Locked)
		r.Get("/", itemHandler.List)
		r.Post("/", itemHandler.Create)
		r.Get("/{id}", itemHandler.Get)
		r.Put("/{id}", itemHandler.Update)
		r.Delete("/{id}", itemHandler.Delete)
		r.Post("/{id}/duplicate", itemHandler.Duplicate)
		r.Patch("/{id}/favorite", itemHandler.Favorite)
		r.Patch("/{id}/lock", itemHandler.SetPrivate)
		r.Post("/{id}/share", itemHandler.Share)
	})

	// Folder routes
	r.Route("/api/folders", func(r chi.Router) {
		r.Get("/{id}/contents", folderHandler.Contents)
		r.Post("/{id}/lock", folderHandler.Lock)
		r.Post("/{id}/unlock", folderHandler.Unlock)
		r.Post("/{id}/remove-lock", folderHandler.RemoveLock)
	})

	// Статика загруженных файлов под фиксированным публичным префиксом
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir))))

	return &Handler{Router: r}
}
