package main

import (
	"net/http"

	"go.uber.org/zap"

	"jotter/internal/config"
	"jotter/internal/handlers"
	"jotter/internal/mailer"
	"jotter/internal/middleware"
	"jotter/internal/repo"
	"jotter/internal/service"
	"jotter/internal/storage"
)

func main() {
	cfg := config.NewConfig()

	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	files, err := storage.NewDisk(cfg.UploadDir, cfg.UploadPrefix)
	if err != nil {
		sugar.Fatalw("failed to initialize file storage", "error", err)
	}

	itemRepo := repo.NewItemRepository(gormDB)
	userRepo := repo.NewUserRepository(gormDB)

	mail := &mailer.LogMailer{Logger: sugar}

	itemService := service.NewItemService(itemRepo, userRepo, files, sugar, cfg.ClientURL)
	folderService := service.NewFolderService(itemRepo, sugar)
	userService := service.NewUserService(userRepo, itemRepo, files, mail, sugar)

	h := handlers.NewHandler(itemService, folderService, userService, sugar, cfg, files.Dir())

	sugar.Infow(
		"Starting server",
		"addr", cfg.RunAddress,
	)

	sugar.Infow("Config",
		"RunAddress", cfg.RunAddress,
		"DatabaseDSN", cfg.DatabaseDSN,
		"UploadDir", cfg.UploadDir,
		"ClientURL", cfg.ClientURL,
	)

	if err := http.ListenAndServe(cfg.RunAddress, h.Router); err != nil {
		sugar.Fatalw("Server failed", "error", err)
	}
}
