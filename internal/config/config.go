package config

import (
	"flag"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config — настройки сервера. Источники в порядке приоритета:
// переменные окружения (.env подхватывается автоматически), затем флаги,
// затем значения по умолчанию.
type Config struct {
	RunAddress  string `env:"RUN_ADDRESS"`
	DatabaseDSN string `env:"DATABASE_URI"`
	AuthSecret  string `env:"AUTH_SECRET"`

	// Базовый адрес фронтенда — из него собираются share-ссылки.
	ClientURL string `env:"CLIENT_URL"`

	// Каталог файлового хранилища и его публичный префикс.
	UploadDir    string `env:"UPLOAD_DIR"`
	UploadPrefix string `env:"UPLOAD_PREFIX"`

	// Лимиты загрузки в мегабайтах.
	FileMaxSizeMB   int `env:"FILE_MAX_SIZE_MB"`
	AvatarMaxSizeMB int `env:"AVATAR_MAX_SIZE_MB"`
}

// NewConfig читает окружение и флаги, подставляет умолчания.
func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// флаги работают ТОЛЬКО если переменные из env не заданы
	flag.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "адрес и порт сервера")
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет для подписи JWT")
	flag.StringVar(&cfg.ClientURL, "client-url", cfg.ClientURL, "базовый URL фронтенда для share-ссылок")
	flag.StringVar(&cfg.UploadDir, "upload-dir", cfg.UploadDir, "каталог для загруженных файлов")
	flag.Parse()

	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults заполняет пустые поля значениями по умолчанию.
// Вынесено отдельно, чтобы тесты могли собирать Config без flag.Parse.
func (cfg *Config) ApplyDefaults() {
	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = "dev-secret-key"
	}
	if cfg.ClientURL == "" {
		cfg.ClientURL = "http://localhost:3000"
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}
	if cfg.UploadPrefix == "" {
		cfg.UploadPrefix = "/uploads/"
	}
	if cfg.FileMaxSizeMB <= 0 {
		cfg.FileMaxSizeMB = 10
	}
	if cfg.AvatarMaxSizeMB <= 0 {
		cfg.AvatarMaxSizeMB = 5
	}
}
