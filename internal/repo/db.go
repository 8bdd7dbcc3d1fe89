package repo

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"jotter/internal/model"
)

// NowUTC — источник времени для gorm: все метки времени пишутся в UTC,
// зона владельца участвует только в вычислении границ при чтении.
func NowUTC() time.Time { return time.Now().UTC() }

// InitDB открывает соединение с БД и накатывает миграции моделей.
// При пустом DSN поднимается in-memory SQLite (modernc, без cgo) —
// удобно для локального запуска и тестов.
func InitDB(dsn string) (*gorm.DB, error) {
	var dial gorm.Dialector
	if dsn == "" {
		dial = gormsqlite.Dialector{DriverName: "sqlite", DSN: "file::memory:?cache=shared"}
	} else {
		dial = postgres.Open(dsn)
	}

	db, err := gorm.Open(dial, &gorm.Config{NowFunc: NowUTC})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&model.User{}, &model.Item{}); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return db, nil
}
