package repo

import (
	"fmt"
	"sync/atomic"
	"testing"

	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"jotter/internal/model"
)

var testDBSeq int64

// newTestDB инициализирует in-memory SQLite (modernc.org/sqlite) для тестов
// репозитория. Имя базы уникально на тест, cache=shared нужен, чтобы пул
// соединений gorm видел одну и ту же базу.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repotest%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	db, err := gorm.Open(dial, &gorm.Config{NowFunc: NowUTC})
	if err != nil {
		t.Fatalf("failed to open sqlite (modernc): %v", err)
	}
	// Миграции для всех моделей, используемых в репозиториях
	if err := db.AutoMigrate(&model.User{}, &model.Item{}); err != nil {
		t.Fatalf("failed to automigrate: %v", err)
	}
	return db
}
