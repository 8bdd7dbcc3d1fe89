package service

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"jotter/internal/model"
	"jotter/internal/repo"
	"jotter/internal/storage"
)

var testDBSeq int64

// newTestRepo поднимает репозитории на in-memory SQLite.
func newTestRepo(t *testing.T) (repo.ItemRepository, repo.UserRepository) {
	t.Helper()
	dsn := fmt.Sprintf("file:svctest%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	db, err := gorm.Open(dial, &gorm.Config{NowFunc: repo.NowUTC})
	if err != nil {
		t.Fatalf("failed to open sqlite (modernc): %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Item{}); err != nil {
		t.Fatalf("failed to automigrate: %v", err)
	}
	return repo.NewItemRepository(db), repo.NewUserRepository(db)
}

// fakeFiles — файловое хранилище в памяти для проверки оркестрации блобов.
type fakeFiles struct {
	seq        int
	saved      map[string]string
	deleted    []string
	failSave   bool
	failDelete bool
}

var _ storage.FileStore = (*fakeFiles)(nil)

func newFakeFiles() *fakeFiles {
	return &fakeFiles{saved: map[string]string{}}
}

func (f *fakeFiles) Save(name string, src io.Reader, maxSize int64) (storage.BlobRef, error) {
	if f.failSave {
		return storage.BlobRef{}, errors.New("disk full")
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return storage.BlobRef{}, err
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return storage.BlobRef{}, storage.ErrTooLarge
	}
	f.seq++
	path := fmt.Sprintf("/uploads/blob-%d", f.seq)
	f.saved[path] = string(data)
	return storage.BlobRef{Path: path, Size: int64(len(data))}, nil
}

func (f *fakeFiles) Copy(ref storage.BlobRef) (storage.BlobRef, error) {
	data, ok := f.saved[ref.Path]
	if !ok {
		return storage.BlobRef{}, storage.ErrNotFound
	}
	f.seq++
	path := fmt.Sprintf("/uploads/blob-%d", f.seq)
	f.saved[path] = data
	return storage.BlobRef{Path: path, Size: int64(len(data))}, nil
}

func (f *fakeFiles) Delete(path string) error {
	if f.failDelete {
		return errors.New("io error")
	}
	delete(f.saved, path)
	f.deleted = append(f.deleted, path)
	return nil
}

func (f *fakeFiles) SizeOf(path string) (int64, error) {
	data, ok := f.saved[path]
	if !ok {
		return 0, storage.ErrNotFound
	}
	return int64(len(data)), nil
}

func testLogger() *zap.SugaredLogger { return zap.NewNop().Sugar() }
