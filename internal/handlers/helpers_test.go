package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"jotter/internal/config"
	"jotter/internal/handlers"
	"jotter/internal/middleware"
	"jotter/internal/model"
	"jotter/internal/repo"
	"jotter/internal/service"
	"jotter/internal/storage"
)

var testDBSeq int64

// fakeMailer запоминает последний отправленный код восстановления.
type fakeMailer struct {
	email string
	code  string
}

func (m *fakeMailer) SendResetCode(ctx context.Context, email, code string) error {
	m.email = email
	m.code = code
	return nil
}

// testEnv — роутер поверх реальных сервисов на in-memory SQLite и
// дискового хранилища во временном каталоге.
type testEnv struct {
	Router http.Handler
	Config *config.Config
	Users  *service.UserService
	Items  *service.ItemService
	Mail   *fakeMailer
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvCfg(t, nil)
}

// newTestEnvCfg даёт тесту подправить конфигурацию до сборки роутера
// (например, ужать лимиты загрузки).
func newTestEnvCfg(t *testing.T, tweak func(*config.Config)) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:handlerstest%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	db, err := gorm.Open(dial, &gorm.Config{NowFunc: repo.NowUTC})
	if err != nil {
		t.Fatalf("failed to open sqlite (modernc): %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Item{}); err != nil {
		t.Fatalf("failed to automigrate: %v", err)
	}

	cfg := &config.Config{AuthSecret: "test-secret", UploadDir: t.TempDir()}
	cfg.ApplyDefaults()
	if tweak != nil {
		tweak(cfg)
	}

	files, err := storage.NewDisk(cfg.UploadDir, cfg.UploadPrefix)
	if err != nil {
		t.Fatalf("failed to init file store: %v", err)
	}

	logger := zap.NewNop().Sugar()
	itemRepo := repo.NewItemRepository(db)
	userRepo := repo.NewUserRepository(db)
	mail := &fakeMailer{}

	itemSvc := service.NewItemService(itemRepo, userRepo, files, logger, cfg.ClientURL)
	folderSvc := service.NewFolderService(itemRepo, logger)
	userSvc := service.NewUserService(userRepo, itemRepo, files, mail, logger)

	h := handlers.NewHandler(itemSvc, folderSvc, userSvc, logger, cfg, cfg.UploadDir)
	return &testEnv{Router: h.Router, Config: cfg, Users: userSvc, Items: itemSvc, Mail: mail}
}

// registerUser заводит аккаунт напрямую через сервис.
func registerUser(t *testing.T, env *testEnv, email string) int64 {
	t.Helper()
	user, err := env.Users.Register(context.Background(), "tester", email, "secret1", "secret1")
	if err != nil {
		t.Fatalf("failed to register user: %v", err)
	}
	return user.ID
}

func addAuthCookie(t *testing.T, req *http.Request, userID int64, secret string) {
	t.Helper()
	rr := httptest.NewRecorder()
	_ = middleware.SetLoginCookie(rr, userID, secret)
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
}

// doJSON выполняет запрос с JSON-телом от имени userID (0 — аноним).
func doJSON(t *testing.T, env *testEnv, method, target string, userID int64, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		addAuthCookie(t, req, userID, env.Config.AuthSecret)
	}
	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, req)
	return rr
}

func doRaw(t *testing.T, env *testEnv, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&m); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return m
}

// multipartBody собирает multipart/form-data из полей и опционального файла.
func multipartBody(t *testing.T, fields map[string]string, fileField, filename string, fileData []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		assert.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, filename)
		assert.NoError(t, err)
		_, err = fw.Write(fileData)
		assert.NoError(t, err)
	}
	assert.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}
