package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"jotter/internal/config"
	"jotter/internal/service"
)

// ItemHandler обрабатывает операции над элементами хранилища.
type ItemHandler struct {
	Items  *service.ItemService
	Logger *zap.SugaredLogger
	Config *config.Config
}

// NewItemHandler создаёт хендлер items.
func NewItemHandler(items *service.ItemService, logger *zap.SugaredLogger, cfg *config.Config) *ItemHandler {
	return &ItemHandler{Items: items, Logger: logger, Config: cfg}
}

// Stats возвращает статистику хранилища владельца.
func (h *ItemHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	stats, err := h.Items.ComputeStats(r.Context(), userID)
	if err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"stats": stats})
}

// Recent возвращает последние изменённые элементы.
func (h *ItemHandler) Recent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.Items.Recent(r.Context(), userID, limit)
	if err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"items": items})
}

// Locked возвращает элементы приватного раздела.
func (h *ItemHandler) Locked(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	items, err := h.Items.Locked(r.Context(), userID)
	if err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"items": items})
}

// List возвращает элементы по фильтрам запроса.
// Параметр date — календарный день YYYY-MM-DD; границы дня считаются
// в зоне tz (IANA-имя), по умолчанию — в локальной зоне сервера.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	f := service.ListFilter{
		Kind:   q.Get("kind"),
		Search: q.Get("search"),
		Day:    q.Get("date"),
	}
	if q.Get("favorite") == "true" {
		fav := true
		f.Favorite = &fav
	}
	if tz := q.Get("tz"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			writeFail(w, http.StatusBadRequest, "Unknown time zone")
			return
		}
		f.Loc = loc
	}
	if q.Has("parent") {
		if p := q.Get("parent"); p != "" {
			f.ParentID = p
		} else {
			// параметр задан пустым — только верхний уровень
			f.TopLevel = true
		}
	}

	items, err := h.Items.List(r.Context(), userID, f)
	if err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"items": items})
}

// Get возвращает один элемент.
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	item, err := h.Items.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"item": item})
}

// Create создаёт элемент. Тело — multipart/form-data с полями
// kind, name, content, parent и опциональным файлом file; либо JSON
// без файла.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	maxFile := int64(h.Config.FileMaxSizeMB) * 1024 * 1024
	in := service.CreateInput{}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		// запас на прочие поля формы
		r.Body = http.MaxBytesReader(w, r.Body, maxFile+1024*1024)
		if err := r.ParseMultipartForm(maxFile); err != nil {
			writeFail(w, http.StatusBadRequest, "Invalid multipart form")
			return
		}
		in.Kind = r.FormValue("kind")
		in.Name = r.FormValue("name")
		in.Content = r.FormValue("content")
		if p := r.FormValue("parent"); p != "" {
			in.ParentID = &p
		}

		if file, header, err := r.FormFile("file"); err == nil {
			defer file.Close()
			in.File = &service.Upload{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Data:        file,
				MaxSize:     maxFile,
			}
		}
	} else {
		var body struct {
			Kind     string  `json:"kind"`
			Name     string  `json:"name"`
			Content  string  `json:"content"`
			ParentID *string `json:"parentId"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeFail(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		in.Kind = body.Kind
		in.Name = body.Name
		in.Content = body.Content
		in.ParentID = body.ParentID
	}

	item, err := h.Items.Create(r.Context(), userID, in)
	if err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	writeOK(w, http.StatusCreated, map[string]any{"message": "Item created successfully", "item": item})
}

// Update меняет разрешённые поля; прочие поля тела молча игнорируются.
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var body struct {
		Name       *string `json:"name"`
		Content    *string `json:"content"`
		IsFavorite *bool   `json:"isFavorite"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeFail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	item, err := h.Items.Update(r.Context(), userID, chi.URLParam(r, "id"), service.UpdateInput{
		Name:       body.Name,
		Content:    body.Content,
		IsFavorite: body.IsFavorite,
	})
	if err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"message": "Item updated successfully", "item": item})
}

// Delete удаляет элемент (для папки — вместе с прямыми детьми).
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.Items.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"message": "Item deleted successfully"})
}

// Duplicate создаёт копию элемента.
func (h *ItemHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	item, err := h.Items.Duplicate(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	writeOK(w, http.StatusCreated, map[string]any{"message": "Item duplicated successfully", "item": item})
}

// Favorite переключает флаг избранного.
func (h *ItemHandler) Favorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	item, err := h.Items.ToggleFavorite(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	msg := "Removed from favorites"
	if item.IsFavorite {
		msg = "Added to favorites"
	}
	writeOK(w, http.StatusOK, map[string]any{"message": msg, "item": item})
}

// Share генерирует share-ссылку на элемент.
func (h *ItemHandler) Share(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	item, err := h.Items.Share(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"message":   "Share link generated",
		"item":      item,
		"shareLink": item.ShareLink,
	})
}

// SetPrivate помечает элемент приватным либо снимает пометку.
func (h *ItemHandler) SetPrivate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var body struct {
		Locked bool `json:"locked"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeFail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	item, err := h.Items.SetPrivate(r.Context(), userID, chi.URLParam(r, "id"), body.Locked)
	if err != nil {
		writeErr(w, h.Logger, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"item": item})
}
