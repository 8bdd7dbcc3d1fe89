package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"jotter/internal/model"
	"jotter/internal/repo"
	"jotter/internal/storage"
)

// TotalQuota — фиксированный потолок хранилища на аккаунт (15 ГиБ).
// Не зависит от фактической ёмкости диска и не проверяется при записи.
const TotalQuota int64 = 15 * 1024 * 1024 * 1024

// Upload — декодированный транспортом загружаемый файл.
type Upload struct {
	Filename    string
	ContentType string
	Data        io.Reader
	// MaxSize в байтах; хранилище откажет, а не обрежет, при превышении.
	MaxSize int64
}

// CreateInput — вход операции создания элемента.
type CreateInput struct {
	Kind     string
	Name     string
	Content  string
	ParentID *string
	File     *Upload
}

// UpdateInput — изменяемые поля. Всё прочее в запросе молча игнорируется.
type UpdateInput struct {
	Name       *string
	Content    *string
	IsFavorite *bool
}

// ListFilter — фильтры списка элементов.
type ListFilter struct {
	Kind     string
	Favorite *bool
	Search   string
	// Календарный день создания (YYYY-MM-DD); границы считаются в Loc.
	Day string
	Loc *time.Location
	// ParentID выбирает содержимое папки; TopLevel — элементы без родителя.
	ParentID string
	TopLevel bool
}

// KindStat — количество и суммарный размер по одному типу.
type KindStat struct {
	Count int   `json:"count"`
	Size  int64 `json:"size"`
}

// Stats — агрегированная статистика хранилища владельца.
type Stats struct {
	TotalStorage     int64    `json:"totalStorage"`
	UsedStorage      int64    `json:"usedStorage"`
	AvailableStorage int64    `json:"availableStorage"`
	Folders          KindStat `json:"folders"`
	Notes            KindStat `json:"notes"`
	Images           KindStat `json:"images"`
	Pdfs             KindStat `json:"pdfs"`
}

// ItemService — оркестратор жизненного цикла элементов: согласует
// репозиторий и файловое хранилище в составных операциях.
type ItemService struct {
	items     repo.ItemRepository
	users     repo.UserRepository
	files     storage.FileStore
	logger    *zap.SugaredLogger
	clientURL string
}

// NewItemService создаёт сервис элементов.
func NewItemService(items repo.ItemRepository, users repo.UserRepository, files storage.FileStore, logger *zap.SugaredLogger, clientURL string) *ItemService {
	return &ItemService{items: items, users: users, files: files, logger: logger, clientURL: clientURL}
}

// mapItemErr переводит ошибку репозитория в отказ бизнес-уровня.
func mapItemErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return failNotFound("Item not found")
	}
	return err
}

// Create валидирует вход, при наличии файла сначала сохраняет блоб
// и только после успеха пишет запись. Сбой хранилища отменяет
// создание целиком.
func (s *ItemService) Create(ctx context.Context, userID int64, in CreateInput) (*model.Item, error) {
	kind, err := model.ParseKind(in.Kind)
	if err != nil {
		return nil, failValidation("Invalid item type")
	}
	if in.Name == "" {
		return nil, failValidation("Name is required")
	}

	owner := s.items.Owner(userID)

	if in.ParentID != nil && *in.ParentID != "" {
		parent, err := owner.Get(ctx, *in.ParentID)
		if err != nil {
			return nil, failValidation("Parent folder not found")
		}
		if parent.Kind != model.KindFolder {
			return nil, failValidation("Parent must be a folder")
		}
	} else {
		in.ParentID = nil
	}

	item := &model.Item{
		ID:       uuid.NewString(),
		Kind:     kind,
		Name:     in.Name,
		Content:  in.Content,
		ParentID: in.ParentID,
	}
	if kind != model.KindNote {
		// текст имеет смысл только у заметки
		item.Content = ""
	}

	if in.File != nil {
		if err := storage.CheckContent(kind, in.File.Filename, in.File.ContentType); err != nil {
			return nil, failUnsupported("Only images and PDFs are allowed")
		}
		ref, err := s.files.Save(in.File.Filename, in.File.Data, in.File.MaxSize)
		if err != nil {
			if errors.Is(err, storage.ErrTooLarge) {
				return nil, failValidation("File is too large")
			}
			s.logger.Errorw("create: blob save failed", "user_id", userID, "error", err)
			return nil, failStorage("Failed to store file")
		}
		item.FilePath = ref.Path
		item.FileSize = ref.Size
	}

	if err := owner.Create(ctx, item); err != nil {
		// запись не создана — подчистим уже сохранённый блоб
		if item.FilePath != "" {
			if derr := s.files.Delete(item.FilePath); derr != nil {
				s.logger.Warnw("create: orphan blob cleanup failed", "path", item.FilePath, "error", derr)
			}
		}
		return nil, err
	}
	return item, nil
}

// Get возвращает элемент владельца.
func (s *ItemService) Get(ctx context.Context, userID int64, id string) (*model.Item, error) {
	item, err := s.items.Owner(userID).Get(ctx, id)
	if err != nil {
		return nil, mapItemErr(err)
	}
	return item, nil
}

// List возвращает элементы по фильтру, новые сначала.
func (s *ItemService) List(ctx context.Context, userID int64, f ListFilter) ([]model.Item, error) {
	items, err := s.items.Owner(userID).List(ctx, repo.ItemFilter{
		Kind:     model.Kind(f.Kind),
		Favorite: f.Favorite,
		Search:   f.Search,
		Day:      f.Day,
		Loc:      f.Loc,
		ParentID: f.ParentID,
		TopLevel: f.TopLevel,
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Recent возвращает последние изменённые элементы; limit <= 0 — десять.
func (s *ItemService) Recent(ctx context.Context, userID int64, limit int) ([]model.Item, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.items.Owner(userID).ListRecent(ctx, limit)
}

// Locked возвращает элементы приватного раздела.
func (s *ItemService) Locked(ctx context.Context, userID int64) ([]model.Item, error) {
	return s.items.Owner(userID).ListLocked(ctx)
}

// Update применяет разрешённые поля: name, content, isFavorite.
func (s *ItemService) Update(ctx context.Context, userID int64, id string, in UpdateInput) (*model.Item, error) {
	fields := map[string]any{}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, failValidation("Name is required")
		}
		fields["name"] = *in.Name
	}
	if in.Content != nil {
		fields["content"] = *in.Content
	}
	if in.IsFavorite != nil {
		fields["is_favorite"] = *in.IsFavorite
	}

	owner := s.items.Owner(userID)
	if len(fields) == 0 {
		item, err := owner.Get(ctx, id)
		if err != nil {
			return nil, mapItemErr(err)
		}
		return item, nil
	}
	item, err := owner.Update(ctx, id, fields)
	if err != nil {
		return nil, mapItemErr(err)
	}
	return item, nil
}

// Delete удаляет элемент: сперва его блоб (по возможности), для папки —
// прямых детей с их блобами, затем саму запись. Каскад одноуровневый:
// содержимое вложенных папок не затрагивается. Сбой удаления блоба
// логируется и не блокирует удаление записей.
func (s *ItemService) Delete(ctx context.Context, userID int64, id string) error {
	owner := s.items.Owner(userID)
	item, err := owner.Get(ctx, id)
	if err != nil {
		return mapItemErr(err)
	}

	if item.FilePath != "" {
		if err := s.files.Delete(item.FilePath); err != nil {
			s.logger.Warnw("delete: blob cleanup failed", "item_id", item.ID, "path", item.FilePath, "error", err)
		}
	}

	if item.Kind == model.KindFolder {
		children, err := owner.DeleteChildren(ctx, item.ID)
		if err != nil {
			return err
		}
		for _, child := range children {
			if child.FilePath == "" {
				continue
			}
			if err := s.files.Delete(child.FilePath); err != nil {
				s.logger.Warnw("delete: child blob cleanup failed", "item_id", child.ID, "path", child.FilePath, "error", err)
			}
		}
	}

	return mapItemErr(owner.Delete(ctx, id))
}

// Duplicate клонирует элемент: новое id, имя с суффиксом " (Copy)",
// favorite и папка-родитель наследуются как есть. Блоб копируется в
// хранилище, размер переносится из исходной записи без повторного
// измерения. Замок папки и share-ссылка на копию не переходят.
func (s *ItemService) Duplicate(ctx context.Context, userID int64, id string) (*model.Item, error) {
	owner := s.items.Owner(userID)
	src, err := owner.Get(ctx, id)
	if err != nil {
		return nil, mapItemErr(err)
	}

	dup := &model.Item{
		ID:         uuid.NewString(),
		Kind:       src.Kind,
		Name:       src.Name + " (Copy)",
		Content:    src.Content,
		ParentID:   src.ParentID,
		IsFavorite: src.IsFavorite,
	}

	if src.FilePath != "" && src.Kind != model.KindFolder {
		ref, err := s.files.Copy(storage.BlobRef{Path: src.FilePath, Size: src.FileSize})
		switch {
		case err == nil:
			dup.FilePath = ref.Path
			dup.FileSize = src.FileSize
		case errors.Is(err, storage.ErrNotFound):
			// исходный блоб потерян — копия создаётся без файла
			s.logger.Warnw("duplicate: source blob missing", "item_id", src.ID, "path", src.FilePath)
		default:
			s.logger.Errorw("duplicate: blob copy failed", "item_id", src.ID, "error", err)
			return nil, failStorage("Failed to copy file")
		}
	}

	if err := owner.Create(ctx, dup); err != nil {
		if dup.FilePath != "" {
			if derr := s.files.Delete(dup.FilePath); derr != nil {
				s.logger.Warnw("duplicate: orphan blob cleanup failed", "path", dup.FilePath, "error", derr)
			}
		}
		return nil, err
	}
	return dup, nil
}

// ToggleFavorite переключает флаг избранного; блобы и дети не затрагиваются.
func (s *ItemService) ToggleFavorite(ctx context.Context, userID int64, id string) (*model.Item, error) {
	owner := s.items.Owner(userID)
	item, err := owner.Get(ctx, id)
	if err != nil {
		return nil, mapItemErr(err)
	}
	item, err = owner.Update(ctx, id, map[string]any{"is_favorite": !item.IsFavorite})
	if err != nil {
		return nil, mapItemErr(err)
	}
	return item, nil
}

// Share генерирует share-ссылку из базового URL и id элемента.
// Повторный вызов перезаписывает прежнюю ссылку; отозвать её нельзя.
func (s *ItemService) Share(ctx context.Context, userID int64, id string) (*model.Item, error) {
	owner := s.items.Owner(userID)
	if _, err := owner.Get(ctx, id); err != nil {
		return nil, mapItemErr(err)
	}
	item, err := owner.Update(ctx, id, map[string]any{"share_link": s.clientURL + "/shared/" + id})
	if err != nil {
		return nil, mapItemErr(err)
	}
	return item, nil
}

// SetPrivate помечает элемент как приватный (или снимает пометку).
// Пометка возможна только при настроенном общеаккаунтном замке —
// иначе приватный раздел ничем не защищён; снятие доступно всегда.
func (s *ItemService) SetPrivate(ctx context.Context, userID int64, id string, locked bool) (*model.Item, error) {
	if locked {
		user, err := s.users.GetUserByID(ctx, userID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if user == nil || !user.HasLockPassword {
			return nil, failValidation("Set a lock password first")
		}
	}
	item, err := s.items.Owner(userID).Update(ctx, id, map[string]any{"is_locked": locked})
	if err != nil {
		return nil, mapItemErr(err)
	}
	return item, nil
}

// ComputeStats за один проход считает счётчики и размеры по типам.
// Размер заметки — длина её текста в символах; у изображений и PDF —
// размер блоба; папка учитывает только собственный блоб (обычно ноль,
// размеры потомков не агрегируются).
func (s *ItemService) ComputeStats(ctx context.Context, userID int64) (*Stats, error) {
	items, err := s.items.Owner(userID).ListAll(ctx)
	if err != nil {
		return nil, err
	}

	st := &Stats{TotalStorage: TotalQuota}
	for _, it := range items {
		switch it.Kind {
		case model.KindFolder:
			st.Folders.Count++
			st.Folders.Size += it.FileSize
		case model.KindNote:
			st.Notes.Count++
			st.Notes.Size += int64(len([]rune(it.Content)))
		case model.KindImage:
			st.Images.Count++
			st.Images.Size += it.FileSize
		case model.KindPDF:
			st.Pdfs.Count++
			st.Pdfs.Size += it.FileSize
		}
	}
	st.UsedStorage = st.Folders.Size + st.Notes.Size + st.Images.Size + st.Pdfs.Size
	// при превышении квоты остаток уходит в минус — на запись это не влияет
	st.AvailableStorage = st.TotalStorage - st.UsedStorage
	return st, nil
}
