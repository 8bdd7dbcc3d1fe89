package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"jotter/internal/model"
)

// ItemFilter — предикаты выборки списка элементов.
// Пустые/nil поля не участвуют в фильтрации.
type ItemFilter struct {
	Kind     model.Kind
	Favorite *bool
	// Подстрока имени, регистронезависимо.
	Search string
	// Календарный день создания в формате YYYY-MM-DD.
	// Границы дня считаются в Loc (локальный день владельца, не UTC).
	Day string
	Loc *time.Location
	// ParentID задаёт папку; TopLevel выбирает элементы без родителя.
	// Если не задано ни то ни другое — фильтра по родителю нет.
	ParentID string
	TopLevel bool
}

// ItemRepository отдаёт доступ к элементам только через представление,
// связанное с владельцем: запрос без owner-скоупа невыразим.
type ItemRepository interface {
	Owner(userID int64) OwnerItems
}

// OwnerItems — операции над элементами одного владельца.
// Чужие id неотличимы от несуществующих: везде gorm.ErrRecordNotFound.
type OwnerItems interface {
	// List возвращает элементы по фильтру, новые сначала (created_at desc).
	List(ctx context.Context, f ItemFilter) ([]model.Item, error)

	// ListRecent возвращает последние изменённые элементы (updated_at desc).
	ListRecent(ctx context.Context, limit int) ([]model.Item, error)

	// ListLocked возвращает элементы приватного раздела, новые сначала.
	ListLocked(ctx context.Context) ([]model.Item, error)

	// ListAll возвращает все элементы владельца без сортировки.
	ListAll(ctx context.Context) ([]model.Item, error)

	Get(ctx context.Context, id string) (*model.Item, error)
	Create(ctx context.Context, item *model.Item) error

	// Update применяет карту полей и возвращает обновлённую запись.
	Update(ctx context.Context, id string, fields map[string]any) (*model.Item, error)

	Delete(ctx context.Context, id string) error

	// DeleteChildren удаляет прямых детей папки и возвращает удалённые
	// записи, чтобы вызывающий мог зачистить их блобы.
	DeleteChildren(ctx context.Context, parentID string) ([]model.Item, error)

	// DeleteAll удаляет все элементы владельца (удаление аккаунта).
	DeleteAll(ctx context.Context) error
}

type itemRepo struct {
	db *gorm.DB
}

// NewItemRepository создаёт реализацию репозитория для Item.
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepo{db: db}
}

func (r *itemRepo) Owner(userID int64) OwnerItems {
	return &ownerItems{db: r.db, userID: userID}
}

type ownerItems struct {
	db     *gorm.DB
	userID int64
}

func (o *ownerItems) scoped(ctx context.Context) *gorm.DB {
	return o.db.WithContext(ctx).Where("user_id = ?", o.userID)
}

func (o *ownerItems) List(ctx context.Context, f ItemFilter) ([]model.Item, error) {
	tx := o.scoped(ctx)

	if f.Kind != "" {
		tx = tx.Where("kind = ?", f.Kind)
	}
	if f.Favorite != nil {
		tx = tx.Where("is_favorite = ?", *f.Favorite)
	}
	if f.Search != "" {
		tx = tx.Where("lower(name) LIKE lower(?)", "%"+f.Search+"%")
	}
	if f.Day != "" {
		loc := f.Loc
		if loc == nil {
			loc = time.Local
		}
		start, err := time.ParseInLocation("2006-01-02", f.Day, loc)
		if err != nil {
			return nil, err
		}
		// [полночь; следующая полночь) в зоне владельца; в предикат границы
		// уходят в UTC — в той же зоне, в которой хранятся метки времени
		tx = tx.Where("created_at >= ? AND created_at < ?", start.UTC(), start.AddDate(0, 0, 1).UTC())
	}
	if f.ParentID != "" {
		tx = tx.Where("parent_id = ?", f.ParentID)
	} else if f.TopLevel {
		tx = tx.Where("parent_id IS NULL")
	}

	var items []model.Item
	if err := tx.Order("created_at desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (o *ownerItems) ListRecent(ctx context.Context, limit int) ([]model.Item, error) {
	var items []model.Item
	err := o.scoped(ctx).Order("updated_at desc").Limit(limit).Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (o *ownerItems) ListLocked(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	err := o.scoped(ctx).Where("is_locked = ?", true).Order("created_at desc").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (o *ownerItems) ListAll(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	if err := o.scoped(ctx).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (o *ownerItems) Get(ctx context.Context, id string) (*model.Item, error) {
	var item model.Item
	if err := o.scoped(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (o *ownerItems) Create(ctx context.Context, item *model.Item) error {
	item.UserID = o.userID
	return o.db.WithContext(ctx).Create(item).Error
}

func (o *ownerItems) Update(ctx context.Context, id string, fields map[string]any) (*model.Item, error) {
	tx := o.scoped(ctx).Model(&model.Item{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return o.Get(ctx, id)
}

func (o *ownerItems) Delete(ctx context.Context, id string) error {
	tx := o.scoped(ctx).Where("id = ?", id).Delete(&model.Item{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (o *ownerItems) DeleteChildren(ctx context.Context, parentID string) ([]model.Item, error) {
	var children []model.Item
	if err := o.scoped(ctx).Where("parent_id = ?", parentID).Find(&children).Error; err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return children, nil
	}
	err := o.scoped(ctx).Where("parent_id = ?", parentID).Delete(&model.Item{}).Error
	if err != nil {
		return nil, err
	}
	return children, nil
}

func (o *ownerItems) DeleteAll(ctx context.Context) error {
	return o.scoped(ctx).Delete(&model.Item{}).Error
}
