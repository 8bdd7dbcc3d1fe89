package model

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Kind — тип элемента хранилища.
type Kind string

const (
	KindNote   Kind = "note"
	KindImage  Kind = "image"
	KindPDF    Kind = "pdf"
	KindFolder Kind = "folder"
)

// ErrUnknownKind возвращается при недопустимом типе элемента.
var ErrUnknownKind = errors.New("unknown item kind")

// ParseKind проверяет строку типа и возвращает закрытый вариант Kind.
// Валидация типа живёт здесь, чтобы невалидный Kind не мог попасть в модель.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindNote:
		return KindNote, nil
	case KindImage:
		return KindImage, nil
	case KindPDF:
		return KindPDF, nil
	case KindFolder:
		return KindFolder, nil
	}
	return "", ErrUnknownKind
}

// HasBlob — у типов image/pdf содержимое лежит в файловом хранилище.
func (k Kind) HasBlob() bool {
	return k == KindImage || k == KindPDF
}

// Item — серверная модель элемента хранилища пользователя:
// заметка, изображение, PDF или папка. Иерархия одноуровневая:
// ParentID указывает на папку либо NULL (верхний уровень).
type Item struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID int64  `gorm:"not null;index" json:"-"` // ссылка на users.id, не переназначается

	// Связи
	User *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`

	Kind Kind   `gorm:"not null;index" json:"kind"`
	Name string `gorm:"not null" json:"name"`

	// Текст заметки; для остальных типов пустая строка.
	Content string `json:"content"`

	// Ссылка на блоб: относительный публичный путь и размер в байтах.
	// Заполняется только для image/pdf.
	FilePath string `json:"filePath"`
	FileSize int64  `json:"fileSize"`

	// Папка-родитель того же владельца; NULL — верхний уровень.
	ParentID *string `gorm:"type:uuid;index" json:"parentId"`

	IsFavorite bool `gorm:"not null;default:false" json:"isFavorite"`

	// Хеш пароля папки; не NULL только при Kind == folder.
	LockHash *string `json:"-"`

	// Флаг приватного элемента для общеаккаунтного замка.
	IsLocked bool `gorm:"not null;default:false" json:"isLocked"`

	// Ссылка для шаринга; перезаписывается при повторной генерации.
	ShareLink string `json:"shareLink"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// BeforeSave приводит метки времени к UTC. SQLite хранит время текстом,
// и значения в разных зонах перестают сравниваться корректно.
func (i *Item) BeforeSave(tx *gorm.DB) error {
	if !i.CreatedAt.IsZero() {
		i.CreatedAt = i.CreatedAt.UTC()
	}
	if !i.UpdatedAt.IsZero() {
		i.UpdatedAt = i.UpdatedAt.UTC()
	}
	return nil
}

// Locked сообщает, заперта ли папка собственным паролем.
func (i *Item) Locked() bool {
	return i.LockHash != nil && *i.LockHash != ""
}
