package model

import (
	"time"

	"gorm.io/gorm"
)

// User — аккаунт владельца элементов.
type User struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Username string `gorm:"not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`

	// bcrypt-хеш пароля аккаунта.
	Password string `gorm:"not null" json:"-"`

	// Публичный путь к аватару, пусто если не загружен.
	Avatar string `json:"avatar"`

	// Код восстановления пароля и срок его действия.
	ResetCode       *string    `json:"-"`
	ResetCodeExpiry *time.Time `json:"-"`

	// Общеаккаунтный замок: bcrypt-хеш секрета приватного раздела.
	LockPassword    string `json:"-"`
	HasLockPassword bool   `gorm:"not null;default:false" json:"hasLockPassword"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

// BeforeSave приводит метки времени к UTC, как у Item.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if !u.CreatedAt.IsZero() {
		u.CreatedAt = u.CreatedAt.UTC()
	}
	if !u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.UpdatedAt.UTC()
	}
	return nil
}
