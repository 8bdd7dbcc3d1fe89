package service

import (
	"context"

	"golang.org/x/crypto/bcrypt"
)

// MinSecretLen — минимальная длина секрета замка.
const MinSecretLen = 4

// SecretGate — переиспользуемый «замок на секрете»: установка, проверка
// и сброс одностороннего хеша. Одна и та же возможность обслуживает
// замок отдельной папки и общеаккаунтный приватный раздел — различается
// только привязка Load/Store.
type SecretGate struct {
	// Load возвращает текущий хеш; пустая строка означает «замка нет».
	Load func(ctx context.Context) (string, error)
	// Store сохраняет хеш; пустая строка сбрасывает замок.
	Store func(ctx context.Context, hash string) error
}

// Set вычисляет хеш секрета и сохраняет его.
func (g SecretGate) Set(ctx context.Context, secret string) error {
	if len(secret) < MinSecretLen {
		return failValidation("Password must be at least 4 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return g.Store(ctx, string(hash))
}

// Verify сравнивает кандидата с сохранённым хешом, не меняя состояние.
func (g SecretGate) Verify(ctx context.Context, candidate string) error {
	hash, err := g.Load(ctx)
	if err != nil {
		return err
	}
	if hash == "" {
		return failValidation("Lock is not set")
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) != nil {
		return failUnauthorized("Incorrect password")
	}
	return nil
}

// Clear сбрасывает замок после успешной проверки кандидата.
func (g SecretGate) Clear(ctx context.Context, candidate string) error {
	if err := g.Verify(ctx, candidate); err != nil {
		return err
	}
	return g.Store(ctx, "")
}
