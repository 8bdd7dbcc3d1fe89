package mailer

import (
	"context"

	"go.uber.org/zap"
)

// Mailer доставляет код восстановления пароля. Сервис рассматривает
// доставку как внешнего участника: сбой отправки логируется и не
// прерывает операцию.
type Mailer interface {
	SendResetCode(ctx context.Context, email, code string) error
}

// LogMailer — dev-реализация: вместо отправки пишет код в лог.
type LogMailer struct {
	Logger *zap.SugaredLogger
}

func (m *LogMailer) SendResetCode(ctx context.Context, email, code string) error {
	m.Logger.Infow("password reset code issued", "email", email, "code", code)
	return nil
}
