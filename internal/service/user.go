package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"jotter/internal/mailer"
	"jotter/internal/model"
	"jotter/internal/repo"
	"jotter/internal/storage"
)

// resetCodeTTL — срок действия кода восстановления.
const resetCodeTTL = 10 * time.Minute

// UserService — аккаунт и профиль: регистрация, вход, восстановление
// пароля, аватар, общеаккаунтный замок и удаление аккаунта.
type UserService struct {
	users  repo.UserRepository
	items  repo.ItemRepository
	files  storage.FileStore
	mail   mailer.Mailer
	logger *zap.SugaredLogger
}

// NewUserService создаёт сервис аккаунтов.
func NewUserService(users repo.UserRepository, items repo.ItemRepository, files storage.FileStore, mail mailer.Mailer, logger *zap.SugaredLogger) *UserService {
	return &UserService{users: users, items: items, files: files, mail: mail, logger: logger}
}

func mapUserErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return failNotFound("User not found")
	}
	return err
}

// Register создаёт аккаунт: пароли должны совпадать, email уникален.
func (s *UserService) Register(ctx context.Context, username, email, password, confirm string) (*model.User, error) {
	if password != confirm {
		return nil, failValidation("Passwords do not match")
	}
	if existing, err := s.users.GetUserByEmail(ctx, email); err == nil && existing != nil {
		return nil, failValidation("Email already registered")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.users.CreateUser(ctx, &model.User{
		Username: username,
		Email:    email,
		Password: string(hash),
	})
}

// Login проверяет учётные данные. Неизвестный email и неверный пароль
// дают одинаковый отказ.
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, failUnauthorized("Invalid email or password")
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, failUnauthorized("Invalid email or password")
	}
	return user, nil
}

// GetUser возвращает аккаунт по id.
func (s *UserService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, mapUserErr(err)
	}
	return user, nil
}

// UpdateProfile меняет имя и/или аватар. Старый аватар удаляется
// по возможности; аватар — только изображение.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, username *string, avatar *Upload) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, mapUserErr(err)
	}

	fields := map[string]any{}
	if username != nil && *username != "" {
		fields["username"] = *username
	}
	if avatar != nil {
		if err := storage.CheckImage(avatar.Filename, avatar.ContentType); err != nil {
			return nil, failUnsupported("Only images are allowed for avatar")
		}
		ref, err := s.files.Save(avatar.Filename, avatar.Data, avatar.MaxSize)
		if err != nil {
			if errors.Is(err, storage.ErrTooLarge) {
				return nil, failValidation("Avatar is too large")
			}
			s.logger.Errorw("profile: avatar save failed", "user_id", id, "error", err)
			return nil, failStorage("Failed to store avatar")
		}
		if user.Avatar != "" {
			if derr := s.files.Delete(user.Avatar); derr != nil {
				s.logger.Warnw("profile: old avatar cleanup failed", "path", user.Avatar, "error", derr)
			}
		}
		fields["avatar"] = ref.Path
	}

	if len(fields) > 0 {
		if err := s.users.UpdateUser(ctx, id, fields); err != nil {
			return nil, mapUserErr(err)
		}
	}
	return s.GetUser(ctx, id)
}

// ChangePassword меняет пароль аккаунта после проверки текущего.
func (s *UserService) ChangePassword(ctx context.Context, id int64, current, next, confirm string) error {
	if next != confirm {
		return failValidation("New passwords do not match")
	}
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return mapUserErr(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
		return failUnauthorized("Current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdateUser(ctx, id, map[string]any{"password": string(hash)})
}

// DeleteAccount удаляет аккаунт вместе со всеми элементами и их блобами.
// Зачистка блобов — best-effort: сбой логируется, удаление продолжается.
func (s *UserService) DeleteAccount(ctx context.Context, id int64, password string) error {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return mapUserErr(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return failUnauthorized("Password is incorrect")
	}

	owner := s.items.Owner(id)
	items, err := owner.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, it := range items {
		if it.FilePath == "" {
			continue
		}
		if derr := s.files.Delete(it.FilePath); derr != nil {
			s.logger.Warnw("delete account: blob cleanup failed", "item_id", it.ID, "error", derr)
		}
	}
	if err := owner.DeleteAll(ctx); err != nil {
		return err
	}
	if user.Avatar != "" {
		if derr := s.files.Delete(user.Avatar); derr != nil {
			s.logger.Warnw("delete account: avatar cleanup failed", "path", user.Avatar, "error", derr)
		}
	}
	return s.users.DeleteUser(ctx, id)
}

// newResetCode — шестизначный код восстановления.
func newResetCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		// крипто-источник недоступен — код из текущего времени
		return fmt.Sprintf("%06d", time.Now().UnixNano()%900000+100000)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000)
}

// issueResetCode генерирует код, сохраняет его и отправляет письмо.
func (s *UserService) issueResetCode(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return failNotFound("No account found with this email")
		}
		return err
	}

	code := newResetCode()
	expiry := time.Now().Add(resetCodeTTL)
	err = s.users.UpdateUser(ctx, user.ID, map[string]any{
		"reset_code":        code,
		"reset_code_expiry": expiry,
	})
	if err != nil {
		return mapUserErr(err)
	}

	if merr := s.mail.SendResetCode(ctx, email, code); merr != nil {
		// доставка не критична: код уже сохранён и может быть переотправлен
		s.logger.Errorw("reset code delivery failed", "email", email, "error", merr)
	}
	return nil
}

// ForgotPassword запускает восстановление пароля по email.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	return s.issueResetCode(ctx, email)
}

// ResendCode выдаёт новый код, затирая прежний.
func (s *UserService) ResendCode(ctx context.Context, email string) error {
	return s.issueResetCode(ctx, email)
}

// checkResetCode валидирует код против записи пользователя.
func checkResetCode(user *model.User, code string) error {
	if user.ResetCode == nil || user.ResetCodeExpiry == nil {
		return failValidation("No reset code found. Please request a new one.")
	}
	if user.ResetCodeExpiry.Before(time.Now()) {
		return failValidation("Code has expired. Please request a new one.")
	}
	if *user.ResetCode != code {
		return failValidation("Invalid code")
	}
	return nil
}

// VerifyCode проверяет код восстановления, не меняя состояние.
func (s *UserService) VerifyCode(ctx context.Context, email, code string) error {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return mapUserErr(err)
	}
	return checkResetCode(user, code)
}

// ResetPassword устанавливает новый пароль по действующему коду.
func (s *UserService) ResetPassword(ctx context.Context, email, code, password, confirm string) error {
	if password != confirm {
		return failValidation("Passwords do not match")
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return mapUserErr(err)
	}
	if err := checkResetCode(user, code); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdateUser(ctx, user.ID, map[string]any{
		"password":          string(hash),
		"reset_code":        nil,
		"reset_code_expiry": nil,
	})
}

// lockGate привязывает SecretGate к общеаккаунтному замку пользователя.
func (s *UserService) lockGate(userID int64) SecretGate {
	return SecretGate{
		Load: func(ctx context.Context) (string, error) {
			user, err := s.users.GetUserByID(ctx, userID)
			if err != nil {
				return "", mapUserErr(err)
			}
			return user.LockPassword, nil
		},
		Store: func(ctx context.Context, hash string) error {
			return s.users.UpdateUser(ctx, userID, map[string]any{
				"lock_password":     hash,
				"has_lock_password": hash != "",
			})
		},
	}
}

// SetLockPassword ставит (или заменяет) секрет приватного раздела.
func (s *UserService) SetLockPassword(ctx context.Context, userID int64, secret string) error {
	return s.lockGate(userID).Set(ctx, secret)
}

// VerifyLockPassword проверяет секрет приватного раздела.
func (s *UserService) VerifyLockPassword(ctx context.Context, userID int64, secret string) error {
	return s.lockGate(userID).Verify(ctx, secret)
}

// ClearLockPassword снимает общеаккаунтный замок после проверки секрета.
func (s *UserService) ClearLockPassword(ctx context.Context, userID int64, secret string) error {
	return s.lockGate(userID).Clear(ctx, secret)
}
