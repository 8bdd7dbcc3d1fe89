package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"jotter/internal/model"
	"jotter/internal/repo"
)

// FolderService — машина состояний замка папки: Unlocked (хеша нет)
// и Locked (хеш установлен). Разблокировка — проверка на чтение,
// состояние папки она не меняет.
type FolderService struct {
	items  repo.ItemRepository
	logger *zap.SugaredLogger
}

// NewFolderService создаёт сервис папок.
func NewFolderService(items repo.ItemRepository, logger *zap.SugaredLogger) *FolderService {
	return &FolderService{items: items, logger: logger}
}

// FolderContents — папка и её прямые дети.
type FolderContents struct {
	Folder   *model.Item
	Items    []model.Item
	IsLocked bool
}

// getFolder возвращает папку владельца; не-папка неотличима от отсутствующей.
func (s *FolderService) getFolder(ctx context.Context, owner repo.OwnerItems, id string) (*model.Item, error) {
	folder, err := owner.Get(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, failNotFound("Folder not found")
	}
	if err != nil {
		return nil, err
	}
	if folder.Kind != model.KindFolder {
		return nil, failNotFound("Folder not found")
	}
	return folder, nil
}

// gate привязывает SecretGate к хешу замка конкретной папки.
func (s *FolderService) gate(owner repo.OwnerItems, folder *model.Item) SecretGate {
	return SecretGate{
		Load: func(ctx context.Context) (string, error) {
			if folder.LockHash == nil {
				return "", nil
			}
			return *folder.LockHash, nil
		},
		Store: func(ctx context.Context, hash string) error {
			var v *string
			if hash != "" {
				v = &hash
			}
			_, err := owner.Update(ctx, folder.ID, map[string]any{"lock_hash": v})
			return err
		},
	}
}

// Lock ставит пароль на незапертую папку; пароль не короче четырёх символов.
func (s *FolderService) Lock(ctx context.Context, userID int64, folderID, password string) error {
	owner := s.items.Owner(userID)
	folder, err := s.getFolder(ctx, owner, folderID)
	if err != nil {
		return err
	}
	if folder.Locked() {
		return failValidation("Folder is already locked")
	}
	return s.gate(owner, folder).Set(ctx, password)
}

// Unlock проверяет пароль и возвращает папку с прямыми детьми.
// Папка остаётся запертой для последующих обращений.
func (s *FolderService) Unlock(ctx context.Context, userID int64, folderID, password string) (*FolderContents, error) {
	owner := s.items.Owner(userID)
	folder, err := s.getFolder(ctx, owner, folderID)
	if err != nil {
		return nil, err
	}
	if !folder.Locked() {
		return nil, failValidation("Folder is not locked")
	}
	if err := s.gate(owner, folder).Verify(ctx, password); err != nil {
		return nil, err
	}
	items, err := owner.List(ctx, repo.ItemFilter{ParentID: folder.ID})
	if err != nil {
		return nil, err
	}
	return &FolderContents{Folder: folder, Items: items, IsLocked: true}, nil
}

// RemoveLock снимает замок после проверки пароля.
func (s *FolderService) RemoveLock(ctx context.Context, userID int64, folderID, password string) error {
	owner := s.items.Owner(userID)
	folder, err := s.getFolder(ctx, owner, folderID)
	if err != nil {
		return err
	}
	if !folder.Locked() {
		return failValidation("Folder is not locked")
	}
	return s.gate(owner, folder).Clear(ctx, password)
}

// Contents возвращает папку и её прямых детей вместе с признаком замка.
func (s *FolderService) Contents(ctx context.Context, userID int64, folderID string) (*FolderContents, error) {
	owner := s.items.Owner(userID)
	folder, err := s.getFolder(ctx, owner, folderID)
	if err != nil {
		return nil, err
	}
	items, err := owner.List(ctx, repo.ItemFilter{ParentID: folder.ID})
	if err != nil {
		return nil, err
	}
	return &FolderContents{Folder: folder, Items: items, IsLocked: folder.Locked()}, nil
}
