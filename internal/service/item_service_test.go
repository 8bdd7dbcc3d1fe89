package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"jotter/internal/model"
	"jotter/internal/repo"
)

const testClientURL = "http://localhost:3000"

func newItemService(t *testing.T) (*ItemService, *fakeFiles, repo.UserRepository) {
	t.Helper()
	items, users := newTestRepo(t)
	files := newFakeFiles()
	return NewItemService(items, users, files, testLogger(), testClientURL), files, users
}

// mkOwner заводит владельца; withGate включает общеаккаунтный замок.
func mkOwner(t *testing.T, users repo.UserRepository, email string, withGate bool) int64 {
	t.Helper()
	user, err := users.CreateUser(context.Background(), &model.User{
		Username:        "owner",
		Email:           email,
		Password:        "hash",
		HasLockPassword: withGate,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user.ID
}

func TestItemService_Create(t *testing.T) {
	svc, files, _ := newItemService(t)
	ctx := context.Background()

	t.Run("note", func(t *testing.T) {
		item, err := svc.Create(ctx, 1, CreateInput{Kind: "note", Name: "todo", Content: "milk"})
		assert.NoError(t, err)
		assert.NotEmpty(t, item.ID)
		assert.Equal(t, model.KindNote, item.Kind)
		assert.Equal(t, "milk", item.Content)
		assert.Empty(t, item.FilePath)
	})

	t.Run("invalid kind", func(t *testing.T) {
		_, err := svc.Create(ctx, 1, CreateInput{Kind: "video", Name: "x"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := svc.Create(ctx, 1, CreateInput{Kind: "note", Name: ""})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("image with file", func(t *testing.T) {
		item, err := svc.Create(ctx, 1, CreateInput{
			Kind: "image",
			Name: "pic",
			File: &Upload{Filename: "pic.png", ContentType: "image/png", Data: strings.NewReader("12345")},
		})
		assert.NoError(t, err)
		assert.NotEmpty(t, item.FilePath)
		assert.Equal(t, int64(5), item.FileSize)
	})

	t.Run("unsupported content rejected before record", func(t *testing.T) {
		_, err := svc.Create(ctx, 2, CreateInput{
			Kind: "image",
			Name: "vector",
			File: &Upload{Filename: "v.svg", ContentType: "image/svg+xml", Data: strings.NewReader("<svg/>")},
		})
		assert.ErrorIs(t, err, ErrUnsupportedContent)

		items, lerr := svc.List(ctx, 2, ListFilter{})
		assert.NoError(t, lerr)
		assert.Empty(t, items, "no record may be written on rejected upload")
	})

	t.Run("storage failure aborts create", func(t *testing.T) {
		files.failSave = true
		defer func() { files.failSave = false }()

		_, err := svc.Create(ctx, 3, CreateInput{
			Kind: "pdf",
			Name: "doc",
			File: &Upload{Filename: "doc.pdf", ContentType: "application/pdf", Data: strings.NewReader("%PDF")},
		})
		assert.ErrorIs(t, err, ErrStorage)

		items, lerr := svc.List(ctx, 3, ListFilter{})
		assert.NoError(t, lerr)
		assert.Empty(t, items)
	})

	t.Run("parent must be an own folder", func(t *testing.T) {
		folder, err := svc.Create(ctx, 4, CreateInput{Kind: "folder", Name: "docs"})
		assert.NoError(t, err)

		inside, err := svc.Create(ctx, 4, CreateInput{Kind: "note", Name: "n", ParentID: &folder.ID})
		assert.NoError(t, err)
		assert.Equal(t, folder.ID, *inside.ParentID)

		// чужая папка не годится в родители
		_, err = svc.Create(ctx, 5, CreateInput{Kind: "note", Name: "n", ParentID: &folder.ID})
		assert.ErrorIs(t, err, ErrValidation)

		// и не-папка тоже
		_, err = svc.Create(ctx, 4, CreateInput{Kind: "note", Name: "n2", ParentID: &inside.ID})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("content dropped for non-notes", func(t *testing.T) {
		folder, err := svc.Create(ctx, 6, CreateInput{Kind: "folder", Name: "f", Content: "stray text"})
		assert.NoError(t, err)
		assert.Empty(t, folder.Content)
	})
}

// Операции, адресованные чужим id, всегда дают NotFound — данные
// владельца не утекают и не отличаются от несуществующих.
func TestItemService_CrossOwnerIsNotFound(t *testing.T) {
	svc, _, _ := newItemService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, 1, CreateInput{Kind: "note", Name: "secret", Content: "mine"})
	assert.NoError(t, err)

	_, err = svc.Get(ctx, 2, item.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	name := "stolen"
	_, err = svc.Update(ctx, 2, item.ID, UpdateInput{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, 2, item.ID), ErrNotFound)

	_, err = svc.Duplicate(ctx, 2, item.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ToggleFavorite(ctx, 2, item.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Share(ctx, 2, item.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// запись владельца не тронута
	got, err := svc.Get(ctx, 1, item.ID)
	assert.NoError(t, err)
	assert.Equal(t, "secret", got.Name)
}

func TestItemService_Update(t *testing.T) {
	svc, _, _ := newItemService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, 1, CreateInput{Kind: "note", Name: "draft", Content: "v1"})
	assert.NoError(t, err)

	name := "final"
	content := "v2"
	fav := true
	got, err := svc.Update(ctx, 1, item.ID, UpdateInput{Name: &name, Content: &content, IsFavorite: &fav})
	assert.NoError(t, err)
	assert.Equal(t, "final", got.Name)
	assert.Equal(t, "v2", got.Content)
	assert.True(t, got.IsFavorite)

	empty := ""
	_, err = svc.Update(ctx, 1, item.ID, UpdateInput{Name: &empty})
	assert.ErrorIs(t, err, ErrValidation)

	// пустое обновление — просто возврат текущей записи
	got, err = svc.Update(ctx, 1, item.ID, UpdateInput{})
	assert.NoError(t, err)
	assert.Equal(t, "final", got.Name)
}

// Удаление папки убирает прямых детей и их блобы; содержимое вложенной
// папки (внуки) остаётся — каскад намеренно одноуровневый.
func TestItemService_DeleteFolderCascadeOneLevel(t *testing.T) {
	svc, files, _ := newItemService(t)
	ctx := context.Background()

	folder, err := svc.Create(ctx, 1, CreateInput{Kind: "folder", Name: "root"})
	assert.NoError(t, err)

	note, err := svc.Create(ctx, 1, CreateInput{Kind: "note", Name: "child note", ParentID: &folder.ID})
	assert.NoError(t, err)

	img, err := svc.Create(ctx, 1, CreateInput{
		Kind: "image", Name: "child pic", ParentID: &folder.ID,
		File: &Upload{Filename: "c.png", ContentType: "image/png", Data: strings.NewReader("img-bytes")},
	})
	assert.NoError(t, err)

	sub, err := svc.Create(ctx, 1, CreateInput{Kind: "folder", Name: "sub", ParentID: &folder.ID})
	assert.NoError(t, err)

	grandchild, err := svc.Create(ctx, 1, CreateInput{Kind: "note", Name: "deep", ParentID: &sub.ID})
	assert.NoError(t, err)

	assert.NoError(t, svc.Delete(ctx, 1, folder.ID))

	for _, id := range []string{folder.ID, note.ID, img.ID, sub.ID} {
		_, err := svc.Get(ctx, 1, id)
		assert.ErrorIs(t, err, ErrNotFound, "item %s must be gone", id)
	}
	assert.Contains(t, files.deleted, img.FilePath, "child blob must be freed")

	// внук пережил каскад — родителя больше нет, запись осталась
	got, err := svc.Get(ctx, 1, grandchild.ID)
	assert.NoError(t, err)
	assert.Equal(t, "deep", got.Name)
}

// Сбой удаления блоба не блокирует удаление записей.
func TestItemService_DeleteSurvivesBlobFailure(t *testing.T) {
	svc, files, _ := newItemService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, 1, CreateInput{
		Kind: "pdf", Name: "doc",
		File: &Upload{Filename: "d.pdf", ContentType: "application/pdf", Data: strings.NewReader("%PDF")},
	})
	assert.NoError(t, err)

	files.failDelete = true
	assert.NoError(t, svc.Delete(ctx, 1, item.ID))

	_, err = svc.Get(ctx, 1, item.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestItemService_Duplicate(t *testing.T) {
	svc, files, _ := newItemService(t)
	ctx := context.Background()

	t.Run("note copy", func(t *testing.T) {
		src, err := svc.Create(ctx, 1, CreateInput{Kind: "note", Name: "X", Content: "hello"})
		assert.NoError(t, err)

		dup, err := svc.Duplicate(ctx, 1, src.ID)
		assert.NoError(t, err)
		assert.Equal(t, "X (Copy)", dup.Name)
		assert.Equal(t, "hello", dup.Content)
		assert.NotEqual(t, src.ID, dup.ID)
		assert.Empty(t, dup.FilePath)
	})

	t.Run("favorite and parent inherited", func(t *testing.T) {
		folder, err := svc.Create(ctx, 1, CreateInput{Kind: "folder", Name: "f"})
		assert.NoError(t, err)
		src, err := svc.Create(ctx, 1, CreateInput{Kind: "note", Name: "fav", ParentID: &folder.ID})
		assert.NoError(t, err)
		_, err = svc.ToggleFavorite(ctx, 1, src.ID)
		assert.NoError(t, err)

		dup, err := svc.Duplicate(ctx, 1, src.ID)
		assert.NoError(t, err)
		assert.True(t, dup.IsFavorite)
		assert.Equal(t, folder.ID, *dup.ParentID)
	})

	t.Run("blob copied, not shared", func(t *testing.T) {
		src, err := svc.Create(ctx, 1, CreateInput{
			Kind: "image", Name: "pic",
			File: &Upload{Filename: "p.png", ContentType: "image/png", Data: strings.NewReader("pixels")},
		})
		assert.NoError(t, err)

		dup, err := svc.Duplicate(ctx, 1, src.ID)
		assert.NoError(t, err)
		assert.NotEqual(t, src.FilePath, dup.FilePath, "duplicate must not share the blob")
		assert.Equal(t, src.FileSize, dup.FileSize, "size is carried over verbatim")

		// оба блоба существуют независимо
		_, ok := files.saved[src.FilePath]
		assert.True(t, ok)
		_, ok = files.saved[dup.FilePath]
		assert.True(t, ok)
	})

	t.Run("missing source blob tolerated", func(t *testing.T) {
		src, err := svc.Create(ctx, 1, CreateInput{
			Kind: "image", Name: "lost",
			File: &Upload{Filename: "l.png", ContentType: "image/png", Data: strings.NewReader("x")},
		})
		assert.NoError(t, err)
		delete(files.saved, src.FilePath)

		dup, err := svc.Duplicate(ctx, 1, src.ID)
		assert.NoError(t, err)
		assert.Empty(t, dup.FilePath, "copy without backing blob has no file")
	})
}

func TestItemService_ToggleFavoriteTwiceRestores(t *testing.T) {
	svc, _, _ := newItemService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, 1, CreateInput{Kind: "note", Name: "n"})
	assert.NoError(t, err)
	assert.False(t, item.IsFavorite)

	once, err := svc.ToggleFavorite(ctx, 1, item.ID)
	assert.NoError(t, err)
	assert.True(t, once.IsFavorite)

	twice, err := svc.ToggleFavorite(ctx, 1, item.ID)
	assert.NoError(t, err)
	assert.False(t, twice.IsFavorite)
}

func TestItemService_Share(t *testing.T) {
	svc, _, _ := newItemService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, 1, CreateInput{Kind: "note", Name: "n"})
	assert.NoError(t, err)

	shared, err := svc.Share(ctx, 1, item.ID)
	assert.NoError(t, err)
	assert.Equal(t, testClientURL+"/shared/"+item.ID, shared.ShareLink)

	// повторная генерация перезаписывает ссылку тем же значением
	again, err := svc.Share(ctx, 1, item.ID)
	assert.NoError(t, err)
	assert.Equal(t, shared.ShareLink, again.ShareLink)
}

func TestItemService_PrivateView(t *testing.T) {
	svc, _, users := newItemService(t)
	ctx := context.Background()
	owner := mkOwner(t, users, "private@example.com", true)

	_, err := svc.Create(ctx, owner, CreateInput{Kind: "note", Name: "open"})
	assert.NoError(t, err)
	b, err := svc.Create(ctx, owner, CreateInput{Kind: "note", Name: "hidden"})
	assert.NoError(t, err)

	_, err = svc.SetPrivate(ctx, owner, b.ID, true)
	assert.NoError(t, err)

	locked, err := svc.Locked(ctx, owner)
	assert.NoError(t, err)
	assert.Len(t, locked, 1)
	assert.Equal(t, b.ID, locked[0].ID)

	_, err = svc.SetPrivate(ctx, owner, b.ID, false)
	assert.NoError(t, err)
	locked, err = svc.Locked(ctx, owner)
	assert.NoError(t, err)
	assert.Empty(t, locked)
}

func TestItemService_SetPrivateRequiresLockGate(t *testing.T) {
	svc, _, users := newItemService(t)
	ctx := context.Background()
	owner := mkOwner(t, users, "nogate@example.com", false)

	item, err := svc.Create(ctx, owner, CreateInput{Kind: "note", Name: "n"})
	assert.NoError(t, err)

	_, err = svc.SetPrivate(ctx, owner, item.ID, true)
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorContains(t, err, "Set a lock password first")

	// снятие пометки замка не требует
	cleared, err := svc.SetPrivate(ctx, owner, item.ID, false)
	assert.NoError(t, err)
	assert.False(t, cleared.IsLocked)
}

func TestItemService_ComputeStats(t *testing.T) {
	svc, _, _ := newItemService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, CreateInput{Kind: "note", Name: "n", Content: strings.Repeat("a", 42)})
	assert.NoError(t, err)

	_, err = svc.Create(ctx, 1, CreateInput{
		Kind: "image", Name: "pic",
		File: &Upload{Filename: "p.png", ContentType: "image/png", Data: strings.NewReader(strings.Repeat("b", 1000))},
	})
	assert.NoError(t, err)

	_, err = svc.Create(ctx, 1, CreateInput{Kind: "folder", Name: "f"})
	assert.NoError(t, err)

	stats, err := svc.ComputeStats(ctx, 1)
	assert.NoError(t, err)

	assert.Equal(t, TotalQuota, stats.TotalStorage)
	assert.Equal(t, 1, stats.Notes.Count)
	assert.Equal(t, int64(42), stats.Notes.Size, "note size is content length in characters")
	assert.Equal(t, 1, stats.Images.Count)
	assert.Equal(t, int64(1000), stats.Images.Size)
	assert.Equal(t, 1, stats.Folders.Count)
	assert.Equal(t, int64(0), stats.Folders.Size, "folders do not aggregate descendant sizes")
	assert.Equal(t, int64(1042), stats.UsedStorage)
	assert.Equal(t, TotalQuota-1042, stats.AvailableStorage)

	// чужая статистика пуста
	other, err := svc.ComputeStats(ctx, 2)
	assert.NoError(t, err)
	assert.Zero(t, other.UsedStorage)
}

func TestItemService_RecentDefaultLimit(t *testing.T) {
	svc, _, _ := newItemService(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := svc.Create(ctx, 1, CreateInput{Kind: "note", Name: "n"})
		assert.NoError(t, err)
	}
	items, err := svc.Recent(ctx, 1, 0)
	assert.NoError(t, err)
	assert.Len(t, items, 10, "default recent limit is 10")
}
