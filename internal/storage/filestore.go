package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"jotter/internal/model"
)

// Ошибки файлового хранилища.
var (
	// ErrUnsupportedContent — расширение/MIME не входит в список разрешённых.
	ErrUnsupportedContent = errors.New("unsupported content type")
	// ErrTooLarge — входной поток превышает заявленный лимит.
	// Хранилище отказывает целиком, а не обрезает данные.
	ErrTooLarge = errors.New("content too large")
	// ErrNotFound — по публичному пути файла нет.
	ErrNotFound = errors.New("blob not found")
)

// BlobRef — ссылка на сохранённый блоб: публичный путь и размер в байтах.
type BlobRef struct {
	Path string
	Size int64
}

// FileStore — менеджер блобов. Пути наружу отдаются только как
// относительные локаторы под публичным префиксом, никогда как
// абсолютные пути файловой системы.
type FileStore interface {
	// Save пишет поток под сгенерированным именем, сохраняя расширение
	// declaredName. maxSize <= 0 отключает проверку размера.
	Save(declaredName string, src io.Reader, maxSize int64) (BlobRef, error)

	// Copy дублирует блоб под новым сгенерированным именем.
	Copy(ref BlobRef) (BlobRef, error)

	// Delete удаляет блоб; отсутствие файла ошибкой не считается.
	Delete(publicPath string) error

	// SizeOf возвращает фактический размер блоба в байтах.
	SizeOf(publicPath string) (int64, error)
}

// Disk — реализация FileStore поверх локального каталога загрузок.
type Disk struct {
	dir    string
	prefix string
}

// NewDisk создаёт хранилище в dir; каталог создаётся при необходимости.
// prefix — публичный префикс путей, например "/uploads/".
func NewDisk(dir, prefix string) (*Disk, error) {
	if dir == "" {
		return nil, errors.New("upload directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Disk{dir: dir, prefix: prefix}, nil
}

// Dir возвращает каталог хранилища (для раздачи статики).
func (d *Disk) Dir() string { return d.dir }

// Prefix возвращает публичный префикс путей.
func (d *Disk) Prefix() string { return d.prefix }

// newName генерирует уникальное имя файла: миллисекунды + случайный
// суффикс, расширение исходного имени сохраняется.
func newName(declaredName, marker string) string {
	ext := strings.ToLower(filepath.Ext(declaredName))
	return fmt.Sprintf("%d-%s%s%s", time.Now().UnixMilli(), uuid.NewString()[:8], marker, ext)
}

// fromPublic переводит публичный путь в путь внутри каталога.
func (d *Disk) fromPublic(publicPath string) (string, error) {
	name := strings.TrimPrefix(publicPath, d.prefix)
	name = path.Base(name) // отсечь возможные ../
	if name == "" || name == "." || name == "/" {
		return "", ErrNotFound
	}
	return filepath.Join(d.dir, name), nil
}

func (d *Disk) Save(declaredName string, src io.Reader, maxSize int64) (BlobRef, error) {
	name := newName(declaredName, "")
	dst := filepath.Join(d.dir, name)

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return BlobRef{}, fmt.Errorf("create blob file: %w", err)
	}
	defer f.Close()

	reader := src
	if maxSize > 0 {
		reader = io.LimitReader(src, maxSize+1)
	}
	n, err := io.Copy(f, reader)
	if err != nil {
		_ = os.Remove(dst)
		return BlobRef{}, fmt.Errorf("write blob: %w", err)
	}
	if maxSize > 0 && n > maxSize {
		_ = os.Remove(dst)
		return BlobRef{}, ErrTooLarge
	}
	return BlobRef{Path: d.prefix + name, Size: n}, nil
}

func (d *Disk) Copy(ref BlobRef) (BlobRef, error) {
	srcPath, err := d.fromPublic(ref.Path)
	if err != nil {
		return BlobRef{}, err
	}
	src, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return BlobRef{}, ErrNotFound
		}
		return BlobRef{}, fmt.Errorf("open blob: %w", err)
	}
	defer src.Close()

	name := newName(ref.Path, "-copy")
	dst := filepath.Join(d.dir, name)
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return BlobRef{}, fmt.Errorf("create blob copy: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, src)
	if err != nil {
		_ = os.Remove(dst)
		return BlobRef{}, fmt.Errorf("copy blob: %w", err)
	}
	return BlobRef{Path: d.prefix + name, Size: n}, nil
}

func (d *Disk) Delete(publicPath string) error {
	p, err := d.fromPublic(publicPath)
	if err != nil {
		return nil // некорректный путь зачищать нечем
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func (d *Disk) SizeOf(publicPath string) (int64, error) {
	p, err := d.fromPublic(publicPath)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(p)
	if os.IsNotExist(err) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("stat blob: %w", err)
	}
	return info.Size(), nil
}

// Разрешённые пары расширение/MIME.
var (
	imageExts  = map[string]string{".jpeg": "image/jpeg", ".jpg": "image/jpeg", ".png": "image/png", ".gif": "image/gif"}
	pdfExt     = ".pdf"
	pdfMime    = "application/pdf"
	octetMimes = map[string]bool{"": true, "application/octet-stream": true}
)

// CheckContent проверяет загрузку против заявленного типа элемента:
// изображения — фиксированный список растровых форматов, pdf — только
// пара .pdf/application/pdf. Для остальных типов файл не допускается.
func CheckContent(kind model.Kind, filename, mimeType string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	switch kind {
	case model.KindImage:
		want, ok := imageExts[ext]
		if !ok {
			return ErrUnsupportedContent
		}
		if mt != want && !octetMimes[mt] {
			return ErrUnsupportedContent
		}
		return nil
	case model.KindPDF:
		if ext != pdfExt {
			return ErrUnsupportedContent
		}
		if mt != pdfMime && !octetMimes[mt] {
			return ErrUnsupportedContent
		}
		return nil
	}
	return ErrUnsupportedContent
}

// CheckImage — проверка аватара: только растровые изображения.
func CheckImage(filename, mimeType string) error {
	return CheckContent(model.KindImage, filename, mimeType)
}
