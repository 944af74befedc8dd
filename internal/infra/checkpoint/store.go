package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/FrankX3M/wordstat-api/internal/domain"
)

// Suffix суффикс файла состояния рядом с файлом выгрузки
const Suffix = ".state.json"

var (
	// ErrWriteCheckpoint ошибка записи временного файла
	ErrWriteCheckpoint = errors.New("checkpoint: failed to write")

	// ErrReplaceCheckpoint ошибка атомарной замены файла
	ErrReplaceCheckpoint = errors.New("checkpoint: failed to replace")
)

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
}

// DefaultPath путь файла состояния для файла выгрузки
func DefaultPath(output string) string {
	return output + Suffix
}

// FileStore хранит курсор выгрузки в JSON-файле
// Запись атомарна: временный файл и rename поверх прежнего
type FileStore struct {
	path   string
	logger Logger

	// beforeRename вызывается между записью временного файла и rename
	beforeRename func() error
}

// NewFileStore создаёт хранилище; logger может быть nil
func NewFileStore(path string, logger Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Path путь файла состояния
func (s *FileStore) Path() string {
	return s.path
}

// Load читает курсор; отсутствующий или повреждённый файл означает "нет курсора"
func (s *FileStore) Load() (domain.FetchCursor, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.warn("Failed to read checkpoint %s, starting from scratch: %v", s.path, err)
		}
		return domain.FetchCursor{}, false
	}

	var cursor domain.FetchCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		s.warn("Checkpoint %s is corrupted, starting from scratch: %v", s.path, err)
		return domain.FetchCursor{}, false
	}

	if cursor.Offset < 0 || cursor.TotalFetched < 0 {
		s.warn("Checkpoint %s has negative values, starting from scratch", s.path)
		return domain.FetchCursor{}, false
	}

	return cursor, true
}

// Save атомарно заменяет файл состояния
func (s *FileStore) Save(cursor domain.FetchCursor) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: create dir: %v", ErrWriteCheckpoint, err)
		}
	}

	data, err := json.MarshalIndent(cursor, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrWriteCheckpoint, err)
	}

	tmp := s.path + ".tmp"
	if err := writeSynced(tmp, data); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrWriteCheckpoint, err)
	}

	if s.beforeRename != nil {
		if err := s.beforeRename(); err != nil {
			return fmt.Errorf("%w: %v", ErrReplaceCheckpoint, err)
		}
	}

	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrReplaceCheckpoint, err)
	}

	return nil
}

// Remove удаляет файл состояния; отсутствие файла не ошибка
func (s *FileStore) Remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

func (s *FileStore) warn(format string, v ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(format, v...)
	}
}
