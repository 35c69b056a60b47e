package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ak/mealplanner/internal/pkg/logger"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// jsonFile is a single JSON document on disk.
type jsonFile struct {
	fs     afero.Fs
	path   string
	logger *logger.Logger
}

func newJSONFile(fsys afero.Fs, path string, log *logger.Logger) jsonFile {
	return jsonFile{
		fs:     fsys,
		path:   path,
		logger: log.WithFields(zap.String("path", path)),
	}
}

// loadJSON decodes the file into a fresh value from newDefault. A missing file
// or one that does not decode yields the default; only read failures are
// returned as errors.
func loadJSON[T any](f jsonFile, newDefault func() T) (T, error) {
	data, err := afero.ReadFile(f.fs, f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
			f.logger.Debug("Document not found, starting empty")
			return newDefault(), nil
		}
		var zero T
		return zero, fmt.Errorf("failed to read %s: %w", f.path, err)
	}

	v := newDefault()
	if err := json.Unmarshal(data, &v); err != nil {
		f.logger.Warn("Document is corrupt, starting empty", zap.Error(err))
		return newDefault(), nil
	}
	return v, nil
}

// save writes v with 4-space indentation to a temp file, then renames it over
// the document.
func (f jsonFile) save(v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", f.path, err)
	}

	if dir := filepath.Dir(f.path); dir != "" && dir != "." {
		if err := f.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	tmp := f.path + ".tmp"
	if err := afero.WriteFile(f.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := f.fs.Rename(tmp, f.path); err != nil {
		_ = f.fs.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	return nil
}
