package jsonfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/YelzhanWeb/pickup/internal/domain"
)

// Document is one JSON file holding a value of type T.
// Writes go to a temporary file in the same directory which is fsynced and
// renamed over the target, so readers never observe a partial document.
type Document[T any] struct {
	path string
	mu   sync.RWMutex
}

func NewDocument[T any](path string) *Document[T] {
	return &Document[T]{path: path}
}

func (d *Document[T]) Path() string {
	return d.path
}

// Load returns domain.ErrNoData when the file does not exist and
// domain.ErrCorruptState when it cannot be decoded.
func (d *Document[T]) Load() (*T, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.load()
}

func (d *Document[T]) Save(v *T) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.save(v)
}

// Update loads the document (zero value when absent), applies fn and saves the
// result while holding the write lock. fn's error aborts the write.
func (d *Document[T]) Update(fn func(v *T) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.load()
	if errors.Is(err, domain.ErrNoData) {
		v = new(T)
	} else if err != nil {
		return err
	}

	if err := fn(v); err != nil {
		return err
	}
	return d.save(v)
}

func (d *Document[T]) load() (*T, error) {
	data, err := os.ReadFile(d.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", d.path, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrCorruptState, d.path)
	}
	// json.Unmarshal accepts null and leaves the zero value
	if bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w: %s holds null", domain.ErrCorruptState, d.path)
	}

	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorruptState, d.path, err)
	}
	return v, nil
}

func (d *Document[T]) save(v *T) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", d.path, err)
	}
	return writeAtomic(d.path, data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	committed = true
	return nil
}
