package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/YelzhanWeb/pickup/internal/domain"
	"github.com/YelzhanWeb/pickup/internal/interfaces"
)

type backupStore struct {
	dir string
}

func NewBackupStore(dir string) interfaces.BackupStore {
	return &backupStore{dir: dir}
}

func (s *backupStore) path(id string) (string, error) {
	if !domain.ValidBackupID(id) {
		return "", domain.Invalid("backupId", "malformed backup id")
	}
	return filepath.Join(s.dir, id+".json"), nil
}

func (s *backupStore) Write(ctx context.Context, id string, snap *domain.Snapshot) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	return NewDocument[domain.Snapshot](path).Save(snap)
}

func (s *backupStore) Read(ctx context.Context, id string) (*domain.Snapshot, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	snap, err := NewDocument[domain.Snapshot](path).Load()
	if errors.Is(err, domain.ErrNoData) {
		return nil, fmt.Errorf("backup %s: %w", id, domain.ErrNotFound)
	}
	return snap, err
}

// List returns backups newest first.
func (s *backupStore) List(ctx context.Context) ([]domain.Backup, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []domain.Backup{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup dir: %w", err)
	}

	backups := make([]domain.Backup, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		id := strings.TrimSuffix(name, ".json")
		if e.IsDir() || id == name || !domain.ValidBackupID(id) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", name, err)
		}
		backups = append(backups, domain.Backup{
			ID:        id,
			Name:      name,
			CreatedAt: info.ModTime().UTC(),
			Size:      info.Size(),
		})
	}

	slices.SortFunc(backups, func(a, b domain.Backup) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		// ids start with unix millis; break mtime ties by id
		return strings.Compare(b.ID, a.ID)
	})
	return backups, nil
}

func (s *backupStore) Delete(ctx context.Context, id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("backup %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to delete backup %s: %w", id, err)
	}
	return nil
}
