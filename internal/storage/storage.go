package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps generated report files outside the database.
type FileStore interface {
	WriteFile(ctx context.Context, name string, data []byte) (string, error)
	// DeleteMatching removes every file whose name matches the glob pattern
	// and returns how many were removed. It keeps going after a failed
	// removal and returns all failures joined.
	DeleteMatching(ctx context.Context, pattern string) (int, error)
	List(ctx context.Context, pattern string) ([]string, error)
}

type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create reports dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) WriteFile(ctx context.Context, name string, data []byte) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return path, nil
}

// List returns the names of entries in the store directory that match
// pattern. Only base names are matched, so the directory path may contain
// glob metacharacters.
func (s *LocalStore) List(ctx context.Context, pattern string) ([]string, error) {
	if err := validName(pattern); err != nil {
		return nil, err
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("pattern %q: %w", pattern, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	names := []string{}
	for _, entry := range entries {
		if ok, _ := filepath.Match(pattern, entry.Name()); ok {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func (s *LocalStore) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	names, err := s.List(ctx, pattern)
	if err != nil {
		return 0, err
	}
	removed := 0
	var errs []error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		err := os.Remove(filepath.Join(s.dir, name))
		switch {
		case err == nil:
			removed++
		case errors.Is(err, os.ErrNotExist):
			// removed concurrently
		default:
			errs = append(errs, fmt.Errorf("remove %s: %w", name, err))
		}
	}
	return removed, errors.Join(errs...)
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid file name %q", name)
	}
	return nil
}
