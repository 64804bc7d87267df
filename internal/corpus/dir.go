package corpus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DirStore reads the corpus from a local checkout
type DirStore struct {
	root string
}

// NewDirStore creates a store rooted at dir
func NewDirStore(root string) *DirStore {
	return &DirStore{root: root}
}

// Fetch reads a file below the root
func (s *DirStore) Fetch(ctx context.Context, p string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.resolve(p))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", p, ErrNotFound)
		}
		return "", fmt.Errorf("read %s: %w", p, err)
	}
	return string(data), nil
}

// List returns directory entries sorted by name
func (s *DirStore) List(ctx context.Context, dir string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items, err := os.ReadDir(s.resolve(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", dir, ErrNotFound)
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		if strings.HasPrefix(item.Name(), ".") {
			continue
		}
		entries = append(entries, Entry{
			Name: item.Name(),
			Path: path.Join(cleanPath(dir), item.Name()),
			Dir:  item.IsDir(),
		})
	}
	return entries, nil
}

// resolve maps a corpus path onto the filesystem; ".." cannot climb above the root
func (s *DirStore) resolve(p string) string {
	return filepath.Join(s.root, filepath.FromSlash(cleanPath(p)))
}

// cleanPath normalizes a corpus path to a rooted-relative slash path
func cleanPath(p string) string {
	clean := path.Clean("/" + strings.TrimSpace(p))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" {
		return "."
	}
	return clean
}
