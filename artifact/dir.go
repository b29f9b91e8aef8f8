package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// DirStore writes artifacts as files below a root directory.
type DirStore struct {
	root string
}

var _ Store = (*DirStore)(nil)

// NewDirStore creates a DirStore rooted at dir, creating it if needed.
func NewDirStore(dir string) (*DirStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}

	return &DirStore{root: abs}, nil
}

// Root returns the absolute root directory.
func (d *DirStore) Root() string { return d.root }

func (d *DirStore) resolve(name string) (string, error) {
	key, err := CleanName(name)
	if err != nil {
		return "", err
	}

	return filepath.Join(d.root, filepath.FromSlash(key)), nil
}

// Save writes data to name, creating parent directories.
func (d *DirStore) Save(_ context.Context, name string, data []byte) error {
	p, err := d.resolve(name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}

	return os.WriteFile(p, data, 0o644)
}

// Get reads the file for name.
func (d *DirStore) Get(_ context.Context, name string) ([]byte, error) {
	p, err := d.resolve(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return data, err
}

// List walks the root and returns slash separated names, sorted.
func (d *DirStore) List(_ context.Context) ([]string, error) {
	var names []string

	err := filepath.WalkDir(d.root, func(p string, e fs.DirEntry, err error) error {
		if err != nil || e.IsDir() {
			return err
		}

		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}

		names = append(names, filepath.ToSlash(rel))

		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(names)

	return names, nil
}

// Delete removes the file for name or returns ErrNotFound.
func (d *DirStore) Delete(_ context.Context, name string) error {
	p, err := d.resolve(name)
	if err != nil {
		return err
	}

	err = os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return err
}
