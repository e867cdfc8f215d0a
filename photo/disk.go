package photo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
)

// DiskStore keeps photos as files below a root directory.
type DiskStore struct {
	root string
}

// NewDiskStore keeps objects under root, creating directories on write.
func NewDiskStore(root string) *DiskStore {
	return &DiskStore{root: root}
}

func (d *DiskStore) Put(_ context.Context, obj Object) error {
	if err := ValidateName(obj.Name); err != nil {
		return err
	}
	target := filepath.Join(d.root, filepath.FromSlash(obj.Name))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("photo: create dir: %w", err)
	}
	if err := os.WriteFile(target, obj.Data, 0o644); err != nil {
		return fmt.Errorf("photo: write: %w", err)
	}
	return nil
}

func (d *DiskStore) Delete(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(d.root, filepath.FromSlash(name)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("photo: remove: %w", err)
	}
	return nil
}

func (d *DiskStore) Get(_ context.Context, name string) (Object, error) {
	if err := ValidateName(name); err != nil {
		return Object{}, err
	}
	target := filepath.Join(d.root, filepath.FromSlash(name))
	data, err := os.ReadFile(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Object{}, ErrNotFound
		}
		return Object{}, fmt.Errorf("photo: read: %w", err)
	}

	obj := Object{Name: name, Data: data, ContentType: mime.TypeByExtension(filepath.Ext(name))}
	if info, err := os.Stat(target); err == nil {
		obj.CreatedAt = info.ModTime()
	}
	return obj, nil
}
