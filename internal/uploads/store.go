// Package uploads stores event image assets on local disk. Filenames are
// generated server-side so client-supplied names never touch the filesystem.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsp-platform/server/internal/domain/ids"
)

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image exceeds the size limit")
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

type Store struct {
	dir     string
	maxSize int64
}

func NewStore(dir string, maxSize int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Store{dir: dir, maxSize: maxSize}, nil
}

// Save writes the uploaded image to disk and returns the generated filename.
// originalName is only consulted for its extension.
func (s *Store) Save(src io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedType
	}

	name, err := ids.NewAssetName(ext)
	if err != nil {
		return "", fmt.Errorf("generate asset name: %w", err)
	}

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create asset file: %w", err)
	}
	defer dst.Close()

	// Read one byte past the limit to tell "at limit" from "over it".
	written, err := io.Copy(dst, io.LimitReader(src, s.maxSize+1))
	if err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("write asset: %w", err)
	}
	if written > s.maxSize {
		_ = os.Remove(dst.Name())
		return "", ErrTooLarge
	}
	return name, nil
}

// Remove deletes the named asset. Missing files are not an error.
func (s *Store) Remove(name string) error {
	if name == "" {
		return nil
	}
	// Reject anything that could escape the uploads dir.
	if filepath.Base(name) != name {
		return fmt.Errorf("invalid asset name %q", name)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove asset: %w", err)
	}
	return nil
}

// Dir returns the directory assets are stored in, for static file serving.
func (s *Store) Dir() string {
	return s.dir
}
