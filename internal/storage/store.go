// Package storage reads source images and writes encoded assets and their
// metadata sidecars through an afero filesystem.
package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/ironsheep/image-studio-mcp/internal/imgerr"
)

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

// Store is safe for concurrent use as long as the underlying afero.Fs is.
type Store struct {
	fs       afero.Fs
	maxBytes int64
}

// New returns a Store on fsys. maxBytes <= 0 disables the source size limit.
func New(fsys afero.Fs, maxBytes int64) *Store {
	return &Store{fs: fsys, maxBytes: maxBytes}
}

// NewOS returns a Store on the host filesystem.
func NewOS(maxBytes int64) *Store {
	return New(afero.NewOsFs(), maxBytes)
}

// ReadSource reads an image file.
//
// # Errors
//
//   - NotFound if path does not exist
//   - InvalidParameter if path is a directory or larger than the limit
//   - IOFailure for any other read error
func (s *Store) ReadSource(path string) ([]byte, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, imgerr.New(imgerr.NotFound, "image file not found: %s", path)
		}
		return nil, imgerr.Wrap(imgerr.IOFailure, err, "stat %s", path)
	}
	if info.IsDir() {
		return nil, imgerr.New(imgerr.InvalidParameter, "%s is a directory, not an image", path)
	}
	if s.maxBytes > 0 && info.Size() > s.maxBytes {
		return nil, imgerr.New(imgerr.InvalidParameter,
			"image file %s is %d bytes, over the %d byte limit", path, info.Size(), s.maxBytes)
	}

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, imgerr.Wrap(imgerr.IOFailure, err, "read %s", path)
	}
	return data, nil
}

// WriteAsset writes data to path, creating parent directories as needed.
// Directory creation is idempotent, so concurrent writes into the same new
// directory do not fail.
func (s *Store) WriteAsset(path string, data []byte) error {
	if path == "" {
		return imgerr.New(imgerr.InvalidParameter, "output path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := s.fs.MkdirAll(dir, dirPerm); err != nil {
			return imgerr.Wrap(imgerr.IOFailure, err, "create directory %s", dir)
		}
	}
	if err := afero.WriteFile(s.fs, path, data, filePerm); err != nil {
		return imgerr.Wrap(imgerr.IOFailure, err, "write %s", path)
	}
	return nil
}
