package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Disk stores images under a local directory that the HTTP server exposes at
// PublicPrefix.
type Disk struct {
	dir          string
	publicPrefix string
}

// NewDisk creates dir if needed.
func NewDisk(dir, publicPrefix string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Disk{dir: dir, publicPrefix: trimSlash(publicPrefix)}, nil
}

// Dir returns the root directory.
func (d *Disk) Dir() string { return d.dir }

// Save writes body to dir/key and returns the public path. At most MaxImageSize
// bytes are accepted.
func (d *Disk) Save(ctx context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target, err := d.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}
	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	n, err := io.Copy(f, io.LimitReader(body, MaxImageSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > MaxImageSize {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("write file: %w", err)
	}
	return d.publicPrefix + "/" + key, nil
}

// Delete removes dir/key. A missing file is not an error.
func (d *Disk) Delete(_ context.Context, key string) error {
	target, err := d.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (d *Disk) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(d.dir, filepath.FromSlash(clean)), nil
}

func trimSlash(s string) string {
	return strings.TrimRight(s, "/")
}
