// Package file stores transducers as files in a directory, one file per
// transducer, in the AT&T text container or JSON.
package file

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/twolc/pkg/domain"
	"github.com/aretw0/twolc/pkg/fst"
)

// Store implements ports.TransducerStore using the local filesystem.
type Store struct {
	BasePath string
	Format   fst.Format
}

// Option configures a Store.
type Option func(*Store)

// WithFormat selects the container format (default AT&T).
func WithFormat(f fst.Format) Option {
	return func(s *Store) {
		s.Format = f
	}
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to the current directory.
func New(basePath string, opts ...Option) *Store {
	if basePath == "" {
		basePath = "."
	}
	s := &Store{BasePath: basePath, Format: fst.FormatATT}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the file a transducer name is stored in.
func (s *Store) Path(name string) string {
	return filepath.Join(s.BasePath, url.PathEscape(name)+s.Format.Extension())
}

// Save writes the transducer atomically: a temporary file in the same
// directory is synced and then renamed over the destination.
func (s *Store) Save(ctx context.Context, t *fst.Transducer) error {
	if t.Name == "" {
		return fmt.Errorf("transducer name cannot be empty")
	}
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure output directory: %w", err)
	}

	var buf bytes.Buffer
	if err := fst.Encode(&buf, t, s.Format); err != nil {
		return fmt.Errorf("failed to encode transducer: %w", err)
	}

	destPath := s.Path(t.Name)
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-*"+s.Format.Extension())
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // gone after a successful rename
	}()

	if _, err := tmpFile.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename does not replace an existing file on Windows.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing transducer file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load reads a transducer by name.
func (s *Store) Load(ctx context.Context, name string) (*fst.Transducer, error) {
	f, err := os.Open(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrTransducerNotFound
		}
		return nil, fmt.Errorf("failed to read transducer file: %w", err)
	}
	defer f.Close()

	t, err := fst.Decode(f, s.Format, name)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(f.Name()), err)
	}
	return t, nil
}

// Delete removes the transducer file.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := os.Remove(s.Path(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete transducer file: %w", err)
	}
	return nil
}

// List returns the names of the stored transducers of the store's format.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list transducers: %w", err)
	}

	ext := s.Format.Extension()
	var names []string
	for _, entry := range entries {
		file := entry.Name()
		if entry.IsDir() || filepath.Ext(file) != ext || strings.HasPrefix(file, "tmp-") {
			continue
		}
		name, err := url.PathUnescape(strings.TrimSuffix(file, ext))
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
