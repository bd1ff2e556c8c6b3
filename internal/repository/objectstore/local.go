package objectstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Local stores media below a directory that the API serves statically
type Local struct {
	dir       string
	publicURL string
}

// NewLocal creates dir if needed. publicURL is the prefix the directory is
// mounted at, e.g. /uploads.
func NewLocal(dir, publicURL string) (*Local, error) {
	if dir == "" {
		return nil, fmt.Errorf("local media dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	return &Local{dir: dir, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// Dir returns the root directory
func (s *Local) Dir() string {
	return s.dir
}

// Put writes data to dir/name
func (s *Local) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	clean := filepath.Clean("/" + name)
	target := filepath.Join(s.dir, clean)

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media dir: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write media %s: %w", name, err)
	}
	return s.publicURL + filepath.ToSlash(clean), nil
}
