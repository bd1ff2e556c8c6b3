// Package objectstore keeps uploaded media and returns a URL clients can
// fetch it from.
package objectstore

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shuoxuer/shuoxuer-website/internal/config"
)

// Store persists a media object and returns its public URL
type Store interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// New selects the backend named by cfg.Backend ("minio" or "local")
func New(ctx context.Context, cfg config.MediaStorageConfig) (Store, error) {
	switch cfg.Backend {
	case "minio":
		return NewMinIO(ctx, cfg.MinIO)
	case "", "local":
		return NewLocal(cfg.LocalDir, cfg.PublicURL)
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.Backend)
	}
}

// ObjectName builds a date-partitioned unique name keeping the extension of
// the original file name, or one derived from contentType.
func ObjectName(kind, filename, contentType string, now time.Time) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	return fmt.Sprintf("%s/%s/%s%s", kind, now.Format("2006/01/02"), uuid.NewString(), ext)
}
