package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/docuflow/report-routing/internal/application/port"
)

// LocalBlobStorage implements port.BlobStorage on the local filesystem.
// Stored names get a random suffix so repeated uploads of the same file
// never collide.
type LocalBlobStorage struct {
	baseDir string
	baseURL string
	logger  *zap.Logger
}

// NewLocalBlobStorage creates a new LocalBlobStorage
func NewLocalBlobStorage(baseDir, baseURL string, logger *zap.Logger) *LocalBlobStorage {
	return &LocalBlobStorage{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Store writes the content under a randomized name and returns its URL
func (s *LocalBlobStorage) Store(ctx context.Context, content []byte, name string) (*port.StoredBlob, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("no file content provided")
	}

	storedName := randomizedName(sanitizeName(name))
	fullPath := filepath.Join(s.baseDir, storedName)

	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		s.logger.Error("Failed to create storage directory",
			zap.String("dir", s.baseDir),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write blob",
			zap.String("path", fullPath),
			zap.Error(err))
		return nil, fmt.Errorf("failed to write blob: %w", err)
	}

	s.logger.Debug("Blob stored",
		zap.String("path", fullPath),
		zap.Int("size", len(content)))

	return &port.StoredBlob{
		URL:      s.baseURL + "/" + storedName,
		FileName: name,
		Size:     int64(len(content)),
	}, nil
}

// sanitizeName strips path separators and characters unsafe for filenames
func sanitizeName(name string) string {
	name = filepath.Base(name)
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_",
		"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
	)
	name = replacer.Replace(name)
	if name == "" || name == "." {
		name = "file"
	}
	return name
}

// randomizedName appends a short random suffix before the extension
func randomizedName(name string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s-%s%s", base, suffix, ext)
}

var _ port.BlobStorage = (*LocalBlobStorage)(nil)
