// Package fs implements artifact storage on the local filesystem.
package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"downloadqueue/internal/storage"
	"downloadqueue/observability/types"
)

// Storage writes artifacts below a fixed base directory.
type Storage struct {
	basePath string
	logger   types.Logger
	metrics  types.Metrics
}

// New creates the base directory if needed and returns a filesystem store.
func New(basePath string, logger types.Logger, metrics types.Metrics) (*Storage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	logger.Info(context.Background(), "Filesystem storage initialized", types.Fields{
		"base_path": basePath,
	})

	return &Storage{
		basePath: basePath,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

func (s *Storage) Put(ctx context.Context, key string, reader io.Reader) (int64, error) {
	start := time.Now()

	path, err := s.objectPath(key)
	if err != nil {
		s.metrics.RecordError("storage_put", "invalid_key")
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.metrics.RecordError("storage_put", "mkdir")
		return 0, fmt.Errorf("failed to create object directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		s.metrics.RecordError("storage_put", "create")
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	written, err := io.Copy(file, reader)
	if err != nil {
		s.metrics.RecordError("storage_put", "write")
		return written, fmt.Errorf("failed to write data: %w", err)
	}

	s.logger.Info(ctx, "Object stored", types.Fields{
		"key":         key,
		"bytes":       written,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	s.metrics.RecordSuccess("storage_put")
	s.metrics.RecordFileSize("artifact", written)

	return written, nil
}

func (s *Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := s.objectPath(key)
	if err != nil {
		s.metrics.RecordError("storage_get", "invalid_key")
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrObjectNotFound
		}
		s.metrics.RecordError("storage_get", "open")
		return nil, fmt.Errorf("failed to open object: %w", err)
	}

	s.metrics.RecordSuccess("storage_get")
	return file, nil
}

func (s *Storage) Exists(ctx context.Context, key string) (bool, error) {
	path, err := s.objectPath(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat object: %w", err)
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	path, err := s.objectPath(key)
	if err != nil {
		s.metrics.RecordError("storage_delete", "invalid_key")
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.metrics.RecordError("storage_delete", "remove")
		return fmt.Errorf("failed to delete object: %w", err)
	}

	s.logger.Info(ctx, "Object deleted", types.Fields{"key": key})
	s.metrics.RecordSuccess("storage_delete")
	return nil
}

func (s *Storage) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var objects []storage.ObjectInfo

	err := filepath.Walk(s.basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}

		relPath, relErr := filepath.Rel(s.basePath, path)
		if relErr != nil {
			return nil
		}
		key := filepath.ToSlash(relPath)

		if prefix != "" && !strings.HasPrefix(key, prefix) {
			return nil
		}

		objects = append(objects, storage.ObjectInfo{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		s.metrics.RecordError("storage_list", "walk")
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	s.metrics.RecordSuccess("storage_list")
	return objects, nil
}

// objectPath maps a slash-separated key onto the base directory. Keys that
// are empty or would resolve outside the base path are rejected; the key
// is the artifact filename supplied by the remote service and is not
// trusted.
func (s *Storage) objectPath(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	native := filepath.FromSlash(key)
	if key == "" || !filepath.IsLocal(native) {
		return "", fmt.Errorf("%w: %q", storage.ErrInvalidKey, key)
	}
	return filepath.Join(s.basePath, native), nil
}
