package storage

import (
	"context"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/slothsintel/AutoVisuals/internal/application/ports"
	"github.com/slothsintel/AutoVisuals/internal/observability/types"
)

// FS stores objects as plain files under a root directory. Keys map directly
// to relative paths, so the on-disk layout is exactly the partition layout
// the ingest pipeline allocates. Object metadata is not persisted: the
// journal records content type and hash, and sidecar files would distort the
// per-partition file counts the naming allocator relies on.
type FS struct {
	root    string
	logger  types.Logger
	metrics types.Metrics
}

// NewFS creates a filesystem-backed object store rooted at root, creating
// the directory if it does not exist.
func NewFS(root string, logger types.Logger, metrics types.Metrics) (*FS, error) {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating storage root %s: %w", root, err)
	}

	logger.Info(context.Background(), "filesystem storage initialized", types.Fields{
		"root": root,
	})

	return &FS{
		root:    root,
		logger:  logger.WithFields(types.Fields{"component": "fs_storage", "root": root}),
		metrics: metrics,
	}, nil
}

func (s *FS) Put(ctx context.Context, key string, reader io.Reader, metadata ports.ObjectMetadata) error {
	start := time.Now()

	objectPath, err := s.objectPath(key)
	if err != nil {
		s.metrics.RecordError("storage_put", "bad_key")
		return err
	}

	if err := os.MkdirAll(filepath.Dir(objectPath), 0755); err != nil {
		s.logger.Error(ctx, "failed to create object directory", err, types.Fields{"key": key})
		s.metrics.RecordError("storage_put", "mkdir")
		return fmt.Errorf("creating directory for %s: %w", key, err)
	}

	file, err := os.Create(objectPath)
	if err != nil {
		s.logger.Error(ctx, "failed to create object file", err, types.Fields{"key": key})
		s.metrics.RecordError("storage_put", "create")
		return fmt.Errorf("creating %s: %w", key, err)
	}
	defer file.Close()

	written, err := io.Copy(file, reader)
	if err != nil {
		s.logger.Error(ctx, "failed to write object", err, types.Fields{"key": key})
		s.metrics.RecordError("storage_put", "write")
		return fmt.Errorf("writing %s: %w", key, err)
	}

	s.logger.Debug(ctx, "object stored", types.Fields{
		"key":          key,
		"bytes":        written,
		"content_type": metadata.ContentType,
	})
	s.metrics.RecordSuccess("storage_put")
	s.metrics.RecordDuration("storage_put", time.Since(start).Seconds())
	s.metrics.RecordPayloadSize("object", written)

	return nil
}

func (s *FS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	objectPath, err := s.objectPath(key)
	if err != nil {
		s.metrics.RecordError("storage_get", "bad_key")
		return nil, err
	}

	file, err := os.Open(objectPath)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug(ctx, "object not found", types.Fields{"key": key})
			s.metrics.RecordError("storage_get", "not_found")
			return nil, ports.ErrObjectNotFound
		}
		s.logger.Error(ctx, "failed to open object", err, types.Fields{"key": key})
		s.metrics.RecordError("storage_get", "open")
		return nil, fmt.Errorf("opening %s: %w", key, err)
	}

	s.logger.Debug(ctx, "object retrieved", types.Fields{"key": key})
	s.metrics.RecordSuccess("storage_get")
	return file, nil
}

func (s *FS) Delete(ctx context.Context, key string) error {
	objectPath, err := s.objectPath(key)
	if err != nil {
		s.metrics.RecordError("storage_delete", "bad_key")
		return err
	}

	if err := os.Remove(objectPath); err != nil && !os.IsNotExist(err) {
		s.logger.Error(ctx, "failed to delete object", err, types.Fields{"key": key})
		s.metrics.RecordError("storage_delete", "remove")
		return fmt.Errorf("deleting %s: %w", key, err)
	}

	s.logger.Debug(ctx, "object deleted", types.Fields{"key": key})
	s.metrics.RecordSuccess("storage_delete")
	return nil
}

func (s *FS) Exists(ctx context.Context, key string) (bool, error) {
	objectPath, err := s.objectPath(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(objectPath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	s.logger.Error(ctx, "failed to stat object", err, types.Fields{"key": key})
	return false, fmt.Errorf("checking %s: %w", key, err)
}

func (s *FS) List(ctx context.Context, prefix string) ([]ports.ObjectInfo, error) {
	start := time.Now()

	// Walk only the subtree that can contain the prefix.
	base := s.root
	if dir := prefixDir(prefix); dir != "" {
		base = filepath.Join(s.root, filepath.FromSlash(dir))
	}

	var objects []ports.ObjectInfo
	err := filepath.WalkDir(base, func(p string, d iofs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return nil
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		objects = append(objects, ports.ObjectInfo{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "failed to list objects", err, types.Fields{"prefix": prefix})
		s.metrics.RecordError("storage_list", "walk")
		return nil, fmt.Errorf("listing %s: %w", prefix, err)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })

	s.logger.Debug(ctx, "objects listed", types.Fields{
		"prefix": prefix,
		"count":  len(objects),
	})
	s.metrics.RecordSuccess("storage_list")
	s.metrics.RecordDuration("storage_list", time.Since(start).Seconds())

	return objects, nil
}

// objectPath resolves a key to a path under the root, rejecting keys that
// would escape it.
func (s *FS) objectPath(key string) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(key, "/")))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes storage root", key)
	}
	return full, nil
}

// prefixDir returns the deepest directory guaranteed to contain every key
// matching the prefix, or "" when the whole root must be walked.
func prefixDir(prefix string) string {
	if prefix == "" {
		return ""
	}
	if strings.HasSuffix(prefix, "/") {
		return strings.TrimSuffix(prefix, "/")
	}
	if dir := path.Dir(prefix); dir != "." {
		return dir
	}
	return ""
}
