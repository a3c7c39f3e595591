// Package diskcache is the durable on-disk artwork store. Covers are kept
// under the library's assets directory, one subdirectory per category
// (albums, artists), with filenames derived from a hash of the cache key so
// they stay stable when library records are deleted and recreated with new
// numeric ids.
package diskcache

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fennecbyte/covercache/internal/errors"
	"github.com/fennecbyte/covercache/internal/httpclient"
	"github.com/fennecbyte/covercache/internal/logging"
	"github.com/fennecbyte/covercache/internal/provider"
)

const coverExtension = ".jpg"

// Store reads and writes cover images under a base assets directory.
type Store struct {
	base   string
	client *httpclient.Client
	log    *slog.Logger
}

// New creates a Store rooted at base (e.g. "<library>/assets"). Downloads go
// through client.
func New(base string, client *httpclient.Client) *Store {
	return &Store{
		base:   base,
		client: client,
		log:    logging.ForService("diskcache"),
	}
}

// Filename returns the stable cover filename for a cache key: the FNV-1a
// hash of the key in hex. Hash-derived names survive record churn; two keys
// that normalize identically always map to the same file.
func Filename(key string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return fmt.Sprintf("%016x%s", h.Sum64(), coverExtension)
}

// Path returns where the cover for key lives or would live.
func (s *Store) Path(category, key string) string {
	return filepath.Join(s.base, category, Filename(key))
}

// Lookup returns the cover path for key and whether it exists on disk.
func (s *Store) Lookup(category, key string) (string, bool) {
	path := s.Path(category, key)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// Read returns the cover bytes for key.
func (s *Store) Read(category, key string) ([]byte, error) {
	path, ok := s.Lookup(category, key)
	if !ok {
		return nil, errors.Newf("no cached cover for key %q", key).
			Component("diskcache").
			Category(errors.CategoryNotFound).
			Build()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, s.ioError(err, "read", path)
	}
	return data, nil
}

// Download fetches the image at url and stores it as the cover for key,
// returning the stored path. The write is atomic (tmp file + rename) so a
// crashed download never leaves a truncated cover behind.
func (s *Store) Download(ctx context.Context, category, key, url string) (string, error) {
	status, body, err := s.client.Fetch(ctx, url)
	if err != nil {
		s.log.Debug("Image download failed", "url", url, "error", err)
		return "", err
	}
	if status < 200 || status > 299 {
		s.log.Warn("Image download returned unexpected status", "url", url, "status", status)
		return "", &provider.StatusError{Provider: "download", StatusCode: status}
	}

	dir := filepath.Join(s.base, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", s.ioError(err, "mkdir", dir)
	}

	path := s.Path(category, key)
	tmp, err := os.CreateTemp(dir, Filename(key)+".tmp*")
	if err != nil {
		return "", s.ioError(err, "create_temp", dir)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", s.ioError(err, "write", tmpName)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", s.ioError(err, "close", tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return "", s.ioError(err, "rename", path)
	}

	s.log.Debug("Stored cover",
		"category", category,
		"path", path,
		"size_bytes", len(body))
	return path, nil
}

func (s *Store) ioError(err error, operation, path string) error {
	return errors.New(err).
		Component("diskcache").
		Category(errors.CategoryFileIO).
		Context("operation", operation).
		Context("path", path).
		Build()
}
