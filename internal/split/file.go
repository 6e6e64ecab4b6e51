package split

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"fewshot/internal/fileutil"
	"fewshot/internal/logging"
)

const lockRetryDelay = 50 * time.Millisecond

// FileStore keeps one JSON manifest per corpus at <dir>/<corpus>.split.json.
// Manifests are replaced atomically; Lock takes an advisory file lock next to
// the manifest.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string, logger *slog.Logger) *FileStore {
	return &FileStore{dir: dir, logger: logging.NewComponentLogger(logger, "split-store")}
}

// Path returns the manifest path for corpus.
func (s *FileStore) Path(corpus string) string {
	return filepath.Join(s.dir, corpus+".split.json")
}

func (s *FileStore) Load(_ context.Context, corpus string) (Pools, bool, error) {
	path := s.Path(corpus)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Pools{}, false, nil
	}
	if err != nil {
		return Pools{}, false, fmt.Errorf("read split manifest: %w", err)
	}
	var pools Pools
	if err := json.Unmarshal(data, &pools); err != nil {
		return Pools{}, false, fmt.Errorf("parse split manifest %s: %w", path, err)
	}
	if pools.Corpus != "" && pools.Corpus != corpus {
		return Pools{}, false, fmt.Errorf("split manifest %s belongs to corpus %q", path, pools.Corpus)
	}
	s.logger.Debug("split manifest loaded", logging.String("path", path), logging.String("split_id", pools.ID))
	return pools, true, nil
}

func (s *FileStore) Save(_ context.Context, corpus string, pools Pools) error {
	path := s.Path(corpus)
	exists, err := fileutil.Exists(path)
	if err != nil {
		return fmt.Errorf("stat split manifest: %w", err)
	}
	if exists {
		return fmt.Errorf("%s: %w", path, ErrSplitExists)
	}
	pools.Corpus = corpus
	data, err := json.MarshalIndent(pools, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal split manifest: %w", err)
	}
	if err := fileutil.WriteAtomic(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write split manifest: %w", err)
	}
	s.logger.Debug("split manifest written", logging.String("path", path))
	return nil
}

func (s *FileStore) Delete(_ context.Context, corpus string) error {
	err := os.Remove(s.Path(corpus))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove split manifest: %w", err)
	}
	return nil
}

// Lock blocks until the corpus lock is held or ctx is done.
func (s *FileStore) Lock(ctx context.Context, corpus string) (func() error, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create split dir: %w", err)
	}
	lock := flock.New(s.Path(corpus) + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, fmt.Errorf("split lock %s not acquired", lock.Path())
	}
	return lock.Unlock, nil
}
