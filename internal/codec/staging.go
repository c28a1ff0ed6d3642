package codec

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"orderverifier/pkg/logger"
)

// Staged is a recording written to a directory owned by one request.
type Staged struct {
	Path string
	dir  string
}

// Stage writes data into a fresh uniquely named directory under baseDir
// (os.TempDir when empty). The caller must Release it.
func Stage(baseDir string, data []byte, ext string) (*Staged, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}

	// Mkdir fails on an existing path, so a directory left behind by an
	// earlier failed cleanup is never reused.
	dir := filepath.Join(baseDir, "orderverifier-"+uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}

	path := filepath.Join(dir, "recording"+ext)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("write staged audio: %w", err)
	}

	return &Staged{Path: path, dir: dir}, nil
}

// Dir is the request-owned directory; tools may write their output there.
func (s *Staged) Dir() string {
	return s.dir
}

// Release removes the staging directory with everything in it. Safe to call twice.
func (s *Staged) Release() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("remove staging dir: %w", err)
	}

	return nil
}

// WithStaged stages data, runs fn with the file path and releases the
// directory on every exit path.
func WithStaged(ctx context.Context, baseDir string, data []byte, ext string, fn func(path string) error) error {
	log := logger.FromCtx(ctx)

	staged, err := Stage(baseDir, data, ext)
	if err != nil {
		return err
	}
	defer func() {
		if err := staged.Release(); err != nil {
			log.Warn("staged audio not removed", slog.String("dir", staged.Dir()), logger.Error(err))
		}
	}()

	log.Debug("audio staged", slog.String("path", staged.Path), slog.Int("bytes", len(data)))

	return fn(staged.Path)
}
