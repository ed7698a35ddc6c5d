// Package importer loads startup corpus files into storage.
package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/foundermatch/internal/corpus"
	"github.com/hyperjump/foundermatch/internal/storage"
)

// Importer reads corpus files and replaces their startups in storage. It does
// not touch the recommendation engine; callers reload it after importing.
type Importer struct {
	storage storage.Storage
	loader  *corpus.Loader
	logger  *zap.Logger
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithLogger sets a logger for debug output (file imported, file removed).
func WithLogger(l *zap.Logger) ImporterOption {
	return func(im *Importer) { im.logger = l }
}

// New returns an Importer writing to store.
func New(store storage.Storage, opts ...ImporterOption) *Importer {
	im := &Importer{storage: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(im)
	}
	im.loader = corpus.NewLoader(corpus.WithLogger(im.logger))
	return im
}

// ImportFile loads the file at path and makes its startups the complete set of
// stored startups whose source is that file's absolute path. If allowedExts is
// non-empty the extension must be in it. Returns the number of startups imported.
func (im *Importer) ImportFile(ctx context.Context, path string, allowedExts []string) (int, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	if !corpus.Supported(absPath) {
		return 0, fmt.Errorf("unsupported corpus file: %s", absPath)
	}
	if len(allowedExts) > 0 && !ExtensionAllowed(absPath, allowedExts) {
		return 0, fmt.Errorf("extension %q not in allowed list", filepath.Ext(absPath))
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return 0, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("not a regular file: %s", absPath)
	}

	startups, err := im.loader.Load(absPath)
	if err != nil {
		return 0, err
	}
	if err := im.storage.ReplaceSource(ctx, absPath, startups); err != nil {
		return 0, fmt.Errorf("store startups from %s: %w", absPath, err)
	}
	im.logger.Debug("importer file imported",
		zap.String("path", absPath), zap.Int("startups", len(startups)))
	return len(startups), nil
}

// ImportDirectory walks dir recursively and imports every supported file whose
// extension is in allowedExts (all supported files when empty). Returns the number
// of files and startups imported and the first error encountered.
func (im *Importer) ImportDirectory(ctx context.Context, dir string, allowedExts []string) (files, startups int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, 0, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != absDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !corpus.Supported(path) {
			return nil
		}
		if len(allowedExts) > 0 && !ExtensionAllowed(path, allowedExts) {
			return nil
		}
		// Resolve symlinks so only regular files are imported
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		n, importErr := im.ImportFile(ctx, path, allowedExts)
		if importErr != nil {
			return importErr
		}
		files++
		startups += n
		return nil
	})
	return files, startups, err
}

// RemoveFile deletes every startup imported from path and returns how many were removed.
func (im *Importer) RemoveFile(ctx context.Context, path string) (int64, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	n, err := im.storage.DeleteStartupsBySource(ctx, absPath)
	if err != nil {
		return 0, fmt.Errorf("remove startups from %s: %w", absPath, err)
	}
	im.logger.Debug("importer file removed", zap.String("path", absPath), zap.Int64("startups", n))
	return n, nil
}

// ExtensionAllowed reports whether path's extension is in allowed. Entries may
// be given with or without the leading dot and are compared case-insensitively.
func ExtensionAllowed(path string, allowed []string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == ext {
			return true
		}
	}
	return false
}
