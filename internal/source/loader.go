// Package source lists and reads program files from local directories or any
// storage URL understood by afs.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/raphaelgruber/targetdiff/internal/models"
	"github.com/viant/afs"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"golang.org/x/sync/errgroup"
)

// ErrNotFound is returned when an input location does not exist.
var ErrNotFound = errors.New("location not found")

// DefaultConcurrency bounds parallel reads when no limit is configured.
const DefaultConcurrency = 8

// ProgressFunc is called after each file is read. It may be called from
// several goroutines at once.
type ProgressFunc func(done, total int, file models.FileRef)

// Loader lists and downloads files through an afs service.
type Loader struct {
	fs          afs.Service
	concurrency int
}

// NewLoader creates a loader backed by the default afs service.
func NewLoader(concurrency int) *Loader {
	return NewLoaderWithService(afs.New(), concurrency)
}

// NewLoaderWithService creates a loader on a caller-supplied afs service.
func NewLoaderWithService(fs afs.Service, concurrency int) *Loader {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Loader{fs: fs, concurrency: concurrency}
}

// Normalize turns a local path into an absolute path and leaves URLs untouched.
func Normalize(location string) (string, error) {
	if location == "" {
		return "", nil
	}
	if strings.Contains(location, "://") {
		return location, nil
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	return abs, nil
}

// IsLocal reports whether location refers to the local filesystem.
func IsLocal(location string) bool {
	return !strings.Contains(location, "://") || strings.HasPrefix(location, "file://")
}

// List returns every regular file below location. RelPath starts with the
// location's own base name so keys can be derived from the folder name too.
func (l *Loader) List(ctx context.Context, location string) ([]models.FileRef, error) {
	base, err := Normalize(location)
	if err != nil {
		return nil, err
	}
	exists, err := l.fs.Exists(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", base, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
	}

	objects, err := l.fs.List(ctx, base, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", base, err)
	}

	basePath := strings.TrimSuffix(url.Path(base), "/")
	folder := path.Base(basePath)
	var files []models.FileRef
	for _, obj := range objects {
		if obj.IsDir() {
			continue
		}
		objPath := url.Path(obj.URL())
		relPath := obj.Name()
		// A location naming a single file has no folder part.
		if rel := strings.TrimPrefix(strings.TrimPrefix(objPath, basePath), "/"); rel != "" {
			relPath = folder + "/" + rel
		}
		files = append(files, models.FileRef{
			Name:    obj.Name(),
			RelPath: relPath,
			URL:     obj.URL(),
		})
	}
	slices.SortFunc(files, func(a, b models.FileRef) int {
		return strings.Compare(a.RelPath, b.RelPath)
	})
	slog.Debug("listed files", "location", base, "files", len(files))
	return files, nil
}

// ReadAll downloads the files concurrently and returns their texts in input
// order. The first failure cancels the remaining reads.
func (l *Loader) ReadAll(ctx context.Context, files []models.FileRef, progress ProgressFunc) ([]string, error) {
	texts := make([]string, len(files))
	var done atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := l.fs.DownloadWithURL(gctx, f.URL)
			if err != nil {
				return fmt.Errorf("read %s: %w", f.RelPath, err)
			}
			texts[i] = string(data)
			n := done.Add(1)
			if progress != nil {
				progress(int(n), len(files), f)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return texts, nil
}
