package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"image-audit/internal/cache"
	"image-audit/internal/filesystem"
	"image-audit/internal/grouping"
	"image-audit/internal/logging"
	"image-audit/internal/magick"
	"image-audit/internal/mediatypes"
	"image-audit/internal/metrics"
	"image-audit/internal/workers"

	"golang.org/x/sync/errgroup"
)

// MetadataSource extracts metadata with the external tool. *magick.Tool
// implements it.
type MetadataSource interface {
	Identify(ctx context.Context, path string) (magick.Identity, error)
	PerceptualHash(ctx context.Context, path string) (string, error)
}

// EnumerationError reports a root directory that cannot be walked, or a
// subdirectory that could not be read.
type EnumerationError struct {
	Root string
	Err  error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("failed to enumerate %s: %v", e.Root, e.Err)
}

func (e *EnumerationError) Unwrap() error {
	return e.Err
}

// StatError reports a file that could not be stat'ed.
type StatError struct {
	Path string
	Err  error
}

func (e *StatError) Error() string {
	return fmt.Sprintf("failed to stat %s: %v", e.Path, e.Err)
}

func (e *StatError) Unwrap() error {
	return e.Err
}

var errNotDirectory = errors.New("not a directory")

// Options configures a scan.
type Options struct {
	Root       string
	Extensions []string
	Mode       mediatypes.GroupMode
	Workers    int
	Rules      grouping.Rules
	// IncludeHidden walks dot-prefixed files and directories too.
	IncludeHidden bool
	Retry         filesystem.RetryConfig
}

// Scanner enumerates a tree, collects metadata for each image and groups the
// results.
type Scanner struct {
	opts         Options
	exts         []string
	source       MetadataSource
	cache        *cache.Store
	needIdentify bool
	needHash     bool

	hits      atomic.Int64
	misses    atomic.Int64
	toolCalls atomic.Int64
}

// New creates a Scanner. A nil store disables caching.
func New(opts Options, source MetadataSource, store *cache.Store) *Scanner {
	if store == nil {
		store = cache.Disabled()
	}
	if opts.Mode == "" {
		opts.Mode = mediatypes.ModeAll
	}
	if opts.Retry == (filesystem.RetryConfig{}) {
		opts.Retry = filesystem.DefaultRetryConfig()
	}
	opts.Workers = workers.Metadata(opts.Workers)

	exts := mediatypes.NormalizeExtensions(opts.Extensions)
	if len(exts) == 0 {
		exts = mediatypes.DefaultExtensions
	}

	return &Scanner{
		opts:   opts,
		exts:   exts,
		source: source,
		cache:  store,
		// Dimensions feed day grouping and the optional width/height rules
		needIdentify: opts.Mode.WantsDays() || opts.Rules.MaxWidth > 0 || opts.Rules.MaxHeight > 0,
		needHash:     opts.Mode.WantsSimilar(),
	}
}

// Run performs a full scan: enumerate, collect, save the cache, group.
// Cancelling ctx stops scheduling new files; whatever was collected is still
// written to the cache and ctx's error is returned.
func (s *Scanner) Run(ctx context.Context) (*mediatypes.ScanResult, error) {
	start := time.Now()
	metrics.ScanRunsTotal.WithLabelValues(string(s.opts.Mode)).Inc()

	root, err := resolveRoot(s.opts.Root)
	if err != nil {
		return nil, err
	}

	paths, walkErrs, err := s.enumerate(ctx, root)
	if err != nil {
		return nil, err
	}
	logging.Info("Found %d image files under %s", len(paths), root)

	collected, collectErr := s.Collect(ctx, paths)
	if len(walkErrs) > 0 {
		collected.Errors = append(walkErrs, collected.Errors...)
		sort.Slice(collected.Errors, func(i, j int) bool { return collected.Errors[i].Path < collected.Errors[j].Path })
	}

	if err := s.cache.Save(); err != nil {
		metrics.CacheSaveErrors.Inc()
		logging.Warn("Failed to save metadata cache: %v", err)
	}

	if collectErr != nil {
		return nil, collectErr
	}

	result := grouping.Analyze(root, s.opts.Mode, collected, s.opts.Rules)
	result.Stats = mediatypes.ScanStats{
		CacheHits:   int(s.hits.Load()),
		CacheMisses: int(s.misses.Load()),
		ToolCalls:   int(s.toolCalls.Load()),
		Duration:    time.Since(start),
	}

	recordScanMetrics(result)
	logging.Info("Scan complete: %d files, %d errors, %d cache hits, %d tool calls in %v",
		result.Total, len(result.Errors), result.Stats.CacheHits, result.Stats.ToolCalls, result.Stats.Duration.Round(time.Millisecond))

	return result, nil
}

// Enumerate returns the absolute, sorted paths of matching files under the
// root, plus errors for subdirectories that could not be read.
func (s *Scanner) Enumerate(ctx context.Context) ([]string, []mediatypes.FileError, error) {
	root, err := resolveRoot(s.opts.Root)
	if err != nil {
		return nil, nil, err
	}
	return s.enumerate(ctx, root)
}

// resolveRoot makes the root absolute. A symlinked root is resolved so the
// walk descends into it; links below the root are still skipped.
func resolveRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", &EnumerationError{Root: root, Err: err}
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", &EnumerationError{Root: abs, Err: err}
	}
	return resolved, nil
}

func (s *Scanner) enumerate(ctx context.Context, root string) ([]string, []mediatypes.FileError, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, &EnumerationError{Root: root, Err: err}
	}
	if !info.IsDir() {
		return nil, nil, &EnumerationError{Root: root, Err: errNotDirectory}
	}

	var paths []string
	var errs []mediatypes.FileError

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if path == root {
				return err
			}
			logging.Warn("Error accessing path %s: %v", path, err)
			errs = append(errs, mediatypes.FileError{Path: path, Error: (&EnumerationError{Root: path, Err: err}).Error()})
			return nil
		}

		if path != root && !s.opts.IncludeHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		// Symlinks, devices and sockets are never followed or reported
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		if mediatypes.HasExtension(d.Name(), s.exts) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		return nil, nil, &EnumerationError{Root: root, Err: err}
	}

	sort.Strings(paths)
	return paths, errs, nil
}

type fileResult struct {
	info     mediatypes.ImageInfo
	err      *mediatypes.FileError
	partial  bool
	canceled bool
}

// Collect processes paths with at most Workers files in flight. Per-file
// failures are recorded and never stop the batch. Output lists are sorted by
// path.
func (s *Scanner) Collect(ctx context.Context, paths []string) (grouping.Collected, error) {
	logging.Debug("Collecting metadata for %d files with %d workers (identify=%v, hash=%v)",
		len(paths), s.opts.Workers, s.needIdentify, s.needHash)

	collected := grouping.Collected{
		Files:   make([]mediatypes.ImageInfo, 0, len(paths)),
		Partial: []mediatypes.ImageInfo{},
		Errors:  []mediatypes.FileError{},
	}

	results := make(chan fileResult)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range results {
			switch {
			case r.canceled:
			case r.err != nil:
				collected.Errors = append(collected.Errors, *r.err)
				metrics.ScanFilesTotal.WithLabelValues("error").Inc()
				if r.partial {
					collected.Partial = append(collected.Partial, r.info)
				}
			default:
				collected.Files = append(collected.Files, r.info)
				metrics.ScanFilesTotal.WithLabelValues("ok").Inc()
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	for _, path := range paths {
		if gctx.Err() != nil {
			break
		}
		path := path
		g.Go(func() error {
			metrics.ScanInFlight.Inc()
			defer metrics.ScanInFlight.Dec()
			results <- s.process(gctx, path)
			return nil
		})
	}

	_ = g.Wait()
	close(results)
	<-done

	sort.Slice(collected.Files, func(i, j int) bool { return collected.Files[i].Path < collected.Files[j].Path })
	sort.Slice(collected.Partial, func(i, j int) bool { return collected.Partial[i].Path < collected.Partial[j].Path })
	sort.Slice(collected.Errors, func(i, j int) bool { return collected.Errors[i].Path < collected.Errors[j].Path })

	if err := ctx.Err(); err != nil {
		return collected, err
	}
	return collected, nil
}

func (s *Scanner) process(ctx context.Context, path string) fileResult {
	st, err := filesystem.StatWithRetry(path, s.opts.Retry)
	if err != nil {
		return fileResult{err: &mediatypes.FileError{Path: path, Error: (&StatError{Path: path, Err: err}).Error()}}
	}

	size, mtime := st.Size(), st.ModTime().UnixMilli()
	info, hit := s.cache.Get(path, size, mtime)
	if hit {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
		info = mediatypes.ImageInfo{Path: path, Name: filepath.Base(path), Bytes: size, MTime: mtime}
	}

	fresh := false
	if s.needIdentify && !info.Identified() {
		s.toolCalls.Add(1)
		id, err := s.source.Identify(ctx, path)
		if err != nil {
			return s.failed(ctx, info, err)
		}
		info.Width, info.Height, info.Date = &id.Width, &id.Height, id.Date
		fresh = true
	}

	if s.needHash && !info.Hashed() {
		s.toolCalls.Add(1)
		hash, err := s.source.PerceptualHash(ctx, path)
		if err != nil {
			if fresh {
				s.cache.Put(info)
			}
			return s.failed(ctx, info, err)
		}
		info.PHash = &hash
		fresh = true
	}

	if fresh {
		s.cache.Put(info)
	}
	if logging.IsDebugEnabled() {
		logging.Debug("Processed %s (cache hit=%v, fetched=%v)", path, hit, fresh)
	}
	return fileResult{info: info}
}

func (s *Scanner) failed(ctx context.Context, info mediatypes.ImageInfo, err error) fileResult {
	if ctx.Err() != nil {
		return fileResult{canceled: true}
	}
	logging.Debug("Metadata failed for %s: %v", info.Path, err)
	return fileResult{
		info:    info,
		partial: true,
		err:     &mediatypes.FileError{Path: info.Path, Error: err.Error()},
	}
}

func recordScanMetrics(r *mediatypes.ScanResult) {
	metrics.ScanDuration.Observe(r.Stats.Duration.Seconds())
	metrics.ScanLastRunTimestamp.SetToCurrentTime()
	metrics.OversizedFiles.Set(float64(len(r.Oversized)))
	metrics.GroupsFound.WithLabelValues(string(mediatypes.ModeDuplicateName)).Set(float64(len(r.Duplicates)))
	metrics.GroupsFound.WithLabelValues(string(mediatypes.ModeDay)).Set(float64(len(r.Days)))
	metrics.GroupsFound.WithLabelValues(string(mediatypes.ModeSimilar)).Set(float64(len(r.Similar)))
}
