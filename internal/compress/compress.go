package compress

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"image-audit/internal/logging"
	"image-audit/internal/magick"
	"image-audit/internal/mediatypes"
	"image-audit/internal/metrics"
)

// Skip reasons.
const (
	ReasonDryRun     = "dry-run"
	ReasonNotSmaller = "not-smaller"
	ReasonError      = "error"
	ReasonCanceled   = "canceled"
)

// Recompressor re-encodes one image. *magick.Tool satisfies it.
type Recompressor interface {
	Compress(ctx context.Context, task magick.CompressTask) error
}

// Options controls the encoder settings.
type Options struct {
	Quality  int
	PNGLevel int
	DryRun   bool
}

// FileChange records a replaced file.
type FileChange struct {
	Path        string `json:"path"`
	BeforeBytes int64  `json:"beforeBytes"`
	AfterBytes  int64  `json:"afterBytes"`
}

// FileSkip records a candidate that was left as it was.
type FileSkip struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Error  string `json:"error,omitempty"`
}

// Result is the outcome of one compression run.
type Result struct {
	Candidates int                    `json:"candidates"`
	Compressed int                    `json:"compressed"`
	Changed    []FileChange           `json:"changed"`
	Skipped    []FileSkip             `json:"skipped"`
	Errors     []mediatypes.FileError `json:"errors"`
	BytesSaved int64                  `json:"bytesSaved"`
}

// HasErrors reports whether any scan or compression error was recorded.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Executor runs recompression against a filesystem.
type Executor struct {
	fs   afero.Fs
	tool Recompressor
	opts Options
}

// New creates an Executor. A nil fs means the OS filesystem.
func New(fs afero.Fs, tool Recompressor, opts Options) *Executor {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Executor{fs: fs, tool: tool, opts: opts}
}

// TempPath returns the hidden sibling used as the recompression target. The
// extension is kept so the encoder is chosen from it.
func TempPath(path string) string {
	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, "."+stem+".audit-tmp"+ext)
}

// Run processes candidates in order. scanErrs are carried into the result.
// When ctx is canceled the remaining candidates are skipped as canceled.
func (e *Executor) Run(ctx context.Context, candidates []mediatypes.ImageInfo, scanErrs []mediatypes.FileError) *Result {
	result := &Result{
		Candidates: len(candidates),
		Changed:    []FileChange{},
		Skipped:    []FileSkip{},
		Errors:     append([]mediatypes.FileError{}, scanErrs...),
	}

	for _, f := range candidates {
		if ctx.Err() != nil {
			result.skip(f.Path, ReasonCanceled, "")
			continue
		}
		if e.opts.DryRun {
			result.skip(f.Path, ReasonDryRun, "")
			continue
		}

		change, err := e.compressOne(ctx, f.Path)
		switch {
		case err != nil:
			logging.Warn("Failed to compress %s: %v", f.Path, err)
			result.Errors = append(result.Errors, mediatypes.FileError{Path: f.Path, Error: err.Error()})
			result.skip(f.Path, ReasonError, err.Error())
		case change == nil:
			logging.Debug("Compressed %s is not smaller, keeping original", f.Path)
			result.skip(f.Path, ReasonNotSmaller, "")
		default:
			logging.Debug("Compressed %s: %d -> %d bytes", f.Path, change.BeforeBytes, change.AfterBytes)
			result.Compressed++
			result.Changed = append(result.Changed, *change)
			result.BytesSaved += change.BeforeBytes - change.AfterBytes
			metrics.CompressFilesTotal.WithLabelValues("compressed").Inc()
			metrics.CompressBytesSaved.Add(float64(change.BeforeBytes - change.AfterBytes))
		}
	}

	return result
}

// compressOne returns a nil change when the result is not smaller.
func (e *Executor) compressOne(ctx context.Context, path string) (*FileChange, error) {
	tmp := TempPath(path)
	task := magick.CompressTask{
		Input:    path,
		Output:   tmp,
		Quality:  e.opts.Quality,
		PNGLevel: e.opts.PNGLevel,
	}

	if err := e.tool.Compress(ctx, task); err != nil {
		e.removeTemp(tmp)
		return nil, err
	}

	before, err := e.fs.Stat(path)
	if err != nil {
		e.removeTemp(tmp)
		return nil, fmt.Errorf("failed to stat original: %w", err)
	}
	after, err := e.fs.Stat(tmp)
	if err != nil {
		e.removeTemp(tmp)
		return nil, fmt.Errorf("failed to stat compressed output: %w", err)
	}

	if after.Size() >= before.Size() {
		e.removeTemp(tmp)
		return nil, nil
	}

	if err := e.fs.Rename(tmp, path); err != nil {
		e.removeTemp(tmp)
		return nil, fmt.Errorf("failed to replace original: %w", err)
	}

	return &FileChange{Path: path, BeforeBytes: before.Size(), AfterBytes: after.Size()}, nil
}

func (e *Executor) removeTemp(tmp string) {
	if err := e.fs.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn("Failed to remove temporary file %s: %v", tmp, err)
	}
}

// Canceled builds the result for a declined confirmation: every candidate is
// skipped and nothing is touched.
func Canceled(candidates []mediatypes.ImageInfo, scanErrs []mediatypes.FileError) *Result {
	result := &Result{
		Candidates: len(candidates),
		Changed:    []FileChange{},
		Skipped:    []FileSkip{},
		Errors:     append([]mediatypes.FileError{}, scanErrs...),
	}
	for _, f := range candidates {
		result.skip(f.Path, ReasonCanceled, "")
	}
	return result
}

func (r *Result) skip(path, reason, msg string) {
	r.Skipped = append(r.Skipped, FileSkip{Path: path, Reason: reason, Error: msg})
	metrics.CompressFilesTotal.WithLabelValues(reason).Inc()
}
