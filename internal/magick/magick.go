package magick

import (
	"context"
	"encoding/hex"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"image-audit/internal/logging"
	"image-audit/internal/metrics"
)

// Options configures a Tool.
type Options struct {
	Binary    string
	Timeout   time.Duration
	MaxOutput int64
}

// Tool runs ImageMagick to identify, hash and recompress images.
type Tool struct {
	runner *Runner
}

// New creates a Tool. Zero values in opts fall back to "magick", 60s and
// 10 MiB.
func New(opts Options) *Tool {
	if opts.Binary == "" {
		opts.Binary = "magick"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxOutput <= 0 {
		opts.MaxOutput = 10 * 1024 * 1024
	}
	return &Tool{runner: &Runner{Binary: opts.Binary, Timeout: opts.Timeout, MaxOutput: opts.MaxOutput}}
}

// Binary returns the executable the tool invokes.
func (t *Tool) Binary() string {
	return t.runner.Binary
}

// Identity holds the fields parsed from identify output.
type Identity struct {
	Width  int
	Height int
	// Date is the capture day as YYYY-MM-DD, nil when EXIF has no usable date.
	Date *string
}

// ParseError reports tool output that did not have the expected shape.
type ParseError struct {
	Op     string
	Output string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s output %q: %s", e.Op, e.Output, e.Reason)
}

const identifyFormat = "%w\t%h\t%[EXIF:DateTimeOriginal]\n"

// IdentifyArgs returns the arguments for an identify call.
func IdentifyArgs(path string) []string {
	return []string{"identify", "-format", identifyFormat, path}
}

// Identify returns the dimensions and capture day of the image at path.
func (t *Tool) Identify(ctx context.Context, path string) (Identity, error) {
	out, err := t.invoke(ctx, "identify", IdentifyArgs(path))
	if err != nil {
		return Identity{}, err
	}
	return parseIdentify(out)
}

// parseIdentify reads the first line only; multi-frame files print one line
// per frame.
func parseIdentify(out []byte) (Identity, error) {
	line := firstLine(out)
	fields := strings.Split(line, "\t")
	if len(fields) < 2 {
		return Identity{}, &ParseError{Op: "identify", Output: line, Reason: "expected width and height"}
	}

	w, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil || w < 0 {
		return Identity{}, &ParseError{Op: "identify", Output: line, Reason: "width is not a number"}
	}
	h, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil || h < 0 {
		return Identity{}, &ParseError{Op: "identify", Output: line, Reason: "height is not a number"}
	}

	id := Identity{Width: w, Height: h}
	if len(fields) > 2 {
		id.Date = NormalizeExifDate(fields[2])
	}
	return id, nil
}

// NormalizeExifDate converts "YYYY:MM:DD HH:MM:SS" to "YYYY-MM-DD". Anything
// else, including the all-zero placeholder some cameras write, yields nil.
func NormalizeExifDate(raw string) *string {
	parts := strings.Fields(raw)
	if len(parts) != 2 {
		return nil
	}
	day := strings.ReplaceAll(parts[0], ":", "-")
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return nil
	}
	return &day
}

// HashArgs returns the arguments for a perceptual hash call.
func HashArgs(path string) []string {
	return []string{path, "-define", "phash:colorspaces=sRGB", "-format", "%#\n", "info:"}
}

// PerceptualHash returns the hex hash of the image at path. Hashes from the
// same tool version always have the same length.
func (t *Tool) PerceptualHash(ctx context.Context, path string) (string, error) {
	out, err := t.invoke(ctx, "phash", HashArgs(path))
	if err != nil {
		return "", err
	}
	return parseHash(out)
}

func parseHash(out []byte) (string, error) {
	line := strings.ToLower(firstLine(out))
	if line == "" {
		return "", &ParseError{Op: "phash", Output: line, Reason: "empty hash"}
	}
	// Odd lengths are valid nibble strings but hex.DecodeString rejects them
	probe := line
	if len(probe)%2 == 1 {
		probe += "0"
	}
	if _, err := hex.DecodeString(probe); err != nil {
		return "", &ParseError{Op: "phash", Output: line, Reason: "not a hex string"}
	}
	return line, nil
}

// CompressTask describes one recompression. Output must carry the same
// extension as Input so the tool picks the right encoder.
type CompressTask struct {
	Input    string
	Output   string
	Quality  int
	PNGLevel int
}

// CompressArgs returns the per-format argument template for a task.
func CompressArgs(task CompressTask) []string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(task.Input), ".")) {
	case "jpg", "jpeg":
		return []string{task.Input, "-interlace", "Plane", "-quality", strconv.Itoa(task.Quality), task.Output}
	case "png":
		return []string{task.Input, "-define", "png:compression-level=" + strconv.Itoa(task.PNGLevel), task.Output}
	case "webp":
		return []string{task.Input, "-quality", strconv.Itoa(task.Quality), task.Output}
	default:
		return []string{task.Input, task.Output}
	}
}

// Compress re-encodes task.Input into task.Output.
func (t *Tool) Compress(ctx context.Context, task CompressTask) error {
	_, err := t.invoke(ctx, "compress", CompressArgs(task))
	return err
}

// Check verifies the binary exists and is ImageMagick, returning its version
// line.
func (t *Tool) Check(ctx context.Context) (string, error) {
	path, err := exec.LookPath(t.runner.Binary)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH: %w", t.runner.Binary, err)
	}
	logging.Debug("  ImageMagick path: %s", path)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := t.invoke(ctx, "version", []string{"-version"})
	if err != nil {
		return "", fmt.Errorf("failed to get %s version: %w", t.runner.Binary, err)
	}

	version := firstLine(out)
	if !strings.Contains(version, "ImageMagick") {
		return "", fmt.Errorf("%s does not look like ImageMagick: %q", t.runner.Binary, version)
	}
	logging.Debug("  ImageMagick version: %s", version)
	return version, nil
}

// InstallHint is printed when Check fails.
const InstallHint = `ImageMagick 7 is required (the "magick" command).
  macOS:          brew install imagemagick
  Debian/Ubuntu:  sudo apt install imagemagick
  Windows:        winget install ImageMagick.ImageMagick
Use --magick or IMAGE_AUDIT_MAGICK to point at a custom binary.`

func (t *Tool) invoke(ctx context.Context, op string, args []string) ([]byte, error) {
	start := time.Now()
	out, err := t.runner.Run(ctx, args...)
	metrics.ToolDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.ToolInvocationsTotal.WithLabelValues(op, statusLabel(err)).Inc()

	if err != nil {
		logging.Debug("%s failed after %v: %v", op, time.Since(start), err)
		return nil, err
	}
	return out, nil
}

func statusLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case IsTimeout(err):
		return "timeout"
	case IsOverflow(err):
		return "overflow"
	default:
		return "error"
	}
}

func firstLine(out []byte) string {
	s := string(out)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(strings.TrimSuffix(s, "\r"))
}
