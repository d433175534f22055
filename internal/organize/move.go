package organize

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"image-audit/internal/logging"
	"image-audit/internal/mediatypes"
	"image-audit/internal/metrics"
)

// Group folder names under the scanned root.
const (
	DuplicatesDir = "_duplicates_"
	DaysDir       = "_days_"
	SimilarDir    = "_similiars_"
)

// FileMove is one attempted rename.
type FileMove struct {
	From string `json:"from"`
	To   string `json:"to"`
	Err  string `json:"error,omitempty"`
}

// MoveResult lists moved and failed files in the order they were attempted.
type MoveResult struct {
	Moved  []FileMove `json:"moved"`
	Failed []FileMove `json:"failed"`
}

// HasErrors reports whether any rename failed.
func (r *MoveResult) HasErrors() bool {
	return len(r.Failed) > 0
}

// Destinations computes the planned target of every grouped file without
// touching the filesystem. Targets are not yet made unique.
func Destinations(root string, mode mediatypes.GroupMode, groups []mediatypes.FileGroup) ([]FileMove, error) {
	if !mode.Movable() {
		return nil, fmt.Errorf("grouping %q cannot be moved", mode)
	}

	var moves []FileMove
	counter := 1

	for _, g := range groups {
		for i, p := range g.Paths {
			base := filepath.Base(p)
			ext := filepath.Ext(base)
			stem := strings.TrimSuffix(base, ext)

			var to string
			switch mode {
			case mediatypes.ModeDuplicateName:
				to = filepath.Join(root, DuplicatesDir, g.Name, stem+"_"+strconv.Itoa(i)+ext)
			case mediatypes.ModeDay:
				to = filepath.Join(root, DaysDir, g.Name, base)
			case mediatypes.ModeSimilar:
				to = filepath.Join(root, SimilarDir, g.Name, stem+"__"+strconv.Itoa(counter)+ext)
				counter++
			default:
				return nil, fmt.Errorf("grouping %q cannot be moved", mode)
			}
			moves = append(moves, FileMove{From: p, To: to})
		}
	}

	return moves, nil
}

// Move renames every grouped file into its group folder. A target that
// already exists gets a numeric suffix. Failures are recorded and the run
// continues with the next file.
func Move(fs afero.Fs, root string, mode mediatypes.GroupMode, groups []mediatypes.FileGroup) (*MoveResult, error) {
	planned, err := Destinations(root, mode, groups)
	if err != nil {
		return nil, err
	}

	result := &MoveResult{Moved: []FileMove{}, Failed: []FileMove{}}

	for _, m := range planned {
		if err := fs.MkdirAll(filepath.Dir(m.To), 0o755); err != nil {
			result.fail(m, fmt.Errorf("failed to create group directory: %w", err))
			continue
		}

		to, err := uniquePath(fs, m.To)
		if err != nil {
			result.fail(m, err)
			continue
		}
		m.To = to

		if err := fs.Rename(m.From, m.To); err != nil {
			result.fail(m, err)
			continue
		}
		logging.Debug("Moved %s -> %s", m.From, m.To)
		result.Moved = append(result.Moved, m)
		metrics.MoveFilesTotal.WithLabelValues("moved").Inc()
	}

	logging.Info("Moved %d file(s), %d failed", len(result.Moved), len(result.Failed))
	return result, nil
}

func (r *MoveResult) fail(m FileMove, err error) {
	logging.Warn("Failed to move %s: %v", m.From, err)
	m.Err = err.Error()
	r.Failed = append(r.Failed, m)
	metrics.MoveFilesTotal.WithLabelValues("error").Inc()
}

// uniquePath returns path, or path with -1, -2, ... before the extension when
// something already exists there.
func uniquePath(fs afero.Fs, path string) (string, error) {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)

	candidate := path
	for n := 1; ; n++ {
		_, err := fs.Stat(candidate)
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check destination: %w", err)
		}
		candidate = stem + "-" + strconv.Itoa(n) + ext
	}
}
