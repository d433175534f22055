package grouping

import (
	"sort"

	"image-audit/internal/mediatypes"
)

// Collected is the collector's output.
type Collected struct {
	// Files were processed successfully.
	Files []mediatypes.ImageInfo
	// Partial were stat'ed but the external tool failed on them. They carry
	// size facts only and take part in the byte-size oversize check, nothing
	// else.
	Partial []mediatypes.ImageInfo
	Errors  []mediatypes.FileError
}

// Analyze builds a ScanResult. Oversized is always computed; the group
// collections follow mode and are empty otherwise.
//
// in.Files should already be in a stable order (the scanner sorts by path)
// so that similarity cluster numbering is reproducible.
func Analyze(root string, mode mediatypes.GroupMode, in Collected, rules Rules) *mediatypes.ScanResult {
	files := in.Files
	if files == nil {
		files = []mediatypes.ImageInfo{}
	}
	errs := in.Errors
	if errs == nil {
		errs = []mediatypes.FileError{}
	}

	oversized := Oversized(files, rules)
	bytesOnly := Rules{MaxBytes: rules.MaxBytes}
	for _, f := range in.Partial {
		if bytesOnly.IsOversized(f) {
			oversized = append(oversized, f)
		}
	}
	sort.SliceStable(oversized, func(i, j int) bool { return oversized[i].Path < oversized[j].Path })

	result := &mediatypes.ScanResult{
		Root:       root,
		Mode:       mode,
		Total:      len(files),
		Files:      files,
		Oversized:  oversized,
		Duplicates: []mediatypes.FileGroup{},
		Days:       []mediatypes.FileGroup{},
		Similar:    []mediatypes.FileGroup{},
		Errors:     errs,
	}

	if mode.WantsDuplicates() {
		result.Duplicates = DuplicateNames(files)
	}
	if mode.WantsDays() {
		result.Days = ByDay(files)
	}
	if mode.WantsSimilar() {
		result.Similar = Similar(files, rules.SimilarityThreshold)
	}

	return result
}
