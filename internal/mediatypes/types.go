package mediatypes

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// ImageInfo is the metadata record for one image file. Path is the unique
// key; Name is the base filename and is not unique across a tree.
//
// Width, Height and Date are filled by the identify pass and PHash by the
// perceptual hash pass. Each stays nil when its pass was not requested.
type ImageInfo struct {
	Path   string  `json:"path"`
	Name   string  `json:"name"`
	Bytes  int64   `json:"bytes"`
	MTime  int64   `json:"mTime"`
	Width  *int    `json:"width,omitempty"`
	Height *int    `json:"height,omitempty"`
	Date   *string `json:"date,omitempty"`
	PHash  *string `json:"phash,omitempty"`
}

// Identified reports whether the identify pass has run for this record.
func (i ImageInfo) Identified() bool {
	return i.Width != nil && i.Height != nil
}

// Hashed reports whether the record carries a perceptual hash.
func (i ImageInfo) Hashed() bool {
	return i.PHash != nil
}

// Dimensions formats the pixel size as "WxH", or "?" when unknown.
func (i ImageInfo) Dimensions() string {
	if !i.Identified() {
		return "?"
	}
	return fmt.Sprintf("%dx%d", *i.Width, *i.Height)
}

// FileGroup is a named set of paths. Paths are sorted within a group.
type FileGroup struct {
	Name  string   `json:"name"`
	Paths []string `json:"paths"`
}

// FileError records a failure for a single path.
type FileError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ScanStats carries counters about how a scan obtained its metadata.
type ScanStats struct {
	CacheHits   int           `json:"cacheHits"`
	CacheMisses int           `json:"cacheMisses"`
	ToolCalls   int           `json:"toolCalls"`
	Duration    time.Duration `json:"duration"`
}

// ScanResult is the outcome of one scan. Collections not selected by Mode
// are empty, never nil.
type ScanResult struct {
	Root       string      `json:"root"`
	Mode       GroupMode   `json:"mode"`
	Total      int         `json:"total"`
	Files      []ImageInfo `json:"files"`
	Oversized  []ImageInfo `json:"oversized"`
	Duplicates []FileGroup `json:"duplicates"`
	Days       []FileGroup `json:"days"`
	Similar    []FileGroup `json:"similar"`
	Errors     []FileError `json:"errors"`
	Stats      ScanStats   `json:"stats"`
}

// HasErrors reports whether any per-file error was recorded.
func (r *ScanResult) HasErrors() bool {
	return r != nil && len(r.Errors) > 0
}

// Groups returns the group collection matching a single grouping mode.
func (r *ScanResult) Groups(mode GroupMode) []FileGroup {
	switch mode {
	case ModeDuplicateName:
		return r.Duplicates
	case ModeDay:
		return r.Days
	case ModeSimilar:
		return r.Similar
	default:
		return nil
	}
}

// GroupMode selects which groupings a scan computes.
type GroupMode string

const (
	// ModeDuplicateName groups files sharing a base filename.
	ModeDuplicateName GroupMode = "duplicate-name"
	// ModeDay groups files by capture day.
	ModeDay GroupMode = "day"
	// ModeSimilar clusters visually similar files. The spelling matches the
	// directory name used by the move command.
	ModeSimilar GroupMode = "similiar"
	// ModeAll computes every grouping.
	ModeAll GroupMode = "all"
)

// ParseGroupMode validates a mode name. "similar" is accepted as an alias.
func ParseGroupMode(s string) (GroupMode, error) {
	switch GroupMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeDuplicateName:
		return ModeDuplicateName, nil
	case ModeDay:
		return ModeDay, nil
	case ModeSimilar, "similar":
		return ModeSimilar, nil
	case ModeAll, "":
		return ModeAll, nil
	default:
		return "", fmt.Errorf("unknown group mode %q (want duplicate-name, day, similiar or all)", s)
	}
}

// WantsDuplicates reports whether duplicate-name groups are computed.
func (m GroupMode) WantsDuplicates() bool { return m == ModeDuplicateName || m == ModeAll }

// WantsDays reports whether day groups are computed.
func (m GroupMode) WantsDays() bool { return m == ModeDay || m == ModeAll }

// WantsSimilar reports whether similarity clusters are computed.
func (m GroupMode) WantsSimilar() bool { return m == ModeSimilar || m == ModeAll }

// Movable reports whether the mode names a single grouping that files can
// be moved by.
func (m GroupMode) Movable() bool {
	return m == ModeDuplicateName || m == ModeDay || m == ModeSimilar
}

// DefaultExtensions are the image formats scanned when none are given.
var DefaultExtensions = []string{"jpg", "jpeg", "png", "webp"}

// NormalizeExtensions lowercases extensions, strips leading dots and
// whitespace, and drops empties and duplicates while keeping order.
func NormalizeExtensions(exts []string) []string {
	seen := make(map[string]bool, len(exts))
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimLeft(strings.TrimSpace(e), "."))
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

// HasExtension reports whether the file name ends in one of exts, ignoring
// case. exts must already be normalized.
func HasExtension(name string, exts []string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}
