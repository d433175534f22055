// Package compress recompresses oversized images in place.
//
// Each candidate is re-encoded into a hidden temporary file next to the
// original. The original is replaced only when the new file is strictly
// smaller; otherwise the temporary file is discarded and the original is left
// untouched. Candidates are processed one at a time.
package compress
