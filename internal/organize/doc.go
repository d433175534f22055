// Package organize backs up a directory tree and moves grouped files into
// per-group folders under the scanned root.
package organize
