// Package cache persists image metadata between runs in a single JSON file
// mapping absolute path to ImageInfo.
//
// An entry is valid only while the file's size and modification time match
// the values recorded with it, so an unchanged tree can be rescanned without
// running the external tool at all. Stale entries are overwritten whole.
//
// The cache is loaded once before a scan and saved at most once after it. A
// missing or corrupt file is treated as empty, and a failed save is reported
// but never fails the run.
package cache
