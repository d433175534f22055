// Package logging provides the leveled logger used across image-audit.
//
// Levels, lowest to highest:
//   - DEBUG: per-file cache decisions, tool command lines, configuration dump
//   - INFO: run progress and totals
//   - WARN: recoverable problems such as an unreadable cache file
//   - ERROR: failures that affect the run result
//
// The level comes from DEBUG or LOG_LEVEL in the environment and can be
// overridden with SetLevel. Output goes to stderr.
package logging
