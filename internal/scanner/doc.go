/*
Package scanner finds image files under a root directory and collects their
metadata.

A run has three steps:

 1. Enumerate walks the root for files whose extension matches, ignoring case.
    Symbolic links are neither followed nor reported and dot-prefixed entries
    are skipped. A root that is missing or not a directory aborts the run.
 2. Collect processes files with a bounded number in flight (6 by default).
    Each file is stat'ed, looked up in the cache by size and modification
    time, and only the fields the grouping mode needs and the cache lacks are
    fetched from the external tool. Failures are recorded per file.
 3. The cache is saved once, files are sorted by path, and the grouping
    package builds the ScanResult.

Which fields are fetched:

	identify (width, height, capture day)  day or all mode, or a width/height limit
	perceptual hash                        similiar or all mode

Re-running a scan over an unchanged tree makes no tool calls.
*/
package scanner
