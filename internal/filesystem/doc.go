/*
Package filesystem wraps os.Stat with retry logic for NFS stale file handle
errors.

Photo libraries often live on network shares. A scan stats every candidate
file, and a transient ESTALE (errno 116) would otherwise be recorded as a
per-file error. StatWithRetry retries only ESTALE, with exponential backoff:

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

Defaults are 3 retries, 50ms initial backoff, 500ms cap. Other errors fail
immediately.

Retry metrics are reported through an Observer registered with SetObserver;
the metrics package provides one.
*/
package filesystem
