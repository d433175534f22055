/*
Package workers decides how many files a scan processes concurrently.

Metadata extraction is dominated by external tool processes, not by Go CPU
time, so the pool size is a fixed bound rather than a multiple of
GOMAXPROCS. The default of 6 keeps a laptop responsive while identify and
perceptual hash processes run.

	n := workers.Metadata(cfg.Workers) // 6 unless configured

Operators can override the value with IMAGE_AUDIT_WORKERS:

	IMAGE_AUDIT_WORKERS=2 image-audit scan ~/Pictures

All functions are safe for concurrent use.
*/
package workers
