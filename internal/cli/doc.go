/*
Package cli implements the image-audit command line.

Commands:

	image-audit scan <dir>       report oversized images and groupings
	image-audit compress <dir>   recompress oversized images in place
	image-audit move <dir>       back up, then move grouped files into folders
	image-audit history [run]    list journaled runs or show one run
	image-audit version          print build information

Configuration is layered: built-in defaults, then the YAML config file, then
IMAGE_AUDIT_* environment variables, then flags that were set explicitly.

Exit codes: 0 on success, 1 when the command failed, 2 when it completed but
recorded per-file errors.
*/
package cli
