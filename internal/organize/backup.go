package organize

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"image-audit/internal/logging"
)

// BackupSuffix is appended to the directory name to form the backup path.
const BackupSuffix = "_backup"

// BackupPath returns where Backup copies dir.
func BackupPath(dir string) string {
	return filepath.Clean(dir) + BackupSuffix
}

// Backup copies dir recursively to BackupPath(dir). It refuses to run when
// the backup path already exists so an earlier backup is never overwritten.
func Backup(fs afero.Fs, dir string) (string, error) {
	dest := BackupPath(dir)

	exists, err := afero.Exists(fs, dest)
	if err != nil {
		return "", fmt.Errorf("failed to check backup path: %w", err)
	}
	if exists {
		return "", fmt.Errorf("backup already exists: %s", dest)
	}

	logging.Info("Creating backup: %s -> %s", dir, dest)

	var files int
	err = afero.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		switch {
		case info.IsDir():
			return fs.MkdirAll(target, info.Mode().Perm()|0o700)
		case info.Mode().IsRegular():
			files++
			return copyFile(fs, path, target, info.Mode().Perm())
		default:
			logging.Debug("Backup skipping non-regular file: %s", path)
			return nil
		}
	})
	if err != nil {
		return "", fmt.Errorf("failed to back up %s: %w", dir, err)
	}

	logging.Info("Backup complete: %d file(s)", files)
	return dest, nil
}

func copyFile(fs afero.Fs, src, dst string, perm os.FileMode) (err error) {
	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil {
			logging.Warn("failed to close %s: %v", src, cerr)
		}
	}()

	out, err := fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}
