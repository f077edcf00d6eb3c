package processor

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/afero"
)

// moveFile renames source onto destination, replacing any existing file.
// Renames across devices fall back to copying into a temporary file next to
// the destination.
func moveFile(fs afero.Fs, source, destination string) error {
	err := fs.Rename(source, destination)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}
	return copyAcross(fs, source, destination)
}

func copyAcross(fs afero.Fs, source, destination string) error {
	in, err := fs.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	tmp, err := afero.TempFile(fs, filepath.Dir(destination), "."+filepath.Base(destination)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		fs.Remove(tmpName)
		return fmt.Errorf("failed to copy content: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		fs.Remove(tmpName)
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		fs.Remove(tmpName)
		return err
	}
	if err := fs.Chmod(tmpName, info.Mode().Perm()); err != nil {
		fs.Remove(tmpName)
		return err
	}

	// An existing destination is set aside until the source is gone so a
	// failed removal can restore it.
	backup := ""
	if _, err := fs.Stat(destination); err == nil {
		backup = strings.TrimSuffix(tmpName, ".tmp") + ".orig.tmp"
		if err := fs.Rename(destination, backup); err != nil {
			fs.Remove(tmpName)
			return fmt.Errorf("failed to set existing destination aside: %w", err)
		}
	}

	if err := fs.Rename(tmpName, destination); err != nil {
		fs.Remove(tmpName)
		restore(fs, backup, destination)
		return err
	}

	if err := fs.Remove(source); err != nil {
		// Never leave the file in two places
		fs.Remove(destination)
		restore(fs, backup, destination)
		return fmt.Errorf("failed to remove source after copy: %w", err)
	}

	if backup != "" {
		fs.Remove(backup)
	}
	return nil
}

func restore(fs afero.Fs, backup, destination string) {
	if backup != "" {
		fs.Rename(backup, destination)
	}
}
