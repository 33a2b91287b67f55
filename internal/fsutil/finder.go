// Package fsutil provides file system utility functions.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrMissingFiles is returned by RequireFiles when expected files are absent.
var ErrMissingFiles = errors.New("missing required files")

// FindFilesByExtension recursively searches the given root path for all files ending
// with the specified extension. It returns a slice of their full paths.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}

// RequireFiles checks that every named file exists as a regular file in dir.
// The error lists the missing names and, to help the user, the files with the
// given extension that were found instead.
func RequireFiles(dir, extension string, names ...string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to access directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	var missing []string
	for _, name := range names {
		fi, err := os.Stat(filepath.Join(dir, name))
		if err != nil || !fi.Mode().IsRegular() {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	found, err := FindFilesByExtension(dir, extension)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMissingFiles, strings.Join(missing, ", "))
	}
	for i, f := range found {
		if rel, err := filepath.Rel(dir, f); err == nil {
			found[i] = rel
		}
	}
	return fmt.Errorf("%w: %s (found: %v)", ErrMissingFiles, strings.Join(missing, ", "), found)
}

// EnsureDir creates dir and its parents when they do not exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
