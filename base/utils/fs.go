package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FSPermission describes who may access a file system entry.
type FSPermission uint8

// File System Permissions.
const (
	AdminOnlyPermission FSPermission = iota
	PublicReadPermission
)

// AsUnixDirExecPermission return the corresponding unix permission for a directory or executable.
func (perm FSPermission) AsUnixDirExecPermission() fs.FileMode {
	switch perm {
	case PublicReadPermission:
		return 0o0755
	default:
		return 0o0700
	}
}

// AsUnixFilePermission returns the corresponding unix permission for a regular file.
func (perm FSPermission) AsUnixFilePermission() fs.FileMode {
	switch perm {
	case PublicReadPermission:
		return 0o0644
	default:
		return 0o0600
	}
}

// EnsureDirectory ensures that the directory at path and all its parents
// exist. Directories it creates get the given permission, existing ones are
// left unchanged. It fails if path exists and is not a directory.
func EnsureDirectory(path string, perm FSPermission) error {
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return nil
	case err == nil:
		return fmt.Errorf("%s exists and is not a directory", path)
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("failed to access %s: %w", path, err)
	}

	if err := os.MkdirAll(path, perm.AsUnixDirExecPermission()); err != nil {
		return fmt.Errorf("could not create dir %s: %w", path, err)
	}
	return nil
}

// PathExists returns whether the given path (file or dir) exists.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || errors.Is(err, fs.ErrExist)
}
