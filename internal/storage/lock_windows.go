//go:build windows

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"overdoc/internal/errors"
)

// Lock is an exclusive lock on a snapshot database. On Windows it relies on
// O_EXCL creation of the lock file, so a crashed writer leaves a stale file.
type Lock struct {
	path string
	file *os.File
}

func lockPath(dbPath string) string {
	return dbPath + ".lock"
}

// AcquireLock takes the write lock for dbPath without blocking.
func AcquireLock(dbPath string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	path := lockPath(dbPath)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, errors.New(errors.StoreLocked, "snapshot store is locked by another process", err).WithPath(dbPath)
		}
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}
	if _, err := file.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to write lock file: %w", err)
	}
	return &Lock{path: path, file: file}, nil
}

// Release drops the lock and removes the lock file. It is safe on a nil Lock.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}
	_ = l.file.Close()
	_ = os.Remove(l.path)
	l.file = nil
}
