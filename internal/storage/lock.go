//go:build !windows

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"overdoc/internal/errors"
)

// Lock is an exclusive advisory lock on a snapshot database.
type Lock struct {
	path string
	file *os.File
}

// lockPath returns the lock file guarding dbPath.
func lockPath(dbPath string) string {
	return dbPath + ".lock"
}

// AcquireLock takes the write lock for dbPath without blocking. It fails
// with STORE_LOCKED while another process holds it.
func AcquireLock(dbPath string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	path := lockPath(dbPath)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = file.Close()
		msg := "snapshot store is locked by another process"
		if content, readErr := os.ReadFile(path); readErr == nil && len(content) > 0 {
			msg += " (PID " + strings.TrimSpace(string(content)) + ")"
		}
		return nil, errors.New(errors.StoreLocked, msg, err).WithPath(dbPath)
	}

	unlock := func(cause error, what string) (*Lock, error) {
		_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		_ = file.Close()
		return nil, fmt.Errorf("%s lock file: %w", what, cause)
	}
	if err := file.Truncate(0); err != nil {
		return unlock(err, "failed to truncate")
	}
	if _, err := file.WriteAt([]byte(strconv.Itoa(os.Getpid())), 0); err != nil {
		return unlock(err, "failed to write")
	}
	return &Lock{path: path, file: file}, nil
}

// Release drops the lock and removes the lock file. It is safe on a nil Lock.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}
	_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	_ = l.file.Close()
	_ = os.Remove(l.path)
	l.file = nil
}
