// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package rotator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	processInfo "github.com/shirou/gopsutil/process"
)

// processAlive reports whether a process with the given pid is running.
// Replaced in tests.
var processAlive = func(pid int) bool {
	if pid <= 0 {
		return false
	}
	exists, err := processInfo.PidExists(int32(pid))
	return err == nil && exists
}

// lockGrace is how long an empty or unreadable lock file is assumed to
// belong to an instance that is still starting up.
var lockGrace = 5 * time.Second

// Lock is a held pid lock file.
type Lock struct {
	Path      string
	PID       int
	CreatedAt time.Time

	once sync.Once
	err  error
}

// AcquireLock takes the single-instance lock at path.
//
// If the file names a live process, [ErrAlreadyRunning] is returned and
// the file is left untouched. An empty or unreadable file younger than
// the grace period is treated the same way. Anything else is stale and
// replaced.
func AcquireLock(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("rotator: create lock dir: %w", err)
	}

	pid := os.Getpid()
	err := createLockFile(path, pid)
	if errors.Is(err, os.ErrExist) {
		if err := checkOwner(path, pid); err != nil {
			return nil, err
		}
		if err = replaceLockFile(path, pid); err == nil {
			// Another instance may have replaced the same stale lock.
			if owner, readErr := readLockPID(path); readErr != nil || owner != pid {
				return nil, fmt.Errorf("%w (lock %s taken over concurrently)", ErrAlreadyRunning, path)
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("rotator: write lock %s: %w", path, err)
	}

	return &Lock{Path: path, PID: pid, CreatedAt: time.Now()}, nil
}

// checkOwner returns [ErrAlreadyRunning] unless the existing lock at path
// is stale.
func checkOwner(path string, pid int) error {
	owner, err := readLockPID(path)
	if err == nil {
		if owner != pid && processAlive(owner) {
			return fmt.Errorf("%w (pid %d, lock %s)", ErrAlreadyRunning, owner, path)
		}
		return nil
	}

	info, statErr := os.Stat(path)
	if statErr == nil && time.Since(info.ModTime()) < lockGrace {
		return fmt.Errorf("%w (lock %s is being written)", ErrAlreadyRunning, path)
	}
	return nil
}

// Release removes the lock file if it still names this process.
// It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	l.once.Do(func() {
		owner, err := readLockPID(l.Path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			return
		case err != nil:
			l.err = fmt.Errorf("rotator: read lock %s: %w", l.Path, err)
			return
		case owner != l.PID:
			// A newer instance took over.
			return
		}
		if err := os.Remove(l.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			l.err = fmt.Errorf("rotator: remove lock %s: %w", l.Path, err)
		}
	})
	return l.err
}

// ReadLockPID returns the pid stored in the lock file at path.
func ReadLockPID(path string) (int, error) {
	return readLockPID(path)
}

func readLockPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pid: %w", err)
	}
	return pid, nil
}

// createLockFile publishes a complete lock file at path. The pid is
// written to a temp file first and then hard linked into place, which
// fails with [os.ErrExist] if path already exists.
func createLockFile(path string, pid int) error {
	tmp, err := writeTempPID(path, pid)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)
	return os.Link(tmp, path)
}

// replaceLockFile overwrites a stale lock via write-then-rename so that
// readers never observe a partially written pid.
func replaceLockFile(path string, pid int) error {
	tmp, err := writeTempPID(path, pid)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)
	return os.Rename(tmp, path)
}

func writeTempPID(path string, pid int) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return "", err
	}
	name := tmp.Name()

	_, err = fmt.Fprintf(tmp, "%d\n", pid)
	if err == nil {
		err = tmp.Chmod(0o644)
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}
