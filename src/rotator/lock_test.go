// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package rotator

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProcessAlive makes every pid in alive report as running.
func stubProcessAlive(t *testing.T, alive ...int) {
	t.Helper()
	orig := processAlive
	processAlive = func(pid int) bool {
		for _, p := range alive {
			if p == pid {
				return true
			}
		}
		return false
	}
	t.Cleanup(func() { processAlive = orig })
}

func writeLock(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// ageLock moves the modification time of path past the grace period.
func ageLock(t *testing.T, path string) {
	t.Helper()
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))
}

func TestAcquireLockFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "dnsrotate.pid")

	lock, err := AcquireLock(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), lock.PID)
	assert.Equal(t, path, lock.Path)
	assert.False(t, lock.CreatedAt.IsZero())

	pid, err := ReadLockPID(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "only the lock file itself may remain")

	require.NoError(t, lock.Release())
	assert.NoFileExists(t, path)
}

func TestAcquireLockLiveOwner(t *testing.T) {
	const owner = 424242
	stubProcessAlive(t, owner)
	path := filepath.Join(t.TempDir(), "dnsrotate.pid")
	writeLock(t, path, strconv.Itoa(owner)+"\n")

	lock, err := AcquireLock(path)
	assert.Nil(t, lock)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyRunning), "got %v", err)
	assert.Contains(t, err.Error(), "424242")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "424242\n", string(data), "lock file must be untouched")
}

func TestAcquireLockStale(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"dead pid", "424242\n"},
		{"garbage", "not a pid"},
		{"empty", ""},
		{"own pid", strconv.Itoa(os.Getpid())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Our own pid counts as alive; it must still be taken over
			// since it can only be left over from a previous process.
			stubProcessAlive(t, os.Getpid())
			path := filepath.Join(t.TempDir(), "dnsrotate.pid")
			writeLock(t, path, tt.content)
			ageLock(t, path)

			lock, err := AcquireLock(path)
			require.NoError(t, err)
			defer lock.Release()

			pid, err := ReadLockPID(path)
			require.NoError(t, err)
			assert.Equal(t, os.Getpid(), pid)

			// No temp files are left behind.
			entries, err := os.ReadDir(filepath.Dir(path))
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})
	}
}

func TestAcquireLockBeingWritten(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"newline only", "\n"},
		{"garbage", "not a pid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubProcessAlive(t)
			path := filepath.Join(t.TempDir(), "dnsrotate.pid")
			// Another instance has created the file but not yet written
			// a parsable pid.
			writeLock(t, path, tt.content)

			lock, err := AcquireLock(path)
			assert.Nil(t, lock)
			assert.ErrorIs(t, err, ErrAlreadyRunning)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(data), "lock file must be untouched")
		})
	}
}

func TestAcquireLockGracePeriod(t *testing.T) {
	orig := lockGrace
	lockGrace = 0
	t.Cleanup(func() { lockGrace = orig })

	stubProcessAlive(t)
	path := filepath.Join(t.TempDir(), "dnsrotate.pid")
	writeLock(t, path, "")

	lock, err := AcquireLock(path)
	require.NoError(t, err)
	defer lock.Release()

	pid, err := ReadLockPID(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestCreateLockFileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dnsrotate.pid")
	writeLock(t, path, "424242\n")

	err := createLockFile(path, os.Getpid())
	assert.ErrorIs(t, err, os.ErrExist)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "424242\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLockReleaseOnlyOwnPID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dnsrotate.pid")
	lock, err := AcquireLock(path)
	require.NoError(t, err)

	// Another instance took over the file in the meantime.
	writeLock(t, path, "424242\n")

	require.NoError(t, lock.Release())
	assert.FileExists(t, path)
}

func TestLockReleaseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dnsrotate.pid")
	lock, err := AcquireLock(path)
	require.NoError(t, err)

	require.NoError(t, lock.Release())
	require.NoError(t, lock.Release())
	assert.NoFileExists(t, path)

	var nilLock *Lock
	assert.NoError(t, nilLock.Release())
}

func TestLockReleaseMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dnsrotate.pid")
	lock, err := AcquireLock(path)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	assert.NoError(t, lock.Release())
}

func TestProcessAlive(t *testing.T) {
	assert.True(t, processAlive(os.Getpid()))
	assert.False(t, processAlive(0))
	assert.False(t, processAlive(-1))
}
