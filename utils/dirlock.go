package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gofrs/flock"
)

const lockDirName = "repoinit"

var unsafeLockChars = regexp.MustCompile(`[^\w\-.]`)

// DirLock is an advisory lock guarding a working directory. The lock file lives in
// the system temp dir so purging the working directory never removes it.
type DirLock struct {
	lockFile *flock.Flock
	lockPath string
	dir      string
}

// sanitizeDirPath converts a directory path to a safe filename
func sanitizeDirPath(dirPath string) string {
	sanitized := strings.ReplaceAll(dirPath, "/", "--")
	sanitized = strings.ReplaceAll(sanitized, "\\", "--")

	sanitized = strings.ReplaceAll(sanitized, ":", "--")
	sanitized = strings.ReplaceAll(sanitized, "*", "-star-")
	sanitized = strings.ReplaceAll(sanitized, "?", "-q-")
	sanitized = strings.ReplaceAll(sanitized, "\"", "-quote-")
	sanitized = strings.ReplaceAll(sanitized, "<", "-lt-")
	sanitized = strings.ReplaceAll(sanitized, ">", "-gt-")
	sanitized = strings.ReplaceAll(sanitized, "|", "-pipe-")

	sanitized = unsafeLockChars.ReplaceAllString(sanitized, "-")

	// No hidden files
	sanitized = strings.Trim(sanitized, ".-")

	if sanitized == "" {
		sanitized = "default"
	}

	return sanitized
}

// NewDirLock creates a lock for dir. The lock is not taken until TryLock.
func NewDirLock(dir string) (*DirLock, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory %s: %w", dir, err)
	}

	lockRoot := filepath.Join(os.TempDir(), lockDirName)
	if err := os.MkdirAll(lockRoot, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	lockPath := filepath.Join(lockRoot, fmt.Sprintf("%s.lock", sanitizeDirPath(absDir)))

	return &DirLock{
		lockFile: flock.New(lockPath),
		lockPath: lockPath,
		dir:      absDir,
	}, nil
}

// TryLock attempts to acquire the directory lock without blocking
func (dl *DirLock) TryLock() error {
	locked, err := dl.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to try lock: %w", err)
	}

	if !locked {
		return fmt.Errorf("another repoinit instance is already using %s", dl.dir)
	}

	return nil
}

// Unlock releases the directory lock and removes the lock file. Safe to call twice.
func (dl *DirLock) Unlock() error {
	if dl.lockFile == nil || !dl.lockFile.Locked() {
		return nil
	}

	if err := dl.lockFile.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock: %w", err)
	}

	if err := os.Remove(dl.lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}

	return nil
}

func (dl *DirLock) GetLockPath() string {
	return dl.lockPath
}
