package lock

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"
)

// Suffix is appended to the manifest path to name its lock file.
const Suffix = ".lock"

const lockFileMode os.FileMode = 0o600

var (
	// ErrLocked is returned when another live process holds the lock.
	ErrLocked = errors.New("manifest is locked by another run")

	errBadLockContent = errors.New("lock file does not hold a process id")
)

// Lock is a held manifest lock.
type Lock struct {
	path string
	pid  int
}

// PathFor returns the lock file path for a manifest.
func PathFor(manifestPath string) string {
	return manifestPath + Suffix
}

// Acquire creates the lock file for manifestPath. A lock left behind by a
// process that no longer exists is removed and acquisition is retried once.
func Acquire(manifestPath string) (*Lock, error) {
	path := PathFor(manifestPath)

	l, err := create(path)
	if err == nil {
		return l, nil
	}

	if !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create lock %s: %w", path, err)
	}

	owner, err := readOwner(path)
	if err == nil {
		var alive bool

		alive, err = isAlive(owner)
		if err != nil {
			return nil, err
		}

		if alive {
			return nil, fmt.Errorf("%w: %s held by pid %d", ErrLocked, path, owner)
		}
	}

	// Stale or unreadable: reclaim.
	if err = os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale lock %s: %w", path, err)
	}

	l, err = create(path)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}

		return nil, fmt.Errorf("create lock %s: %w", path, err)
	}

	return l, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release removes the lock file. Releasing twice is not an error.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}

	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove lock %s: %w", l.path, err)
	}

	return nil
}

func create(path string) (*Lock, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, lockFileMode)
	if err != nil {
		return nil, err
	}

	pid := os.Getpid()

	_, err = file.WriteString(strconv.Itoa(pid) + "\n")
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	return &Lock{path: path, pid: pid}, nil
}

func readOwner(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil || pid <= 0 {
		return 0, errBadLockContent
	}

	return pid, nil
}

func isAlive(pid int) (bool, error) {
	process, err := ps.FindProcess(pid)
	if err != nil {
		return false, fmt.Errorf("look up lock owner %d: %w", pid, err)
	}

	return process != nil, nil
}
