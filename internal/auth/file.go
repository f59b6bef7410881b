package auth

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gofrs/flock"
)

// CredentialsFileName is the file used by FileBackend inside its directory.
const CredentialsFileName = "credentials.json"

// lockTimeout bounds how long FileBackend waits for another process.
const lockTimeout = 500 * time.Millisecond

// FileBackend stores credentials for every origin in one 0600 JSON file.
// Writes are atomic and serialized across processes with a lock file.
type FileBackend struct {
	dir string
}

// NewFileBackend creates a file backend rooted at dir.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{dir: dir}
}

func (f *FileBackend) Name() string { return "file" }

// Path returns the credentials file path.
func (f *FileBackend) Path() string {
	return filepath.Join(f.dir, CredentialsFileName)
}

func (f *FileBackend) lockPath() string {
	return filepath.Join(f.dir, ".credentials.lock")
}

// withLock runs fn while holding the cross-process lock. If the lock is not
// acquired within lockTimeout, fn runs unlocked rather than hanging the CLI.
func (f *FileBackend) withLock(fn func() error) error {
	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return err
	}

	fl := flock.New(f.lockPath())
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return err
	}
	if locked {
		defer func() { _ = fl.Unlock() }()
	}
	return fn()
}

func (f *FileBackend) Load(origin string) (*Credentials, error) {
	var creds *Credentials
	err := f.withLock(func() error {
		all, err := f.loadAll()
		if err != nil {
			return err
		}
		c, ok := all[origin]
		if !ok || c == nil {
			return ErrNotFound
		}
		creds = c
		return nil
	})
	return creds, err
}

func (f *FileBackend) Save(origin string, creds *Credentials) error {
	return f.withLock(func() error {
		all, err := f.loadAll()
		if err != nil {
			return err
		}
		all[origin] = creds
		return f.saveAll(all)
	})
}

func (f *FileBackend) Delete(origin string) error {
	return f.withLock(func() error {
		all, err := f.loadAll()
		if err != nil {
			return err
		}
		if _, ok := all[origin]; !ok {
			return ErrNotFound
		}
		delete(all, origin)
		if len(all) == 0 {
			err := os.Remove(f.Path())
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		return f.saveAll(all)
	})
}

func (f *FileBackend) loadAll() (map[string]*Credentials, error) {
	data, err := os.ReadFile(f.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]*Credentials), nil
		}
		return nil, err
	}

	all := make(map[string]*Credentials)
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	return all, nil
}

func (f *FileBackend) saveAll(all map[string]*Credentials) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}

	// Atomic write with randomized temp file name
	tmpFile, err := os.CreateTemp(f.dir, "credentials-*.json.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Chmod(0600); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	destPath := f.Path()
	if err := os.Rename(tmpPath, destPath); err != nil {
		if runtime.GOOS == "windows" {
			_ = os.Remove(destPath)
			return os.Rename(tmpPath, destPath)
		}
		os.Remove(tmpPath)
		return err
	}
	return nil
}
