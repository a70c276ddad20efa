package clientsfile

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"go.yaml.in/yaml/v3"
)

const (
	lockRetryDelay  = 50 * time.Millisecond
	defaultLockWait = 5 * time.Second
	fileMode        = 0o644
)

const header = "# Managed by the sentiment dashboard. Manual edits are preserved until the next save.\n"

// Encode renders f as YAML with two-space indentation.
func Encode(f File) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(header)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("encode clients file: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode clients file: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes f to path atomically while holding path.lock, the lock the
// pipeline takes before reading. Waits at most five seconds or until ctx
// is done for the lock.
func Save(ctx context.Context, path string, f File) error {
	data, err := Encode(f)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create clients file dir: %w", err)
	}

	lockCtx, cancel := context.WithTimeout(ctx, defaultLockWait)
	defer cancel()
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil && lockCtx.Err() == nil {
		return fmt.Errorf("acquire clients file lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLocked, path)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	return writeAtomic(path, data)
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp clients file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp clients file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp clients file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp clients file: %w", err)
	}
	if err := os.Chmod(tmpName, fileMode); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp clients file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replace clients file: %w", err)
	}
	return nil
}
