package persist

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/shubhamksawant/SealedSecrets/internal/misc"
)

const keysetFileName = "keyset.bin"

// FileSystemStore persists the keyset blob under a base directory with
// restrictive permissions. Writes are atomic (temp file + rename) and
// versioned by content hash.
type FileSystemStore struct {
	basePath string
	mu       sync.Mutex
}

// NewFileSystemStore creates a store rooted at basePath, creating the
// directory if needed.
func NewFileSystemStore(basePath string) (*FileSystemStore, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	if err := os.MkdirAll(basePath, misc.DirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileSystemStore{basePath: basePath}, nil
}

func (fs *FileSystemStore) keysetPath() string {
	return filepath.Join(fs.basePath, keysetFileName)
}

func (fs *FileSystemStore) SaveKeyset(data []byte, expectedVersion string) (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	current, err := fs.currentVersion()
	if err != nil {
		return "", err
	}
	if current != expectedVersion {
		return "", fmt.Errorf("version mismatch: expected %q, found %q", expectedVersion, current)
	}

	if err = writeSecureFile(fs.keysetPath(), data, misc.FilePermissions); err != nil {
		return "", fmt.Errorf("failed to write keyset: %w", err)
	}

	return calculateFileVersion(data), nil
}

func (fs *FileSystemStore) LoadKeyset() (*VersionedData, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(fs.keysetPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no keyset stored: %w", err)
		}
		return nil, fmt.Errorf("failed to read keyset: %w", err)
	}

	info, err := os.Stat(fs.keysetPath())
	if err != nil {
		return nil, fmt.Errorf("failed to stat keyset: %w", err)
	}

	return &VersionedData{
		Data:      data,
		Version:   calculateFileVersion(data),
		Timestamp: info.ModTime(),
	}, nil
}

func (fs *FileSystemStore) KeysetExists() (bool, error) {
	_, err := os.Stat(fs.keysetPath())
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (fs *FileSystemStore) GetType() string {
	return string(FileSystemStoreType)
}

func (fs *FileSystemStore) Ping() error {
	info, err := os.Stat(fs.basePath)
	if err != nil {
		return fmt.Errorf("store directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("store path is not a directory: %s", fs.basePath)
	}
	return nil
}

func (fs *FileSystemStore) Close() error {
	return nil
}

// currentVersion returns the version of the stored keyset, or "" when no
// keyset exists yet.
func (fs *FileSystemStore) currentVersion() (string, error) {
	data, err := os.ReadFile(fs.keysetPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read keyset: %w", err)
	}
	return calculateFileVersion(data), nil
}

func calculateFileVersion(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}

// writeSecureFile writes data atomically: temp file in the same directory,
// fsync, rename over the target.
func writeSecureFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".keyset-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if err = tmp.Chmod(perm); err != nil {
		cleanup()
		return err
	}
	if _, err = tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err = tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err = os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
