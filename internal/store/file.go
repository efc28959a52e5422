package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// File keeps one file per key under a directory. Writes go through a temp
// file and rename so a crash never leaves a half-written value behind.
type File struct {
	mu  sync.Mutex
	dir string
}

// NewFile creates dir (0700) if needed and returns a File store rooted there.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, errors.New("store: data dir is empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &File{dir: dir}, nil
}

// Dir returns the directory the store writes into.
func (f *File) Dir() string {
	return f.dir
}

func (f *File) Get(key string) ([]byte, error) {
	path, err := f.pathFor(key)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (f *File) Set(key string, value []byte) error {
	path, err := f.pathFor(key)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return WriteFileAtomic(path, value, ".labcal-"+key+"-*.tmp")
}

func (f *File) pathFor(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("store: invalid key %q", key)
	}
	return filepath.Join(f.dir, key), nil
}
