package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const defaultFileName = "memories.json"

// FileStorage persists the whole collection as one JSON document, written
// atomically via a temp file rename.
type FileStorage struct {
	path string
}

// NewFileStorage creates a file collaborator rooted in dataDir.
func NewFileStorage(dataDir string) *FileStorage {
	return &FileStorage{path: filepath.Join(dataDir, defaultFileName)}
}

// Path returns the backing file location.
func (f *FileStorage) Path() string {
	return f.path
}

// Load reads the full collection. A missing or empty file is an empty
// collection, not an error.
func (f *FileStorage) Load(ctx context.Context) ([]Memory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Memory{}, nil
		}
		return nil, fmt.Errorf("read memories file: %w", err)
	}
	if len(data) == 0 {
		return []Memory{}, nil
	}

	var memories []Memory
	if err := json.Unmarshal(data, &memories); err != nil {
		return nil, fmt.Errorf("decode memories file: %w", err)
	}
	return memories, nil
}

// Save writes the full collection, replacing any previous contents.
func (f *FileStorage) Save(ctx context.Context, memories []Memory) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if memories == nil {
		memories = []Memory{}
	}
	data, err := json.MarshalIndent(memories, "", "  ")
	if err != nil {
		return fmt.Errorf("encode memories: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, defaultFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write memories: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace memories file: %w", err)
	}
	return nil
}
