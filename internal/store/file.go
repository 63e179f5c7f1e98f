package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dqaudit/dqaudit/internal/document"
)

// FileStore keeps one JSON file per key in a directory. Writes go to a
// temp file in the same directory followed by a rename, so a crash or a
// failed marshal never clobbers the previous document.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns a store over it.
func NewFileStore(dir string) (*FileStore, error) {
	err := os.MkdirAll(dir, 0o750)
	if err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get implements Store.
func (s *FileStore) Get(_ context.Context, key string) (*document.Document, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}

		return nil, fmt.Errorf("read document %s: %w", key, err)
	}

	var doc document.Document

	unmarshalErr := json.Unmarshal(data, &doc)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("decode document %s: %w", key, unmarshalErr)
	}

	return &doc, nil
}

// Put implements Store.
func (s *FileStore) Put(_ context.Context, key string, doc *document.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}

	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	if writeErr != nil {
		tmp.Close()
		os.Remove(tmpPath)

		return fmt.Errorf("write document %s: %w", key, writeErr)
	}

	closeErr := tmp.Close()
	if closeErr != nil {
		os.Remove(tmpPath)

		return fmt.Errorf("close temp document: %w", closeErr)
	}

	renameErr := os.Rename(tmpPath, s.path(key))
	if renameErr != nil {
		os.Remove(tmpPath)

		return fmt.Errorf("replace document %s: %w", key, renameErr)
	}

	return nil
}

// Close implements Store. File stores hold no open handles.
func (s *FileStore) Close() error {
	return nil
}
