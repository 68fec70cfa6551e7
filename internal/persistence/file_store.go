package persistence

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/jtolonen/stroll/pkg/api"
)

// FileStore is a RecordStore backed by a single JSON file. It is the
// local-storage analog for CLI and desktop hosts: zero dependencies, human
// readable, trivially resettable by deleting the file.
//
// Writes go through a temp file in the same directory followed by a rename,
// so a crash mid-write leaves the previous record intact.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore persisting to path. Parent directories
// are created on the first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

var _ RecordStore = (*FileStore)(nil)

func (s *FileStore) Load() (api.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return api.Record{}, ErrRecordNotFound
		}
		return api.Record{}, fmt.Errorf("read tour record %s: %w", s.path, err)
	}
	return DecodeRecord(data)
}

func (s *FileStore) Save(rec api.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := EncodeRecord(Normalize(rec))
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create record dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tour-record-*")
	if err != nil {
		return fmt.Errorf("create temp record file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write tour record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close tour record: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace tour record %s: %w", s.path, err)
	}
	return nil
}
