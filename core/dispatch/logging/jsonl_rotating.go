package logging

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RotatingJSONLStore stores logs in a JSONL file with automatic rotation.
type RotatingJSONLStore struct {
	mu     sync.Mutex
	logger *lumberjack.Logger
	path   string
}

// NewRotatingJSONLStore creates a store with rotation options in megabytes and days.
func NewRotatingJSONLStore(path string, maxSizeMB, maxBackups, maxAgeDays int) (*RotatingJSONLStore, error) {
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   false,
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &RotatingJSONLStore{logger: lj, path: path}, nil
}

// Append writes the record and triggers rotation if needed.
func (s *RotatingJSONLStore) Append(_ context.Context, rec LogRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.logger.Write(append(b, '\n'))
	return err
}

// Query reads the active file and its rotated backups, oldest first.
func (s *RotatingJSONLStore) Query(_ context.Context, q LogQuery) ([]LogRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	files, err := s.files()
	if err != nil {
		return nil, err
	}
	var res []LogRecord
	for _, name := range files {
		f, err := os.Open(name)
		if err != nil {
			continue
		}
		res, err = scan(f, q, res)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Timestamp.Before(res[j].Timestamp) })
	return q.limit(res), nil
}

// files lists backups (named <base>-<timestamp><ext>) then the active file.
func (s *RotatingJSONLStore) files() ([]string, error) {
	ext := filepath.Ext(s.path)
	base := s.path[:len(s.path)-len(ext)]
	backups, err := filepath.Glob(base + "-*" + ext)
	if err != nil {
		return nil, err
	}
	sort.Strings(backups)
	if _, err := os.Stat(s.path); err == nil {
		backups = append(backups, s.path)
	}
	return backups, nil
}

// Close closes the underlying writer.
func (s *RotatingJSONLStore) Close() error {
	return s.logger.Close()
}
