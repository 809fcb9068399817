// Package snapshot persists published scan snapshots as flat JSON files:
// one current document plus a dated copy per run day under history/.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wonny/livermore/internal/contracts"
	"github.com/wonny/livermore/pkg/logger"
)

const (
	currentFile = "daily_recommendations.json"
	historyDir  = "history"
)

// ErrNotFound is returned when no snapshot exists for a date
var ErrNotFound = errors.New("snapshot not found")

// Store reads and writes snapshots under a directory
// ⭐ SSOT: 스냅샷 파일 I/O는 여기서만
type Store struct {
	dir    string
	logger *logger.Logger
}

// NewStore creates a store rooted at dir. The directory is created on first save.
func NewStore(dir string, log *logger.Logger) *Store {
	return &Store{
		dir:    dir,
		logger: log.WithModule("snapshot"),
	}
}

// Dir returns the root directory
func (s *Store) Dir() string {
	return s.dir
}

// CurrentPath returns the path of the current snapshot file
func (s *Store) CurrentPath() string {
	return filepath.Join(s.dir, currentFile)
}

// HistoryPath returns the path of the dated copy for date
func (s *Store) HistoryPath(date string) string {
	return filepath.Join(s.dir, historyDir, date+".json")
}

// LoadCurrent returns the last published snapshot. A missing file is not an
// error and yields nil. A corrupt file is logged and also yields nil, so the
// next run diffs against nothing instead of failing.
func (s *Store) LoadCurrent() (*contracts.Snapshot, error) {
	snap, err := readFile(s.CurrentPath())
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		s.logger.WithError(err).WithField("path", s.CurrentPath()).Warn("Previous snapshot is corrupt, treating as absent")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// LoadHistory returns the dated copy for date
func (s *Store) LoadHistory(date string) (*contracts.Snapshot, error) {
	if _, err := contracts.ParseDay(date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, ErrNotFound)
	}
	return readFile(s.HistoryPath(date))
}

// ListHistory returns the dates with a history copy, newest first
func (s *Store) ListHistory() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, historyDir))
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	dates := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		date := strings.TrimSuffix(name, ".json")
		if _, err := contracts.ParseDay(date); err != nil {
			continue
		}
		dates = append(dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

// Save writes snap as the current snapshot and as history/{date}.json
func (s *Store) Save(snap *contracts.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(s.dir, historyDir), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if err := writeAtomic(s.CurrentPath(), data); err != nil {
		return err
	}
	if err := writeAtomic(s.HistoryPath(snap.Date), data); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"date":   snap.Date,
		"stocks": len(snap.Stocks),
		"path":   s.CurrentPath(),
	}).Info("Snapshot saved")
	return nil
}

func readFile(path string) (*contracts.Snapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var snap contracts.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &snap, nil
}

// writeAtomic replaces path via a temp file in the same directory
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
