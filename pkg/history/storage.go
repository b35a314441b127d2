// Package history persists executed swaps to a JSON file so past trades
// survive restarts.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const (
	DefaultStorageFileName = ".aaswap-history.json"
)

// Entry is one recorded swap attempt.
type Entry struct {
	Timestamp     time.Time `json:"timestamp"`
	PayToken      string    `json:"payToken"`
	PayAmount     string    `json:"payAmount"`
	ReceiveToken  string    `json:"receiveToken"`
	ReceiveAmount string    `json:"receiveAmount"`
	TradeType     string    `json:"tradeType"`
	Step          string    `json:"step"`
	TxHash        string    `json:"txHash,omitempty"`
	Reason        string    `json:"reason,omitempty"`
}

// Storage handles persistence of swap history
type Storage struct {
	filePath string
	mu       sync.RWMutex
	entries  []Entry
}

// historyFile represents the JSON structure on disk
type historyFile struct {
	Entries []Entry `json:"entries"`
}

// NewStorage creates a new storage instance. An empty path defaults to
// a file in the user's home directory.
func NewStorage(filePath string) (*Storage, error) {
	if filePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(home, DefaultStorageFileName)
	}

	storage := &Storage{filePath: filePath}

	// A missing file is fine, it is created on first save.
	if err := storage.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	return storage, nil
}

func (s *Storage) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var file historyFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to unmarshal history: %w", err)
	}

	s.entries = file.Entries
	return nil
}

func (s *Storage) save() error {
	data, err := json.MarshalIndent(historyFile{Entries: s.entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to temporary file first, then rename for atomic write
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Append records a swap and persists immediately.
func (s *Storage) Append(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	s.entries = append(s.entries, entry)
	return s.save()
}

// List returns all recorded swaps, newest first.
func (s *Storage) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// ListByStep returns swaps whose terminal step matches, newest first.
func (s *Storage) ListByStep(step string) []Entry {
	all := s.List()
	out := make([]Entry, 0)
	for _, e := range all {
		if e.Step == step {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the total number of recorded swaps
func (s *Storage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// GetFilePath returns the storage file path
func (s *Storage) GetFilePath() string {
	return s.filePath
}
