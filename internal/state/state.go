package state

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// FileState records the last successful push of a single file
type FileState struct {
	MTime    int64  `json:"mtime"`
	Hash     string `json:"hash"`
	PageID   string `json:"page_id"`
	Blocks   int    `json:"blocks"`
	PushedAt int64  `json:"pushed_at"`
}

// State represents the push state
type State struct {
	Files    map[string]*FileState `json:"files"`
	Resolved map[string]string     `json:"resolved"` // parent reference -> page id
}

// NewState creates a new empty state
func NewState() *State {
	return &State{
		Files:    make(map[string]*FileState),
		Resolved: make(map[string]string),
	}
}

// Load reads state from the state file
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state: %w", err)
	}

	if state.Files == nil {
		state.Files = make(map[string]*FileState)
	}
	if state.Resolved == nil {
		state.Resolved = make(map[string]string)
	}

	return &state, nil
}

// Save writes state to the state file
func (s *State) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// ComputeHash computes SHA256 hash of a file
func ComputeHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("sha256:%x", h.Sum(nil)), nil
}

// HasChanged checks if a file has changed since it was last pushed
// Uses hybrid mtime + hash approach
func (s *State) HasChanged(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}

	mtime := info.ModTime().Unix()

	fileState, exists := s.Files[path]
	if !exists {
		// Never pushed
		return true, nil
	}

	// Fast path: check mtime first
	if mtime == fileState.MTime {
		return false, nil
	}

	// mtime changed, compute hash to check for actual content changes
	hash, err := ComputeHash(path)
	if err != nil {
		return false, err
	}

	return hash != fileState.Hash, nil
}

// Update records a successful push of a file
func (s *State) Update(path, pageID string, blocks int) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	hash, err := ComputeHash(path)
	if err != nil {
		return err
	}

	s.Files[path] = &FileState{
		MTime:    info.ModTime().Unix(),
		Hash:     hash,
		PageID:   pageID,
		Blocks:   blocks,
		PushedAt: time.Now().Unix(),
	}

	return nil
}

// PageID returns the page a file was last pushed to, if any
func (s *State) PageID(path string) (string, bool) {
	if fileState, exists := s.Files[path]; exists && fileState.PageID != "" {
		return fileState.PageID, true
	}
	return "", false
}

// GetPushedAt returns when a file was last pushed
func (s *State) GetPushedAt(path string) time.Time {
	if fileState, exists := s.Files[path]; exists {
		return time.Unix(fileState.PushedAt, 0)
	}
	return time.Time{}
}

// CachedID returns a previously resolved id for a parent reference
func (s *State) CachedID(ref string) (string, bool) {
	id, ok := s.Resolved[ref]
	return id, ok
}

// RememberID caches the resolved id of a parent reference
func (s *State) RememberID(ref, id string) {
	s.Resolved[ref] = id
}
