package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewState(t *testing.T) {
	s := NewState()

	if s.Files == nil {
		t.Error("Files map should be initialized")
	}
	if s.Resolved == nil {
		t.Error("Resolved map should be initialized")
	}
	if len(s.Files) != 0 {
		t.Error("Files map should be empty")
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	statePath := filepath.Join(tmpDir, "state.json")

	state := NewState()
	state.Files["notes/plan.md"] = &FileState{
		MTime:    123456789,
		Hash:     "sha256:abc123",
		PageID:   "0123456789abcdef0123456789abcdef",
		Blocks:   12,
		PushedAt: 987654321,
	}
	state.RememberID("Team Space", "fedcba98-7654-3210-fedc-ba9876543210")

	if err := state.Save(statePath); err != nil {
		t.Fatalf("Failed to save state: %v", err)
	}

	loaded, err := Load(statePath)
	if err != nil {
		t.Fatalf("Failed to load state: %v", err)
	}

	if len(loaded.Files) != 1 {
		t.Errorf("Expected 1 file, got %d", len(loaded.Files))
	}

	fileState := loaded.Files["notes/plan.md"]
	if fileState == nil {
		t.Fatal("File state not found")
	}
	if fileState.Hash != "sha256:abc123" {
		t.Errorf("Hash mismatch: got %s, want sha256:abc123", fileState.Hash)
	}
	if fileState.Blocks != 12 {
		t.Errorf("Blocks mismatch: got %d, want 12", fileState.Blocks)
	}
	if id, ok := loaded.PageID("notes/plan.md"); !ok || id != "0123456789abcdef0123456789abcdef" {
		t.Errorf("PageID mismatch: got %q (%v)", id, ok)
	}
	if id, ok := loaded.CachedID("Team Space"); !ok || id != "fedcba98-7654-3210-fedc-ba9876543210" {
		t.Errorf("CachedID mismatch: got %q (%v)", id, ok)
	}
}

func TestLoadNonExistent(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "nonexistent.json")

	// Should return empty state, not error
	state, err := Load(statePath)
	if err != nil {
		t.Fatalf("Load should not error on missing file: %v", err)
	}
	if state == nil || len(state.Files) != 0 {
		t.Fatal("Expected empty state")
	}
}

func TestLoadCorrupt(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(statePath, []byte("{not json"), 0644); err != nil {
		t.Fatalf("Failed to write state: %v", err)
	}

	if _, err := Load(statePath); err == nil {
		t.Error("Expected error for corrupt state file")
	}
}

func TestComputeHash(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.md")

	if err := os.WriteFile(testFile, []byte("Hello, World!"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	hash, err := ComputeHash(testFile)
	if err != nil {
		t.Fatalf("ComputeHash failed: %v", err)
	}
	if len(hash) < 7 || hash[:7] != "sha256:" {
		t.Errorf("Hash should start with 'sha256:', got: %s", hash)
	}

	hash2, err := ComputeHash(testFile)
	if err != nil {
		t.Fatalf("Second ComputeHash failed: %v", err)
	}
	if hash != hash2 {
		t.Error("Hash should be deterministic")
	}

	if err := os.WriteFile(testFile, []byte("Different content"), 0644); err != nil {
		t.Fatalf("Failed to update test file: %v", err)
	}
	hash3, err := ComputeHash(testFile)
	if err != nil {
		t.Fatalf("Third ComputeHash failed: %v", err)
	}
	if hash == hash3 {
		t.Error("Hash should change when content changes")
	}
}

func TestHasChanged(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.md")

	if err := os.WriteFile(testFile, []byte("Initial content"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	state := NewState()

	changed, err := state.HasChanged(testFile)
	if err != nil {
		t.Fatalf("HasChanged failed: %v", err)
	}
	if !changed {
		t.Error("Unpushed file should be marked as changed")
	}

	if err := state.Update(testFile, "page-1", 3); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	changed, err = state.HasChanged(testFile)
	if err != nil {
		t.Fatalf("HasChanged failed: %v", err)
	}
	if changed {
		t.Error("Unchanged file should not be marked as changed")
	}

	// Touch the file: mtime moves, content does not
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(testFile, future, future); err != nil {
		t.Fatalf("Failed to touch file: %v", err)
	}

	changed, err = state.HasChanged(testFile)
	if err != nil {
		t.Fatalf("HasChanged failed after touch: %v", err)
	}
	if changed {
		t.Error("File with only mtime change should not be marked as changed")
	}

	if err := os.WriteFile(testFile, []byte("New content"), 0644); err != nil {
		t.Fatalf("Failed to update file: %v", err)
	}
	later := future.Add(2 * time.Second)
	if err := os.Chtimes(testFile, later, later); err != nil {
		t.Fatalf("Failed to touch file: %v", err)
	}

	changed, err = state.HasChanged(testFile)
	if err != nil {
		t.Fatalf("HasChanged failed after content change: %v", err)
	}
	if !changed {
		t.Error("File with content change should be marked as changed")
	}
}

func TestHasChangedMissingFile(t *testing.T) {
	state := NewState()
	if _, err := state.HasChanged(filepath.Join(t.TempDir(), "missing.md")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestUpdate(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.md")

	if err := os.WriteFile(testFile, []byte("Test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	state := NewState()
	before := time.Now().Add(-time.Second)

	if err := state.Update(testFile, "page-42", 7); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fileState := state.Files[testFile]
	if fileState == nil {
		t.Fatal("File state not found after update")
	}
	if fileState.MTime == 0 {
		t.Error("MTime should be set")
	}
	if fileState.Hash == "" {
		t.Error("Hash should be set")
	}
	if fileState.PageID != "page-42" || fileState.Blocks != 7 {
		t.Errorf("Unexpected push record: %+v", fileState)
	}
	if state.GetPushedAt(testFile).Before(before) {
		t.Errorf("PushedAt should be recent, got %v", state.GetPushedAt(testFile))
	}
}

func TestGetPushedAtUnknown(t *testing.T) {
	state := NewState()
	if !state.GetPushedAt("nonexistent.md").IsZero() {
		t.Error("PushedAt for unknown file should be zero")
	}
	if _, ok := state.PageID("nonexistent.md"); ok {
		t.Error("PageID for unknown file should be absent")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "nested", "dir", "state.json")

	state := NewState()
	state.Files["test.md"] = &FileState{
		MTime: 123,
		Hash:  "sha256:test",
	}

	if err := state.Save(statePath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(statePath); os.IsNotExist(err) {
		t.Error("State file was not created")
	}
}
