package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// recorder collects handled paths
type recorder struct {
	mu    sync.Mutex
	paths []string
	calls chan string
}

func newRecorder() *recorder {
	return &recorder{calls: make(chan string, 16)}
}

func (r *recorder) handle(ctx context.Context, path string) error {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	r.calls <- path
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

// startWatcher runs w until the test ends
func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run() error = %v", err)
		}
	})
	// Give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
}

func waitFor(t *testing.T, calls <-chan string) string {
	t.Helper()
	select {
	case path := <-calls:
		return path
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for handler")
		return ""
	}
}

func TestWatcherDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	startWatcher(t, New(dir, 150*time.Millisecond, rec.handle))

	path := filepath.Join(dir, "notes.md")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("# draft"), 0644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	if got := waitFor(t, rec.calls); got != path {
		t.Errorf("handled %q, want %q", got, path)
	}

	// Nothing else should arrive once the burst settled
	time.Sleep(300 * time.Millisecond)
	if n := rec.count(); n != 1 {
		t.Errorf("expected one handler call for a burst of writes, got %d", n)
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	startWatcher(t, New(dir, 50*time.Millisecond, rec.handle))

	for _, name := range []string{"image.png", ".hidden.md", "notes.md~"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
	}

	time.Sleep(300 * time.Millisecond)
	if n := rec.count(); n != 0 {
		t.Errorf("expected no handler calls, got %d", n)
	}
}

func TestWatcherNewSubdirectory(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	startWatcher(t, New(dir, 50*time.Millisecond, rec.handle))

	sub := filepath.Join(dir, "team")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	// Let the watcher pick up the new directory
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(sub, "plan.txt")
	if err := os.WriteFile(path, []byte("plan"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if got := waitFor(t, rec.calls); got != path {
		t.Errorf("handled %q, want %q", got, path)
	}
}

func TestWatcherSurvivesHandlerErrors(t *testing.T) {
	dir := t.TempDir()
	calls := make(chan string, 4)
	handle := func(ctx context.Context, path string) error {
		calls <- path
		return errors.New("push failed")
	}
	startWatcher(t, New(dir, 50*time.Millisecond, handle))

	first := filepath.Join(dir, "a.md")
	if err := os.WriteFile(first, []byte("a"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if got := waitFor(t, calls); got != first {
		t.Errorf("handled %q, want %q", got, first)
	}

	second := filepath.Join(dir, "b.md")
	if err := os.WriteFile(second, []byte("b"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if got := waitFor(t, calls); got != second {
		t.Errorf("handled %q, want %q", got, second)
	}
}

func TestRunWithoutDirectory(t *testing.T) {
	w := New("", time.Millisecond, func(context.Context, string) error { return nil })
	if err := w.Run(context.Background()); err == nil {
		t.Error("expected error for empty directory")
	}
}

func TestMatches(t *testing.T) {
	w := New(".", time.Second, nil, WithExtensions(".md"))

	tests := []struct {
		path string
		want bool
	}{
		{"notes.md", true},
		{"NOTES.MD", true},
		{"notes.txt", false},
		{".notes.md", false},
		{"dir/notes.md", true},
	}

	for _, tt := range tests {
		if got := w.matches(tt.path); got != tt.want {
			t.Errorf("matches(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
