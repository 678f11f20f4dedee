package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/gerunddev/blockbridge/internal/config"
	"github.com/gerunddev/blockbridge/internal/tui"
)

const testPageID = "01234567-89ab-cdef-0123-456789abcdef"

// fakeNotion records requests and answers like a minimal Notion API
type fakeNotion struct {
	mu       sync.Mutex
	requests []string
	bodies   []map[string]any
	status   int // status for /users/me
}

func (f *fakeNotion) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	data, _ := io.ReadAll(r.Body)
	if len(data) > 0 {
		_ = json.Unmarshal(data, &body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.bodies = append(f.bodies, body)
	status := f.status
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/users/me":
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if status != http.StatusOK {
			fmt.Fprint(w, `{"object":"error","status":401,"code":"unauthorized","message":"API token is invalid."}`)
			return
		}
		fmt.Fprint(w, `{"object":"user","id":"u1","name":"Docs Bot","type":"bot"}`)
	case r.URL.Path == "/search":
		if body["query"] == "Tasks" {
			fmt.Fprint(w, `{"object":"list","results":[{"object":"database","id":"tasks-db","title":[{"type":"text","text":{"content":"Tasks"},"plain_text":"Tasks"}]}],"has_more":false}`)
			return
		}
		if body["query"] == "Team Space" {
			fmt.Fprintf(w, `{"results":[{"object":"page","id":%q,"url":"https://www.notion.so/team"}],"has_more":false}`, testPageID)
			return
		}
		fmt.Fprint(w, `{"results":[],"has_more":false}`)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/databases/"):
		fmt.Fprint(w, `{"object":"database","id":"tasks-db","properties":{"Name":{"id":"title","name":"Name","type":"title","title":{}}}}`)
	case strings.HasSuffix(r.URL.Path, "/query"):
		fmt.Fprint(w, `{"object":"list","results":[`+
			`{"object":"page","id":"entry-1","url":"https://www.notion.so/entry-1","properties":{"Name":{"id":"title","type":"title","title":[{"type":"text","text":{"content":"Write docs"},"plain_text":"Write docs"}]}}},`+
			`{"object":"page","id":"entry-2","properties":{"Name":{"id":"title","type":"title","title":[{"type":"text","text":{"content":"Ship release"},"plain_text":"Ship release"}]}}}`+
			`],"has_more":false}`)
	case r.URL.Path == "/pages":
		fmt.Fprint(w, `{"object":"page","id":"new-page-id","url":"https://www.notion.so/new-page"}`)
	case strings.HasSuffix(r.URL.Path, "/children"):
		fmt.Fprint(w, `{"object":"list","results":[]}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"object":"error","status":404,"code":"object_not_found","message":"not found"}`)
	}
}

func (f *fakeNotion) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *fakeNotion) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = nil
	f.bodies = nil
}

// testEnv points config and state at a temp dir backed by a fake API
type testEnv struct {
	dir     string
	api     *fakeNotion
	logFile string
}

func setupEnv(t *testing.T, token string) *testEnv {
	t.Helper()
	t.Setenv(config.TokenEnv, "")

	dir := t.TempDir()
	api := &fakeNotion{}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	configPath := filepath.Join(dir, "config.json")
	statePath := filepath.Join(dir, "state.json")
	logFile := filepath.Join(dir, "blockbridge.log")

	originalConfig, originalState := config.ConfigPath, config.StateFilePath
	config.ConfigPath = func() string { return configPath }
	config.StateFilePath = func() string { return statePath }
	t.Cleanup(func() {
		config.ConfigPath = originalConfig
		config.StateFilePath = originalState
	})

	cfg := config.DefaultConfig()
	cfg.Token = token
	cfg.APIBaseURL = server.URL
	cfg.LogFile = logFile
	cfg.RequestInterval = 0
	cfg.WatchDebounce = 50 * time.Millisecond
	if err := cfg.Save(); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	return &testEnv{dir: dir, api: api, logFile: logFile}
}

func (e *testEnv) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// newTestApp loads the app the way a command would
func newTestApp(t *testing.T) *app {
	t.Helper()
	cmd := &cobra.Command{}
	cmd.Flags().Bool("verbose", false, "")
	a, err := loadApp(cmd)
	if err != nil {
		t.Fatalf("loadApp() error = %v", err)
	}
	t.Cleanup(a.close)
	return a
}

const planDoc = `---
title: Plan
parent: Team Space
---
# Goals

<callout type="tip">Ship it</callout>

- one
- two`

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if out != "blockbridge vtest\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestParseCommandPlain(t *testing.T) {
	env := setupEnv(t, "")
	path := env.write(t, "plan.md", planDoc)

	out, err := run(t, "", "parse", "--plain", path)
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}

	expected := "heading_1: Goals\ncallout 💡: Ship it\nbulleted_list_item: one\nbulleted_list_item: two\n"
	if out != expected {
		t.Errorf("Outline mismatch.\nExpected:\n%s\nGot:\n%s", expected, out)
	}
}

func TestParseCommandTree(t *testing.T) {
	env := setupEnv(t, "")
	path := env.write(t, "plan.md", planDoc)

	out, err := run(t, "", "parse", "--stats", path)
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}
	for _, want := range []string{"Plan", "heading_1: Goals", "bulleted_list_item: two", "4 blocks"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestParseCommandJSONFromStdin(t *testing.T) {
	setupEnv(t, "")

	out, err := run(t, "## Hello **world**", "parse", "--json")
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}

	var blocks []map[string]any
	if err := json.Unmarshal([]byte(out), &blocks); err != nil {
		t.Fatalf("output is not a JSON array: %v\n%s", err, out)
	}
	if len(blocks) != 1 || blocks[0]["type"] != "heading_2" {
		t.Errorf("unexpected blocks %v", blocks)
	}
}

func TestPushCreatesPageAndSkipsUnchanged(t *testing.T) {
	env := setupEnv(t, "secret_test")
	path := env.write(t, "plan.md", planDoc)

	out, err := run(t, "", "push", path)
	if err != nil {
		t.Fatalf("push error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "Created page with 4 block(s) from plan.md") {
		t.Errorf("unexpected output:\n%s", out)
	}

	requests := env.api.recorded()
	if len(requests) != 2 || requests[0] != "POST /search" || requests[1] != "POST /pages" {
		t.Fatalf("unexpected requests %v", requests)
	}
	create := env.api.bodies[1]
	if parent, _ := create["parent"].(map[string]any); parent["page_id"] != testPageID {
		t.Errorf("page created under %v", create["parent"])
	}

	a := newTestApp(t)
	absPath, _ := filepath.Abs(path)
	if id, ok := a.state.PageID(absPath); !ok || id != "new-page-id" {
		t.Errorf("state page id = %q, %v", id, ok)
	}
	if id, ok := a.state.CachedID("Team Space"); !ok || id != testPageID {
		t.Errorf("parent lookup was not cached: %q, %v", id, ok)
	}

	// Unchanged file: nothing is sent
	env.api.reset()
	out, err = run(t, "", "push", path)
	if err != nil {
		t.Fatalf("second push error = %v", err)
	}
	if !strings.Contains(out, "unchanged") || len(env.api.recorded()) != 0 {
		t.Errorf("expected skip without requests, got %v\n%s", env.api.recorded(), out)
	}

	// A second file under the same parent reuses the cached id
	other := env.write(t, "other.md", "---\nparent: Team Space\n---\nhello")
	if _, err := run(t, "", "push", other); err != nil {
		t.Fatalf("push other error = %v", err)
	}
	if requests := env.api.recorded(); len(requests) != 1 || requests[0] != "POST /pages" {
		t.Errorf("expected only page creation, got %v", requests)
	}

	logData, err := os.ReadFile(env.logFile)
	if err != nil {
		t.Fatalf("Failed to read log: %v", err)
	}
	if !strings.Contains(string(logData), "file pushed") {
		t.Errorf("expected push to be logged:\n%s", logData)
	}
}

func TestPushAppendsToPage(t *testing.T) {
	env := setupEnv(t, "secret_test")
	path := env.write(t, "notes.md", "first\n\nsecond")

	if _, err := run(t, "", "push", "--page", "0123456789abcdef0123456789abcdef", path); err != nil {
		t.Fatalf("push error = %v", err)
	}

	requests := env.api.recorded()
	if len(requests) != 1 || requests[0] != "PATCH /blocks/"+testPageID+"/children" {
		t.Errorf("unexpected requests %v", requests)
	}
	children, _ := env.api.bodies[0]["children"].([]any)
	if len(children) != 2 {
		t.Errorf("expected 2 children, got %d", len(children))
	}
}

func TestPushForce(t *testing.T) {
	env := setupEnv(t, "secret_test")
	path := env.write(t, "notes.md", "text")

	for i := 0; i < 2; i++ {
		if _, err := run(t, "", "push", "--force", "--page", testPageID, path); err != nil {
			t.Fatalf("push error = %v", err)
		}
	}
	if n := len(env.api.recorded()); n != 2 {
		t.Errorf("expected both pushes to be sent, got %d requests", n)
	}
}

func TestPushErrors(t *testing.T) {
	env := setupEnv(t, "secret_test")
	a := newTestApp(t)
	client, err := a.client()
	if err != nil {
		t.Fatalf("client() error = %v", err)
	}

	blank := env.write(t, "blank.md", "---\ntitle: Empty\n---\n\n   \n")
	if _, err := a.push(t.Context(), client, blank, pushOptions{Page: testPageID}); !errors.Is(err, ErrNothingToAdd) {
		t.Errorf("expected ErrNothingToAdd, got %v", err)
	}

	orphan := env.write(t, "orphan.md", "text")
	if _, err := a.push(t.Context(), client, orphan, pushOptions{}); err == nil || !strings.Contains(err.Error(), "no parent page") {
		t.Errorf("expected missing parent error, got %v", err)
	}

	unknown := env.write(t, "unknown.md", "text")
	if _, err := a.push(t.Context(), client, unknown, pushOptions{Parent: "Nowhere"}); err == nil || !strings.Contains(err.Error(), "Nowhere") {
		t.Errorf("expected unresolved parent error, got %v", err)
	}

	if len(a.state.Files) != 0 {
		t.Errorf("failed pushes must not be recorded, got %v", a.state.Files)
	}
}

func TestPushWithoutToken(t *testing.T) {
	env := setupEnv(t, "")
	path := env.write(t, "notes.md", "text")

	if _, err := run(t, "", "push", path); err == nil || !strings.Contains(err.Error(), config.TokenEnv) {
		t.Errorf("expected missing token error, got %v", err)
	}
}

func TestPushDryRun(t *testing.T) {
	env := setupEnv(t, "")
	path := env.write(t, "plan.md", planDoc)

	out, err := run(t, "", "push", "--dry-run", path)
	if err != nil {
		t.Fatalf("dry run error = %v", err)
	}
	if !strings.Contains(out, "4 block(s), new page under Team Space") {
		t.Errorf("unexpected dry run output:\n%s", out)
	}
	if len(env.api.recorded()) != 0 {
		t.Errorf("dry run must not call the API, got %v", env.api.recorded())
	}
}

func TestCheckCommand(t *testing.T) {
	env := setupEnv(t, "secret_test")

	out, err := run(t, "", "check")
	if err != nil {
		t.Fatalf("check error = %v", err)
	}
	if !strings.Contains(out, "Connected as Docs Bot") {
		t.Errorf("unexpected output %q", out)
	}

	env.api.status = http.StatusUnauthorized
	if _, err := run(t, "", "check"); err == nil || !strings.Contains(err.Error(), "rejected") {
		t.Errorf("expected rejected token error, got %v", err)
	}
}

func TestSearchCommand(t *testing.T) {
	setupEnv(t, "secret_test")

	out, err := run(t, "", "search", "Team Space")
	if err != nil {
		t.Fatalf("search error = %v", err)
	}
	if !strings.Contains(out, testPageID) || !strings.Contains(out, "(untitled)") {
		t.Errorf("unexpected output:\n%s", out)
	}

	out, err = run(t, "", "search", "nothing here")
	if err != nil {
		t.Fatalf("search error = %v", err)
	}
	if !strings.Contains(out, "No results") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestStatusCommand(t *testing.T) {
	env := setupEnv(t, "secret_test")
	path := env.write(t, "notes.md", "text")

	out, err := run(t, "", "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(out, "No files pushed yet") {
		t.Errorf("unexpected empty status:\n%s", out)
	}

	if _, err := run(t, "", "push", "--page", testPageID, path); err != nil {
		t.Fatalf("push error = %v", err)
	}

	out, err = run(t, "", "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(out, "✓ ") || !strings.Contains(out, "Last push") {
		t.Errorf("expected pushed file in status:\n%s", out)
	}

	if err := os.WriteFile(path, []byte("changed text"), 0644); err != nil {
		t.Fatalf("Failed to modify file: %v", err)
	}
	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("Failed to touch file: %v", err)
	}

	out, err = run(t, "", "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(out, "(changed)") {
		t.Errorf("expected changed file in status:\n%s", out)
	}
}

func TestDiffCommand(t *testing.T) {
	env := setupEnv(t, "")
	oldPath := env.write(t, "old.md", "# Title\n\n- a")
	newPath := env.write(t, "new.md", "# Title\n\n- b")

	out, err := run(t, "", "diff", oldPath, newPath)
	if err != nil {
		t.Fatalf("diff error = %v", err)
	}
	if !strings.Contains(out, "-bulleted_list_item: a") || !strings.Contains(out, "+bulleted_list_item: b") {
		t.Errorf("unexpected diff:\n%s", out)
	}

	out, err = run(t, "", "diff", oldPath, oldPath)
	if err != nil {
		t.Fatalf("diff error = %v", err)
	}
	if !strings.Contains(out, "No differences") {
		t.Errorf("unexpected output %q", out)
	}

	if _, err := run(t, "", "diff", "--format", "org", oldPath, newPath); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestWatchHandler(t *testing.T) {
	env := setupEnv(t, "secret_test")
	a := newTestApp(t)
	client, err := a.client()
	if err != nil {
		t.Fatalf("client() error = %v", err)
	}

	var events []string
	handle := a.watchHandler(client, pushOptions{Page: testPageID}, func(e tui.WatchEventMsg) {
		events = append(events, filepath.Base(e.Path))
	})

	blank := env.write(t, "blank.md", "  ")
	if err := handle(t.Context(), blank); err != nil {
		t.Errorf("files without blocks should be skipped, got %v", err)
	}

	notes := env.write(t, "notes.md", "text")
	if err := handle(t.Context(), notes); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	// Unchanged since the push above
	if err := handle(t.Context(), notes); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	if len(events) != 1 || events[0] != "notes.md" {
		t.Errorf("expected one reported push, got %v", events)
	}
}

func TestParseLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blockbridge.log")
	content := strings.Join([]string{
		"2025-11-27 14:10:00 INFO watch started dir=/notes debounce=500ms",
		"2025-11-27 14:11:57 INFO file pushed file=/notes/a.md page=p1 blocks=12",
		"2025-11-27 14:12:00 DEBU file skipped file=/notes/b.md reason=unchanged",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write log: %v", err)
	}

	lines, lastPush, blocks := ParseLogFile(path, 2)
	if len(lines) != 2 {
		t.Errorf("expected 2 lines, got %d", len(lines))
	}
	if blocks != 12 {
		t.Errorf("expected 12 blocks, got %d", blocks)
	}
	if lastPush.Format(time.DateTime) != "2025-11-27 14:11:57" {
		t.Errorf("unexpected last push %v", lastPush)
	}

	if lines, _, _ := ParseLogFile(filepath.Join(t.TempDir(), "missing.log"), 5); len(lines) != 1 {
		t.Errorf("expected placeholder line for missing log, got %v", lines)
	}
}

func TestServiceFile(t *testing.T) {
	tests := []struct {
		goos     string
		wantPath string
		want     []string
	}{
		{
			goos:     "linux",
			wantPath: "/home/u/.config/systemd/user/blockbridge.service",
			want:     []string{`ExecStart="/usr/bin/blockbridge" watch --plain "/notes"`, "Restart=always"},
		},
		{
			goos:     "darwin",
			wantPath: "/home/u/Library/LaunchAgents/com.blockbridge.plist",
			want:     []string{"<string>/usr/bin/blockbridge</string>", "<string>watch</string>", "<string>/notes</string>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			path, content, err := serviceFile(tt.goos, "/home/u", "/usr/bin/blockbridge", "/notes")
			if err != nil {
				t.Fatalf("serviceFile() error = %v", err)
			}
			if path != tt.wantPath {
				t.Errorf("path = %q, want %q", path, tt.wantPath)
			}
			for _, want := range tt.want {
				if !strings.Contains(content, want) {
					t.Errorf("expected %q in:\n%s", want, content)
				}
			}
		})
	}

	if _, _, err := serviceFile("plan9", "/home/u", "x", "/notes"); err == nil {
		t.Error("expected error for unsupported OS")
	}
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.md", "sub/b.markdown", "sub/skip.png", ".hidden/c.md"} {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("# x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	single := filepath.Join(dir, "sub", "skip.png")

	files, err := collectFiles([]string{dir, single})
	if err != nil {
		t.Fatalf("collectFiles() error = %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.md"),
		filepath.Join(dir, "sub", "b.markdown"),
		single,
	}
	if strings.Join(files, "\n") != strings.Join(want, "\n") {
		t.Errorf("collectFiles() = %v, want %v", files, want)
	}

	if _, err := collectFiles([]string{filepath.Join(dir, ".hidden")}); err != nil {
		t.Errorf("explicit hidden dir should be searched: %v", err)
	}
	if _, err := collectFiles([]string{t.TempDir()}); err == nil {
		t.Error("expected error for directory without notes")
	}
	if _, err := collectFiles([]string{filepath.Join(dir, "missing.md")}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPushDatabaseEntry(t *testing.T) {
	env := setupEnv(t, "secret_test")
	path := env.write(t, "task.md", "---\ntitle: Write docs\ndatabase: Tasks\n---\n- outline\n- draft")

	out, err := run(t, "", "push", path)
	if err != nil {
		t.Fatalf("push error = %v\n%s", err, out)
	}

	want := []string{"POST /search", "GET /databases/tasks-db", "POST /pages"}
	if got := env.api.recorded(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("requests = %v, want %v", got, want)
	}
	create := env.api.bodies[2]
	if parent, _ := create["parent"].(map[string]any); parent["database_id"] != "tasks-db" {
		t.Errorf("entry created under %v", create["parent"])
	}
	properties, _ := create["properties"].(map[string]any)
	if _, ok := properties["Name"]; !ok {
		t.Errorf("expected the title in the Name property, got %v", properties)
	}
	if children, _ := create["children"].([]any); len(children) != 2 {
		t.Errorf("expected 2 children, got %d", len(children))
	}

	a := newTestApp(t)
	if id, ok := a.state.CachedID("database:Tasks"); !ok || id != "tasks-db" {
		t.Errorf("database lookup was not cached: %q, %v", id, ok)
	}
	if _, ok := a.state.CachedID("Tasks"); ok {
		t.Error("database lookups must not be cached as page lookups")
	}
}

func TestPushPagePrecedesDatabase(t *testing.T) {
	env := setupEnv(t, "secret_test")
	path := env.write(t, "task.md", "---\ndatabase: Tasks\n---\ntext")

	if _, err := run(t, "", "push", "--page", testPageID, path); err != nil {
		t.Fatalf("push error = %v", err)
	}
	if got := env.api.recorded(); len(got) != 1 || got[0] != "PATCH /blocks/"+testPageID+"/children" {
		t.Errorf("expected a single append, got %v", got)
	}
}

func TestQueryCommand(t *testing.T) {
	env := setupEnv(t, "secret_test")

	out, err := run(t, "", "query", "Tasks")
	if err != nil {
		t.Fatalf("query error = %v", err)
	}
	for _, want := range []string{"entry-1", "Write docs", "entry-2", "Ship release"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if got := env.api.recorded(); len(got) != 2 || got[1] != "POST /databases/tasks-db/query" {
		t.Errorf("unexpected requests %v", got)
	}

	out, err = run(t, "", "query", "Tasks", "SHIP")
	if err != nil {
		t.Fatalf("query error = %v", err)
	}
	if strings.Contains(out, "Write docs") || !strings.Contains(out, "Ship release") {
		t.Errorf("expected only the matching entry:\n%s", out)
	}
}
