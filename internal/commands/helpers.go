package commands

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/gerunddev/blockbridge/internal/watch"
)

// useTUI reports whether interactive output should be used: stdout is a
// terminal and --plain was not given
func useTUI(cmd *cobra.Command, plain bool) bool {
	if plain {
		return false
	}
	f, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ParseLogFile reads the last N lines from the log file and extracts push info
func ParseLogFile(logPath string, maxLines int) ([]string, time.Time, int) {
	content, err := os.ReadFile(logPath)
	if err != nil {
		return []string{"Unable to read log file"}, time.Time{}, 0
	}

	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")

	// Get last N lines
	startIdx := 0
	if len(lines) > maxLines {
		startIdx = len(lines) - maxLines
	}
	recentLines := lines[startIdx:]

	// Look for most recent "file pushed" line
	// Format: 2025-11-27 14:11:57 INFO file pushed file=/notes/a.md page=... blocks=12
	var lastPush time.Time
	blocks := 0
	for i := len(recentLines) - 1; i >= 0; i-- {
		line := recentLines[i]
		if !strings.Contains(line, "file pushed") {
			continue
		}
		if len(line) > 19 {
			if t, err := time.ParseInLocation(time.DateTime, line[:19], time.Local); err == nil {
				lastPush = t
			}
		}
		if idx := strings.Index(line, "blocks="); idx != -1 {
			_, _ = fmt.Sscanf(line[idx:], "blocks=%d", &blocks) //nolint:errcheck // best effort parsing
		}
		break
	}

	return recentLines, lastPush, blocks
}

// collectFiles expands directory arguments into the note files beneath them.
// File arguments are kept as given, whatever their extension.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if isNote(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("no notes found in %s", arg)
		}
		files = append(files, found...)
	}
	return files, nil
}

func isNote(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range watch.DefaultExtensions {
		if ext == want {
			return true
		}
	}
	return false
}
