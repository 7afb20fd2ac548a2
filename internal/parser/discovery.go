package parser

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DiscoverSessionFiles returns the JSONL transcripts directly
// inside one Claude project directory, sorted by path.
// Subagent transcripts (agent-*.jsonl) are not sessions a user
// can resume and are excluded.
func DiscoverSessionFiles(projectDir string) ([]string, error) {
	entries, err := os.ReadDir(projectDir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		if strings.HasPrefix(name, "agent-") {
			continue
		}
		files = append(files, filepath.Join(projectDir, name))
	}

	sort.Strings(files)
	return files, nil
}

// HasSessionFiles reports whether dir holds at least one
// transcript.
func HasSessionFiles(dir string) bool {
	files, err := DiscoverSessionFiles(dir)
	return err == nil && len(files) > 0
}

// EncodeProjectDir converts an absolute working directory into
// the directory name Claude Code uses under its projects dir:
// /Users/alice/code/my.app becomes -Users-alice-code-my-app.
func EncodeProjectDir(cwd string) string {
	return strings.NewReplacer("/", "-", ".", "-").Replace(
		filepath.ToSlash(cwd),
	)
}
