package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/mod/semver"
)

// ParseSessionFile extracts a SessionRecord from one Claude Code
// JSONL transcript. Invalid JSON lines are ignored; failure to
// read the file at all is reported as ErrMalformedRecord.
func ParseSessionFile(path string) (SessionRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return SessionRecord{}, fmt.Errorf(
			"%w: stat %s: %v", ErrMalformedRecord, path, err,
		)
	}

	f, err := os.Open(path)
	if err != nil {
		return SessionRecord{}, fmt.Errorf(
			"%w: open %s: %v", ErrMalformedRecord, path, err,
		)
	}
	defer f.Close()

	b := newRecordBuilder(
		strings.TrimSuffix(filepath.Base(path), ".jsonl"),
	)
	lr := newLineReader(f, maxLineSize)
	for {
		line, ok := lr.next()
		if !ok {
			break
		}
		b.processLine(line)
	}
	if err := lr.Err(); err != nil {
		return SessionRecord{}, fmt.Errorf(
			"%w: reading %s: %v", ErrMalformedRecord, path, err,
		)
	}

	return b.build(FileInfo{
		Path:  path,
		Size:  info.Size(),
		Mtime: info.ModTime().UnixNano(),
	}), nil
}

// recordBuilder accumulates per-line state for one transcript.
type recordBuilder struct {
	id          string
	name        string
	version     string
	firstPrompt string
	samples     []string
	first       time.Time
	last        time.Time
	count       int
}

func newRecordBuilder(id string) *recordBuilder {
	return &recordBuilder{id: id}
}

func (b *recordBuilder) processLine(line string) {
	if strings.TrimSpace(line) == "" || !gjson.Valid(line) {
		return
	}

	if b.version == "" {
		if v := gjson.Get(line, "version").Str; v != "" {
			b.version = canonicalVersion(v)
		}
	}

	if ts := parseTimestamp(gjson.Get(line, "timestamp").Str); !ts.IsZero() {
		if b.first.IsZero() || ts.Before(b.first) {
			b.first = ts
		}
		if b.last.IsZero() || ts.After(b.last) {
			b.last = ts
		}
	}

	switch gjson.Get(line, "type").Str {
	case "user":
		b.count++
		if gjson.Get(line, "isMeta").Bool() ||
			gjson.Get(line, "isCompactSummary").Bool() {
			return
		}
		raw := firstText(gjson.Get(line, "message.content"))
		if isSystemMessage(raw) {
			return
		}
		text := StripMarkup(raw)
		if text == "" {
			return
		}
		if b.firstPrompt == "" {
			b.firstPrompt = text
		}
		if len(b.samples) < maxSampleMessages {
			b.samples = append(b.samples,
				truncateRunes(text, maxSampleLen, ""))
		}
	case "assistant":
		b.count++
	case "custom-title":
		if title := CleanLine(
			gjson.Get(line, "customTitle").Str,
		); title != "" {
			b.name = title
		}
	}
}

func (b *recordBuilder) build(file FileInfo) SessionRecord {
	first, last := b.first, b.last
	if first.IsZero() {
		first = time.Unix(0, file.Mtime).UTC()
		last = first
	}

	key := NormalizeKey(b.firstPrompt)
	if b.name != "" {
		key = NormalizeKey(b.name)
	}

	samples := b.samples
	if samples == nil {
		samples = []string{}
	}

	return SessionRecord{
		ID:             b.id,
		Name:           b.name,
		DisplayName:    DisplayName(b.name, b.firstPrompt),
		IdentityKey:    key,
		FirstPrompt:    b.firstPrompt,
		FirstTimestamp: first,
		LastTimestamp:  last,
		MessageCount:   b.count,
		SampleMessages: samples,
		Version:        b.version,
		File:           file,
	}
}

// firstText returns the prompt text of a message content
// value: the string itself, or the first text block of an
// array.
func firstText(content gjson.Result) string {
	if content.Type == gjson.String {
		return content.Str
	}
	if !content.IsArray() {
		return ""
	}
	var text string
	content.ForEach(func(_, block gjson.Result) bool {
		if block.Type == gjson.String {
			text = block.Str
			return false
		}
		if block.Get("type").Str == "text" {
			text = block.Get("text").Str
			return false
		}
		return true
	})
	return text
}

// canonicalVersion returns v without a leading "v" when it is
// a valid semantic version, or "" otherwise.
func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	sv := v
	if !strings.HasPrefix(sv, "v") {
		sv = "v" + sv
	}
	if !semver.IsValid(sv) {
		return ""
	}
	return strings.TrimPrefix(v, "v")
}

// CompareVersions orders two canonical versions as returned in
// SessionRecord.Version. Empty versions sort first.
func CompareVersions(a, b string) int {
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	case b == "":
		return 1
	}
	return semver.Compare("v"+a, "v"+b)
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.000Z07:00",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// isSystemMessage reports whether a user message was injected
// by Claude Code rather than typed by the user.
func isSystemMessage(content string) bool {
	trimmed := strings.TrimSpace(content)
	prefixes := [...]string{
		"This session is being continued",
		"[Request interrupted",
		"<task-notification>",
		"<local-command-",
		"Stop hook feedback:",
	}
	for _, p := range prefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}
