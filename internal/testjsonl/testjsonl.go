// Package testjsonl provides JSONL fixture builders for Claude
// Code transcripts. Used by the parser, sync and cmd test
// packages.
package testjsonl

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ClaudeUserJSON returns a Claude user message as a JSON string.
func ClaudeUserJSON(content any, timestamp string) string {
	return mustMarshal(map[string]any{
		"type":      "user",
		"timestamp": timestamp,
		"message": map[string]any{
			"role":    "user",
			"content": content,
		},
	})
}

// ClaudeMetaUserJSON returns a Claude user message with
// optional isMeta and isCompactSummary flags.
func ClaudeMetaUserJSON(
	content, timestamp string, meta, compact bool,
) string {
	m := map[string]any{
		"type":      "user",
		"timestamp": timestamp,
		"message": map[string]any{
			"role":    "user",
			"content": content,
		},
	}
	if meta {
		m["isMeta"] = true
	}
	if compact {
		m["isCompactSummary"] = true
	}
	return mustMarshal(m)
}

// ClaudeToolResultJSON returns a user entry carrying only a
// tool_result block.
func ClaudeToolResultJSON(toolUseID, timestamp string) string {
	return ClaudeUserJSON([]map[string]any{{
		"type":        "tool_result",
		"tool_use_id": toolUseID,
		"content":     "ok",
	}}, timestamp)
}

// ClaudeAssistantJSON returns a Claude assistant message.
func ClaudeAssistantJSON(text, timestamp string) string {
	return mustMarshal(map[string]any{
		"type":      "assistant",
		"timestamp": timestamp,
		"message": map[string]any{
			"role": "assistant",
			"content": []map[string]any{
				{"type": "text", "text": text},
			},
		},
	})
}

// ClaudeCustomTitleJSON returns the entry Claude Code writes
// when a session is renamed.
func ClaudeCustomTitleJSON(title string) string {
	return mustMarshal(map[string]any{
		"type":        "custom-title",
		"customTitle": title,
	})
}

// ClaudeVersionedUserJSON returns a user message that carries
// the client version field.
func ClaudeVersionedUserJSON(
	content, timestamp, version string,
) string {
	return mustMarshal(map[string]any{
		"type":      "user",
		"timestamp": timestamp,
		"version":   version,
		"message": map[string]any{
			"role":    "user",
			"content": content,
		},
	})
}

// JoinJSONL joins lines into a JSONL string with a trailing
// newline.
func JoinJSONL(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

// SessionBuilder constructs JSONL session content using a
// fluent API.
type SessionBuilder struct {
	lines []string
}

// NewSessionBuilder returns a new empty SessionBuilder.
func NewSessionBuilder() *SessionBuilder {
	return &SessionBuilder{}
}

// AddUser appends a user message line.
func (b *SessionBuilder) AddUser(
	timestamp, content string,
) *SessionBuilder {
	b.lines = append(b.lines, ClaudeUserJSON(content, timestamp))
	return b
}

// AddAssistant appends an assistant message line.
func (b *SessionBuilder) AddAssistant(
	timestamp, text string,
) *SessionBuilder {
	b.lines = append(b.lines, ClaudeAssistantJSON(text, timestamp))
	return b
}

// AddTitle appends a custom-title entry.
func (b *SessionBuilder) AddTitle(title string) *SessionBuilder {
	b.lines = append(b.lines, ClaudeCustomTitleJSON(title))
	return b
}

// AddRaw appends an arbitrary line.
func (b *SessionBuilder) AddRaw(line string) *SessionBuilder {
	b.lines = append(b.lines, line)
	return b
}

// String returns the JSONL content with a trailing newline.
func (b *SessionBuilder) String() string {
	return strings.Join(b.lines, "\n") + "\n"
}

// Conversation returns a two-turn session whose first user
// prompt is prompt, starting at timestamp start and ending at
// end.
func Conversation(prompt, start, end string) string {
	return NewSessionBuilder().
		AddUser(start, prompt).
		AddAssistant(end, "done").
		String()
}

// WriteSession writes content to dir/id.jsonl and returns the
// path.
func WriteSession(
	t testing.TB, dir, id, content string,
) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, id+".jsonl")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func mustMarshal(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
