package parser

import (
	"errors"
	"time"
)

// ErrMalformedRecord is wrapped by extraction errors for a
// single transcript file. Callers skip the file and continue.
var ErrMalformedRecord = errors.New("malformed session record")

// Bounds applied while extracting a SessionRecord.
const (
	maxSampleMessages = 3
	maxSampleLen      = 200
	maxIdentityKeyLen = 200
	maxDisplayNameLen = 60
)

// SessionRecord is the summary of one Claude Code transcript.
// Records are immutable once extracted; the grouping and tree
// stages never modify them.
type SessionRecord struct {
	ID             string    `json:"id"`
	Name           string    `json:"name,omitempty"`
	DisplayName    string    `json:"displayName"`
	IdentityKey    string    `json:"identityKey"`
	FirstPrompt    string    `json:"firstPrompt"`
	FirstTimestamp time.Time `json:"firstTimestamp"`
	LastTimestamp  time.Time `json:"lastTimestamp"`
	MessageCount   int       `json:"messageCount"`
	SampleMessages []string  `json:"sampleMessages"`
	Version        string    `json:"version,omitempty"`

	File FileInfo `json:"-"`
}

// FileInfo holds file system metadata for a transcript file.
type FileInfo struct {
	Path  string
	Size  int64
	Mtime int64
}

// HasCustomName reports whether the session was renamed by
// the user.
func (r SessionRecord) HasCustomName() bool {
	return r.Name != ""
}

// Less orders records by first timestamp, breaking ties by id.
func (r SessionRecord) Less(o SessionRecord) bool {
	if !r.FirstTimestamp.Equal(o.FirstTimestamp) {
		return r.FirstTimestamp.Before(o.FirstTimestamp)
	}
	return r.ID < o.ID
}
