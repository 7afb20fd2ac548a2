package sync

import "github.com/wesm/forktree/internal/parser"

// Stats summarizes one Load.
//
// Files counts discovered transcripts. Parsed and Cached count
// files extracted fresh or served from the cache. Skipped counts
// malformed files, including ones remembered from an earlier
// run. Empty counts extracted sessions with no messages, which
// are left out of the result.
type Stats struct {
	Files   int `json:"files"`
	Parsed  int `json:"parsed"`
	Cached  int `json:"cached"`
	Skipped int `json:"skipped"`
	Empty   int `json:"empty"`

	// LatestVersion is the newest Claude Code version recorded
	// by any loaded session.
	LatestVersion string `json:"latest_version,omitempty"`
}

// Usable returns the number of sessions in the result.
func (s Stats) Usable() int {
	return s.Parsed + s.Cached - s.Empty
}

func (s *Stats) observeVersion(v string) {
	if parser.CompareVersions(v, s.LatestVersion) > 0 {
		s.LatestVersion = v
	}
}
