package parser

import (
	"regexp"
	"strings"
	"unicode"
)

var markupRe = regexp.MustCompile(`<[^>]+>`)

// StripMarkup removes XML/HTML-style tags and control
// characters and collapses runs of whitespace to one space.
func StripMarkup(text string) string {
	return CleanLine(markupRe.ReplaceAllString(text, ""))
}

// CleanLine folds text onto one line: control characters are
// dropped and runs of whitespace, newlines included, become one
// space.
func CleanLine(text string) string {
	text = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
	return strings.Join(strings.Fields(text), " ")
}

// NormalizeKey converts a custom name or first prompt into the
// identity key used for fork grouping. Two sessions belong to
// the same group only when their keys are byte-identical.
func NormalizeKey(text string) string {
	return truncateRunes(strings.ToLower(StripMarkup(text)), maxIdentityKeyLen, "")
}

// DisplayName returns the human label for a session: the
// custom name when set, else the truncated first prompt.
func DisplayName(name, firstPrompt string) string {
	if name = CleanLine(name); name != "" {
		return name
	}
	if firstPrompt == "" {
		return "(no prompt)"
	}
	return truncateRunes(firstPrompt, maxDisplayNameLen, "…")
}

// truncateRunes cuts s to at most n runes. When cut and tail
// is non-empty, the result still fits in n runes.
func truncateRunes(s string, n int, tail string) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	keep := n - len([]rune(tail))
	if keep < 0 {
		keep = 0
	}
	return strings.TrimRight(string(runes[:keep]), " ") + tail
}
