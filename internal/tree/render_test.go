package tree

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wesm/forktree/internal/parser"
)

func renderString(
	t *testing.T, f *Forest, opts TextOptions,
) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, f, opts))
	return buf.String()
}

func TestRenderText_Unlimited(t *testing.T) {
	got := renderString(t, paymentForest(),
		TextOptions{MaxDepth: Unlimited})

	want := strings.Join([]string{
		"├── Mar 04 08:00 (2 msgs) set up repo",
		"├── Mar 04 09:00 (2 msgs) Implement payment integration",
		"│   ├── Mar 04 10:00 (2 msgs) Implement payment integration",
		"│   └── Mar 04 11:00 (2 msgs) Implement payment integration",
		"└── Mar 04 12:00 (2 msgs) write docs",
	}, "\n") + "\n"
	assert.Equal(t, want, got)
}

func TestRenderText_DepthZero(t *testing.T) {
	got := renderString(t, paymentForest(), TextOptions{MaxDepth: 0})

	want := strings.Join([]string{
		"├── Mar 04 08:00 (2 msgs) set up repo",
		"├── Mar 04 09:00 (2 msgs) Implement payment integration",
		"│   └── ... 2 fork(s)",
		"└── Mar 04 12:00 (2 msgs) write docs",
	}, "\n") + "\n"
	assert.Equal(t, want, got)
}

func TestRenderText_DepthOneShowsForks(t *testing.T) {
	got := renderString(t, paymentForest(), TextOptions{MaxDepth: 1})
	assert.NotContains(t, got, "fork(s)")
	assert.Equal(t, 5, strings.Count(got, "\n"))
}

func TestRenderText_LastRootChildPrefix(t *testing.T) {
	f := BuildFromRecords([]parser.SessionRecord{
		rec("r", "k", at(9, 0)),
		rec("f", "k", at(9, 30)),
	})
	got := renderString(t, f, TextOptions{MaxDepth: Unlimited})
	assert.Equal(t,
		"└── Mar 04 09:00 (2 msgs) k\n"+
			"    └── Mar 04 09:30 (2 msgs) k\n",
		got,
	)
}

func TestRenderText_Empty(t *testing.T) {
	assert.Empty(t, renderString(t, Build(nil),
		TextOptions{MaxDepth: Unlimited}))
}

func TestRenderText_TruncatesLongNames(t *testing.T) {
	long := strings.Repeat("x", 300)
	f := BuildFromRecords([]parser.SessionRecord{rec("r", long, at(9, 0))})

	got := renderString(t, f, TextOptions{MaxDepth: Unlimited, Width: 60})
	line := strings.TrimSuffix(got, "\n")
	assert.Equal(t, 60, runewidth.StringWidth(line))
	assert.True(t, strings.HasSuffix(line, "…"))
}

func TestRenderText_NarrowWidthKeepsMinimumName(t *testing.T) {
	f := BuildFromRecords([]parser.SessionRecord{
		rec("r", strings.Repeat("y", 100), at(9, 0)),
	})
	got := renderString(t, f, TextOptions{MaxDepth: Unlimited, Width: 5})
	name := strings.TrimSuffix(
		strings.SplitN(got, "msgs) ", 2)[1], "\n",
	)
	assert.Equal(t, minNameWidth, runewidth.StringWidth(name))
}

func TestRenderText_MultiLineNameStaysOnOneLine(t *testing.T) {
	r := rec("r", "k", at(9, 0))
	r.DisplayName = "first line\nsecond line"
	f := BuildFromRecords([]parser.SessionRecord{r})

	got := renderString(t, f, TextOptions{MaxDepth: Unlimited})
	assert.Equal(t, "└── Mar 04 09:00 (2 msgs) first line second line\n", got)
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "?", FormatTimestamp(time.Time{}))
	loc := time.FixedZone("X", 3*3600)
	ts := time.Date(2024, 12, 31, 23, 30, 0, 0, loc)
	assert.Equal(t, "Dec 31 20:30", FormatTimestamp(ts))
}
