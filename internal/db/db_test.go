package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wesm/forktree/internal/parser"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "sub", DefaultFile))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func sampleRecord(path string) parser.SessionRecord {
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	return parser.SessionRecord{
		ID:             "abc",
		Name:           "renamed",
		DisplayName:    "renamed",
		IdentityKey:    "renamed",
		FirstPrompt:    "fix the <b>bug</b>",
		FirstTimestamp: start,
		LastTimestamp:  start.Add(time.Hour),
		MessageCount:   7,
		SampleMessages: []string{"fix the bug", "and again"},
		Version:        "2.0.14",
		File: parser.FileInfo{
			Path: path, Size: 1234, Mtime: 5678,
		},
	}
}

func TestRecords_RoundTrip(t *testing.T) {
	d := openTestDB(t)
	want := sampleRecord("/p/abc.jsonl")
	require.NoError(t, d.PutRecord(want))

	got, ok, err := d.GetRecord("/p/abc.jsonl", 1234, 5678)
	require.NoError(t, err)
	require.True(t, ok)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("cached record (-want +got):\n%s", diff)
	}
}

func TestRecords_StaleMetadataMisses(t *testing.T) {
	d := openTestDB(t)
	require.NoError(t, d.PutRecord(sampleRecord("/p/abc.jsonl")))

	for _, tc := range []struct {
		name        string
		size, mtime int64
	}{
		{"size changed", 99, 5678},
		{"mtime changed", 1234, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, ok, err := d.GetRecord("/p/abc.jsonl", tc.size, tc.mtime)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}

	_, ok, err := d.GetRecord("/p/missing.jsonl", 1234, 5678)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecords_PutReplaces(t *testing.T) {
	d := openTestDB(t)
	rec := sampleRecord("/p/abc.jsonl")
	require.NoError(t, d.PutRecord(rec))

	rec.MessageCount = 9
	rec.File.Size = 2000
	require.NoError(t, d.PutRecord(rec))

	got, ok, err := d.GetRecord("/p/abc.jsonl", 2000, 5678)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 9, got.MessageCount)

	stats, err := d.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{RecordCount: 1, SessionCount: 1}, stats)
}

func TestRecords_PutRequiresPath(t *testing.T) {
	d := openTestDB(t)
	err := d.PutRecord(sampleRecord(""))
	assert.Error(t, err)
}

func TestPruneDir(t *testing.T) {
	d := openTestDB(t)
	for _, p := range []string{
		"/proj/a.jsonl", "/proj/b.jsonl", "/proj-other/c.jsonl",
	} {
		require.NoError(t, d.PutRecord(sampleRecord(p)))
	}
	require.NoError(t, d.ReplaceSkippedFiles("/proj", map[string]int64{
		"/proj/bad.jsonl": 1,
	}))

	removed, err := d.PruneDir("/proj", []string{"/proj/a.jsonl"})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, ok, err := d.GetRecord("/proj/a.jsonl", 1234, 5678)
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, err = d.GetRecord("/proj/b.jsonl", 1234, 5678)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = d.GetRecord("/proj-other/c.jsonl", 1234, 5678)
	require.NoError(t, err)
	assert.True(t, ok, "sibling dir with a shared prefix is untouched")

	skipped, err := d.LoadSkippedFiles("/proj")
	require.NoError(t, err)
	assert.Empty(t, skipped)
}

func TestSkippedFiles_ScopedByDir(t *testing.T) {
	d := openTestDB(t)

	loaded, err := d.LoadSkippedFiles("/a")
	if err != nil {
		t.Fatalf("LoadSkippedFiles: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected empty, got %d entries", len(loaded))
	}

	require.NoError(t, d.ReplaceSkippedFiles("/a", map[string]int64{
		"/a/1.jsonl": 100,
		"/a/2.jsonl": 200,
	}))
	require.NoError(t, d.ReplaceSkippedFiles("/b", map[string]int64{
		"/b/3.jsonl": 300,
	}))
	require.NoError(t, d.ReplaceSkippedFiles("/a", map[string]int64{
		"/a/2.jsonl": 250,
	}))

	loaded, err = d.LoadSkippedFiles("/a")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"/a/2.jsonl": 250}, loaded)

	loaded, err = d.LoadSkippedFiles("/b")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"/b/3.jsonl": 300}, loaded)
}

func TestClear(t *testing.T) {
	d := openTestDB(t)
	require.NoError(t, d.PutRecord(sampleRecord("/p/a.jsonl")))
	require.NoError(t, d.ReplaceSkippedFiles("/p", map[string]int64{
		"/p/x.jsonl": 1,
	}))
	require.NoError(t, d.Clear())

	stats, err := d.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	d, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, d.PutRecord(sampleRecord("/p/a.jsonl")))
	require.NoError(t, d.Close())

	d, err = Open(path)
	require.NoError(t, err)
	defer d.Close()
	_, ok, err := d.GetRecord("/p/a.jsonl", 1234, 5678)
	require.NoError(t, err)
	assert.True(t, ok)
}
