// Package sync loads a project's transcripts into an immutable
// snapshot of session records, using the SQLite cache to avoid
// re-parsing unchanged files.
package sync

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"

	log "github.com/sirupsen/logrus"
	"github.com/wesm/forktree/internal/config"
	"github.com/wesm/forktree/internal/db"
	"github.com/wesm/forktree/internal/parser"
)

const maxWorkers = 8

// ErrNoSessions is returned by Load when a project directory
// holds no usable sessions.
var ErrNoSessions = errors.New("no sessions found")

// Engine extracts session records for a project directory.
type Engine struct {
	db *db.DB
}

// NewEngine creates an engine. database may be nil to disable
// caching.
func NewEngine(database *db.DB) *Engine {
	return &Engine{db: database}
}

type loadJob struct {
	rec    parser.SessionRecord
	path   string
	mtime  int64
	cached bool
	skip   bool
	err    error
}

// Load extracts every transcript in projectDir and returns the
// records sorted by first timestamp, then id. Malformed files
// are logged and skipped. Sessions with no messages are dropped.
// When nothing usable remains, Load returns an empty slice and
// ErrNoSessions.
func (e *Engine) Load(
	projectDir string,
) ([]parser.SessionRecord, Stats, error) {
	var stats Stats
	info, err := os.Stat(projectDir)
	if err != nil || !info.IsDir() {
		return nil, stats, fmt.Errorf(
			"%w: %s", config.ErrInputNotFound, projectDir,
		)
	}

	files, err := parser.DiscoverSessionFiles(projectDir)
	if err != nil {
		return nil, stats, fmt.Errorf("listing sessions: %w", err)
	}
	stats.Files = len(files)

	skipCache := e.loadSkipCache(projectDir)
	results := e.startWorkers(files, skipCache)

	records := make([]parser.SessionRecord, 0, len(files))
	newSkips := make(map[string]int64)
	for range files {
		r := <-results
		switch {
		case r.skip:
			stats.Skipped++
			newSkips[r.path] = r.mtime
			continue
		case r.err != nil:
			stats.Skipped++
			if r.mtime != 0 {
				newSkips[r.path] = r.mtime
			}
			log.WithFields(log.Fields{
				"path":  r.path,
				"error": r.err,
			}).Warn("skipping malformed session file")
			continue
		case r.cached:
			stats.Cached++
		default:
			stats.Parsed++
			e.cacheRecord(r.rec)
		}

		if r.rec.MessageCount == 0 {
			stats.Empty++
			continue
		}
		stats.observeVersion(r.rec.Version)
		records = append(records, r.rec)
	}

	e.persist(projectDir, files, newSkips)

	sort.Slice(records, func(i, j int) bool {
		return records[i].Less(records[j])
	})
	log.WithFields(log.Fields{
		"dir":     projectDir,
		"files":   stats.Files,
		"parsed":  stats.Parsed,
		"cached":  stats.Cached,
		"skipped": stats.Skipped,
		"empty":   stats.Empty,
	}).Debug("loaded sessions")

	if len(records) == 0 {
		return records, stats, fmt.Errorf(
			"%w in %s", ErrNoSessions, projectDir,
		)
	}
	return records, stats, nil
}

// startWorkers fans file extraction out across a worker pool
// and returns a channel of results.
func (e *Engine) startWorkers(
	files []string, skipCache map[string]int64,
) <-chan loadJob {
	workers := min(max(runtime.NumCPU(), 2), maxWorkers)

	jobs := make(chan string, len(files))
	results := make(chan loadJob, len(files))

	for range workers {
		go func() {
			for path := range jobs {
				results <- e.processFile(path, skipCache)
			}
		}()
	}

	for _, f := range files {
		jobs <- f
	}
	close(jobs)
	return results
}

func (e *Engine) processFile(
	path string, skipCache map[string]int64,
) loadJob {
	info, err := os.Stat(path)
	if err != nil {
		return loadJob{
			path: path,
			err:  fmt.Errorf("%w: stat: %v", parser.ErrMalformedRecord, err),
		}
	}
	size := info.Size()
	mtime := info.ModTime().UnixNano()

	// Files that failed before are retried only when their mtime
	// changes.
	if cachedMtime, ok := skipCache[path]; ok && cachedMtime == mtime {
		return loadJob{path: path, mtime: mtime, skip: true}
	}

	if e.db != nil {
		rec, ok, err := e.db.GetRecord(path, size, mtime)
		if err != nil {
			log.WithError(err).WithField("path", path).
				Warn("reading session cache")
		} else if ok {
			log.WithField("path", path).Debug("cache hit")
			return loadJob{rec: rec, path: path, mtime: mtime, cached: true}
		}
	}

	rec, err := parser.ParseSessionFile(path)
	return loadJob{rec: rec, path: path, mtime: mtime, err: err}
}

func (e *Engine) loadSkipCache(dir string) map[string]int64 {
	if e.db == nil {
		return nil
	}
	loaded, err := e.db.LoadSkippedFiles(dir)
	if err != nil {
		log.WithError(err).Warn("loading skip cache")
		return nil
	}
	return loaded
}

func (e *Engine) cacheRecord(rec parser.SessionRecord) {
	if e.db == nil {
		return
	}
	if err := e.db.PutRecord(rec); err != nil {
		log.WithError(err).WithField("path", rec.File.Path).
			Warn("caching session record")
	}
}

// persist drops cache rows for deleted transcripts and saves the
// skip cache for the next run.
func (e *Engine) persist(
	dir string, files []string, skips map[string]int64,
) {
	if e.db == nil {
		return
	}
	if n, err := e.db.PruneDir(dir, files); err != nil {
		log.WithError(err).Warn("pruning session cache")
	} else if n > 0 {
		log.WithField("rows", n).Debug("pruned session cache")
	}
	if err := e.db.ReplaceSkippedFiles(dir, skips); err != nil {
		log.WithError(err).Warn("persisting skip cache")
	}
}
