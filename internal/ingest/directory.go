package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/bookkeeper-io/bookkeeper/constants"
	"github.com/bookkeeper-io/bookkeeper/internal/entity"
	"github.com/bookkeeper-io/bookkeeper/internal/intake"
)

// FileResult is the per-file crawl outcome.
type FileResult struct {
	Path       string
	IntakeID   string
	Duplicate  bool
	ExistingID string
	Err        string
}

// DirStats summarizes a directory crawl.
type DirStats struct {
	Scanned    uint32
	Matched    uint32
	Queued     uint32
	Duplicates uint32
	Failed     uint32
}

// Crawler walks a directory tree and submits every supported document file
// to the intake queue. The queue's natural-key dedup makes re-crawling the
// same tree a no-op for unchanged files.
type Crawler struct {
	queue  *intake.Manager
	source string
	logger *slog.Logger
}

func NewCrawler(queue *intake.Manager, source string, logger *slog.Logger) *Crawler {
	if source == "" {
		source = "file_upload"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{queue: queue, source: source, logger: logger}
}

// CrawlDirectory walks root, filters by includeExts (or the supported
// defaults), skips hidden entries if requested, and submits each file.
// Returns per-file results plus aggregate stats.
func (c *Crawler) CrawlDirectory(ctx context.Context, root string, includeExts []string, skipHidden bool) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	exts := map[string]struct{}{}
	if len(includeExts) == 0 {
		for e := range constants.AllowedExtensions {
			exts[e] = struct{}{}
		}
	} else {
		for _, e := range includeExts {
			if e = constants.NormalizeExt(e); e != "" {
				exts[e] = struct{}{}
			}
		}
	}

	var results []FileResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil // continue walking
		}
		if skipHidden && isHidden(path) && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := exts[constants.NormalizeExt(filepath.Ext(path))]; !ok {
			return nil
		}
		stats.Matched++

		info, err := d.Info()
		if err != nil {
			results = append(results, FileResult{Path: path, Err: err.Error()})
			stats.Failed++
			return nil
		}

		res := c.queue.Submit(ctx, entity.FileInfo{
			FileLocation: path,
			FileID:       fileIdentity(info.Name(), info.Size(), info.ModTime()),
			Source:       c.source,
			Date:         info.ModTime().UTC(),
		})
		switch res.Status {
		case intake.SubmitSuccess:
			stats.Queued++
			results = append(results, FileResult{Path: path, IntakeID: res.IntakeID})
		case intake.SubmitDuplicate:
			stats.Duplicates++
			results = append(results, FileResult{Path: path, Duplicate: true, ExistingID: res.ExistingID})
		default:
			stats.Failed++
			results = append(results, FileResult{Path: path, Err: res.Message})
		}
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}

	c.logger.Info("ingest.crawl.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"queued", stats.Queued,
		"duplicates", stats.Duplicates,
		"failed", stats.Failed,
	)
	return results, stats, nil
}

// fileIdentity is a stable identity for a file on disk: a renamed or
// modified file becomes a new submission, an untouched one dedups.
func fileIdentity(name string, size int64, mtime time.Time) string {
	return fmt.Sprintf("%s_%d_%d", name, size, mtime.UTC().Unix())
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
