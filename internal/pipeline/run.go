// Package pipeline provides the high-level orchestration for dump extraction.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/duartefn/wikiextract/internal/dump"
	"github.com/duartefn/wikiextract/internal/filter"
	"github.com/duartefn/wikiextract/internal/output"
	"github.com/duartefn/wikiextract/internal/record"
	"github.com/duartefn/wikiextract/internal/wikitext"
)

// progressInterval is how often (in pages seen) a progress line is printed
// in verbose mode.
const progressInterval = 10000

// Options holds one run's configuration. Read-only for the duration of a run.
type Options struct {
	DumpPath  string `json:"dump" validate:"required"`
	OutputDir string `json:"out_dir" validate:"required"`
	BaseName  string `json:"base" validate:"required"`

	MaxPages  int `json:"max_pages" validate:"gte=0"` // 0 = unbounded
	BatchSize int `json:"batch_size" validate:"gt=0"`

	SkipRedirects         bool `json:"skip_redirects"`
	IncludeNonMain        bool `json:"include_non_main"`
	IncludeDisambiguation bool `json:"include_disambiguation"`
	KeepLists             bool `json:"keep_lists"`

	DisambiguationMarkers []string `json:"disambiguation_markers,omitempty"`

	Verbose bool `json:"verbose"`
}

// Validate checks the options using the validator.
func (o *Options) Validate() error {
	validate := validator.New()
	return validate.Struct(o)
}

// Stats are the run counters, owned by the orchestrator and handed into the
// stage loop rather than living in package globals.
type Stats struct {
	RunID                 uuid.UUID `json:"run_id"`
	PagesSeen             int       `json:"pages_seen"`
	PagesKept             int       `json:"pages_kept"`
	NonMainSkipped        int       `json:"non_main_skipped"`
	RedirectsSkipped      int       `json:"redirects_skipped"`
	DisambiguationSkipped int       `json:"disambiguation_skipped"`
	EmptySkipped          int       `json:"empty_skipped"`
	Records               int64     `json:"records"`
	Shards                int       `json:"shards"`
	StartedAt             time.Time `json:"started_at"`
	FinishedAt            time.Time `json:"finished_at"`
}

// Rejected returns the total number of rejected pages across all reasons.
func (s *Stats) Rejected() int {
	return s.NonMainSkipped + s.RedirectsSkipped + s.DisambiguationSkipped + s.EmptySkipped
}

func (s *Stats) countRejection(reason filter.Reason) {
	switch reason {
	case filter.ReasonNonMain:
		s.NonMainSkipped++
	case filter.ReasonRedirect:
		s.RedirectsSkipped++
	case filter.ReasonDisambiguation:
		s.DisambiguationSkipped++
	case filter.ReasonEmpty:
		s.EmptySkipped++
	}
}

// Run executes the full pipeline: parse -> classify -> clean -> write, then
// merge. On a fatal error all previously flushed shards and the JSONL file
// remain intact and valid for partial use.
func Run(ctx context.Context, opts Options) (*Stats, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run options: %w", err)
	}

	stats := &Stats{RunID: uuid.New(), StartedAt: time.Now().UTC()}

	fmt.Printf("Step 1/3: Extracting pages from %s...\n", opts.DumpPath)
	parser, err := dump.Open(opts.DumpPath, dump.Options{MaxPages: opts.MaxPages})
	if err != nil {
		return stats, err
	}
	defer parser.Close()

	w, err := output.NewBatchWriter(opts.OutputDir, opts.BaseName, opts.BatchSize)
	if err != nil {
		return stats, err
	}

	filterOpts := filter.Options{
		SkipRedirects:         opts.SkipRedirects,
		IncludeNonMain:        opts.IncludeNonMain,
		IncludeDisambiguation: opts.IncludeDisambiguation,
		DisambiguationMarkers: opts.DisambiguationMarkers,
	}

	if err := extract(ctx, parser, w, filterOpts, opts, stats); err != nil {
		// Flush whatever is complete so the partial outputs stay usable.
		_ = w.Close()
		return stats, err
	}

	if err := w.Close(); err != nil {
		return stats, err
	}
	stats.Records = w.Records()
	stats.Shards = len(w.ShardPaths())

	fmt.Printf("Step 2/3: Merging %d shards into %s...\n", stats.Shards, output.MergedPath(opts.OutputDir, opts.BaseName))
	merged, err := output.Merge(opts.OutputDir, opts.BaseName)
	if err != nil {
		return stats, err
	}
	if merged != stats.Records {
		return stats, fmt.Errorf("merged row count %d does not match %d written records", merged, stats.Records)
	}

	fmt.Printf("Step 3/3: Writing run manifest...\n")
	stats.FinishedAt = time.Now().UTC()
	if err := writeManifest(opts, stats); err != nil {
		return stats, err
	}

	return stats, nil
}

// extract drives the single-threaded pull loop. Cancellation is cooperative:
// the context is checked between pages, never mid-write.
func extract(ctx context.Context, parser *dump.Parser, w *output.BatchWriter, filterOpts filter.Options, opts Options, stats *Stats) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		page, err := parser.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("dump parsing failed after %d pages: %w", stats.PagesSeen, err)
		}

		stats.PagesSeen++
		if opts.Verbose && stats.PagesSeen%progressInterval == 0 {
			fmt.Printf("  ...%d pages seen, %d kept\n", stats.PagesSeen, stats.PagesKept)
		}

		keep, reason := filter.Keep(page, filterOpts)
		if !keep {
			stats.countRejection(reason)
			continue
		}

		doc := wikitext.Clean(page.Text, opts.KeepLists)
		if doc.Text == "" {
			stats.countRejection(filter.ReasonEmpty)
			continue
		}

		rec := record.Record{
			Text:         doc.Text,
			Title:        page.Title,
			PageID:       page.PageID,
			Ns:           page.Ns,
			SectionTexts: doc.Sections,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
		stats.PagesKept++
	}
}

// manifest is the file-based record of one run, written next to the outputs.
type manifest struct {
	Options Options `json:"options"`
	Stats   *Stats  `json:"stats"`
}

// ManifestPath names the run manifest for the given output base.
func ManifestPath(dir, base string) string {
	return filepath.Join(dir, base+"_run.json")
}

func writeManifest(opts Options, stats *Stats) error {
	path := ManifestPath(opts.OutputDir, opts.BaseName)
	data, err := json.MarshalIndent(manifest{Options: opts, Stats: stats}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run manifest: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write run manifest %s: %w", path, err)
	}
	return nil
}
