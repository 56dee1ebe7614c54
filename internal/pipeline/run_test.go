package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duartefn/wikiextract/internal/output"
)

// The fixture under internal/dump/testdata has six pages: an article with
// sections, a talk page, a redirect with a marker element, a disambiguation
// page, a template-only page that cleans to nothing, and one more article.
func miniDumpPath() string {
	return filepath.Join("..", "dump", "testdata", "mini_dump.xml.bz2")
}

func baseOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		DumpPath:  miniDumpPath(),
		OutputDir: t.TempDir(),
		BaseName:  "test",
		BatchSize: 2,
	}
}

func TestRun_ValidatesOptions(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	assert.Error(t, err)

	opts := baseOptions(t)
	opts.BatchSize = 0
	_, err = Run(context.Background(), opts)
	assert.Error(t, err)

	opts = baseOptions(t)
	opts.MaxPages = -1
	_, err = Run(context.Background(), opts)
	assert.Error(t, err)
}

func TestRun_DefaultFilters(t *testing.T) {
	opts := baseOptions(t)
	stats, err := Run(context.Background(), opts)
	require.NoError(t, err)

	// Talk page and disambiguation rejected by the classifier. The
	// template-only page cleans to nothing, and so does the redirect:
	// its body is one list-marker line, removed by default.
	assert.Equal(t, 6, stats.PagesSeen)
	assert.Equal(t, 1, stats.NonMainSkipped)
	assert.Equal(t, 1, stats.DisambiguationSkipped)
	assert.Equal(t, 2, stats.EmptySkipped)
	assert.Equal(t, 0, stats.RedirectsSkipped)
	assert.Equal(t, 2, stats.PagesKept)
	assert.Equal(t, int64(2), stats.Records)
	assert.Equal(t, stats.PagesSeen, stats.PagesKept+stats.Rejected())

	merged, err := output.ReadRows(output.MergedPath(opts.OutputDir, opts.BaseName))
	require.NoError(t, err)
	require.Len(t, merged, 2)
	assert.Equal(t, "Astronomia", merged[0].Title)
	assert.Equal(t, int64(11), merged[0].PageID)
	assert.Equal(t, "São Paulo", merged[1].Title)
	assert.Equal(t, "São Paulo é uma cidade brasileira.", merged[1].Text)

	// Manifest written next to the outputs.
	assert.FileExists(t, ManifestPath(opts.OutputDir, opts.BaseName))
}

func TestRun_SkipRedirects(t *testing.T) {
	opts := baseOptions(t)
	opts.SkipRedirects = true
	stats, err := Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.RedirectsSkipped)
	assert.Equal(t, 1, stats.EmptySkipped)
	assert.Equal(t, 2, stats.PagesKept)
}

func TestRun_MaxPages(t *testing.T) {
	opts := baseOptions(t)
	opts.MaxPages = 2
	stats, err := Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.PagesSeen)
	assert.LessOrEqual(t, stats.PagesKept, 2)
}

func TestRun_SectionTexts(t *testing.T) {
	opts := baseOptions(t)
	stats, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.Positive(t, stats.Records)

	merged, err := output.ReadRows(output.MergedPath(opts.OutputDir, opts.BaseName))
	require.NoError(t, err)

	// The Astronomia article has a lead plus two headed sections; the list
	// lines under "Ver também" are dropped by default, leaving two bodies.
	astro := merged[0]
	require.Equal(t, "Astronomia", astro.Title)
	require.Len(t, astro.SectionTexts, 2)
	assert.Equal(t, "Astronomia é uma ciência natural.", astro.SectionTexts[0])
	assert.Contains(t, astro.SectionTexts[1], "mais antigas ciências")
}

func TestRun_KeepLists(t *testing.T) {
	opts := baseOptions(t)
	opts.KeepLists = true
	_, err := Run(context.Background(), opts)
	require.NoError(t, err)

	merged, err := output.ReadRows(output.MergedPath(opts.OutputDir, opts.BaseName))
	require.NoError(t, err)
	require.NotEmpty(t, merged)
	assert.Contains(t, merged[0].Text, "* Astrofísica")
}

func TestRun_Idempotent(t *testing.T) {
	first := baseOptions(t)
	_, err := Run(context.Background(), first)
	require.NoError(t, err)

	second := baseOptions(t)
	_, err = Run(context.Background(), second)
	require.NoError(t, err)

	a, err := os.ReadFile(output.JSONLPath(first.OutputDir, "test"))
	require.NoError(t, err)
	b, err := os.ReadFile(output.JSONLPath(second.OutputDir, "test"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := baseOptions(t)
	_, err := Run(ctx, opts)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_MalformedDumpKeepsPartialOutputs(t *testing.T) {
	dir := t.TempDir()
	truncated := filepath.Join(dir, "broken.xml")

	data, err := os.ReadFile(filepath.Join("..", "dump", "testdata", "mini_dump.xml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(truncated, data[:len(data)*3/4], 0o644))

	opts := baseOptions(t)
	opts.DumpPath = truncated
	_, err = Run(context.Background(), opts)
	require.Error(t, err)

	// The JSONL written before the failure is still there.
	assert.FileExists(t, output.JSONLPath(opts.OutputDir, opts.BaseName))
}
