package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/duartefn/wikiextract/internal/config"
	"github.com/duartefn/wikiextract/internal/observability"
	"github.com/duartefn/wikiextract/internal/pipeline"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run the full extraction pipeline end-to-end",
	Long: `Streams the dump, filters and cleans every page, writes JSONL plus Parquet shards, and merges the shards into one dataset file.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runExtract,
}

var (
	extractConfigPath  string
	extractDump        string
	extractOutDir      string
	extractBase        string
	extractMaxPages    int
	extractBatchSize   int
	extractSkipRedirs  bool
	extractInclNonMain bool
	extractInclDisambg bool
	extractKeepLists   bool
	extractMarkers     []string
	extractVerbose     bool
)

func init() {
	// Config file flag (processed first)
	extractCmd.Flags().StringVar(&extractConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	extractCmd.Flags().StringVarP(&extractDump, "dump", "d", os.Getenv("WIKIEXTRACT_DUMP"), "Path to the dump file, .bz2 accepted (defaults to WIKIEXTRACT_DUMP env var)")
	extractCmd.Flags().StringVarP(&extractOutDir, "out-dir", "o", envOr("WIKIEXTRACT_OUT_DIR", "data"), "Output directory (defaults to WIKIEXTRACT_OUT_DIR env var)")
	extractCmd.Flags().StringVar(&extractBase, "base", "wiki_articles", "Base name for the output files")
	extractCmd.Flags().IntVar(&extractMaxPages, "max-pages", 0, "Maximum pages to read from the dump (0 = unbounded)")
	extractCmd.Flags().IntVar(&extractBatchSize, "batch-size", 10000, "Records per Parquet shard")
	extractCmd.Flags().BoolVar(&extractSkipRedirs, "skip-redirects", false, "Skip redirect pages")
	extractCmd.Flags().BoolVar(&extractInclNonMain, "include-non-main", false, "Keep pages outside the main namespace")
	extractCmd.Flags().BoolVar(&extractInclDisambg, "include-disambiguation", false, "Keep disambiguation pages")
	extractCmd.Flags().BoolVar(&extractKeepLists, "keep-lists", false, "Keep wikitext list-item lines in the cleaned text")
	extractCmd.Flags().StringArrayVar(&extractMarkers, "disambiguation-marker", nil, "Disambiguation marker string (repeatable, overrides the built-in set)")
	extractCmd.Flags().BoolVarP(&extractVerbose, "verbose", "v", false, "Print periodic progress while extracting")

	rootCmd.AddCommand(extractCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func runExtract(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	// Step 1: Load config file if provided
	var cfg config.Config
	if extractConfigPath != "" {
		loadedCfg, err := config.LoadConfig(extractConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := loadedCfg.Validate(); err != nil {
			return err
		}
		cfg = *loadedCfg
		if extractVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", extractConfigPath)
		}
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("dump") || cfg.Dump == "" {
		cfg.Dump = extractDump
	}
	if cmd.Flags().Changed("out-dir") || cfg.OutDir == "" {
		cfg.OutDir = extractOutDir
	}
	if cmd.Flags().Changed("base") || cfg.Base == "" {
		cfg.Base = extractBase
	}
	if cmd.Flags().Changed("max-pages") {
		cfg.MaxPages = extractMaxPages
	}
	if cmd.Flags().Changed("batch-size") || cfg.BatchSize == 0 {
		cfg.BatchSize = extractBatchSize
	}
	if cmd.Flags().Changed("skip-redirects") {
		cfg.SkipRedirects = extractSkipRedirs
	}
	if cmd.Flags().Changed("include-non-main") {
		cfg.IncludeNonMain = extractInclNonMain
	}
	if cmd.Flags().Changed("include-disambiguation") {
		cfg.IncludeDisambiguation = extractInclDisambg
	}
	if cmd.Flags().Changed("keep-lists") {
		cfg.KeepLists = extractKeepLists
	}
	if cmd.Flags().Changed("disambiguation-marker") {
		cfg.DisambiguationMarkers = extractMarkers
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = extractVerbose
	}

	if cfg.Dump == "" {
		return fmt.Errorf("a dump path is required (use --dump, the config file, or WIKIEXTRACT_DUMP)")
	}

	stats, err := pipeline.Run(ctx, pipeline.Options{
		DumpPath:              cfg.Dump,
		OutputDir:             cfg.OutDir,
		BaseName:              cfg.Base,
		MaxPages:              cfg.MaxPages,
		BatchSize:             cfg.BatchSize,
		SkipRedirects:         cfg.SkipRedirects,
		IncludeNonMain:        cfg.IncludeNonMain,
		IncludeDisambiguation: cfg.IncludeDisambiguation,
		KeepLists:             cfg.KeepLists,
		DisambiguationMarkers: cfg.DisambiguationMarkers,
		Verbose:               cfg.Verbose,
	})
	if err != nil {
		return err
	}

	observability.NewPrinter(os.Stdout).PrintRunSummary(stats)
	return nil
}
