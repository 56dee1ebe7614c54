// Package main provides the entry point for the wikiextract CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wikiextract",
	Short: "MediaWiki dump to LLM-dataset extractor",
	Long:  "wikiextract streams a MediaWiki XML dump (optionally bzip2-compressed), filters and cleans every page, and emits JSONL plus sharded-and-merged Parquet records for language-model dataset construction.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
