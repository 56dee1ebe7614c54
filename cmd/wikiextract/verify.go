package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/duartefn/wikiextract/internal/output"
	"github.com/duartefn/wikiextract/internal/schemas"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run quality checks over the extraction outputs",
	Long: `Validates every JSONL line against the record schema and reads the merged Parquet file back, validating each row and checking that the two record counts agree and that non-empty text is present. Prints a few sample rows.`,
	RunE:  runVerify,
}

var (
	verifyOutDir string
	verifyBase   string
	verifySample int
)

func init() {
	verifyCmd.Flags().StringVarP(&verifyOutDir, "out-dir", "o", "data", "Directory holding the outputs")
	verifyCmd.Flags().StringVar(&verifyBase, "base", "wiki_articles", "Base name of the output files")
	verifyCmd.Flags().IntVar(&verifySample, "sample", 3, "How many sample rows to print")

	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, _ []string) error {
	schemaPath := schemas.ResolveSchemaPath(schemas.RecordSchemaPath)
	if schemaPath == "" {
		return fmt.Errorf("record schema not found (looked for %s relative to the working directory)", schemas.RecordSchemaPath)
	}

	jsonlPath := output.JSONLPath(verifyOutDir, verifyBase)
	mergedPath := output.MergedPath(verifyOutDir, verifyBase)

	// The two read-backs are independent, so check them concurrently.
	var g errgroup.Group
	var jsonlLines int
	var mergedRows int64
	var hasText bool

	g.Go(func() error {
		lines, err := schemas.ValidateJSONL(schemaPath, jsonlPath)
		if err != nil {
			return err
		}
		jsonlLines = lines
		return nil
	})

	g.Go(func() error {
		rows, err := output.ReadRows(mergedPath)
		if err != nil {
			return err
		}
		mergedRows = int64(len(rows))
		for i := range rows {
			if err := rows[i].Validate(); err != nil {
				return fmt.Errorf("merged row %d is invalid: %w", i, err)
			}
			if strings.TrimSpace(rows[i].Text) != "" {
				hasText = true
			}
		}

		for i := 0; i < len(rows) && i < verifySample; i++ {
			line, err := json.Marshal(rows[i])
			if err != nil {
				return fmt.Errorf("failed to encode sample row %d: %w", i, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sample[%d]: %s\n", i, truncate(string(line), 200))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if int64(jsonlLines) != mergedRows {
		return fmt.Errorf("record count mismatch: %d JSONL lines vs %d merged rows", jsonlLines, mergedRows)
	}
	if mergedRows > 0 && !hasText {
		return fmt.Errorf("no non-empty text found in %s", mergedPath)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "OK: %d records, JSONL and Parquet agree\n", mergedRows)
	return nil
}

// truncate shortens s to at most max bytes without splitting a UTF-8 rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
