// Package schemas provides JSON Schema validation for the JSONL output.
package schemas

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// maxLineSize bounds one JSONL line; full article texts can be large.
const maxLineSize = 16 * 1024 * 1024

// RecordSchemaPath is the repo-relative location of the record schema.
const RecordSchemaPath = "schemas/record.schema.json"

// ResolveSchemaPath attempts to find a schema file by trying multiple common path resolutions.
// It tries paths relative to the current working directory, then paths relative to likely repo root locations.
// Returns the first path that exists, or empty string if none found.
// This is useful when CLI commands may run from different working directory contexts (e.g., tests).
func ResolveSchemaPath(relativePath string) string {
	candidates := []string{
		relativePath,
		filepath.Join("..", relativePath),
		filepath.Join("..", "..", relativePath),
	}

	for _, candidate := range candidates {
		if absPath, err := filepath.Abs(candidate); err == nil {
			if _, err := os.Stat(absPath); err == nil {
				return absPath
			}
		}
	}

	return ""
}

// LineError is one schema violation at a specific JSONL line.
type LineError struct {
	Line    int
	Message string
}

// ValidationError aggregates all schema violations found in a JSONL file.
type ValidationError struct {
	Path   string
	Errors []LineError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s failed schema validation:\n", ve.Path))
	for _, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  line %d: %s\n", err.Line, err.Message))
	}
	return sb.String()
}

// SchemaLoadError represents errors loading or parsing the schema itself.
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// ValidateJSONL validates every line of a JSONL file against a JSON Schema
// file and returns the number of lines checked. Validation does not stop at
// the first bad line; all violations are collected into one error.
func ValidateJSONL(schemaPath, jsonlPath string) (int, error) {
	schemaAbsPath, err := filepath.Abs(schemaPath)
	if err != nil {
		return 0, &SchemaLoadError{Path: schemaPath, Message: "failed to resolve path", Cause: err}
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewReferenceLoader("file://" + schemaAbsPath))
	if err != nil {
		return 0, &SchemaLoadError{Path: schemaAbsPath, Message: "failed to compile schema", Cause: err}
	}

	f, err := os.Open(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", jsonlPath, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lines := 0
	var lineErrs []LineError
	for sc.Scan() {
		lines++
		result, err := schema.Validate(gojsonschema.NewBytesLoader(sc.Bytes()))
		if err != nil {
			lineErrs = append(lineErrs, LineError{Line: lines, Message: fmt.Sprintf("not valid JSON: %v", err)})
			continue
		}
		for _, desc := range result.Errors() {
			lineErrs = append(lineErrs, LineError{Line: lines, Message: fmt.Sprintf("%s: %s", desc.Field(), desc.Description())})
		}
	}
	if err := sc.Err(); err != nil {
		return lines, fmt.Errorf("failed to read %s: %w", jsonlPath, err)
	}

	if len(lineErrs) > 0 {
		return lines, &ValidationError{Path: jsonlPath, Errors: lineErrs}
	}
	return lines, nil
}
