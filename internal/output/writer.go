// Package output persists extracted records as a line-delimited JSONL file
// plus batched Parquet shards, and merges the shards into one dataset file.
package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/duartefn/wikiextract/internal/record"
)

const jsonlBufferSize = 256 * 1024

// BatchWriter appends every record to <base>.jsonl as it arrives and buffers
// records into fixed-size batches, flushing each full batch as one immutable
// Parquet shard. At most one batch is held in memory regardless of dump size.
type BatchWriter struct {
	dir       string
	base      string
	batchSize int

	jsonlFile *os.File
	buf       *bufio.Writer
	enc       *json.Encoder

	batch      []record.Record
	shardPaths []string
	records    int64
}

// NewBatchWriter creates the output directory if needed and opens
// <dir>/<base>.jsonl for writing.
func NewBatchWriter(dir, base string, batchSize int) (*BatchWriter, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	jsonlPath := JSONLPath(dir, base)
	f, err := os.Create(jsonlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", jsonlPath, err)
	}

	buf := bufio.NewWriterSize(f, jsonlBufferSize)
	enc := json.NewEncoder(buf)
	// Keep the text readable: no < escapes for markup remnants.
	enc.SetEscapeHTML(false)

	return &BatchWriter{
		dir:       dir,
		base:      base,
		batchSize: batchSize,
		jsonlFile: f,
		buf:       buf,
		enc:       enc,
		batch:     make([]record.Record, 0, batchSize),
	}, nil
}

// Write appends one record, in stream order, to both outputs.
func (w *BatchWriter) Write(rec record.Record) error {
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to append page %d to JSONL: %w", rec.PageID, err)
	}
	w.records++
	w.batch = append(w.batch, rec)
	if len(w.batch) >= w.batchSize {
		return w.flushShard()
	}
	return nil
}

// Close flushes a non-empty partial batch as a final shard and syncs the
// JSONL file. The writer is unusable afterwards.
func (w *BatchWriter) Close() error {
	var firstErr error
	if len(w.batch) > 0 {
		if err := w.flushShard(); err != nil {
			firstErr = err
		}
	}
	if err := w.buf.Flush(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to flush JSONL buffer: %w", err)
	}
	if err := w.jsonlFile.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close JSONL file: %w", err)
	}
	return firstErr
}

// ShardPaths returns the flushed shard paths in sequence order.
func (w *BatchWriter) ShardPaths() []string {
	return w.shardPaths
}

// Records returns how many records have been written so far.
func (w *BatchWriter) Records() int64 {
	return w.records
}

// JSONLPath names the line-delimited output file for the given output base.
func JSONLPath(dir, base string) string {
	return filepath.Join(dir, base+".jsonl")
}

func (w *BatchWriter) flushShard() error {
	seq := len(w.shardPaths) + 1
	path := ShardPath(w.dir, w.base, seq)
	if err := writeShard(path, w.batch); err != nil {
		return err
	}
	w.shardPaths = append(w.shardPaths, path)
	w.batch = w.batch[:0]
	return nil
}

// ShardPath names shard seq (1-based) for the given output base:
// <dir>/<base>_part_00001.parquet and so on.
func ShardPath(dir, base string, seq int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_part_%05d.parquet", base, seq))
}

// MergedPath names the consolidated dataset file for the given output base.
func MergedPath(dir, base string) string {
	return filepath.Join(dir, base+".parquet")
}

func writeShard(path string, rows []record.Record) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create shard %s: %w", path, err)
	}

	// np=1: shard writing stays single-threaded like the rest of the pipeline.
	pw, err := writer.NewParquetWriter(fw, new(record.Record), 1)
	if err != nil {
		_ = fw.Close()
		return fmt.Errorf("failed to open parquet writer for %s: %w", path, err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range rows {
		if err := pw.Write(rows[i]); err != nil {
			_ = fw.Close()
			return fmt.Errorf("failed to write row to shard %s: %w", path, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return fmt.Errorf("failed to finalize shard %s: %w", path, err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("failed to close shard %s: %w", path, err)
	}
	return nil
}
