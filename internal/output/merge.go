package output

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/duartefn/wikiextract/internal/record"
)

// MergeError reports a missing or unreadable shard during consolidation.
type MergeError struct {
	Shard string
	Err   error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("merge failed on shard %s: %v", e.Shard, e.Err)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}

// Merge concatenates all shards for base, in sequence-number order, into
// <dir>/<base>.parquet and returns the total row count. Shards are read one
// at a time (one batch in memory) and are retained afterwards as an audit
// trail and for resumability. A gap in the 1..N shard sequence or an
// unreadable shard fails with *MergeError and leaves every existing output
// untouched except a possibly partial merged file.
func Merge(dir, base string) (int64, error) {
	shards, err := DiscoverShards(dir, base)
	if err != nil {
		return 0, err
	}

	mergedPath := MergedPath(dir, base)
	fw, err := local.NewLocalFileWriter(mergedPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", mergedPath, err)
	}
	pw, err := writer.NewParquetWriter(fw, new(record.Record), 1)
	if err != nil {
		_ = fw.Close()
		return 0, fmt.Errorf("failed to open parquet writer for %s: %w", mergedPath, err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	var total int64
	for _, shard := range shards {
		rows, err := ReadRows(shard)
		if err != nil {
			_ = fw.Close()
			return total, &MergeError{Shard: shard, Err: err}
		}
		for i := range rows {
			if err := pw.Write(rows[i]); err != nil {
				_ = fw.Close()
				return total, &MergeError{Shard: shard, Err: fmt.Errorf("failed to copy row into merged file: %w", err)}
			}
		}
		total += int64(len(rows))
	}

	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return total, fmt.Errorf("failed to finalize %s: %w", mergedPath, err)
	}
	if err := fw.Close(); err != nil {
		return total, fmt.Errorf("failed to close %s: %w", mergedPath, err)
	}
	return total, nil
}

// DiscoverShards globs the shard files for base and verifies the sequence is
// contiguous starting at 1. An empty result is valid: a run over a fully
// filtered dump produces no shards and an empty merged file.
func DiscoverShards(dir, base string) ([]string, error) {
	pattern := filepath.Join(dir, base+"_part_*.parquet")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list shards %s: %w", pattern, err)
	}
	sort.Strings(matches)

	for i, path := range matches {
		want := ShardPath(dir, base, i+1)
		if path != want {
			return nil, &MergeError{
				Shard: want,
				Err:   fmt.Errorf("shard sequence has a gap: expected %s, found %s", filepath.Base(want), filepath.Base(path)),
			}
		}
	}
	return matches, nil
}

// ReadRows reads every row of one Parquet file. Shards hold at most one
// batch, so a full read stays within the pipeline's memory bound.
func ReadRows(path string) ([]record.Record, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(record.Record), 1)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet schema of %s: %w", path, err)
	}
	defer pr.ReadStop()

	rows := make([]record.Record, pr.GetNumRows())
	if err := pr.Read(&rows); err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", path, err)
	}
	return rows, nil
}
