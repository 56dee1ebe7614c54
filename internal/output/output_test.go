package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duartefn/wikiextract/internal/record"
)

func testRecord(id int64) record.Record {
	return record.Record{
		Text:         fmt.Sprintf("texto %d", id),
		Title:        fmt.Sprintf("Página %d", id),
		PageID:       id,
		Ns:           0,
		SectionTexts: []string{fmt.Sprintf("texto %d", id)},
	}
}

func writeRecords(t *testing.T, dir string, n, batchSize int) *BatchWriter {
	t.Helper()
	w, err := NewBatchWriter(dir, "test", batchSize)
	require.NoError(t, err)
	for i := 1; i <= n; i++ {
		require.NoError(t, w.Write(testRecord(int64(i))))
	}
	require.NoError(t, w.Close())
	return w
}

func readJSONL(t *testing.T, path string) []record.Record {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []record.Record
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec record.Record
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		out = append(out, rec)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestBatchWriter_RejectsBadBatchSize(t *testing.T) {
	_, err := NewBatchWriter(t.TempDir(), "test", 0)
	assert.Error(t, err)
}

func TestBatchWriter_ShardsAndJSONLAgree(t *testing.T) {
	dir := t.TempDir()
	w := writeRecords(t, dir, 7, 3)

	// 7 records at batch size 3: two full shards plus one partial.
	require.Len(t, w.ShardPaths(), 3)
	assert.Equal(t, int64(7), w.Records())

	jsonlRecs := readJSONL(t, JSONLPath(dir, "test"))
	require.Len(t, jsonlRecs, 7)

	var shardRecs []record.Record
	for _, shard := range w.ShardPaths() {
		rows, err := ReadRows(shard)
		require.NoError(t, err)
		shardRecs = append(shardRecs, rows...)
	}
	assert.Equal(t, jsonlRecs, shardRecs)
}

func TestBatchWriter_ShardNaming(t *testing.T) {
	dir := t.TempDir()
	w := writeRecords(t, dir, 25, 10)

	require.Len(t, w.ShardPaths(), 3)
	assert.Equal(t, filepath.Join(dir, "test_part_00001.parquet"), w.ShardPaths()[0])
	assert.Equal(t, filepath.Join(dir, "test_part_00003.parquet"), w.ShardPaths()[2])
}

func TestBatchWriter_PreservesUnicode(t *testing.T) {
	dir := t.TempDir()
	w, err := NewBatchWriter(dir, "test", 10)
	require.NoError(t, err)
	rec := testRecord(1)
	rec.Text = "São Paulo é <grande>."
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(JSONLPath(dir, "test"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "São Paulo é <grande>.")
	assert.NotContains(t, string(data), `<`)
}

func TestMerge_ConcatenatesShardsInOrder(t *testing.T) {
	dir := t.TempDir()
	writeRecords(t, dir, 10, 4)

	total, err := Merge(dir, "test")
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)

	merged, err := ReadRows(MergedPath(dir, "test"))
	require.NoError(t, err)
	require.Len(t, merged, 10)
	for i, rec := range merged {
		assert.Equal(t, int64(i+1), rec.PageID)
	}

	// Shards are retained after the merge.
	shards, err := DiscoverShards(dir, "test")
	require.NoError(t, err)
	assert.Len(t, shards, 3)
}

func TestMerge_EmptyRunProducesEmptyFile(t *testing.T) {
	dir := t.TempDir()
	writeRecords(t, dir, 0, 4)

	total, err := Merge(dir, "test")
	require.NoError(t, err)
	assert.Zero(t, total)

	merged, err := ReadRows(MergedPath(dir, "test"))
	require.NoError(t, err)
	assert.Empty(t, merged)
}

func TestMerge_DetectsShardGap(t *testing.T) {
	dir := t.TempDir()
	writeRecords(t, dir, 10, 3)

	require.NoError(t, os.Remove(ShardPath(dir, "test", 2)))

	_, err := Merge(dir, "test")
	var mergeErr *MergeError
	require.ErrorAs(t, err, &mergeErr)
	assert.Contains(t, mergeErr.Shard, "test_part_00002.parquet")

	// A failed merge leaves the remaining shards and the JSONL intact.
	assert.FileExists(t, ShardPath(dir, "test", 1))
	assert.FileExists(t, ShardPath(dir, "test", 3))
	assert.FileExists(t, JSONLPath(dir, "test"))
}

func TestMerge_UnreadableShard(t *testing.T) {
	dir := t.TempDir()
	writeRecords(t, dir, 4, 2)

	require.NoError(t, os.WriteFile(ShardPath(dir, "test", 2), []byte("not parquet"), 0o644))

	_, err := Merge(dir, "test")
	var mergeErr *MergeError
	require.ErrorAs(t, err, &mergeErr)
}
