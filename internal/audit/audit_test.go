package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Luc0-0/Samarth/internal/model"
)

func TestJSONLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "audit.jsonl")
	sink, err := NewJSONL(path)
	require.NoError(t, err)

	recs := []*model.ProvenanceRecord{
		{
			RequestID:  "req-1",
			QueryTexts: []string{"SELECT state, AVG(production_tonnes) ..."},
			DatasetsUsed: []model.Citation{
				{DatasetTitle: "District-wise Crop Production Statistics", Status: "ok"},
			},
			Timestamp: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		},
		{RequestID: "req-2", Timestamp: time.Date(2025, 6, 1, 10, 1, 0, 0, time.UTC)},
	}
	for _, rec := range recs {
		require.NoError(t, sink.Record(rec))
	}
	require.NoError(t, sink.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var got []model.ProvenanceRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec model.ProvenanceRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		got = append(got, rec)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, got, 2)
	assert.Equal(t, "req-1", got[0].RequestID)
	assert.Len(t, got[0].DatasetsUsed, 1)
	assert.Equal(t, "req-2", got[1].RequestID)
}

func TestJSONLAppendsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	for i := 0; i < 2; i++ {
		sink, err := NewJSONL(path)
		require.NoError(t, err)
		require.NoError(t, sink.Record(&model.ProvenanceRecord{RequestID: "req"}))
		require.NoError(t, sink.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, countLines(data))
}

func countLines(data []byte) int {
	n := 0
	for _, b := range data {
		if b == '\n' {
			n++
		}
	}
	return n
}

func TestNopSink(t *testing.T) {
	var s NopSink
	assert.NoError(t, s.Record(&model.ProvenanceRecord{}))
	assert.NoError(t, s.Close())
}
