package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/gohrm/pkg/estimator"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVWriter_HeaderAndRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "hrm.csv")

	w, err := NewCSVWriter(path)
	require.NoError(t, err)

	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	err = w.WriteResult(estimator.Result{
		Timestamp:  ts,
		Filtered:   123.456,
		BPM:        72,
		Confidence: 85,
		Status:     estimator.StatusOK,
	})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	rows := readRows(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"iso8601", "ts_ms", "filtered", "bpm", "confidence_pct", "status"}, rows[0])
	assert.Equal(t, "2026-03-14T09:26:53Z", rows[1][0])
	assert.Equal(t, "123.5", rows[1][2])
	assert.Equal(t, "72", rows[1][3])
	assert.Equal(t, "85", rows[1][4])
	assert.Equal(t, "OK", rows[1][5])
}

func TestCSVWriter_AppendDoesNotRepeatHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hrm.csv")

	w, err := NewCSVWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteResult(estimator.Result{Timestamp: time.Now(), Status: estimator.StatusFallback}))
	require.NoError(t, w.Close())

	// Reopen and append a second record.
	w, err = NewCSVWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteResult(estimator.Result{Timestamp: time.Now(), Status: estimator.StatusNoSensor}))
	require.NoError(t, w.Close())

	rows := readRows(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, "iso8601", rows[0][0])
	assert.Equal(t, "FALLBACK", rows[1][5])
	assert.Equal(t, "NO_FINGER", rows[2][5])
}
