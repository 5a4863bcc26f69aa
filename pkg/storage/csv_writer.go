// Package storage persists the per-tick output record.
package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/itohio/gohrm/pkg/estimator"
)

// CSVWriter appends output records to a CSV file, writing the header only
// when the file is empty.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter opens (or creates) the file at path for appending.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}

	w := &CSVWriter{
		file:   file,
		writer: csv.NewWriter(file),
	}

	if err := w.writeHeader(); err != nil {
		file.Close()
		return nil, err
	}

	return w, nil
}

func (w *CSVWriter) writeHeader() error {
	info, err := w.file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat csv file: %w", err)
	}
	if info.Size() > 0 {
		return nil
	}

	if err := w.writer.Write([]string{
		"iso8601", "ts_ms", "filtered", "bpm", "confidence_pct", "status",
	}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	w.writer.Flush()
	return w.writer.Error()
}

// WriteResult appends one record. Filtered is rendered with one decimal, the
// rest as integers, matching the device-facing output format.
func (w *CSVWriter) WriteResult(res estimator.Result) error {
	row := []string{
		res.Timestamp.Format(time.RFC3339),
		fmt.Sprintf("%d", res.Timestamp.UnixMilli()),
		fmt.Sprintf("%.1f", res.Filtered),
		fmt.Sprintf("%d", res.BPM),
		fmt.Sprintf("%d", res.Confidence),
		res.Status.String(),
	}
	if err := w.writer.Write(row); err != nil {
		return fmt.Errorf("failed to write csv row: %w", err)
	}
	w.writer.Flush()
	return w.writer.Error()
}

// Close flushes and closes the file.
func (w *CSVWriter) Close() error {
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
