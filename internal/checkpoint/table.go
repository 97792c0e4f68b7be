package checkpoint

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/aisharvest/aisharvest/internal/model"
)

// LoadProcessed reads the keyColumn values of a previous run's CSV output.
// It reports resuming=true when the file has a readable header carrying
// the key column; anything else (the file is missing, empty, unreadable,
// or headed without the key column) means the run must start fresh.
// Rows of the wrong width are tolerated, a corrupt file is not.
func LoadProcessed(path, keyColumn string) (map[string]struct{}, bool) {
	processed := make(map[string]struct{})

	file, err := os.Open(path)
	if err != nil {
		return processed, false
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return processed, false
	}
	keyIndex := -1
	for i, column := range header {
		if column == keyColumn {
			keyIndex = i
			break
		}
	}
	if keyIndex < 0 {
		return processed, false
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return make(map[string]struct{}), false
		}
		if keyIndex >= len(row) {
			continue
		}
		if id := strings.TrimSpace(row[keyIndex]); id != "" {
			processed[id] = struct{}{}
		}
	}
	return processed, true
}

// TableWriter appends flattened records to the CSV output file.
//
// The header is the sorted union of the first non-empty batch's columns.
// Later batches are projected onto it: columns the header does not know
// are dropped, and columns a record lacks are written blank. When
// resuming, the header line is not re-written; rows are appended under
// the file's existing header.
//
// TableWriter is not safe for concurrent use. The batch runner delivers
// results on a single goroutine, which is the only writer.
type TableWriter struct {
	file   *os.File
	writer *csv.Writer

	// header is nil until the first non-empty batch fixes the columns.
	header []string

	// writeHeader records whether the header line still needs to go out.
	writeHeader bool
}

// NewTableWriter opens the output file. A fresh run truncates; a resumed
// run appends.
func NewTableWriter(path string, resuming bool) (*TableWriter, error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if resuming {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}

	file, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}

	return &TableWriter{
		file:        file,
		writer:      csv.NewWriter(file),
		writeHeader: !resuming,
	}, nil
}

// Append writes one batch of records and flushes. An empty batch is a
// no-op and does not fix the header.
func (w *TableWriter) Append(batch []model.Record) error {
	if len(batch) == 0 {
		return nil
	}

	if w.header == nil {
		w.header = unionColumns(batch)
		if w.writeHeader {
			if err := w.writer.Write(w.header); err != nil {
				return fmt.Errorf("write header: %w", err)
			}
			w.writeHeader = false
		}
	}

	row := make([]string, len(w.header))
	for _, record := range batch {
		for i, column := range w.header {
			row[i] = record[column]
		}
		if err := w.writer.Write(row); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	// Flush per batch: an interrupted run keeps everything that was
	// appended, which is what makes resume safe.
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		return fmt.Errorf("flush output file: %w", err)
	}
	return nil
}

// Header returns the fixed column set, or nil before the first batch.
func (w *TableWriter) Header() []string {
	return w.header
}

// Close flushes and closes the output file.
func (w *TableWriter) Close() error {
	w.writer.Flush()
	err := w.writer.Error()

	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// unionColumns returns the sorted union of every column name in the batch.
func unionColumns(batch []model.Record) []string {
	seen := make(map[string]struct{})
	for _, record := range batch {
		for column := range record {
			seen[column] = struct{}{}
		}
	}

	columns := make([]string, 0, len(seen))
	for column := range seen {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}
