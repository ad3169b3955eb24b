// Package csvfile persists canonical rows to a single local CSV file.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chinjsg/csv-extractor/internal/domain"
)

// ErrNoOutput reports that the output file to update does not exist.
var ErrNoOutput = errors.New("output file does not exist")

// Store owns one output file path.
type Store struct {
	path string
}

// NewStore returns a Store for path. The file is not touched until Create or
// Append is called.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the output file path.
func (s *Store) Path() string { return s.path }

// Create truncates (or creates) the output file and writes header.
func (s *Store) Create(header domain.Row) (domain.RowSink, error) {
	f, err := os.Create(s.path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	sink := newSink(f)
	if err := sink.write(header); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := sink.flush(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return sink, nil
}

// Append opens the existing output file for appending rows.
func (s *Store) Append() (domain.RowSink, error) {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoOutput, s.path)
		}
		return nil, fmt.Errorf("open output: %w", err)
	}
	return newSink(f), nil
}

// State reports whether the output file has a header and the date field of
// its final data row.
func (s *Store) State() (domain.OutputState, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.OutputState{}, fmt.Errorf("%w: %s", ErrNoOutput, s.path)
		}
		return domain.OutputState{}, fmt.Errorf("open output: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var last []string
	rows := 0
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.OutputState{}, fmt.Errorf("read output: %w", err)
		}
		last = rec
		rows++
	}

	state := domain.OutputState{Header: rows > 0}
	if rows > 1 && len(last) > 0 {
		state.LastDate = last[domain.FieldDate]
	}
	return state, nil
}

// Sink writes rows to an open output file. It implements domain.RowSink.
type Sink struct {
	f *os.File
	w *csv.Writer
}

func newSink(f *os.File) *Sink {
	return &Sink{f: f, w: csv.NewWriter(f)}
}

// Load writes every row of the batch, one record per row, and flushes.
func (s *Sink) Load(_ context.Context, batch domain.Batch) error {
	for _, row := range batch.Rows {
		if err := s.write(row); err != nil {
			return err
		}
	}
	return s.flush()
}

// Name identifies the sink in logs and metrics.
func (s *Sink) Name() string { return "csv" }

// Close flushes pending rows and closes the file.
func (s *Sink) Close() error {
	if err := s.flush(); err != nil {
		_ = s.f.Close()
		return err
	}
	return s.f.Close()
}

func (s *Sink) write(row domain.Row) error {
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	return nil
}

func (s *Sink) flush() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}
