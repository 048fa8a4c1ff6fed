package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"slices"

	"github.com/qepting91/reddit-collector/internal/domain"
)

// Record is anything that flattens to one CSV row.
type Record interface {
	Values() []string
}

// Writer appends rows to a CSV file whose first row is a fixed header.
// Every row is flushed as soon as it is written so an aborted run keeps
// what it already collected.
type Writer struct {
	path   string
	file   *os.File
	csv    *csv.Writer
	header []string
	rows   int
}

// Open opens path for append. A new or empty file gets the header; an
// existing file must already start with exactly that header.
func Open(path string, header []string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &domain.IOError{Path: path, Op: "mkdir", Err: err}
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, &domain.IOError{Path: path, Op: "open", Err: err}
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &domain.IOError{Path: path, Op: "stat", Err: err}
	}

	w := &Writer{path: path, file: f, csv: csv.NewWriter(f), header: slices.Clone(header)}

	if info.Size() == 0 {
		if err := w.writeRow(w.header); err != nil {
			f.Close()
			return nil, err
		}
		return w, nil
	}

	existing, err := csv.NewReader(io.NewSectionReader(f, 0, info.Size())).Read()
	if err != nil {
		f.Close()
		return nil, &domain.IOError{Path: path, Op: "read header", Err: err}
	}
	if !slices.Equal(existing, w.header) {
		f.Close()
		return nil, &domain.IOError{
			Path: path,
			Op:   "read header",
			Err:  fmt.Errorf("existing header %v does not match %v", existing, w.header),
		}
	}
	return w, nil
}

// Write appends one record.
func (w *Writer) Write(rec Record) error {
	if w.file == nil {
		return &domain.IOError{Path: w.path, Op: "write", Err: os.ErrClosed}
	}
	row := rec.Values()
	if len(row) != len(w.header) {
		return &domain.IOError{
			Path: w.path,
			Op:   "write",
			Err:  fmt.Errorf("record has %d columns, header has %d", len(row), len(w.header)),
		}
	}
	if err := w.writeRow(row); err != nil {
		return err
	}
	w.rows++
	return nil
}

func (w *Writer) writeRow(row []string) error {
	if err := w.csv.Write(row); err != nil {
		return &domain.IOError{Path: w.path, Op: "write", Err: err}
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return &domain.IOError{Path: w.path, Op: "flush", Err: err}
	}
	return nil
}

// Rows returns the number of records written through w.
func (w *Writer) Rows() int { return w.rows }

// Path returns the file w writes to.
func (w *Writer) Path() string { return w.path }

// Close releases the file. Calling it more than once is a no-op.
func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}
	w.csv.Flush()
	flushErr := w.csv.Error()
	closeErr := w.file.Close()
	w.file = nil
	if err := errors.Join(flushErr, closeErr); err != nil {
		return &domain.IOError{Path: w.path, Op: "close", Err: err}
	}
	return nil
}

// WriteAll drains seq into path. The file is closed on every exit path and
// rows written before an error in seq are left in place.
func WriteAll[R Record](path string, header []string, seq iter.Seq2[R, error]) (n int, err error) {
	w, err := Open(path, header)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()

	for rec, serr := range seq {
		if serr != nil {
			return w.Rows(), serr
		}
		if err := w.Write(rec); err != nil {
			return w.Rows(), err
		}
	}
	return w.Rows(), nil
}
