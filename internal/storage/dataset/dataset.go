package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	pipelineerrors "github.com/lueurxax/news-impact-pipeline/internal/core/errors"
)

const (
	filePerm = 0o644
	dirPerm  = 0o755
)

// Table is a parsed dataset: a header and data rows.
type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// NewTable builds a table and its column index.
func NewTable(header []string, rows [][]string) *Table {
	t := &Table{Header: header, Rows: rows, index: make(map[string]int, len(header))}
	for i, col := range header {
		if _, ok := t.index[col]; !ok {
			t.index[col] = i
		}
	}

	return t
}

// Has reports whether the table has a column.
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Get returns the value of col in row, or "" when absent.
func (t *Table) Get(row []string, col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(row) {
		return ""
	}

	return row[i]
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ReadExisting is Read for stage inputs: a missing file is an error wrapping
// ErrMissingDataset rather than an empty table.
func ReadExisting(path string, required ...string) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", pipelineerrors.ErrMissingDataset, path)
		}

		return nil, fmt.Errorf("stat dataset %s: %w", path, err)
	}

	return Read(path, required...)
}

// Read parses the CSV file at path. A missing or empty file yields an empty
// table. Every required column must be present in the header, otherwise the
// error wraps ErrSchema.
func Read(path string, required ...string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return emptyTable(required), nil
		}

		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return emptyTable(required), nil
	}

	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows of %s: %w", path, err)
	}

	t := NewTable(header, rows)

	for _, col := range required {
		if !t.Has(col) {
			return nil, fmt.Errorf("%w: %s has no column %q", pipelineerrors.ErrSchema, path, col)
		}
	}

	return t, nil
}

func emptyTable(required []string) *Table {
	return NewTable(append([]string(nil), required...), nil)
}

// Append writes one row to path. The header is written first when the file
// is missing or empty; an existing header must equal schema exactly.
// The row is encoded in memory and written with a single write followed by
// fsync, so a crash never leaves a partial row.
func Append(path string, schema Schema, row []string) error {
	return AppendRows(path, schema, [][]string{row})
}

// AppendRows appends rows to path with the same guarantees as Append,
// flushing each row on its own.
func AppendRows(path string, schema Schema, rows [][]string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, filePerm)
	if err != nil {
		return fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat dataset %s: %w", path, err)
	}

	if info.Size() == 0 {
		if err := writeRecord(f, schema); err != nil {
			return fmt.Errorf("write header of %s: %w", path, err)
		}
	} else if err := checkHeader(path, schema); err != nil {
		return err
	}

	for _, row := range rows {
		if len(row) != len(schema) {
			return fmt.Errorf("%w: row has %d fields, %s expects %d",
				pipelineerrors.ErrSchema, len(row), path, len(schema))
		}

		if err := writeRecord(f, row); err != nil {
			return fmt.Errorf("append row to %s: %w", path, err)
		}
	}

	return nil
}

// Rewrite replaces the file at path with header and rows. The content is
// written to a temp file in the same directory and renamed into place.
func Rewrite(path string, header Schema, rows [][]string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}

	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	w := csv.NewWriter(tmp)

	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("write header of %s: %w", path, err)
	}

	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write rows of %s: %w", path, err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp for %s: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}

	return nil
}

func writeRecord(f *os.File, record []string) error {
	var buf bytes.Buffer

	w := csv.NewWriter(&buf)
	if err := w.Write(record); err != nil {
		return err
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return err
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return err
	}

	return f.Sync()
}

func checkHeader(path string, schema Schema) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("%w: unreadable header in %s: %w", pipelineerrors.ErrSchema, path, err)
	}

	if !schema.Equal(header) {
		return fmt.Errorf("%w: %s header %v, expected %v", pipelineerrors.ErrSchema, path, header, []string(schema))
	}

	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	return nil
}
