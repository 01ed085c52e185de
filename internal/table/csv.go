package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ajitpratap0/gridkit/internal/metrics"
	"github.com/ajitpratap0/gridkit/internal/models"
)

// DefaultDelimiter separates cells when no delimiter is configured.
const DefaultDelimiter = ','

// WriteOptions controls how a collection is written.
type WriteOptions struct {
	// Mkdirs creates missing parent directories of the target file.
	Mkdirs bool
	// Delimiter separates cells; zero means DefaultDelimiter.
	Delimiter rune
}

func (o WriteOptions) delimiter() rune {
	if o.Delimiter == 0 {
		return DefaultDelimiter
	}
	return o.Delimiter
}

// ReadCSV loads a collection from a delimited file. It fails with
// ErrFileNotFound when the file is missing and with a *SchemaError when the
// file does not match the schema.
func ReadCSV[T any](s *Schema[T], path string, delim rune) (*Collection[T], error) {
	f, err := os.Open(path) //nolint:gosec // path is chosen by the caller
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrFileNotFound, path, err)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	c, err := Decode(s, f, delim, path)
	if err != nil {
		return nil, err
	}
	metrics.Inc(metrics.CollectionsLoaded)
	return c, nil
}

// Decode reads a collection from r. source names the input in errors.
func Decode[T any](s *Schema[T], r io.Reader, delim rune, source string) (*Collection[T], error) {
	if delim == 0 {
		delim = DefaultDelimiter
	}
	cr := csv.NewReader(r)
	cr.Comma = delim

	schemaErr := func(column string, line int, reason string, err error) *SchemaError {
		return &SchemaError{
			EntityType: s.entityType,
			Source:     source,
			Column:     column,
			Line:       line,
			Reason:     reason,
			Err:        err,
		}
	}

	header, err := cr.Read()
	if err == io.EOF {
		return nil, schemaErr(KeyColumn, 1, "missing header", nil)
	}
	if err != nil {
		return nil, schemaErr("", 1, "reading header", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	position := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := position[name]; dup {
			return nil, schemaErr(name, 1, "duplicate column", nil)
		}
		position[name] = i
	}

	keyPos, ok := position[KeyColumn]
	if !ok {
		return nil, schemaErr(KeyColumn, 1, "missing uuid column", nil)
	}
	for _, name := range s.RequiredColumns() {
		if _, ok := position[name]; !ok {
			return nil, schemaErr(name, 1, "missing required column", nil)
		}
	}

	declared := make(map[string]bool, len(s.columns)+1)
	for _, name := range s.Columns() {
		declared[name] = true
	}
	var extra []string
	for _, name := range header {
		name = strings.TrimSpace(name)
		if !declared[name] {
			extra = append(extra, name)
		}
	}

	var rows []T
	seen := make(models.UUIDSet)
	for line := 2; ; line++ {
		rec, readErr := cr.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, schemaErr("", line, "reading record", readErr)
		}

		var row T
		key, parseErr := uuid.Parse(strings.TrimSpace(rec[keyPos]))
		if parseErr != nil {
			return nil, schemaErr(KeyColumn, line, "invalid uuid", parseErr)
		}
		if key == uuid.Nil {
			return nil, schemaErr(KeyColumn, line, "missing uuid", nil)
		}
		if seen.Has(key) {
			e := schemaErr(KeyColumn, line, "duplicate uuid", nil)
			e.UUID = key
			return nil, e
		}
		seen.Add(key)
		s.row(&row).UUID = key

		for i := range s.columns {
			col := &s.columns[i]
			pos, present := position[col.Name]
			if !present {
				continue
			}
			if decErr := col.decodeCell(&row, rec[pos]); decErr != nil {
				e := schemaErr(col.Name, line, "invalid value", decErr)
				e.UUID = key
				return nil, e
			}
		}

		if len(extra) > 0 {
			values := make(map[string]string, len(extra))
			for _, name := range extra {
				values[name] = rec[position[name]]
			}
			s.row(&row).Extra = values
		}

		if checkErr := s.check(&row); checkErr != nil {
			e := schemaErr("", line, "invalid record", checkErr)
			e.UUID = key
			return nil, e
		}
		rows = append(rows, row)
	}

	return &Collection[T]{
		schema: s,
		store:  newArena(s, rows),
		n:      len(rows),
		extra:  extra,
	}, nil
}

// WriteCSV writes the collection to path in declared column order. An empty
// collection writes nothing and returns false.
func (c *Collection[T]) WriteCSV(path string, opts WriteOptions) (bool, error) {
	if c.IsEmpty() {
		metrics.Inc(metrics.EmptyWritesSkipped)
		return false, nil
	}
	if opts.Mkdirs {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return false, fmt.Errorf("creating directory for %s: %w", path, err)
		}
	}

	f, err := os.Create(path) //nolint:gosec // path is chosen by the caller
	if err != nil {
		return false, fmt.Errorf("creating %s: %w", path, err)
	}
	if err := c.Encode(f, opts.delimiter()); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("closing %s: %w", path, err)
	}
	metrics.Inc(metrics.CollectionsWritten)
	return true, nil
}

// Encode writes the header and every row to w.
func (c *Collection[T]) Encode(w io.Writer, delim rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delim
	if err := cw.Write(c.Header()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := cw.WriteAll(c.Records()); err != nil {
		return fmt.Errorf("writing records: %w", err)
	}
	return nil
}
