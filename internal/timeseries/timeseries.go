// Package timeseries holds the primary data time series attached to grid
// participants and their its_<scheme>_<uuid>.csv file format.
package timeseries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ajitpratap0/gridkit/internal/models"
	"github.com/ajitpratap0/gridkit/internal/table"
)

const (
	filePrefix = "its_"
	fileSuffix = ".csv"
	timeColumn = "time"
)

// ErrUnknownColumn is returned when a series is asked for a column its
// scheme does not carry.
var ErrUnknownColumn = errors.New("unknown time series column")

// ErrPointArity is returned when a sample does not hold one value per
// column of its series' scheme.
var ErrPointArity = errors.New("sample does not match column scheme")

// Point is one timestamped sample. Values are aligned with the columns of
// the series' scheme.
type Point struct {
	Time   time.Time
	Values []float64
}

// Series is the time series of one entity.
type Series struct {
	UUID   uuid.UUID
	Scheme models.ColumnScheme
	Points []Point
}

// FileName returns the file a series for id in the given scheme is stored under.
func FileName(scheme models.ColumnScheme, id uuid.UUID) string {
	return filePrefix + string(scheme) + "_" + id.String() + fileSuffix
}

// ParseFileName extracts scheme and key from a series file name.
func ParseFileName(name string) (models.ColumnScheme, uuid.UUID, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return "", uuid.Nil, false
	}
	body := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
	scheme, rawID, ok := strings.Cut(body, "_")
	if !ok {
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(rawID)
	if err != nil || !models.ColumnScheme(scheme).IsValid() {
		return "", uuid.Nil, false
	}
	return models.ColumnScheme(scheme), id, true
}

// Len returns the number of samples.
func (s Series) Len() int { return len(s.Points) }

func (s Series) checkPoints() error {
	want := len(s.Scheme.Columns())
	for i := range s.Points {
		if got := len(s.Points[i].Values); got != want {
			return fmt.Errorf("%w: series %s sample %d has %d values, scheme %q has %d columns",
				ErrPointArity, s.UUID, i, got, s.Scheme, want)
		}
	}
	return nil
}

// Column returns the values of one column in sample order.
func (s Series) Column(name string) ([]float64, error) {
	idx := -1
	for i, col := range s.Scheme.Columns() {
		if col == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q not in scheme %q", ErrUnknownColumn, name, s.Scheme)
	}
	if err := s.checkPoints(); err != nil {
		return nil, err
	}
	out := make([]float64, len(s.Points))
	for i := range s.Points {
		out[i] = s.Points[i].Values[idx]
	}
	return out, nil
}

// ReadCSV loads a series from path. Scheme and key are taken from the file name.
func ReadCSV(path string, delim rune) (Series, error) {
	scheme, id, ok := ParseFileName(filepath.Base(path))
	if !ok {
		return Series{}, &table.SchemaError{Source: path, Reason: "not a time series file name"}
	}
	f, err := os.Open(path) //nolint:gosec // path is chosen by the caller
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Series{}, fmt.Errorf("%w: %s: %w", table.ErrFileNotFound, path, err)
		}
		return Series{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	s, err := Decode(f, scheme, delim, path)
	if err != nil {
		return Series{}, err
	}
	s.UUID = id
	return s, nil
}

// Decode reads the samples of a series in the given scheme from r.
func Decode(r io.Reader, scheme models.ColumnScheme, delim rune, source string) (Series, error) {
	if delim == 0 {
		delim = table.DefaultDelimiter
	}
	cr := csv.NewReader(r)
	cr.Comma = delim

	header, err := cr.Read()
	if err != nil {
		return Series{}, &table.SchemaError{Source: source, Line: 1, Reason: "reading header", Err: err}
	}
	position := make(map[string]int, len(header))
	for i, name := range header {
		position[strings.TrimSpace(name)] = i
	}
	cols := append([]string{timeColumn}, scheme.Columns()...)
	for _, name := range cols {
		if _, ok := position[name]; !ok {
			return Series{}, &table.SchemaError{Source: source, Line: 1, Column: name, Reason: "missing required column"}
		}
	}

	s := Series{Scheme: scheme}
	for line := 2; ; line++ {
		rec, readErr := cr.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return Series{}, &table.SchemaError{Source: source, Line: line, Reason: "reading record", Err: readErr}
		}
		ts, parseErr := time.Parse(time.RFC3339Nano, strings.TrimSpace(rec[position[timeColumn]]))
		if parseErr != nil {
			return Series{}, &table.SchemaError{Source: source, Line: line, Column: timeColumn, Reason: "invalid value", Err: parseErr}
		}
		p := Point{Time: ts.UTC(), Values: make([]float64, 0, len(cols)-1)}
		for _, name := range cols[1:] {
			v, convErr := strconv.ParseFloat(strings.TrimSpace(rec[position[name]]), 64)
			if convErr != nil {
				return Series{}, &table.SchemaError{Source: source, Line: line, Column: name, Reason: "invalid value", Err: convErr}
			}
			p.Values = append(p.Values, v)
		}
		s.Points = append(s.Points, p)
	}
	return s, nil
}

// WriteCSV writes the series into dir under its file name. A series without
// samples writes nothing and returns false.
func (s Series) WriteCSV(dir string, opts table.WriteOptions) (bool, error) {
	if len(s.Points) == 0 {
		return false, nil
	}
	if err := s.checkPoints(); err != nil {
		return false, err
	}
	if opts.Mkdirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return false, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	delim := opts.Delimiter
	if delim == 0 {
		delim = table.DefaultDelimiter
	}
	path := filepath.Join(dir, FileName(s.Scheme, s.UUID))
	f, err := os.Create(path) //nolint:gosec // path is built from a validated key
	if err != nil {
		return false, fmt.Errorf("creating %s: %w", path, err)
	}
	cw := csv.NewWriter(f)
	cw.Comma = delim
	records := make([][]string, 0, len(s.Points)+1)
	records = append(records, append([]string{timeColumn}, s.Scheme.Columns()...))
	for _, p := range s.Points {
		rec := make([]string, 0, len(p.Values)+1)
		rec = append(rec, p.Time.UTC().Format(time.RFC3339Nano))
		for _, v := range p.Values {
			rec = append(rec, strconv.FormatFloat(v, 'f', -1, 64))
		}
		records = append(records, rec)
	}
	if err := cw.WriteAll(records); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("closing %s: %w", path, err)
	}
	return true, nil
}

// Set is an immutable collection of series keyed by entity.
type Set struct {
	series map[uuid.UUID]Series
}

// NewSet returns a set holding the given series. Later series with the same
// key replace earlier ones.
func NewSet(series ...Series) *Set {
	s := &Set{series: make(map[uuid.UUID]Series, len(series))}
	for i := range series {
		s.series[series[i].UUID] = series[i]
	}
	return s
}

// With returns a new set with series added or replaced.
func (s *Set) With(series ...Series) *Set {
	out := &Set{series: make(map[uuid.UUID]Series, len(s.series)+len(series))}
	for k, v := range s.series {
		out.series[k] = v
	}
	for i := range series {
		out.series[series[i].UUID] = series[i]
	}
	return out
}

// Len returns the number of series.
func (s *Set) Len() int { return len(s.series) }

// Get returns the series of the given entity.
func (s *Set) Get(id uuid.UUID) (Series, bool) {
	v, ok := s.series[id]
	return v, ok
}

// UUIDs returns the keys of all series, sorted.
func (s *Set) UUIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.series))
	for id := range s.series {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// ReadDir loads every series file found directly in dir.
func ReadDir(dir string, delim rune) (*Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var series []Series
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, _, ok := ParseFileName(e.Name()); !ok {
			continue
		}
		s, err := ReadCSV(filepath.Join(dir, e.Name()), delim)
		if err != nil {
			return nil, err
		}
		series = append(series, s)
	}
	return NewSet(series...), nil
}

// WriteDir writes every non-empty series into dir and returns how many files
// were written.
func (s *Set) WriteDir(dir string, opts table.WriteOptions) (int, error) {
	n := 0
	for _, id := range s.UUIDs() {
		written, err := s.series[id].WriteCSV(dir, opts)
		if err != nil {
			return n, err
		}
		if written {
			n++
		}
	}
	return n, nil
}
