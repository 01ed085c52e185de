package grid

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ajitpratap0/gridkit/internal/metrics"
	"github.com/ajitpratap0/gridkit/internal/table"
	"github.com/ajitpratap0/gridkit/internal/timeseries"
)

// WriteOptions controls how a container is written to disk.
type WriteOptions struct {
	IncludePrimary bool
	Mkdirs         bool
	Delimiter      rune
}

// FromCSV loads a container from the per-type files in dir. The node file is
// required; every other collection file is optional and an absent file yields
// an empty collection. Primary series files found in dir are loaded as well.
func FromCSV(dir string, delim rune) (*Container, error) {
	nodes, err := table.ReadCSV(NodeSchema, filepath.Join(dir, NodeSchema.EntityType().FileName()), delim)
	if err != nil {
		return nil, err
	}
	var c Collections
	c.Nodes = nodes
	if c.Lines, err = readOptional(LineSchema, dir, delim); err != nil {
		return nil, err
	}
	if c.Switches, err = readOptional(SwitchSchema, dir, delim); err != nil {
		return nil, err
	}
	if c.Loads, err = readOptional(LoadSchema, dir, delim); err != nil {
		return nil, err
	}
	if c.FixedFeedIns, err = readOptional(FixedFeedInSchema, dir, delim); err != nil {
		return nil, err
	}
	if c.PVs, err = readOptional(PVSchema, dir, delim); err != nil {
		return nil, err
	}
	if c.Wecs, err = readOptional(WecSchema, dir, delim); err != nil {
		return nil, err
	}
	if c.BMs, err = readOptional(BMSchema, dir, delim); err != nil {
		return nil, err
	}
	if c.Storages, err = readOptional(StorageSchema, dir, delim); err != nil {
		return nil, err
	}
	if c.EVs, err = readOptional(EVSchema, dir, delim); err != nil {
		return nil, err
	}
	if c.HPs, err = readOptional(HPSchema, dir, delim); err != nil {
		return nil, err
	}
	if c.ThermalBuses, err = readOptional(ThermalBusSchema, dir, delim); err != nil {
		return nil, err
	}
	if c.ThermalHouses, err = readOptional(ThermalHouseSchema, dir, delim); err != nil {
		return nil, err
	}
	if c.Primary, err = timeseries.ReadDir(dir, delim); err != nil {
		return nil, fmt.Errorf("loading primary data: %w", err)
	}

	ct, err := NewContainer(c)
	if err != nil {
		return nil, err
	}
	metrics.Inc(metrics.ContainersLoaded)
	return ct, nil
}

func readOptional[T any](s *table.Schema[T], dir string, delim rune) (*table.Collection[T], error) {
	c, err := table.ReadCSV(s, filepath.Join(dir, s.EntityType().FileName()), delim)
	if errors.Is(err, table.ErrFileNotFound) {
		return table.Empty(s), nil
	}
	return c, err
}

// ToCSV writes every non-empty collection into dir, one file per entity
// type, and the primary series when opts.IncludePrimary is set. It returns
// the paths of the files written.
func (ct *Container) ToCSV(dir string, opts WriteOptions) ([]string, error) {
	wo := table.WriteOptions{Mkdirs: opts.Mkdirs, Delimiter: opts.Delimiter}
	var written []string
	for _, c := range ct.ToList(false) {
		path := filepath.Join(dir, c.EntityType().FileName())
		ok, err := c.WriteCSV(path, wo)
		if err != nil {
			return written, err
		}
		if ok {
			written = append(written, path)
		}
	}
	if !opts.IncludePrimary {
		return written, nil
	}
	for _, id := range ct.c.Primary.UUIDs() {
		s, _ := ct.c.Primary.Get(id)
		ok, err := s.WriteCSV(dir, wo)
		if err != nil {
			return written, err
		}
		if ok {
			written = append(written, filepath.Join(dir, timeseries.FileName(s.Scheme, s.UUID)))
		}
	}
	return written, nil
}
