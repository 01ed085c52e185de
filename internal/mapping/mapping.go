// Package mapping implements the external mapping table, which links selected
// grid entities to externally facing identifiers and tags each with its time
// series column scheme and data type.
package mapping

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ajitpratap0/gridkit/internal/grid"
	"github.com/ajitpratap0/gridkit/internal/metrics"
	"github.com/ajitpratap0/gridkit/internal/models"
	"github.com/ajitpratap0/gridkit/internal/table"
)

// DefaultFileName is the file the mapping table is stored under.
var DefaultFileName = models.EntityTypeExtMapping.FileName()

// Schema declares ext_mapping.csv.
var Schema = table.NewSchema(models.EntityTypeExtMapping,
	func(r *models.MappingEntry) *models.Row { return &r.Row },
	table.String("id", func(r *models.MappingEntry) *string { return &r.ID }),
	table.Enum("column_scheme", func(r *models.MappingEntry) *models.ColumnScheme { return &r.ColumnScheme }),
	table.Enum("data_type", func(r *models.MappingEntry) *models.DataType { return &r.DataType }),
).WithLabel(func(r *models.MappingEntry) string { return r.ID })

// columnSchemes lists the time series columns each entity type expects.
var columnSchemes = map[models.EntityType]models.ColumnScheme{
	models.EntityTypeNode:         models.ColumnSchemeVoltage,
	models.EntityTypeLine:         models.ColumnSchemeCurrent,
	models.EntityTypeLoad:         models.ColumnSchemeApparentPower,
	models.EntityTypeFixedFeedIn:  models.ColumnSchemeApparentPower,
	models.EntityTypePV:           models.ColumnSchemeActivePower,
	models.EntityTypeWec:          models.ColumnSchemeActivePower,
	models.EntityTypeBM:           models.ColumnSchemeActivePower,
	models.EntityTypeStorage:      models.ColumnSchemeApparentPower,
	models.EntityTypeEV:           models.ColumnSchemeApparentPower,
	models.EntityTypeHP:           models.ColumnSchemeApparentPowerAndHeat,
	models.EntityTypeThermalHouse: models.ColumnSchemeHeatDemand,
}

// SchemeFor returns the column scheme declared for et.
func SchemeFor(et models.EntityType) (models.ColumnScheme, error) {
	cs, ok := columnSchemes[et]
	if !ok {
		return "", &table.SchemaError{EntityType: et, Column: "column_scheme", Reason: "no column scheme declared"}
	}
	return cs, nil
}

// Table is an immutable external mapping table.
type Table struct {
	entries *table.Collection[models.MappingEntry]
}

// Empty returns a table without entries.
func Empty() *Table {
	return &Table{entries: table.Empty(Schema)}
}

// New returns a table holding entries.
func New(entries ...models.MappingEntry) (*Table, error) {
	return Empty().AddEntries(entries...)
}

// FromGrid builds mapping entries for the given entities of ct. primary and
// em list the primary and energy management inputs per entity type; results
// lists result outputs, which are tagged grid_result for grid elements and
// participant_result for participants. The external id of each entry is the
// entity's label.
func FromGrid(ct *grid.Container, primary, em, results map[models.EntityType][]uuid.UUID) (*Table, error) {
	var entries []models.MappingEntry
	add := func(selection map[models.EntityType][]uuid.UUID, dataType func(models.EntityType) models.DataType) error {
		for et := range selection {
			if _, err := ct.GetWithEnum(et); err != nil {
				return err
			}
		}
		// Container order keeps the output deterministic.
		for _, et := range models.ValidEntityTypes {
			ids, ok := selection[et]
			if !ok {
				continue
			}
			batch, err := entriesFor(ct, et, ids, dataType(et))
			if err != nil {
				return err
			}
			entries = append(entries, batch...)
		}
		return nil
	}

	if err := add(primary, func(models.EntityType) models.DataType { return models.DataTypePrimaryInput }); err != nil {
		return nil, err
	}
	if err := add(em, func(models.EntityType) models.DataType { return models.DataTypeEmInput }); err != nil {
		return nil, err
	}
	if err := add(results, resultDataType); err != nil {
		return nil, err
	}
	return New(entries...)
}

func resultDataType(et models.EntityType) models.DataType {
	if et.IsGridElement() {
		return models.DataTypeGridResult
	}
	return models.DataTypeParticipantResult
}

func entriesFor(ct *grid.Container, et models.EntityType, ids []uuid.UUID, dt models.DataType) ([]models.MappingEntry, error) {
	cs, err := SchemeFor(et)
	if err != nil {
		return nil, err
	}
	c, _ := ct.GetWithEnum(et)
	out := make([]models.MappingEntry, 0, len(ids))
	for _, id := range ids {
		label, ok := c.Label(id)
		if !ok {
			return nil, &grid.ReferentialError{
				Source:  models.EntityTypeExtMapping,
				Row:     id,
				Field:   "uuid",
				Target:  et,
				Missing: id,
			}
		}
		out = append(out, models.MappingEntry{
			Row:          models.Row{UUID: id},
			ID:           label,
			ColumnScheme: cs,
			DataType:     dt,
		})
	}
	return out, nil
}

// AddEntry returns a new table with e appended.
func (t *Table) AddEntry(e models.MappingEntry) (*Table, error) {
	return t.AddEntries(e)
}

// AddEntries returns a new table with entries appended. The receiver is left
// unchanged. Keys must not already be present.
func (t *Table) AddEntries(entries ...models.MappingEntry) (*Table, error) {
	c, err := t.entries.Append(entries...)
	if err != nil {
		return nil, err
	}
	metrics.Add(metrics.MappingEntriesAdded, len(entries))
	return &Table{entries: c}, nil
}

// Len returns the number of entries.
func (t *Table) Len() int { return t.entries.Len() }

// Entries returns the entries in insertion order.
func (t *Table) Entries() []models.MappingEntry { return t.entries.Rows() }

// Get returns the entry for an entity.
func (t *Table) Get(id uuid.UUID) (models.MappingEntry, bool) { return t.entries.Get(id) }

// ByDataType returns the entries tagged dt.
func (t *Table) ByDataType(dt models.DataType) []models.MappingEntry {
	return t.entries.Filter(func(e models.MappingEntry) bool { return e.DataType == dt }).Rows()
}

// Collection exposes the entries as a collection.
func (t *Table) Collection() *table.Collection[models.MappingEntry] { return t.entries }

// ToCSV writes the table to path. An empty table writes nothing and returns false.
func (t *Table) ToCSV(path string, opts table.WriteOptions) (bool, error) {
	return t.entries.WriteCSV(path, opts)
}

// FromCSV loads a table from path. When mustExist is false a missing file
// yields an empty table; a malformed file is always an error.
func FromCSV(path string, delim rune, mustExist bool) (*Table, error) {
	c, err := table.ReadCSV(Schema, path, delim)
	if err != nil {
		if !mustExist && errors.Is(err, table.ErrFileNotFound) {
			return Empty(), nil
		}
		return nil, fmt.Errorf("loading mapping: %w", err)
	}
	return &Table{entries: c}, nil
}
