package table

import (
	"github.com/google/uuid"

	"github.com/ajitpratap0/gridkit/internal/models"
)

// KeyColumn is the name of the primary key column. It is always written first.
const KeyColumn = "uuid"

// Schema declares the attributes of a record type in the order they are
// written, plus the hooks the collection needs to key, label, validate and
// follow references of a record.
type Schema[T any] struct {
	entityType models.EntityType
	row        func(*T) *models.Row
	columns    []Column[T]
	label      func(*T) string
	refs       func(*T) []models.Ref
	validate   func(*T) error
}

// NewSchema declares a schema for records of type T. row gives access to the
// key and pass-through columns of a record.
func NewSchema[T any](et models.EntityType, row func(*T) *models.Row, cols ...Column[T]) *Schema[T] {
	return &Schema[T]{
		entityType: et,
		row:        row,
		columns:    cols,
	}
}

// WithLabel sets the function returning the human-readable label of a record.
func (s *Schema[T]) WithLabel(fn func(*T) string) *Schema[T] {
	s.label = fn
	return s
}

// WithRefs sets the function listing the references a record holds.
func (s *Schema[T]) WithRefs(fn func(*T) []models.Ref) *Schema[T] {
	s.refs = fn
	return s
}

// WithValidator sets a per-record validation hook.
func (s *Schema[T]) WithValidator(fn func(*T) error) *Schema[T] {
	s.validate = fn
	return s
}

// EntityType returns the entity type the schema describes.
func (s *Schema[T]) EntityType() models.EntityType { return s.entityType }

// Columns returns the declared column names, key column first.
func (s *Schema[T]) Columns() []string {
	names := make([]string, 0, len(s.columns)+1)
	names = append(names, KeyColumn)
	for i := range s.columns {
		names = append(names, s.columns[i].Name)
	}
	return names
}

// RequiredColumns returns the columns a file must contain, key column first.
func (s *Schema[T]) RequiredColumns() []string {
	names := []string{KeyColumn}
	for i := range s.columns {
		if !s.columns[i].optional {
			names = append(names, s.columns[i].Name)
		}
	}
	return names
}

// Key returns the primary key of r.
func (s *Schema[T]) Key(r *T) uuid.UUID {
	return s.row(r).UUID
}

func (s *Schema[T]) check(r *T) error {
	if s.validate == nil {
		return nil
	}
	return s.validate(r)
}
