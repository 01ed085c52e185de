package table

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ajitpratap0/gridkit/internal/models"
)

// ErrFileNotFound is returned when a required CSV file does not exist.
var ErrFileNotFound = errors.New("csv file not found")

// SchemaError reports a file or record that does not match its declared schema.
type SchemaError struct {
	EntityType models.EntityType
	Source     string
	Column     string
	Line       int
	UUID       uuid.UUID
	Reason     string
	Err        error
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("schema error")
	if e.EntityType != "" {
		fmt.Fprintf(&b, " in %s", e.EntityType)
	}
	if e.Source != "" {
		fmt.Fprintf(&b, " (%s", e.Source)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
		}
		b.WriteString(")")
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %q", e.Column)
	}
	if e.UUID != uuid.Nil {
		fmt.Fprintf(&b, " row %s", e.UUID)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *SchemaError) Unwrap() error { return e.Err }

// RowDiff is one difference found when comparing two collections.
type RowDiff struct {
	EntityType models.EntityType
	UUID       uuid.UUID
	Column     string
	Left       string
	Right      string
	Reason     string
}

func (d *RowDiff) Error() string {
	if d.Column == "" {
		return fmt.Sprintf("%s %s: %s", d.EntityType, d.UUID, d.Reason)
	}
	return fmt.Sprintf("%s %s column %q: %s (%q != %q)", d.EntityType, d.UUID, d.Column, d.Reason, d.Left, d.Right)
}
