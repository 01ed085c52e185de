package grid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ajitpratap0/gridkit/internal/models"
)

// ReferentialError reports a record whose reference does not resolve within
// the container.
type ReferentialError struct {
	Source  models.EntityType
	Row     uuid.UUID
	Field   string
	Target  models.EntityType
	Missing uuid.UUID
}

func (e *ReferentialError) Error() string {
	return fmt.Sprintf("referential error: %s %s field %q references unknown %s %s",
		e.Source, e.Row, e.Field, e.Target, e.Missing)
}

// AggregateComparisonError collects every difference found between two
// containers.
type AggregateComparisonError struct {
	Failures []error
}

func (e *AggregateComparisonError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "containers differ (%d differences)", len(e.Failures))
	for _, f := range e.Failures {
		b.WriteString("\n  ")
		b.WriteString(f.Error())
	}
	return b.String()
}

func (e *AggregateComparisonError) Unwrap() []error { return e.Failures }
