package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Column declares one attribute of a record type: its CSV name and how the
// attribute is encoded to and decoded from a cell.
type Column[T any] struct {
	Name     string
	optional bool
	encode   func(*T) string
	decode   func(*T, string) error
}

// IsOptional reports whether the column may be absent from a file.
func (c Column[T]) IsOptional() bool { return c.optional }

// Optional returns a copy of the column that may be absent from a file and
// whose empty cells decode to the zero value.
func (c Column[T]) Optional() Column[T] {
	c.optional = true
	return c
}

func (c Column[T]) decodeCell(r *T, cell string) error {
	if cell == "" && c.optional {
		return nil
	}
	return c.decode(r, cell)
}

// String declares a text attribute.
func String[T any, S ~string](name string, field func(*T) *S) Column[T] {
	return Column[T]{
		Name:   name,
		encode: func(r *T) string { return string(*field(r)) },
		decode: func(r *T, s string) error {
			*field(r) = S(s)
			return nil
		},
	}
}

// Enum declares a text attribute restricted to the values its type accepts.
func Enum[T any, S interface {
	~string
	IsValid() bool
}](name string, field func(*T) *S) Column[T] {
	return Column[T]{
		Name:   name,
		encode: func(r *T) string { return string(*field(r)) },
		decode: func(r *T, s string) error {
			v := S(strings.TrimSpace(s))
			if !v.IsValid() {
				return fmt.Errorf("invalid value %q", s)
			}
			*field(r) = v
			return nil
		},
	}
}

// Float declares a numeric attribute.
func Float[T any](name string, field func(*T) *float64) Column[T] {
	return Column[T]{
		Name:   name,
		encode: func(r *T) string { return strconv.FormatFloat(*field(r), 'f', -1, 64) },
		decode: func(r *T, s string) error {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return fmt.Errorf("parsing float %q: %w", s, err)
			}
			*field(r) = v
			return nil
		},
	}
}

// Int declares an integer attribute.
func Int[T any](name string, field func(*T) *int) Column[T] {
	return Column[T]{
		Name:   name,
		encode: func(r *T) string { return strconv.Itoa(*field(r)) },
		decode: func(r *T, s string) error {
			v, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				return fmt.Errorf("parsing int %q: %w", s, err)
			}
			*field(r) = v
			return nil
		},
	}
}

// Bool declares a boolean attribute.
func Bool[T any](name string, field func(*T) *bool) Column[T] {
	return Column[T]{
		Name:   name,
		encode: func(r *T) string { return strconv.FormatBool(*field(r)) },
		decode: func(r *T, s string) error {
			v, err := strconv.ParseBool(strings.TrimSpace(s))
			if err != nil {
				return fmt.Errorf("parsing bool %q: %w", s, err)
			}
			*field(r) = v
			return nil
		},
	}
}

// Ref declares a mandatory reference to another record.
func Ref[T any](name string, field func(*T) *uuid.UUID) Column[T] {
	return Column[T]{
		Name:   name,
		encode: func(r *T) string { return field(r).String() },
		decode: func(r *T, s string) error {
			v, err := uuid.Parse(strings.TrimSpace(s))
			if err != nil {
				return fmt.Errorf("parsing uuid %q: %w", s, err)
			}
			*field(r) = v
			return nil
		},
	}
}

// OptionalRef declares a reference that may be empty.
func OptionalRef[T any](name string, field func(*T) **uuid.UUID) Column[T] {
	return Column[T]{
		Name:     name,
		optional: true,
		encode: func(r *T) string {
			if v := *field(r); v != nil {
				return v.String()
			}
			return ""
		},
		decode: func(r *T, s string) error {
			v, err := uuid.Parse(strings.TrimSpace(s))
			if err != nil {
				return fmt.Errorf("parsing uuid %q: %w", s, err)
			}
			*field(r) = &v
			return nil
		},
	}
}

// OptionalTime declares a timestamp that may be empty. Values are written as
// RFC 3339 and read back in UTC.
func OptionalTime[T any](name string, field func(*T) **time.Time) Column[T] {
	return Column[T]{
		Name:     name,
		optional: true,
		encode: func(r *T) string {
			if v := *field(r); v != nil {
				return v.UTC().Format(time.RFC3339Nano)
			}
			return ""
		},
		decode: func(r *T, s string) error {
			v, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
			if err != nil {
				return fmt.Errorf("parsing time %q: %w", s, err)
			}
			v = v.UTC()
			*field(r) = &v
			return nil
		},
	}
}
