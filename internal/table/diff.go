package table

import (
	"github.com/google/uuid"
)

type keyedRecords struct {
	order  []uuid.UUID
	values map[uuid.UUID]map[string]string
}

func keyed(c AnyCollection) keyedRecords {
	header := c.Header()
	kr := keyedRecords{values: make(map[uuid.UUID]map[string]string, c.Len())}
	for _, rec := range c.Records() {
		id := uuid.MustParse(rec[0])
		row := make(map[string]string, len(header))
		for i := 1; i < len(header); i++ {
			row[header[i]] = rec[i]
		}
		kr.order = append(kr.order, id)
		kr.values[id] = row
	}
	return kr
}

// Diff compares two collections as unordered keyed row sets and returns every
// difference: rows present on one side only and cells that differ. Row order
// is not significant. Columns missing on one side compare as empty cells.
func Diff(left, right AnyCollection) []*RowDiff {
	et := left.EntityType()
	l, r := keyed(left), keyed(right)

	columns := left.Header()[1:]
	seenCol := make(map[string]bool, len(columns))
	for _, name := range columns {
		seenCol[name] = true
	}
	for _, name := range right.Header()[1:] {
		if !seenCol[name] {
			seenCol[name] = true
			columns = append(columns, name)
		}
	}

	var diffs []*RowDiff
	for _, id := range l.order {
		rrow, ok := r.values[id]
		if !ok {
			diffs = append(diffs, &RowDiff{EntityType: et, UUID: id, Reason: "missing on right"})
			continue
		}
		lrow := l.values[id]
		for _, name := range columns {
			if lrow[name] != rrow[name] {
				diffs = append(diffs, &RowDiff{
					EntityType: et,
					UUID:       id,
					Column:     name,
					Left:       lrow[name],
					Right:      rrow[name],
					Reason:     "value differs",
				})
			}
		}
	}
	for _, id := range r.order {
		if _, ok := l.values[id]; !ok {
			diffs = append(diffs, &RowDiff{EntityType: et, UUID: id, Reason: "missing on left"})
		}
	}
	return diffs
}
