package grid

import (
	"fmt"
	"slices"

	"github.com/ajitpratap0/gridkit/internal/metrics"
	"github.com/ajitpratap0/gridkit/internal/models"
	"github.com/ajitpratap0/gridkit/internal/table"
	"github.com/ajitpratap0/gridkit/internal/timeseries"
)

// Compare checks two containers for equality, treating every collection as
// an unordered keyed row set. All differences are collected into a single
// *AggregateComparisonError; nil means the containers hold the same data.
func Compare(a, b *Container) error {
	var failures []error
	for _, et := range models.ValidEntityTypes {
		left, err := a.GetWithEnum(et)
		if err != nil {
			return err
		}
		right, err := b.GetWithEnum(et)
		if err != nil {
			return err
		}
		for _, d := range table.Diff(left, right) {
			failures = append(failures, d)
		}
	}
	failures = append(failures, comparePrimary(a.Primary(), b.Primary())...)

	if len(failures) == 0 {
		return nil
	}
	metrics.Add(metrics.ComparisonDifferences, len(failures))
	return &AggregateComparisonError{Failures: failures}
}

func comparePrimary(a, b *timeseries.Set) []error {
	var failures []error
	for _, id := range a.UUIDs() {
		left, _ := a.Get(id)
		right, ok := b.Get(id)
		if !ok {
			failures = append(failures, fmt.Errorf("primary series %s: missing on right", id))
			continue
		}
		if left.Scheme != right.Scheme {
			failures = append(failures, fmt.Errorf("primary series %s: scheme %q != %q", id, left.Scheme, right.Scheme))
			continue
		}
		if left.Len() != right.Len() {
			failures = append(failures, fmt.Errorf("primary series %s: %d samples != %d", id, left.Len(), right.Len()))
			continue
		}
		for i := range left.Points {
			lp, rp := left.Points[i], right.Points[i]
			if !lp.Time.Equal(rp.Time) || !slices.Equal(lp.Values, rp.Values) {
				failures = append(failures, fmt.Errorf("primary series %s: sample %d differs", id, i))
				break
			}
		}
	}
	for _, id := range b.UUIDs() {
		if _, ok := a.Get(id); !ok {
			failures = append(failures, fmt.Errorf("primary series %s: missing on left", id))
		}
	}
	return failures
}
