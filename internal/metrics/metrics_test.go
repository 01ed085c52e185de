package metrics_test

import (
	"expvar"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/gridkit/internal/metrics"
)

func TestCountersArePublished(t *testing.T) {
	for _, name := range []string{
		"gridkit_collections_loaded_total",
		"gridkit_collections_written_total",
		"gridkit_empty_writes_skipped_total",
		"gridkit_containers_loaded_total",
		"gridkit_views_computed_total",
		"gridkit_mapping_entries_added_total",
		"gridkit_comparison_differences_total",
	} {
		assert.NotNil(t, expvar.Get(name), name)
	}
}

func TestIncAndAdd(t *testing.T) {
	before := metrics.ViewsComputed.Value()
	metrics.Inc(metrics.ViewsComputed)
	metrics.Add(metrics.ViewsComputed, 3)
	assert.Equal(t, before+4, metrics.ViewsComputed.Value())
}
