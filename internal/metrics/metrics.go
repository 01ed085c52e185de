// Package metrics provides application-level counters using stdlib expvar.
// Counters are automatically exported on the /debug/vars HTTP endpoint
// when expvar's handler is mounted by the API server.
package metrics

import "expvar"

// Operation counters.
var (
	CollectionsLoaded     = expvar.NewInt("gridkit_collections_loaded_total")
	CollectionsWritten    = expvar.NewInt("gridkit_collections_written_total")
	EmptyWritesSkipped    = expvar.NewInt("gridkit_empty_writes_skipped_total")
	ContainersLoaded      = expvar.NewInt("gridkit_containers_loaded_total")
	ViewsComputed         = expvar.NewInt("gridkit_views_computed_total")
	MappingEntriesAdded   = expvar.NewInt("gridkit_mapping_entries_added_total")
	ComparisonDifferences = expvar.NewInt("gridkit_comparison_differences_total")
)

// Inc increments the given counter by 1.
func Inc(counter *expvar.Int) { counter.Add(1) }

// Add increments the given counter by n.
func Add(counter *expvar.Int, n int) { counter.Add(int64(n)) }
