package graphdb_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/gridkit/internal/graphdb"
	"github.com/ajitpratap0/gridkit/internal/grid"
	"github.com/ajitpratap0/gridkit/internal/grid/gridtest"
	"github.com/ajitpratap0/gridkit/internal/models"
)

type fakeRunner struct {
	statements []graphdb.Statement
	failOn     string
}

func (f *fakeRunner) Run(_ context.Context, st graphdb.Statement) (graphdb.Counts, error) {
	if st.Name == f.failOn {
		return graphdb.Counts{}, errors.New("neo4j unavailable")
	}
	f.statements = append(f.statements, st)
	rows, _ := st.Params["rows"].([]any)
	return graphdb.Counts{NodesCreated: len(rows)}, nil
}

func (f *fakeRunner) names() []string {
	out := make([]string, 0, len(f.statements))
	for _, st := range f.statements {
		out = append(out, st.Name)
	}
	return out
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func rowsOf(t *testing.T, st graphdb.Statement) []map[string]any {
	t.Helper()
	raw, ok := st.Params["rows"].([]any)
	require.True(t, ok)
	out := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		m, ok := r.(map[string]any)
		require.True(t, ok)
		out = append(out, m)
	}
	return out
}

func TestBuildStatements_Order(t *testing.T) {
	f := gridtest.Sample(t)
	sts := graphdb.BuildStatements(f.Container, 0)

	var names []string
	for _, st := range sts {
		names = append(names, st.Name)
	}
	assert.Equal(t, []string{
		"constraint_node",
		"constraint_participant",
		"constraint_thermal_bus",
		"constraint_thermal_house",
		"nodes",
		"thermal_buses",
		"lines",
		"switches",
		"participants_load",
		"participants_pv",
		"participants_hp",
		"heat_pump_buses",
		"thermal_houses",
	}, names)
}

func TestBuildStatements_Rows(t *testing.T) {
	f := gridtest.Sample(t)
	byName := map[string]graphdb.Statement{}
	for _, st := range graphdb.BuildStatements(f.Container, 0) {
		byName[st.Name] = st
	}

	lines := rowsOf(t, byName["lines"])
	require.Len(t, lines, 2)
	assert.Equal(t, f.L1.UUID.String(), lines[0]["uuid"])
	assert.Equal(t, f.N1.UUID.String(), lines[0]["node_a"])
	props := lines[1]["props"].(map[string]any)
	assert.Equal(t, "L2", props["id"])
	assert.Equal(t, true, props["disconnected"])
	assert.Equal(t, false, lines[0]["props"].(map[string]any)["disconnected"])

	loads := byName["participants_load"]
	assert.Equal(t, "load", loads.Params["type"])
	loadRows := rowsOf(t, loads)
	require.Len(t, loadRows, 2)
	assert.Equal(t, f.N1.UUID.String(), loadRows[0]["node"])
	assert.Equal(t, 4.0, loadRows[0]["props"].(map[string]any)["s_rated"])

	hp := rowsOf(t, byName["heat_pump_buses"])
	require.Len(t, hp, 1)
	assert.Equal(t, f.TB1.UUID.String(), hp[0]["thermal_bus"])
}

func TestBuildStatements_Batches(t *testing.T) {
	nodes := make([]models.Node, 0, 5)
	for i := 0; i < 5; i++ {
		nodes = append(nodes, gridtest.Node("N"))
	}
	ct, err := grid.NewContainer(grid.Collections{
		Nodes: gridtest.Collection(t, grid.NodeSchema, nodes...),
	})
	require.NoError(t, err)

	var sizes []int
	for _, st := range graphdb.BuildStatements(ct, 2) {
		if st.Name == "nodes" {
			sizes = append(sizes, len(rowsOf(t, st)))
		}
	}
	assert.Equal(t, []int{2, 2, 1}, sizes)
}

func TestExport(t *testing.T) {
	f := gridtest.Sample(t)
	runner := &fakeRunner{}
	e := graphdb.NewExporterWithRunner(runner, newLogger())

	counts, err := e.Export(context.Background(), f.Container)
	require.NoError(t, err)
	assert.Equal(t, 13, counts.Statements)
	// Every row of every batched statement counted once by the fake.
	assert.Equal(t, 3+1+2+1+2+1+1+1+1, counts.NodesCreated)
	assert.Len(t, runner.statements, 13)
	require.NoError(t, e.Close(context.Background()))
}

func TestExport_StopsOnFailure(t *testing.T) {
	f := gridtest.Sample(t)
	runner := &fakeRunner{failOn: "switches"}
	e := graphdb.NewExporterWithRunner(runner, newLogger()).WithBatchSize(1)

	_, err := e.Export(context.Background(), f.Container)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "running switches")
	assert.NotContains(t, runner.names(), "participants_load")
}

func TestExport_Canceled(t *testing.T) {
	f := gridtest.Sample(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &fakeRunner{}
	_, err := graphdb.NewExporterWithRunner(runner, newLogger()).Export(ctx, f.Container)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, runner.statements)
}
