package grid_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/gridkit/internal/grid"
	"github.com/ajitpratap0/gridkit/internal/grid/gridtest"
	"github.com/ajitpratap0/gridkit/internal/models"
	"github.com/ajitpratap0/gridkit/internal/table"
	"github.com/ajitpratap0/gridkit/internal/timeseries"
)

func TestNewContainer_FillsEmptyCollections(t *testing.T) {
	ct, err := grid.NewContainer(grid.Collections{})
	require.NoError(t, err)

	all := ct.ToList(true)
	require.Len(t, all, len(models.ValidEntityTypes))
	for i, c := range all {
		assert.Equal(t, models.ValidEntityTypes[i], c.EntityType())
		assert.Equal(t, 0, c.Len())
	}
	assert.Empty(t, ct.ToList(false))
	assert.Equal(t, 0, ct.Primary().Len())
	assert.Equal(t, 0, ct.Len())
}

func TestGetWithEnum(t *testing.T) {
	f := gridtest.Sample(t)

	for _, et := range models.ValidEntityTypes {
		c, err := f.Container.GetWithEnum(et)
		require.NoError(t, err, et)
		assert.Equal(t, et, c.EntityType())
	}

	c, err := f.Container.GetWithEnum(models.EntityTypeLoad)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{f.P1.UUID, f.P2.UUID}, c.UUIDs())

	for _, et := range []models.EntityType{models.EntityTypeExtMapping, "transformer_2_w"} {
		_, err := f.Container.GetWithEnum(et)
		require.ErrorIs(t, err, grid.ErrUnknownEntityType)
	}
}

func TestToList_IncludeEmpty(t *testing.T) {
	f := gridtest.Sample(t)

	var types []models.EntityType
	for _, c := range f.Container.ToList(false) {
		types = append(types, c.EntityType())
	}
	assert.Equal(t, []models.EntityType{
		models.EntityTypeNode,
		models.EntityTypeLine,
		models.EntityTypeSwitch,
		models.EntityTypeLoad,
		models.EntityTypePV,
		models.EntityTypeHP,
		models.EntityTypeThermalBus,
		models.EntityTypeThermalHouse,
	}, types)
	assert.Len(t, f.Container.ToList(true), len(models.ValidEntityTypes))
	assert.Equal(t, 12, f.Container.Len())
}

func TestEachParticipant(t *testing.T) {
	f := gridtest.Sample(t)

	seen := map[uuid.UUID]models.EntityType{}
	f.Container.EachParticipant(func(et models.EntityType, id uuid.UUID, p models.Participant) {
		seen[id] = et
		assert.NotEqual(t, uuid.Nil, p.NodeUUID())
	})
	assert.Equal(t, map[uuid.UUID]models.EntityType{
		f.P1.UUID:  models.EntityTypeLoad,
		f.P2.UUID:  models.EntityTypeLoad,
		f.P3.UUID:  models.EntityTypePV,
		f.HP1.UUID: models.EntityTypeHP,
	}, seen)
}

func TestValidate_ReferentialIntegrity(t *testing.T) {
	f := gridtest.Sample(t)

	nodes := f.Container.Nodes()
	buses := f.Container.ThermalBuses()
	for _, c := range f.Container.ToList(false) {
		c.EachRef(func(row uuid.UUID, ref models.Ref) {
			switch ref.Target {
			case models.EntityTypeNode:
				assert.True(t, nodes.Contains(ref.UUID), "%s %s %s", c.EntityType(), row, ref.Field)
			case models.EntityTypeThermalBus:
				assert.True(t, buses.Contains(ref.UUID), "%s %s %s", c.EntityType(), row, ref.Field)
			default:
				t.Errorf("unexpected reference target %q", ref.Target)
			}
		})
	}
}

func TestValidate_DanglingReferences(t *testing.T) {
	n1 := gridtest.Node("N1")
	bus := gridtest.ThermalBus("TB")
	ghost := uuid.New()

	tests := []struct {
		name   string
		c      grid.Collections
		source models.EntityType
		field  string
		target models.EntityType
	}{
		{
			name: "line node_b",
			c: grid.Collections{
				Lines: gridtest.Collection(t, grid.LineSchema, gridtest.Line("L", n1.UUID, ghost)),
			},
			source: models.EntityTypeLine,
			field:  "node_b",
			target: models.EntityTypeNode,
		},
		{
			name: "switch node_a",
			c: grid.Collections{
				Switches: gridtest.Collection(t, grid.SwitchSchema, gridtest.Switch("S", ghost, n1.UUID, true)),
			},
			source: models.EntityTypeSwitch,
			field:  "node_a",
			target: models.EntityTypeNode,
		},
		{
			name: "participant node",
			c: grid.Collections{
				PVs: gridtest.Collection(t, grid.PVSchema, gridtest.PV("PV", ghost, 5)),
			},
			source: models.EntityTypePV,
			field:  "node",
			target: models.EntityTypeNode,
		},
		{
			name: "heat pump thermal bus",
			c: grid.Collections{
				HPs: gridtest.Collection(t, grid.HPSchema, gridtest.HP("HP", n1.UUID, ghost, 3)),
			},
			source: models.EntityTypeHP,
			field:  "thermal_bus",
			target: models.EntityTypeThermalBus,
		},
		{
			name: "thermal house bus",
			c: grid.Collections{
				ThermalHouses: gridtest.Collection(t, grid.ThermalHouseSchema, gridtest.ThermalHouse("H", ghost)),
			},
			source: models.EntityTypeThermalHouse,
			field:  "thermal_bus",
			target: models.EntityTypeThermalBus,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.c.Nodes = gridtest.Collection(t, grid.NodeSchema, n1)
			tc.c.ThermalBuses = gridtest.Collection(t, grid.ThermalBusSchema, bus)

			_, err := grid.NewContainer(tc.c)
			var refErr *grid.ReferentialError
			require.ErrorAs(t, err, &refErr)
			assert.Equal(t, tc.source, refErr.Source)
			assert.Equal(t, tc.field, refErr.Field)
			assert.Equal(t, tc.target, refErr.Target)
			assert.Equal(t, ghost, refErr.Missing)
		})
	}
}

func TestValidate_ReportsEveryDanglingReference(t *testing.T) {
	n1 := gridtest.Node("N1")
	g1, g2 := uuid.New(), uuid.New()

	_, err := grid.NewContainer(grid.Collections{
		Nodes: gridtest.Collection(t, grid.NodeSchema, n1),
		Lines: gridtest.Collection(t, grid.LineSchema,
			gridtest.Line("L1", n1.UUID, g1),
			gridtest.Line("L2", g2, n1.UUID),
		),
	})
	require.Error(t, err)

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok, "expected a joined error, got %T", err)
	var missing []uuid.UUID
	for _, e := range joined.Unwrap() {
		var refErr *grid.ReferentialError
		require.ErrorAs(t, e, &refErr)
		assert.Equal(t, models.EntityTypeLine, refErr.Source)
		missing = append(missing, refErr.Missing)
	}
	assert.ElementsMatch(t, []uuid.UUID{g1, g2}, missing)
	assert.Contains(t, err.Error(), g1.String())
	assert.Contains(t, err.Error(), g2.String())
}

func TestValidate_PrimarySeriesMustReferenceParticipant(t *testing.T) {
	n1 := gridtest.Node("N1")
	_, err := grid.NewContainer(grid.Collections{
		Nodes:   gridtest.Collection(t, grid.NodeSchema, n1),
		Primary: timeseries.NewSet(timeseries.Series{UUID: n1.UUID, Scheme: models.ColumnSchemeActivePower}),
	})
	var refErr *grid.ReferentialError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, n1.UUID, refErr.Missing)
}

func TestContainer_RoundTrip(t *testing.T) {
	f := gridtest.Sample(t)
	dir := filepath.Join(t.TempDir(), "out", "grid")

	written, err := f.Container.ToCSV(dir, grid.WriteOptions{IncludePrimary: true, Mkdirs: true})
	require.NoError(t, err)
	assert.Len(t, written, 9)
	assert.Contains(t, written, filepath.Join(dir, timeseries.FileName(f.Series.Scheme, f.P1.UUID)))

	// Empty collections leave no file behind.
	for _, et := range []models.EntityType{models.EntityTypeEV, models.EntityTypeWec, models.EntityTypeStorage} {
		_, statErr := os.Stat(filepath.Join(dir, et.FileName()))
		assert.True(t, os.IsNotExist(statErr), et)
	}

	back, err := grid.FromCSV(dir, table.DefaultDelimiter)
	require.NoError(t, err)
	require.NoError(t, grid.Compare(f.Container, back))
	assert.Equal(t, 1, back.Primary().Len())
}

func TestContainer_ToCSVWithoutPrimary(t *testing.T) {
	f := gridtest.Sample(t)
	dir := t.TempDir()

	written, err := f.Container.ToCSV(dir, grid.WriteOptions{Delimiter: ';'})
	require.NoError(t, err)
	assert.Len(t, written, 8)

	back, err := grid.FromCSV(dir, ';')
	require.NoError(t, err)
	assert.Equal(t, 0, back.Primary().Len())

	err = grid.Compare(f.Container, back)
	var agg *grid.AggregateComparisonError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Failures, 1)
	assert.Contains(t, agg.Failures[0].Error(), "missing on right")
}

func TestFromCSV_NodesRequired(t *testing.T) {
	_, err := grid.FromCSV(t.TempDir(), table.DefaultDelimiter)
	require.ErrorIs(t, err, table.ErrFileNotFound)
}

func TestFromCSV_PropagatesReferentialError(t *testing.T) {
	dir := t.TempDir()
	n1 := gridtest.Node("N1")
	nodes := gridtest.Collection(t, grid.NodeSchema, n1)
	lines := gridtest.Collection(t, grid.LineSchema, gridtest.Line("L", n1.UUID, uuid.New()))
	_, err := nodes.WriteCSV(filepath.Join(dir, "node_input.csv"), table.WriteOptions{})
	require.NoError(t, err)
	_, err = lines.WriteCSV(filepath.Join(dir, "line_input.csv"), table.WriteOptions{})
	require.NoError(t, err)

	_, err = grid.FromCSV(dir, table.DefaultDelimiter)
	var refErr *grid.ReferentialError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, models.EntityTypeLine, refErr.Source)
}

func TestCompare_CollectsEveryDifference(t *testing.T) {
	f := gridtest.Sample(t)
	c := f.Container.Collections()

	changed := f.P2
	changed.SRated = 60
	extra := gridtest.Load("P4", f.N2.UUID, 1)
	loads := gridtest.Collection(t, grid.LoadSchema, f.P1, changed, extra)
	c.Loads = loads
	c.PVs = nil
	other, err := grid.NewContainer(c)
	require.NoError(t, err)

	err = grid.Compare(f.Container, other)
	var agg *grid.AggregateComparisonError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Failures, 3)

	var reasons []string
	for _, failure := range agg.Failures {
		var d *table.RowDiff
		require.ErrorAs(t, failure, &d)
		reasons = append(reasons, d.Reason)
	}
	assert.ElementsMatch(t, []string{"value differs", "missing on left", "missing on right"}, reasons)

	var d *table.RowDiff
	require.ErrorAs(t, err, &d)
	assert.Contains(t, err.Error(), "3 differences")
}
