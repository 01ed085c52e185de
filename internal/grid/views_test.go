package grid_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/gridkit/internal/grid"
	"github.com/ajitpratap0/gridkit/internal/grid/gridtest"
	"github.com/ajitpratap0/gridkit/internal/models"
)

func TestNodeParticipants_GroupsByNode(t *testing.T) {
	n1, n2, n3 := gridtest.Node("N1"), gridtest.Node("N2"), gridtest.Node("N3")
	p1 := gridtest.Load("P1", n1.UUID, 4)
	p2 := gridtest.Load("P2", n1.UUID, 6)
	p3 := gridtest.PV("P3", n3.UUID, 10)

	ct, err := grid.NewContainer(grid.Collections{
		Nodes: gridtest.Collection(t, grid.NodeSchema, n1, n2, n3),
		Loads: gridtest.Collection(t, grid.LoadSchema, p1, p2),
		PVs:   gridtest.Collection(t, grid.PVSchema, p3),
	})
	require.NoError(t, err)

	np := ct.NodeParticipants()
	require.Len(t, np, 2)
	assert.NotContains(t, np, n2.UUID)

	assert.Equal(t, 2, np[n1.UUID].Total)
	assert.Equal(t, map[models.EntityType]int{models.EntityTypeLoad: 2}, np[n1.UUID].Counts)
	assert.InDelta(t, 10.0, np[n1.UUID].SRated, 1e-9)
	assert.ElementsMatch(t, []uuid.UUID{p1.UUID, p2.UUID}, np[n1.UUID].Participants)

	assert.Equal(t, 1, np[n3.UUID].Total)
	assert.Equal(t, map[models.EntityType]int{models.EntityTypePV: 1}, np[n3.UUID].Counts)
}

func TestNodeParticipants_Cached(t *testing.T) {
	f := gridtest.Sample(t)
	first := f.Container.NodeParticipants()
	second := f.Container.NodeParticipants()
	assert.Equal(t, first, second)
	assert.Equal(t, 3, first[f.N1.UUID].Total)
	assert.Equal(t, 1, first[f.N1.UUID].Counts[models.EntityTypeHP])
}

func TestDisconnectedLines_AuxiliaryNodeRule(t *testing.T) {
	n1, n2, n3 := gridtest.Node("N1"), gridtest.Node("N2"), gridtest.Node("N3")
	l1 := gridtest.Line("L1", n1.UUID, n2.UUID)
	nodes := gridtest.Collection(t, grid.NodeSchema, n1, n2, n3)
	lines := gridtest.Collection(t, grid.LineSchema, l1)

	t.Run("open switch away from line", func(t *testing.T) {
		s1 := gridtest.Switch("S1", n2.UUID, n3.UUID, false)
		ct, err := grid.NewContainer(grid.Collections{
			Nodes:    nodes,
			Lines:    lines,
			Switches: gridtest.Collection(t, grid.SwitchSchema, s1),
		})
		require.NoError(t, err)
		assert.False(t, ct.IsDisconnected(l1.UUID))
		assert.Equal(t, 0, ct.DisconnectedLines().Len())
		assert.True(t, ct.AuxiliaryNodes().Has(n3.UUID))
	})

	t.Run("open switch on line endpoint", func(t *testing.T) {
		s2 := gridtest.Switch("S2", n1.UUID, n2.UUID, false)
		ct, err := grid.NewContainer(grid.Collections{
			Nodes:    nodes,
			Lines:    lines,
			Switches: gridtest.Collection(t, grid.SwitchSchema, s2),
		})
		require.NoError(t, err)
		assert.True(t, ct.IsDisconnected(l1.UUID))
		assert.Equal(t, []uuid.UUID{l1.UUID}, ct.DisconnectedLines().UUIDs())
	})

	t.Run("closed switch never disconnects", func(t *testing.T) {
		s3 := gridtest.Switch("S3", n1.UUID, n2.UUID, true)
		ct, err := grid.NewContainer(grid.Collections{
			Nodes:    nodes,
			Lines:    lines,
			Switches: gridtest.Collection(t, grid.SwitchSchema, s3),
		})
		require.NoError(t, err)
		assert.False(t, ct.IsDisconnected(l1.UUID))
		assert.Empty(t, ct.AuxiliaryNodes())
	})

	t.Run("node_a of an open switch is not auxiliary", func(t *testing.T) {
		s4 := gridtest.Switch("S4", n2.UUID, n3.UUID, false)
		l2 := gridtest.Line("L2", n3.UUID, n1.UUID)
		ct, err := grid.NewContainer(grid.Collections{
			Nodes:    nodes,
			Lines:    gridtest.Collection(t, grid.LineSchema, l1, l2),
			Switches: gridtest.Collection(t, grid.SwitchSchema, s4),
		})
		require.NoError(t, err)
		assert.False(t, ct.IsDisconnected(l1.UUID))
		assert.True(t, ct.IsDisconnected(l2.UUID))
	})
}

func TestSwitches_PartitionIsComplete(t *testing.T) {
	n1, n2 := gridtest.Node("N1"), gridtest.Node("N2")
	switches := gridtest.Collection(t, grid.SwitchSchema,
		gridtest.Switch("S1", n1.UUID, n2.UUID, true),
		gridtest.Switch("S2", n1.UUID, n2.UUID, false),
		gridtest.Switch("S3", n2.UUID, n1.UUID, false),
		gridtest.Switch("S4", n2.UUID, n1.UUID, true),
		gridtest.Switch("S5", n2.UUID, n1.UUID, true),
	)
	ct, err := grid.NewContainer(grid.Collections{
		Nodes:    gridtest.Collection(t, grid.NodeSchema, n1, n2),
		Switches: switches,
	})
	require.NoError(t, err)

	opened, closed := ct.OpenedSwitches(), ct.ClosedSwitches()
	assert.Equal(t, 2, opened.Len())
	assert.Equal(t, 3, closed.Len())

	union := models.NewUUIDSet(opened.UUIDs()...)
	for _, id := range closed.UUIDs() {
		assert.False(t, union.Has(id), "switch in both partitions")
		union.Add(id)
	}
	assert.Equal(t, models.NewUUIDSet(switches.UUIDs()...), union)
	for _, s := range opened.Rows() {
		assert.False(t, s.Closed)
	}
	for _, s := range closed.Rows() {
		assert.True(t, s.Closed)
	}
}

func TestLinesAt(t *testing.T) {
	f := gridtest.Sample(t)

	atB, err := f.Container.LinesAt(models.SideB, models.NewUUIDSet(f.N3.UUID))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.L2.UUID}, atB.UUIDs())

	atA, err := f.Container.LinesAt(models.SideA, models.NewUUIDSet(f.N3.UUID))
	require.NoError(t, err)
	assert.Equal(t, 0, atA.Len())

	_, err = f.Container.LinesAt("c", models.NewUUIDSet(f.N3.UUID))
	require.ErrorIs(t, err, models.ErrUnknownSide)
}

func TestSampleDisconnection(t *testing.T) {
	f := gridtest.Sample(t)
	assert.True(t, f.Container.IsDisconnected(f.L2.UUID))
	assert.False(t, f.Container.IsDisconnected(f.L1.UUID))
}
