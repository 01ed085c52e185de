// Package gridtest builds small grid containers for tests.
package gridtest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/gridkit/internal/grid"
	"github.com/ajitpratap0/gridkit/internal/models"
	"github.com/ajitpratap0/gridkit/internal/table"
	"github.com/ajitpratap0/gridkit/internal/timeseries"
)

// Node returns a valid node.
func Node(label string) models.Node {
	return models.Node{
		Entity:    models.NewEntity(uuid.New(), label),
		VTarget:   1,
		VRated:    0.4,
		Subnet:    1,
		VoltLvl:   "lv",
		Latitude:  51.49,
		Longitude: 7.41,
	}
}

// Line returns a valid line between a and b.
func Line(label string, a, b uuid.UUID) models.Line {
	return models.Line{
		Entity:          models.NewEntity(uuid.New(), label),
		NodeA:           a,
		NodeB:           b,
		Length:          0.1,
		ParallelDevices: 1,
		IMax:            300,
	}
}

// Switch returns a switch between a and b.
func Switch(label string, a, b uuid.UUID, closed bool) models.Switch {
	return models.Switch{Entity: models.NewEntity(uuid.New(), label), NodeA: a, NodeB: b, Closed: closed}
}

func participant(label string, node uuid.UUID, sRated float64) models.ParticipantBase {
	return models.ParticipantBase{
		Entity:      models.NewEntity(uuid.New(), label),
		Node:        node,
		SRated:      sRated,
		CosPhiRated: 0.95,
	}
}

// Load returns a load attached to node.
func Load(label string, node uuid.UUID, sRated float64) models.Load {
	return models.Load{ParticipantBase: participant(label, node, sRated), LoadProfile: "h0", EConsAnnual: 4000}
}

// PV returns a PV plant attached to node.
func PV(label string, node uuid.UUID, sRated float64) models.PV {
	return models.PV{
		ParticipantBase: participant(label, node, sRated),
		Albedo:          0.2,
		AzimuthAngle:    0,
		ElevationAngle:  35,
		EtaConv:         0.96,
		KG:              0.9,
		KT:              1,
	}
}

// HP returns a heat pump attached to node and thermal bus bus.
func HP(label string, node, bus uuid.UUID, sRated float64) models.HP {
	return models.HP{ParticipantBase: participant(label, node, sRated), ThermalBus: bus, PThermal: 8}
}

// ThermalBus returns a thermal bus.
func ThermalBus(label string) models.ThermalBus {
	return models.ThermalBus{Entity: models.NewEntity(uuid.New(), label)}
}

// ThermalHouse returns a thermal house attached to bus.
func ThermalHouse(label string, bus uuid.UUID) models.ThermalHouse {
	return models.ThermalHouse{
		Entity:                models.NewEntity(uuid.New(), label),
		ThermalBus:            bus,
		EthLosses:             0.1,
		EthCapa:               10,
		LowerTemperatureLimit: 18,
		TargetTemperature:     20,
		UpperTemperatureLimit: 22,
	}
}

// Collection builds a collection and fails the test on error.
func Collection[T any](t testing.TB, s *table.Schema[T], rows ...T) *table.Collection[T] {
	t.Helper()
	c, err := table.New(s, rows...)
	require.NoError(t, err)
	return c
}

// Fixture is a small grid with named members.
//
//	N1 --L1-- N2 --L2-- N3
//	          N2 --S1(open)-- N3
//
// P1, P2 (loads) and HP1 sit on N1, P3 (pv) sits on N3. HP1 and H1 share TB1.
// P1 carries a primary pq series.
type Fixture struct {
	Container *grid.Container

	N1, N2, N3 models.Node
	L1, L2     models.Line
	S1         models.Switch
	P1, P2     models.Load
	P3         models.PV
	HP1        models.HP
	TB1        models.ThermalBus
	H1         models.ThermalHouse
	Series     timeseries.Series
}

// Sample builds the fixture grid.
func Sample(t testing.TB) Fixture {
	t.Helper()
	f := Fixture{
		N1:  Node("N1"),
		N2:  Node("N2"),
		N3:  Node("N3"),
		TB1: ThermalBus("TB1"),
	}
	f.L1 = Line("L1", f.N1.UUID, f.N2.UUID)
	f.L2 = Line("L2", f.N2.UUID, f.N3.UUID)
	f.S1 = Switch("S1", f.N2.UUID, f.N3.UUID, false)
	f.P1 = Load("P1", f.N1.UUID, 4)
	f.P2 = Load("P2", f.N1.UUID, 6)
	f.P3 = PV("P3", f.N3.UUID, 10)
	f.HP1 = HP("HP1", f.N1.UUID, f.TB1.UUID, 3)
	f.H1 = ThermalHouse("H1", f.TB1.UUID)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f.Series = timeseries.Series{
		UUID:   f.P1.UUID,
		Scheme: models.ColumnSchemeApparentPower,
		Points: []timeseries.Point{
			{Time: start, Values: []float64{1.5, 0.25}},
			{Time: start.Add(15 * time.Minute), Values: []float64{1.75, 0.5}},
		},
	}

	ct, err := grid.NewContainer(grid.Collections{
		Nodes:         Collection(t, grid.NodeSchema, f.N1, f.N2, f.N3),
		Lines:         Collection(t, grid.LineSchema, f.L1, f.L2),
		Switches:      Collection(t, grid.SwitchSchema, f.S1),
		Loads:         Collection(t, grid.LoadSchema, f.P1, f.P2),
		PVs:           Collection(t, grid.PVSchema, f.P3),
		HPs:           Collection(t, grid.HPSchema, f.HP1),
		ThermalBuses:  Collection(t, grid.ThermalBusSchema, f.TB1),
		ThermalHouses: Collection(t, grid.ThermalHouseSchema, f.H1),
		Primary:       timeseries.NewSet(f.Series),
	})
	require.NoError(t, err)
	f.Container = ct
	return f
}
