// Package grid composes typed entity collections into a grid container,
// checks their cross references and derives topology views from them.
package grid

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ajitpratap0/gridkit/internal/models"
	"github.com/ajitpratap0/gridkit/internal/table"
	"github.com/ajitpratap0/gridkit/internal/timeseries"
	"github.com/ajitpratap0/gridkit/internal/topology"
)

// ErrUnknownEntityType is returned when a container is asked for an entity
// type it does not carry.
var ErrUnknownEntityType = errors.New("entity type not carried by grid container")

// Collections lists the constituents a container is composed from. Nil
// fields become empty collections.
type Collections struct {
	Nodes         *table.Collection[models.Node]
	Lines         *table.Collection[models.Line]
	Switches      *table.Collection[models.Switch]
	Loads         *table.Collection[models.Load]
	FixedFeedIns  *table.Collection[models.FixedFeedIn]
	PVs           *table.Collection[models.PV]
	Wecs          *table.Collection[models.Wec]
	BMs           *table.Collection[models.BM]
	Storages      *table.Collection[models.Storage]
	EVs           *table.Collection[models.EV]
	HPs           *table.Collection[models.HP]
	ThermalBuses  *table.Collection[models.ThermalBus]
	ThermalHouses *table.Collection[models.ThermalHouse]

	// Primary holds optional per-participant time series.
	Primary *timeseries.Set
}

// Container is an immutable registry of one grid's collections. Derived
// topology views are computed on first use and cached for the lifetime of
// the container.
type Container struct {
	c Collections

	npOnce           sync.Once
	nodeParticipants map[uuid.UUID]topology.NodeParticipants

	dlOnce       sync.Once
	auxiliary    models.UUIDSet
	disconnected *table.Collection[models.Line]
}

// NewContainer composes a container and validates its cross references.
func NewContainer(c Collections) (*Container, error) {
	c.Nodes = orEmpty(c.Nodes, NodeSchema)
	c.Lines = orEmpty(c.Lines, LineSchema)
	c.Switches = orEmpty(c.Switches, SwitchSchema)
	c.Loads = orEmpty(c.Loads, LoadSchema)
	c.FixedFeedIns = orEmpty(c.FixedFeedIns, FixedFeedInSchema)
	c.PVs = orEmpty(c.PVs, PVSchema)
	c.Wecs = orEmpty(c.Wecs, WecSchema)
	c.BMs = orEmpty(c.BMs, BMSchema)
	c.Storages = orEmpty(c.Storages, StorageSchema)
	c.EVs = orEmpty(c.EVs, EVSchema)
	c.HPs = orEmpty(c.HPs, HPSchema)
	c.ThermalBuses = orEmpty(c.ThermalBuses, ThermalBusSchema)
	c.ThermalHouses = orEmpty(c.ThermalHouses, ThermalHouseSchema)
	if c.Primary == nil {
		c.Primary = timeseries.NewSet()
	}

	ct := &Container{c: c}
	if err := ct.Validate(); err != nil {
		return nil, err
	}
	return ct, nil
}

func orEmpty[T any](c *table.Collection[T], s *table.Schema[T]) *table.Collection[T] {
	if c == nil {
		return table.Empty(s)
	}
	return c
}

// Nodes returns the node collection.
func (ct *Container) Nodes() *table.Collection[models.Node] { return ct.c.Nodes }

// Lines returns the line collection.
func (ct *Container) Lines() *table.Collection[models.Line] { return ct.c.Lines }

// Switches returns the switch collection.
func (ct *Container) Switches() *table.Collection[models.Switch] { return ct.c.Switches }

// Loads returns the load collection.
func (ct *Container) Loads() *table.Collection[models.Load] { return ct.c.Loads }

// FixedFeedIns returns the fixed feed-in collection.
func (ct *Container) FixedFeedIns() *table.Collection[models.FixedFeedIn] { return ct.c.FixedFeedIns }

// PVs returns the PV plant collection.
func (ct *Container) PVs() *table.Collection[models.PV] { return ct.c.PVs }

// Wecs returns the wind energy converter collection.
func (ct *Container) Wecs() *table.Collection[models.Wec] { return ct.c.Wecs }

// BMs returns the biomass plant collection.
func (ct *Container) BMs() *table.Collection[models.BM] { return ct.c.BMs }

// Storages returns the storage collection.
func (ct *Container) Storages() *table.Collection[models.Storage] { return ct.c.Storages }

// EVs returns the electric vehicle collection.
func (ct *Container) EVs() *table.Collection[models.EV] { return ct.c.EVs }

// HPs returns the heat pump collection.
func (ct *Container) HPs() *table.Collection[models.HP] { return ct.c.HPs }

// ThermalBuses returns the thermal bus collection.
func (ct *Container) ThermalBuses() *table.Collection[models.ThermalBus] { return ct.c.ThermalBuses }

// ThermalHouses returns the thermal house collection.
func (ct *Container) ThermalHouses() *table.Collection[models.ThermalHouse] {
	return ct.c.ThermalHouses
}

// Primary returns the primary time series carried with the grid.
func (ct *Container) Primary() *timeseries.Set { return ct.c.Primary }

// Collections returns a copy of the constituents, e.g. to compose a new
// container with one collection replaced.
func (ct *Container) Collections() Collections { return ct.c }

// GetWithEnum returns the collection holding records of type et.
func (ct *Container) GetWithEnum(et models.EntityType) (table.AnyCollection, error) {
	switch et {
	case models.EntityTypeNode:
		return ct.c.Nodes, nil
	case models.EntityTypeLine:
		return ct.c.Lines, nil
	case models.EntityTypeSwitch:
		return ct.c.Switches, nil
	case models.EntityTypeLoad:
		return ct.c.Loads, nil
	case models.EntityTypeFixedFeedIn:
		return ct.c.FixedFeedIns, nil
	case models.EntityTypePV:
		return ct.c.PVs, nil
	case models.EntityTypeWec:
		return ct.c.Wecs, nil
	case models.EntityTypeBM:
		return ct.c.BMs, nil
	case models.EntityTypeStorage:
		return ct.c.Storages, nil
	case models.EntityTypeEV:
		return ct.c.EVs, nil
	case models.EntityTypeHP:
		return ct.c.HPs, nil
	case models.EntityTypeThermalBus:
		return ct.c.ThermalBuses, nil
	case models.EntityTypeThermalHouse:
		return ct.c.ThermalHouses, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEntityType, et)
}

// ToList returns the constituent collections in models.ValidEntityTypes
// order. Empty collections are skipped unless includeEmpty is set.
func (ct *Container) ToList(includeEmpty bool) []table.AnyCollection {
	out := make([]table.AnyCollection, 0, len(models.ValidEntityTypes))
	for _, et := range models.ValidEntityTypes {
		c, err := ct.GetWithEnum(et)
		if err != nil {
			// ValidEntityTypes and GetWithEnum are kept in sync.
			panic(err)
		}
		if includeEmpty || c.Len() > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Participants returns the participant collections, including empty ones.
func (ct *Container) Participants() []table.AnyCollection {
	out := make([]table.AnyCollection, 0, len(models.ParticipantTypes))
	for _, et := range models.ParticipantTypes {
		c, _ := ct.GetWithEnum(et)
		out = append(out, c)
	}
	return out
}

// EachParticipant calls fn for every participant of every type.
func (ct *Container) EachParticipant(fn func(et models.EntityType, id uuid.UUID, p models.Participant)) {
	eachParticipant(ct.c.Loads, fn)
	eachParticipant(ct.c.FixedFeedIns, fn)
	eachParticipant(ct.c.PVs, fn)
	eachParticipant(ct.c.Wecs, fn)
	eachParticipant(ct.c.BMs, fn)
	eachParticipant(ct.c.Storages, fn)
	eachParticipant(ct.c.EVs, fn)
	eachParticipant(ct.c.HPs, fn)
}

func eachParticipant[T models.Participant](c *table.Collection[T], fn func(models.EntityType, uuid.UUID, models.Participant)) {
	et := c.EntityType()
	rows := c.Rows()
	for i := range rows {
		fn(et, c.Schema().Key(&rows[i]), rows[i])
	}
}

// Len returns the number of records across all collections.
func (ct *Container) Len() int {
	n := 0
	for _, c := range ct.ToList(true) {
		n += c.Len()
	}
	return n
}
