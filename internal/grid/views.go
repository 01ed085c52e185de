package grid

import (
	"github.com/google/uuid"

	"github.com/ajitpratap0/gridkit/internal/metrics"
	"github.com/ajitpratap0/gridkit/internal/models"
	"github.com/ajitpratap0/gridkit/internal/table"
	"github.com/ajitpratap0/gridkit/internal/topology"
)

// NodeParticipants returns, for every node with at least one participant,
// the per-type participant counts and rated power. The map is computed once
// per container and must not be modified.
func (ct *Container) NodeParticipants() map[uuid.UUID]topology.NodeParticipants {
	ct.npOnce.Do(func() {
		ct.nodeParticipants = topology.NodeParticipantMap(ct)
		metrics.Inc(metrics.ViewsComputed)
	})
	return ct.nodeParticipants
}

func (ct *Container) resolveDisconnected() {
	ct.dlOnce.Do(func() {
		ct.auxiliary = topology.AuxiliaryNodes(ct.c.Switches)
		ct.disconnected = topology.DisconnectedLines(ct.c.Lines, ct.auxiliary)
		metrics.Inc(metrics.ViewsComputed)
	})
}

// AuxiliaryNodes returns node_b of every opened switch. The set must not be modified.
func (ct *Container) AuxiliaryNodes() models.UUIDSet {
	ct.resolveDisconnected()
	return ct.auxiliary
}

// DisconnectedLines returns the lines touching the auxiliary node of an
// opened switch.
func (ct *Container) DisconnectedLines() *table.Collection[models.Line] {
	ct.resolveDisconnected()
	return ct.disconnected
}

// IsDisconnected reports whether the line with the given key is disconnected.
func (ct *Container) IsDisconnected(line uuid.UUID) bool {
	return ct.DisconnectedLines().Contains(line)
}

// OpenedSwitches returns the switches whose closed state is false.
func (ct *Container) OpenedSwitches() *table.Collection[models.Switch] {
	return topology.Opened(ct.c.Switches)
}

// ClosedSwitches returns the switches whose closed state is true.
func (ct *Container) ClosedSwitches() *table.Collection[models.Switch] {
	return topology.Closed(ct.c.Switches)
}

// LinesAt returns the lines whose terminal on the given side is in nodes.
func (ct *Container) LinesAt(side models.Side, nodes models.UUIDSet) (*table.Collection[models.Line], error) {
	if _, err := (models.Line{}).NodeAt(side); err != nil {
		return nil, err
	}
	return ct.c.Lines.Filter(func(l models.Line) bool {
		id, _ := l.NodeAt(side)
		return nodes.Has(id)
	}), nil
}
