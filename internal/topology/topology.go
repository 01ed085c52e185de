// Package topology derives connectivity views from grid collections.
//
// Disconnection is approximated by a local rule: a line is disconnected when
// one of its endpoints is the auxiliary node (node_b) of an opened switch.
// The rule does not follow paths through the grid, and it is only correct for
// inputs whose switches place the switching terminal on node_b.
package topology

import (
	"github.com/google/uuid"

	"github.com/ajitpratap0/gridkit/internal/models"
	"github.com/ajitpratap0/gridkit/internal/table"
)

// ParticipantSource enumerates the participants attached to a grid.
type ParticipantSource interface {
	EachParticipant(fn func(et models.EntityType, id uuid.UUID, p models.Participant))
}

// NodeParticipants aggregates the participants attached to one node.
type NodeParticipants struct {
	Counts       map[models.EntityType]int `json:"counts"`
	Total        int                       `json:"total"`
	SRated       float64                   `json:"s_rated"`
	Participants []uuid.UUID               `json:"participants"`
}

// NodeParticipantMap groups every participant by the node it is attached to
// in a single pass. Nodes without participants are absent from the result.
func NodeParticipantMap(src ParticipantSource) map[uuid.UUID]NodeParticipants {
	out := make(map[uuid.UUID]NodeParticipants)
	src.EachParticipant(func(et models.EntityType, id uuid.UUID, p models.Participant) {
		node := p.NodeUUID()
		np, ok := out[node]
		if !ok {
			np.Counts = make(map[models.EntityType]int)
		}
		np.Counts[et]++
		np.Total++
		np.SRated += p.RatedPower()
		np.Participants = append(np.Participants, id)
		out[node] = np
	})
	return out
}

// Opened returns the switches whose closed state is false.
func Opened(switches *table.Collection[models.Switch]) *table.Collection[models.Switch] {
	opened, _ := Split(switches)
	return opened
}

// Closed returns the switches whose closed state is true.
func Closed(switches *table.Collection[models.Switch]) *table.Collection[models.Switch] {
	_, closed := Split(switches)
	return closed
}

// Split partitions switches into opened and closed ones. Every switch lands
// in exactly one of the two.
func Split(switches *table.Collection[models.Switch]) (opened, closed *table.Collection[models.Switch]) {
	return switches.Partition(func(s models.Switch) bool { return !s.Closed })
}

// AuxiliaryNodes returns the node_b of every opened switch.
func AuxiliaryNodes(switches *table.Collection[models.Switch]) models.UUIDSet {
	aux := make(models.UUIDSet)
	for _, s := range Opened(switches).Rows() {
		aux.Add(s.NodeB)
	}
	return aux
}

// DisconnectedLines returns the lines with an endpoint in aux.
func DisconnectedLines(lines *table.Collection[models.Line], aux models.UUIDSet) *table.Collection[models.Line] {
	return lines.Filter(func(l models.Line) bool {
		return aux.Has(l.NodeA) || aux.Has(l.NodeB)
	})
}
