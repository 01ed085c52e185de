package summary

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ajitpratap0/gridkit/internal/grid"
	"github.com/ajitpratap0/gridkit/internal/models"
)

// maxNodesListed caps the per-node table handed to the model.
const maxNodesListed = 25

// CollectionCount is the row count of one non-empty collection.
type CollectionCount struct {
	EntityType models.EntityType `json:"entity_type"`
	Count      int               `json:"count"`
}

// NodeLoad describes the participants attached to one node.
type NodeLoad struct {
	UUID   uuid.UUID                 `json:"uuid"`
	ID     string                    `json:"id"`
	Total  int                       `json:"total"`
	SRated float64                   `json:"s_rated"`
	Counts map[models.EntityType]int `json:"counts"`
}

// Overview is the compact description of a grid that the summarizer sends
// to the model.
type Overview struct {
	Collections       []CollectionCount `json:"collections"`
	Nodes             []NodeLoad        `json:"nodes"`
	NodesOmitted      int               `json:"nodes_omitted"`
	OpenedSwitches    []string          `json:"opened_switches"`
	DisconnectedLines []string          `json:"disconnected_lines"`
	PrimarySeries     int               `json:"primary_series"`
}

// NewOverview derives an Overview from ct. Nodes are ordered by total rated
// power, largest first, and cut at maxNodesListed.
func NewOverview(ct *grid.Container) Overview {
	ov := Overview{
		Collections:       []CollectionCount{},
		Nodes:             []NodeLoad{},
		OpenedSwitches:    []string{},
		DisconnectedLines: []string{},
		PrimarySeries:     ct.Primary().Len(),
	}
	for _, c := range ct.ToList(false) {
		ov.Collections = append(ov.Collections, CollectionCount{EntityType: c.EntityType(), Count: c.Len()})
	}

	for node, np := range ct.NodeParticipants() {
		label, _ := ct.Nodes().Label(node)
		ov.Nodes = append(ov.Nodes, NodeLoad{
			UUID:   node,
			ID:     label,
			Total:  np.Total,
			SRated: np.SRated,
			Counts: np.Counts,
		})
	}
	sort.Slice(ov.Nodes, func(i, j int) bool {
		if ov.Nodes[i].SRated != ov.Nodes[j].SRated {
			return ov.Nodes[i].SRated > ov.Nodes[j].SRated
		}
		return ov.Nodes[i].UUID.String() < ov.Nodes[j].UUID.String()
	})
	if len(ov.Nodes) > maxNodesListed {
		ov.NodesOmitted = len(ov.Nodes) - maxNodesListed
		ov.Nodes = ov.Nodes[:maxNodesListed]
	}

	for _, s := range ct.OpenedSwitches().Rows() {
		ov.OpenedSwitches = append(ov.OpenedSwitches, s.ID)
	}
	for _, l := range ct.DisconnectedLines().Rows() {
		ov.DisconnectedLines = append(ov.DisconnectedLines, l.ID)
	}
	return ov
}

// Sections renders the overview as plain-text blocks, most important first.
func (ov Overview) Sections() []string {
	var sections []string

	var b strings.Builder
	b.WriteString("collections:\n")
	for _, c := range ov.Collections {
		fmt.Fprintf(&b, "- %s: %d\n", c.EntityType, c.Count)
	}
	fmt.Fprintf(&b, "primary time series: %d", ov.PrimarySeries)
	sections = append(sections, b.String())

	b.Reset()
	fmt.Fprintf(&b, "opened switches (%d): %s\n", len(ov.OpenedSwitches), joinOrNone(ov.OpenedSwitches))
	fmt.Fprintf(&b, "disconnected lines (%d): %s", len(ov.DisconnectedLines), joinOrNone(ov.DisconnectedLines))
	sections = append(sections, b.String())

	b.Reset()
	b.WriteString("participants per node (id, count, rated power):\n")
	for _, n := range ov.Nodes {
		fmt.Fprintf(&b, "- %s: %d, %s\n", n.ID, n.Total, formatPower(n.SRated))
	}
	if ov.NodesOmitted > 0 {
		fmt.Fprintf(&b, "- ... %d more nodes\n", ov.NodesOmitted)
	}
	sections = append(sections, strings.TrimSuffix(b.String(), "\n"))

	return sections
}

func joinOrNone(ids []string) string {
	if len(ids) == 0 {
		return "none"
	}
	return strings.Join(ids, ", ")
}

func formatPower(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", v), "0"), ".")
}
