package graphdb

import (
	"github.com/ajitpratap0/gridkit/internal/grid"
	"github.com/ajitpratap0/gridkit/internal/models"
	"github.com/ajitpratap0/gridkit/internal/table"
)

// DefaultBatchSize is the number of rows sent per UNWIND statement.
const DefaultBatchSize = 500

// Statement is one parameterized Cypher query.
type Statement struct {
	Name   string
	Query  string
	Params map[string]any
}

var constraints = []Statement{
	{Name: "constraint_node", Query: "CREATE CONSTRAINT grid_node_uuid IF NOT EXISTS FOR (n:Node) REQUIRE n.uuid IS UNIQUE"},
	{Name: "constraint_participant", Query: "CREATE CONSTRAINT grid_participant_uuid IF NOT EXISTS FOR (p:Participant) REQUIRE p.uuid IS UNIQUE"},
	{Name: "constraint_thermal_bus", Query: "CREATE CONSTRAINT grid_thermal_bus_uuid IF NOT EXISTS FOR (t:ThermalBus) REQUIRE t.uuid IS UNIQUE"},
	{Name: "constraint_thermal_house", Query: "CREATE CONSTRAINT grid_thermal_house_uuid IF NOT EXISTS FOR (h:ThermalHouse) REQUIRE h.uuid IS UNIQUE"},
}

const (
	nodeQuery = `UNWIND $rows AS row
MERGE (n:Node {uuid: row.uuid})
SET n += row.props`

	lineQuery = `UNWIND $rows AS row
MATCH (a:Node {uuid: row.node_a}), (b:Node {uuid: row.node_b})
MERGE (a)-[l:LINE {uuid: row.uuid}]->(b)
SET l += row.props`

	switchQuery = `UNWIND $rows AS row
MATCH (a:Node {uuid: row.node_a}), (b:Node {uuid: row.node_b})
MERGE (a)-[s:SWITCH {uuid: row.uuid}]->(b)
SET s += row.props`

	thermalBusQuery = `UNWIND $rows AS row
MERGE (t:ThermalBus {uuid: row.uuid})
SET t += row.props`

	participantQuery = `UNWIND $rows AS row
MATCH (n:Node {uuid: row.node})
MERGE (p:Participant {uuid: row.uuid})
SET p += row.props, p.type = $type
MERGE (p)-[:CONNECTED_TO]->(n)`

	heatPumpQuery = `UNWIND $rows AS row
MATCH (p:Participant {uuid: row.uuid}), (t:ThermalBus {uuid: row.thermal_bus})
MERGE (p)-[:FEEDS]->(t)`

	thermalHouseQuery = `UNWIND $rows AS row
MATCH (t:ThermalBus {uuid: row.thermal_bus})
MERGE (h:ThermalHouse {uuid: row.uuid})
SET h += row.props
MERGE (h)-[:SUPPLIED_BY]->(t)`
)

// BuildStatements translates ct into Cypher statements: constraints first,
// then vertices, then everything that matches on them. Empty collections
// produce no statements. batchSize <= 0 selects DefaultBatchSize.
func BuildStatements(ct *grid.Container, batchSize int) []Statement {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	out := append([]Statement(nil), constraints...)
	add := func(name, query string, rows []any, extra map[string]any) {
		for start := 0; start < len(rows); start += batchSize {
			end := min(start+batchSize, len(rows))
			params := map[string]any{"rows": rows[start:end]}
			for k, v := range extra {
				params[k] = v
			}
			out = append(out, Statement{Name: name, Query: query, Params: params})
		}
	}

	add("nodes", nodeQuery, mapRows(ct.Nodes(), nodeRow), nil)
	add("thermal_buses", thermalBusQuery, mapRows(ct.ThermalBuses(), func(b models.ThermalBus) map[string]any {
		return vertex(b.Entity, map[string]any{})
	}), nil)

	add("lines", lineQuery, mapRows(ct.Lines(), func(l models.Line) map[string]any {
		row := vertex(l.Entity, map[string]any{
			"length":           l.Length,
			"i_max":            l.IMax,
			"parallel_devices": int64(l.ParallelDevices),
			"disconnected":     ct.IsDisconnected(l.UUID),
		})
		row["node_a"] = l.NodeA.String()
		row["node_b"] = l.NodeB.String()
		return row
	}), nil)
	add("switches", switchQuery, mapRows(ct.Switches(), func(s models.Switch) map[string]any {
		row := vertex(s.Entity, map[string]any{"closed": s.Closed})
		row["node_a"] = s.NodeA.String()
		row["node_b"] = s.NodeB.String()
		return row
	}), nil)

	addParticipants(add, ct.Loads(), func(r *models.Load) *models.ParticipantBase { return &r.ParticipantBase })
	addParticipants(add, ct.FixedFeedIns(), func(r *models.FixedFeedIn) *models.ParticipantBase { return &r.ParticipantBase })
	addParticipants(add, ct.PVs(), func(r *models.PV) *models.ParticipantBase { return &r.ParticipantBase })
	addParticipants(add, ct.Wecs(), func(r *models.Wec) *models.ParticipantBase { return &r.ParticipantBase })
	addParticipants(add, ct.BMs(), func(r *models.BM) *models.ParticipantBase { return &r.ParticipantBase })
	addParticipants(add, ct.Storages(), func(r *models.Storage) *models.ParticipantBase { return &r.ParticipantBase })
	addParticipants(add, ct.EVs(), func(r *models.EV) *models.ParticipantBase { return &r.ParticipantBase })
	addParticipants(add, ct.HPs(), func(r *models.HP) *models.ParticipantBase { return &r.ParticipantBase })

	add("heat_pump_buses", heatPumpQuery, mapRows(ct.HPs(), func(h models.HP) map[string]any {
		return map[string]any{"uuid": h.UUID.String(), "thermal_bus": h.ThermalBus.String()}
	}), nil)
	add("thermal_houses", thermalHouseQuery, mapRows(ct.ThermalHouses(), func(h models.ThermalHouse) map[string]any {
		row := vertex(h.Entity, map[string]any{
			"eth_losses":         h.EthLosses,
			"eth_capa":           h.EthCapa,
			"target_temperature": h.TargetTemperature,
		})
		row["thermal_bus"] = h.ThermalBus.String()
		return row
	}), nil)

	return out
}

func addParticipants[T any](add func(string, string, []any, map[string]any), c *table.Collection[T], base func(*T) *models.ParticipantBase) {
	et := c.EntityType()
	add("participants_"+string(et), participantQuery, mapRows(c, func(r T) map[string]any {
		p := base(&r)
		row := vertex(p.Entity, map[string]any{
			"s_rated":       p.SRated,
			"cos_phi_rated": p.CosPhiRated,
		})
		row["node"] = p.Node.String()
		return row
	}), map[string]any{"type": string(et)})
}

func nodeRow(n models.Node) map[string]any {
	return vertex(n.Entity, map[string]any{
		"v_target":  n.VTarget,
		"v_rated":   n.VRated,
		"slack":     n.Slack,
		"subnet":    int64(n.Subnet),
		"volt_lvl":  n.VoltLvl,
		"latitude":  n.Latitude,
		"longitude": n.Longitude,
	})
}

// vertex builds the row map shared by every statement: the uuid as match
// key and the properties to set, including the label.
func vertex(e models.Entity, props map[string]any) map[string]any {
	props["id"] = e.ID
	return map[string]any{"uuid": e.UUID.String(), "props": props}
}

func mapRows[T any](c *table.Collection[T], fn func(T) map[string]any) []any {
	rows := c.Rows()
	out := make([]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, fn(r))
	}
	return out
}
