// Package mcp implements the Model Context Protocol server for gridkit.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ajitpratap0/gridkit/internal/grid"
	"github.com/ajitpratap0/gridkit/internal/mapping"
	"github.com/ajitpratap0/gridkit/internal/models"
	"github.com/ajitpratap0/gridkit/internal/stats"
)

// Server wraps an MCPServer exposing one loaded grid read-only.
type Server struct {
	mcp     *mcpserver.MCPServer
	grid    *grid.Container
	mapping *mapping.Table
	logger  *slog.Logger
}

// NewServer creates a new MCP server. If ct is nil, every tool call returns
// an error response instead of panicking. A nil mapping table is treated as
// empty.
func NewServer(ct *grid.Container, m *mapping.Table, logger *slog.Logger) *Server {
	if m == nil {
		m = mapping.Empty()
	}
	s := &Server{
		grid:    ct,
		mapping: m,
		logger:  logger,
	}

	mcpSrv := mcpserver.NewMCPServer(
		"gridkit",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
	)

	mcpSrv.AddTool(buildListCollectionsTool(), s.handleListCollections)
	mcpSrv.AddTool(buildGetEntityTool(), s.handleGetEntity)
	mcpSrv.AddTool(buildNodeParticipantsTool(), s.handleNodeParticipants)
	mcpSrv.AddTool(buildDisconnectedLinesTool(), s.handleDisconnectedLines)
	mcpSrv.AddTool(buildMappingTool(), s.handleMapping)
	mcpSrv.AddTool(buildSeriesErrorTool(), s.handleSeriesError)

	s.mcp = mcpSrv
	return s
}

// MCPServer returns the underlying mcp-go MCPServer for use with ServeStdio.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

// HandleListCollections is the exported handler for the "list_collections" tool.
// It is exposed for direct testing without the mcp-go transport layer.
func (s *Server) HandleListCollections(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleListCollections(ctx, req)
}

// HandleGetEntity is the exported handler for the "get_entity" tool.
func (s *Server) HandleGetEntity(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleGetEntity(ctx, req)
}

// HandleNodeParticipants is the exported handler for the "node_participants" tool.
func (s *Server) HandleNodeParticipants(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleNodeParticipants(ctx, req)
}

// HandleDisconnectedLines is the exported handler for the "disconnected_lines" tool.
func (s *Server) HandleDisconnectedLines(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleDisconnectedLines(ctx, req)
}

// HandleMapping is the exported handler for the "mapping" tool.
func (s *Server) HandleMapping(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleMapping(ctx, req)
}

// HandleSeriesError is the exported handler for the "series_error" tool.
func (s *Server) HandleSeriesError(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleSeriesError(ctx, req)
}

// --- helpers ---

// toolResultJSON marshals v to JSON and returns it as a tool text result.
func toolResultJSON(v any) (*mcpgo.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("mcp: marshaling result: %w", err)
	}
	return mcpgo.NewToolResultText(string(b)), nil
}

func parseUUIDArg(req mcpgo.CallToolRequest, name string) (uuid.UUID, *mcpgo.CallToolResult) {
	raw := strings.TrimSpace(req.GetString(name, ""))
	if raw == "" {
		return uuid.Nil, mcpgo.NewToolResultErrorf("%s is required and must not be empty", name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, mcpgo.NewToolResultErrorf("invalid %s %q: must be a uuid", name, raw)
	}
	return id, nil
}

// --- tool definitions ---

func buildListCollectionsTool() mcpgo.Tool {
	return mcpgo.NewTool("list_collections",
		mcpgo.WithDescription("List the entity collections of the loaded grid with their row counts."),
		mcpgo.WithBoolean("include_empty",
			mcpgo.Description("Include collections without rows (default: false)"),
		),
	)
}

func buildGetEntityTool() mcpgo.Tool {
	return mcpgo.NewTool("get_entity",
		mcpgo.WithDescription("Fetch one grid entity by type and uuid. Returns its attributes as CSV-encoded strings."),
		mcpgo.WithString("type",
			mcpgo.Required(),
			mcpgo.Description("Entity type, e.g. node, line, switch, load, pv, hp, thermal_house"),
		),
		mcpgo.WithString("uuid",
			mcpgo.Required(),
			mcpgo.Description("The uuid of the entity"),
		),
	)
}

func buildNodeParticipantsTool() mcpgo.Tool {
	return mcpgo.NewTool("node_participants",
		mcpgo.WithDescription("Per-node participant counts and total rated power for every node with at least one participant."),
		mcpgo.WithString("node",
			mcpgo.Description("Restrict the result to one node uuid"),
		),
	)
}

func buildDisconnectedLinesTool() mcpgo.Tool {
	return mcpgo.NewTool("disconnected_lines",
		mcpgo.WithDescription("Lines with an endpoint on the auxiliary node (node_b) of an opened switch."),
	)
}

func buildMappingTool() mcpgo.Tool {
	return mcpgo.NewTool("mapping",
		mcpgo.WithDescription("External mapping entries, optionally filtered by data type."),
		mcpgo.WithString("data_type",
			mcpgo.Description("primary_input, em_input, grid_result or participant_result"),
		),
	)
}

func buildSeriesErrorTool() mcpgo.Tool {
	return mcpgo.NewTool("series_error",
		mcpgo.WithDescription("Error metric between one column of two primary time series of equal length."),
		mcpgo.WithString("a",
			mcpgo.Required(),
			mcpgo.Description("uuid of the first series"),
		),
		mcpgo.WithString("b",
			mcpgo.Required(),
			mcpgo.Description("uuid of the second series"),
		),
		mcpgo.WithString("column",
			mcpgo.Description("Column to compare (default: p)"),
		),
		mcpgo.WithString("metric",
			mcpgo.Description("rmse or mae (default: rmse)"),
		),
	)
}

// --- tool handlers ---

func (s *Server) handleListCollections(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.grid == nil {
		return mcpgo.NewToolResultError("grid is unavailable"), nil
	}
	type collection struct {
		EntityType models.EntityType `json:"entity_type"`
		Count      int               `json:"count"`
	}
	out := []collection{}
	for _, c := range s.grid.ToList(req.GetBool("include_empty", false)) {
		out = append(out, collection{EntityType: c.EntityType(), Count: c.Len()})
	}
	return toolResultJSON(map[string]any{"collections": out})
}

func (s *Server) handleGetEntity(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.grid == nil {
		return mcpgo.NewToolResultError("grid is unavailable"), nil
	}
	et := models.EntityType(strings.TrimSpace(req.GetString("type", "")))
	c, err := s.grid.GetWithEnum(et)
	if err != nil {
		return mcpgo.NewToolResultErrorf("invalid type %q: %s", et, err.Error()), nil
	}
	id, errResult := parseUUIDArg(req, "uuid")
	if errResult != nil {
		return errResult, nil
	}
	rec, ok := c.Record(id)
	if !ok {
		return mcpgo.NewToolResultErrorf("%s %s not found", et, id), nil
	}
	s.logger.Debug("mcp: get_entity", "type", et, "uuid", id)
	return toolResultJSON(rec)
}

func (s *Server) handleNodeParticipants(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.grid == nil {
		return mcpgo.NewToolResultError("grid is unavailable"), nil
	}
	np := s.grid.NodeParticipants()
	if req.GetString("node", "") == "" {
		return toolResultJSON(map[string]any{"nodes": np})
	}
	node, errResult := parseUUIDArg(req, "node")
	if errResult != nil {
		return errResult, nil
	}
	entry, ok := np[node]
	if !ok {
		if !s.grid.Nodes().Contains(node) {
			return mcpgo.NewToolResultErrorf("node %s not found", node), nil
		}
		// A known node without participants.
		return toolResultJSON(map[string]any{"nodes": map[string]any{}})
	}
	return toolResultJSON(map[string]any{"nodes": map[uuid.UUID]any{node: entry}})
}

func (s *Server) handleDisconnectedLines(_ context.Context, _ mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.grid == nil {
		return mcpgo.NewToolResultError("grid is unavailable"), nil
	}
	type line struct {
		UUID  uuid.UUID `json:"uuid"`
		ID    string    `json:"id"`
		NodeA uuid.UUID `json:"node_a"`
		NodeB uuid.UUID `json:"node_b"`
	}
	out := []line{}
	for _, l := range s.grid.DisconnectedLines().Rows() {
		out = append(out, line{UUID: l.UUID, ID: l.ID, NodeA: l.NodeA, NodeB: l.NodeB})
	}
	return toolResultJSON(map[string]any{
		"lines":           out,
		"opened_switches": s.grid.OpenedSwitches().Len(),
	})
}

func (s *Server) handleMapping(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	entries := s.mapping.Entries()
	if raw := req.GetString("data_type", ""); raw != "" {
		dt := models.DataType(raw)
		if !dt.IsValid() {
			return mcpgo.NewToolResultErrorf("invalid data_type %q: must be one of primary_input, em_input, grid_result, participant_result", raw), nil
		}
		entries = s.mapping.ByDataType(dt)
	}
	if entries == nil {
		entries = []models.MappingEntry{}
	}
	return toolResultJSON(map[string]any{"entries": entries})
}

func (s *Server) handleSeriesError(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.grid == nil {
		return mcpgo.NewToolResultError("grid is unavailable"), nil
	}
	metric, err := stats.ParseMetric(req.GetString("metric", string(stats.MetricRMSE)))
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	column := req.GetString("column", "p")

	var values [2][]float64
	for i, name := range []string{"a", "b"} {
		id, errResult := parseUUIDArg(req, name)
		if errResult != nil {
			return errResult, nil
		}
		series, ok := s.grid.Primary().Get(id)
		if !ok {
			return mcpgo.NewToolResultErrorf("no primary series for %s", id), nil
		}
		if values[i], err = series.Column(column); err != nil {
			return mcpgo.NewToolResultError(err.Error()), nil
		}
	}

	v, err := stats.Compute(metric, values[0], values[1])
	if err != nil {
		return mcpgo.NewToolResultErrorf("computing %s: %s", metric, err.Error()), nil
	}
	return toolResultJSON(map[string]any{"metric": metric, "column": column, "value": v})
}
