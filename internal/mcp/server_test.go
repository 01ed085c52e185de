package mcp_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/gridkit/internal/grid"
	"github.com/ajitpratap0/gridkit/internal/grid/gridtest"
	"github.com/ajitpratap0/gridkit/internal/mapping"
	gridmcp "github.com/ajitpratap0/gridkit/internal/mcp"
	"github.com/ajitpratap0/gridkit/internal/models"
)

func newMCPServer(t *testing.T) (*gridmcp.Server, gridtest.Fixture) {
	t.Helper()
	f := gridtest.Sample(t)

	twin := f.Series
	twin.UUID = f.P2.UUID
	c := f.Container.Collections()
	c.Primary = c.Primary.With(twin)
	ct, err := grid.NewContainer(c)
	require.NoError(t, err)
	f.Container = ct

	m, err := mapping.FromGrid(ct, nil,
		map[models.EntityType][]uuid.UUID{models.EntityTypeHP: {f.HP1.UUID}},
		map[models.EntityType][]uuid.UUID{models.EntityTypeLine: {f.L1.UUID, f.L2.UUID}},
	)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return gridmcp.NewServer(ct, m, logger), f
}

func makeReq(toolName string, args map[string]any) mcpgo.CallToolRequest {
	req := mcpgo.CallToolRequest{}
	req.Params.Name = toolName
	req.Params.Arguments = args
	return req
}

func textContent(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "expected at least one content item")
	tc, ok := result.Content[0].(mcpgo.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

func decodeResult(t *testing.T, result *mcpgo.CallToolResult, v any) {
	t.Helper()
	require.False(t, result.IsError, "tool returned error: %s", textContent(t, result))
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), v))
}

func TestMCPListCollections(t *testing.T) {
	srv, _ := newMCPServer(t)
	ctx := context.Background()

	result, err := srv.HandleListCollections(ctx, makeReq("list_collections", nil))
	require.NoError(t, err)
	var out struct {
		Collections []struct {
			EntityType string `json:"entity_type"`
			Count      int    `json:"count"`
		} `json:"collections"`
	}
	decodeResult(t, result, &out)
	require.Len(t, out.Collections, 8)
	assert.Equal(t, "node", out.Collections[0].EntityType)
	assert.Equal(t, 3, out.Collections[0].Count)

	result, err = srv.HandleListCollections(ctx, makeReq("list_collections", map[string]any{"include_empty": true}))
	require.NoError(t, err)
	decodeResult(t, result, &out)
	assert.Len(t, out.Collections, len(models.ValidEntityTypes))
}

func TestMCPGetEntity(t *testing.T) {
	srv, f := newMCPServer(t)
	ctx := context.Background()

	result, err := srv.HandleGetEntity(ctx, makeReq("get_entity", map[string]any{
		"type": "thermal_house",
		"uuid": f.H1.UUID.String(),
	}))
	require.NoError(t, err)
	var rec map[string]string
	decodeResult(t, result, &rec)
	assert.Equal(t, "H1", rec["id"])
	assert.Equal(t, f.TB1.UUID.String(), rec["thermal_bus"])

	tests := []struct {
		name string
		args map[string]any
	}{
		{"unknown type", map[string]any{"type": "transformer", "uuid": f.H1.UUID.String()}},
		{"missing uuid", map[string]any{"type": "node"}},
		{"malformed uuid", map[string]any{"type": "node", "uuid": "n1"}},
		{"absent entity", map[string]any{"type": "node", "uuid": uuid.NewString()}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := srv.HandleGetEntity(ctx, makeReq("get_entity", tc.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
		})
	}
}

func TestMCPNodeParticipants(t *testing.T) {
	srv, f := newMCPServer(t)
	ctx := context.Background()

	type nodes struct {
		Nodes map[string]struct {
			Total  int            `json:"total"`
			Counts map[string]int `json:"counts"`
		} `json:"nodes"`
	}

	result, err := srv.HandleNodeParticipants(ctx, makeReq("node_participants", nil))
	require.NoError(t, err)
	var all nodes
	decodeResult(t, result, &all)
	assert.Len(t, all.Nodes, 2)

	result, err = srv.HandleNodeParticipants(ctx, makeReq("node_participants", map[string]any{"node": f.N1.UUID.String()}))
	require.NoError(t, err)
	var one nodes
	decodeResult(t, result, &one)
	require.Len(t, one.Nodes, 1)
	assert.Equal(t, 3, one.Nodes[f.N1.UUID.String()].Total)
	assert.Equal(t, map[string]int{"load": 2, "hp": 1}, one.Nodes[f.N1.UUID.String()].Counts)

	result, err = srv.HandleNodeParticipants(ctx, makeReq("node_participants", map[string]any{"node": f.N2.UUID.String()}))
	require.NoError(t, err)
	var none nodes
	decodeResult(t, result, &none)
	assert.Empty(t, none.Nodes)

	result, err = srv.HandleNodeParticipants(ctx, makeReq("node_participants", map[string]any{"node": uuid.NewString()}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestMCPDisconnectedLines(t *testing.T) {
	srv, f := newMCPServer(t)

	result, err := srv.HandleDisconnectedLines(context.Background(), makeReq("disconnected_lines", nil))
	require.NoError(t, err)
	var out struct {
		Lines []struct {
			UUID  uuid.UUID `json:"uuid"`
			ID    string    `json:"id"`
			NodeB uuid.UUID `json:"node_b"`
		} `json:"lines"`
		OpenedSwitches int `json:"opened_switches"`
	}
	decodeResult(t, result, &out)
	require.Len(t, out.Lines, 1)
	assert.Equal(t, f.L2.UUID, out.Lines[0].UUID)
	assert.Equal(t, "L2", out.Lines[0].ID)
	assert.Equal(t, f.N3.UUID, out.Lines[0].NodeB)
	assert.Equal(t, 1, out.OpenedSwitches)
}

func TestMCPMapping(t *testing.T) {
	srv, f := newMCPServer(t)
	ctx := context.Background()

	result, err := srv.HandleMapping(ctx, makeReq("mapping", map[string]any{"data_type": "grid_result"}))
	require.NoError(t, err)
	var out struct {
		Entries []models.MappingEntry `json:"entries"`
	}
	decodeResult(t, result, &out)
	require.Len(t, out.Entries, 2)
	assert.Equal(t, f.L1.UUID, out.Entries[0].UUID)
	assert.Equal(t, models.ColumnSchemeCurrent, out.Entries[0].ColumnScheme)

	result, err = srv.HandleMapping(ctx, makeReq("mapping", nil))
	require.NoError(t, err)
	decodeResult(t, result, &out)
	assert.Len(t, out.Entries, 3)

	result, err = srv.HandleMapping(ctx, makeReq("mapping", map[string]any{"data_type": "forecast"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestMCPSeriesError(t *testing.T) {
	srv, f := newMCPServer(t)
	ctx := context.Background()

	result, err := srv.HandleSeriesError(ctx, makeReq("series_error", map[string]any{
		"a":      f.P1.UUID.String(),
		"b":      f.P2.UUID.String(),
		"column": "q",
		"metric": "mae",
	}))
	require.NoError(t, err)
	var out struct {
		Metric string  `json:"metric"`
		Value  float64 `json:"value"`
	}
	decodeResult(t, result, &out)
	assert.Equal(t, "mae", out.Metric)
	assert.Zero(t, out.Value)

	result, err = srv.HandleSeriesError(ctx, makeReq("series_error", map[string]any{
		"a": f.P1.UUID.String(),
		"b": f.P3.UUID.String(),
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = srv.HandleSeriesError(ctx, makeReq("series_error", map[string]any{
		"a":      f.P1.UUID.String(),
		"b":      f.P2.UUID.String(),
		"metric": "mape",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestMCPNilGrid(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	srv := gridmcp.NewServer(nil, nil, logger)
	require.NotNil(t, srv.MCPServer())

	result, err := srv.HandleListCollections(context.Background(), makeReq("list_collections", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = srv.HandleMapping(context.Background(), makeReq("mapping", nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)
}
