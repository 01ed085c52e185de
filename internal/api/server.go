package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"expvar"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ajitpratap0/gridkit/internal/grid"
	"github.com/ajitpratap0/gridkit/internal/mapping"
	"github.com/ajitpratap0/gridkit/internal/models"
	"github.com/ajitpratap0/gridkit/internal/stats"
	"github.com/ajitpratap0/gridkit/internal/table"
	"github.com/ajitpratap0/gridkit/internal/topology"
)

// Server is a read-only HTTP API over one loaded grid.
type Server struct {
	grid      *grid.Container
	mapping   *mapping.Table
	logger    *slog.Logger
	authToken string // empty = no auth required
}

// NewServer creates a new Server. A nil mapping table is treated as empty.
func NewServer(ct *grid.Container, m *mapping.Table, logger *slog.Logger, authToken string) *Server {
	if m == nil {
		m = mapping.Empty()
	}
	return &Server{
		grid:      ct,
		mapping:   m,
		logger:    logger,
		authToken: authToken,
	}
}

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check and counters, no auth required.
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /debug/vars", expvar.Handler())

	mux.HandleFunc("GET /v1/collections", s.auth(s.handleListCollections))
	mux.HandleFunc("GET /v1/collections/{type}", s.auth(s.handleGetCollection))
	mux.HandleFunc("GET /v1/collections/{type}/{id}", s.auth(s.handleGetEntity))
	mux.HandleFunc("GET /v1/topology/node-participants", s.auth(s.handleNodeParticipants))
	mux.HandleFunc("GET /v1/topology/disconnected-lines", s.auth(s.handleDisconnectedLines))
	mux.HandleFunc("GET /v1/mapping", s.auth(s.handleMapping))
	mux.HandleFunc("GET /v1/primary/{id}", s.auth(s.handlePrimary))
	mux.HandleFunc("GET /v1/primary/{id}/error", s.auth(s.handlePrimaryError))

	return mux
}

// --- middleware ---

// auth wraps a handler with Bearer token authentication when authToken is set.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.authToken == "" {
			next(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

// --- handlers ---

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CollectionInfo summarizes one constituent collection.
type CollectionInfo struct {
	EntityType models.EntityType `json:"entity_type"`
	File       string            `json:"file"`
	Count      int               `json:"count"`
}

// listCollectionsResponse is returned by GET /v1/collections.
type listCollectionsResponse struct {
	Collections []CollectionInfo `json:"collections"`
	Total       int              `json:"total"`
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	includeEmpty := r.URL.Query().Get("include_empty") == "true"
	resp := listCollectionsResponse{Collections: []CollectionInfo{}}
	for _, c := range s.grid.ToList(includeEmpty) {
		resp.Collections = append(resp.Collections, CollectionInfo{
			EntityType: c.EntityType(),
			File:       c.EntityType().FileName(),
			Count:      c.Len(),
		})
		resp.Total += c.Len()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// collectionResponse is returned by GET /v1/collections/{type}.
type collectionResponse struct {
	EntityType models.EntityType `json:"entity_type"`
	Header     []string          `json:"header"`
	Records    [][]string        `json:"records"`
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	records := c.Records()
	if records == nil {
		records = [][]string{}
	}
	s.writeJSON(w, http.StatusOK, collectionResponse{
		EntityType: c.EntityType(),
		Header:     c.Header(),
		Records:    records,
	})
}

func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	id, ok := s.pathUUID(w, r)
	if !ok {
		return
	}
	rec, found := c.Record(id)
	if !found {
		s.writeError(w, http.StatusNotFound, "entity not found")
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleNodeParticipants(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]map[uuid.UUID]topology.NodeParticipants{
		"nodes": s.grid.NodeParticipants(),
	})
}

// disconnectedResponse is returned by GET /v1/topology/disconnected-lines.
type disconnectedResponse struct {
	AuxiliaryNodes []uuid.UUID `json:"auxiliary_nodes"`
	Lines          []uuid.UUID `json:"lines"`
}

func (s *Server) handleDisconnectedLines(w http.ResponseWriter, _ *http.Request) {
	resp := disconnectedResponse{
		AuxiliaryNodes: []uuid.UUID{},
		Lines:          s.grid.DisconnectedLines().UUIDs(),
	}
	// Report auxiliary nodes in switch order for stable output.
	seen := make(models.UUIDSet)
	for _, sw := range s.grid.OpenedSwitches().Rows() {
		if !seen.Has(sw.NodeB) {
			seen.Add(sw.NodeB)
			resp.AuxiliaryNodes = append(resp.AuxiliaryNodes, sw.NodeB)
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// mappingResponse is returned by GET /v1/mapping.
type mappingResponse struct {
	Entries []models.MappingEntry `json:"entries"`
}

func (s *Server) handleMapping(w http.ResponseWriter, r *http.Request) {
	entries := s.mapping.Entries()
	if raw := r.URL.Query().Get("data_type"); raw != "" {
		dt := models.DataType(raw)
		if !dt.IsValid() {
			s.writeError(w, http.StatusBadRequest, "invalid data_type")
			return
		}
		entries = s.mapping.ByDataType(dt)
	}
	if entries == nil {
		entries = []models.MappingEntry{}
	}
	s.writeJSON(w, http.StatusOK, mappingResponse{Entries: entries})
}

// seriesResponse is returned by GET /v1/primary/{id}.
type seriesResponse struct {
	UUID    uuid.UUID           `json:"uuid"`
	Scheme  models.ColumnScheme `json:"column_scheme"`
	Columns []string            `json:"columns"`
	Times   []time.Time         `json:"times"`
	Values  [][]float64         `json:"values"`
}

func (s *Server) handlePrimary(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r)
	if !ok {
		return
	}
	series, found := s.grid.Primary().Get(id)
	if !found {
		s.writeError(w, http.StatusNotFound, "series not found")
		return
	}
	resp := seriesResponse{
		UUID:    series.UUID,
		Scheme:  series.Scheme,
		Columns: series.Scheme.Columns(),
		Times:   make([]time.Time, 0, series.Len()),
		Values:  make([][]float64, 0, series.Len()),
	}
	for _, p := range series.Points {
		resp.Times = append(resp.Times, p.Time)
		resp.Values = append(resp.Values, p.Values)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// errorResponse is returned by GET /v1/primary/{id}/error.
type errorResponse struct {
	Metric stats.Metric `json:"metric"`
	Column string       `json:"column"`
	Value  float64      `json:"value"`
}

// handlePrimaryError compares one column of two primary series:
// ?against=<uuid>&column=p&metric=rmse.
func (s *Server) handlePrimaryError(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	against, err := uuid.Parse(q.Get("against"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "against must be a uuid")
		return
	}
	metric := stats.MetricRMSE
	if raw := q.Get("metric"); raw != "" {
		if metric, err = stats.ParseMetric(raw); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	column := q.Get("column")
	if column == "" {
		column = "p"
	}

	var values [2][]float64
	for i, key := range []uuid.UUID{id, against} {
		series, found := s.grid.Primary().Get(key)
		if !found {
			s.writeError(w, http.StatusNotFound, "series not found: "+key.String())
			return
		}
		if values[i], err = series.Column(column); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	v, err := stats.Compute(metric, values[0], values[1])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, errorResponse{Metric: metric, Column: column, Value: v})
}

// --- helpers ---

func (s *Server) collection(w http.ResponseWriter, r *http.Request) (table.AnyCollection, bool) {
	et := models.EntityType(r.PathValue("type"))
	c, err := s.grid.GetWithEnum(et)
	if err != nil {
		if errors.Is(err, grid.ErrUnknownEntityType) {
			s.writeError(w, http.StatusNotFound, "unknown entity type")
			return nil, false
		}
		s.logger.Error("failed to get collection", "type", et, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get collection")
		return nil, false
	}
	return c, true
}

func (s *Server) pathUUID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "id must be a uuid")
		return uuid.Nil, false
	}
	return id, true
}

// writeJSON encodes v as JSON and writes it to w with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(v); encErr != nil {
		s.logger.Error("failed to encode response", "error", encErr)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// Shutdown gracefully shuts down an http.Server with the given timeout.
// This is a convenience helper used by the serve command.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
