package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntityType classifies the kind of record held by a collection.
type EntityType string

const (
	EntityTypeNode         EntityType = "node"
	EntityTypeLine         EntityType = "line"
	EntityTypeSwitch       EntityType = "switch"
	EntityTypeLoad         EntityType = "load"
	EntityTypeFixedFeedIn  EntityType = "fixed_feed_in"
	EntityTypePV           EntityType = "pv"
	EntityTypeWec          EntityType = "wec"
	EntityTypeBM           EntityType = "bm"
	EntityTypeStorage      EntityType = "storage"
	EntityTypeEV           EntityType = "ev"
	EntityTypeHP           EntityType = "hp"
	EntityTypeThermalBus   EntityType = "thermal_bus"
	EntityTypeThermalHouse EntityType = "thermal_house"
	EntityTypeExtMapping   EntityType = "ext_mapping"
)

// ValidEntityTypes is the set of all entity types a grid container carries,
// in the order the container enumerates them.
var ValidEntityTypes = []EntityType{
	EntityTypeNode,
	EntityTypeLine,
	EntityTypeSwitch,
	EntityTypeLoad,
	EntityTypeFixedFeedIn,
	EntityTypePV,
	EntityTypeWec,
	EntityTypeBM,
	EntityTypeStorage,
	EntityTypeEV,
	EntityTypeHP,
	EntityTypeThermalBus,
	EntityTypeThermalHouse,
}

// ParticipantTypes lists the entity types attached to exactly one node.
var ParticipantTypes = []EntityType{
	EntityTypeLoad,
	EntityTypeFixedFeedIn,
	EntityTypePV,
	EntityTypeWec,
	EntityTypeBM,
	EntityTypeStorage,
	EntityTypeEV,
	EntityTypeHP,
}

// IsValid returns true if the entity type is recognized.
func (et EntityType) IsValid() bool {
	for i := range ValidEntityTypes {
		if et == ValidEntityTypes[i] {
			return true
		}
	}
	return false
}

// IsParticipant returns true for system participant types.
func (et EntityType) IsParticipant() bool {
	for i := range ParticipantTypes {
		if et == ParticipantTypes[i] {
			return true
		}
	}
	return false
}

// IsGridElement returns true for the raw grid types (nodes, lines, switches).
func (et EntityType) IsGridElement() bool {
	return et == EntityTypeNode || et == EntityTypeLine || et == EntityTypeSwitch
}

// FileName returns the CSV file name a collection of this type is stored under.
func (et EntityType) FileName() string {
	if et == EntityTypeExtMapping {
		return string(et) + ".csv"
	}
	return string(et) + "_input.csv"
}

// Row is the part every persisted record shares: its primary key and any
// columns the declared schema does not know about.
type Row struct {
	UUID  uuid.UUID         `json:"uuid"`
	Extra map[string]string `json:"extra,omitempty"`
}

// Entity holds the base attributes of every grid asset.
type Entity struct {
	Row
	ID            string     `json:"id"`
	Operator      *uuid.UUID `json:"operator,omitempty"`
	OperatesFrom  *time.Time `json:"operates_from,omitempty"`
	OperatesUntil *time.Time `json:"operates_until,omitempty"`
}

// NewEntity returns an Entity with the given key and label.
func NewEntity(id uuid.UUID, label string) Entity {
	return Entity{Row: Row{UUID: id}, ID: label}
}

// ErrInvalidInterval is returned when operates_from is after operates_until.
var ErrInvalidInterval = errors.New("operates_from is after operates_until")

// ValidateInterval checks that the operation interval is ordered when both ends are set.
func (e Entity) ValidateInterval() error {
	if e.OperatesFrom == nil || e.OperatesUntil == nil {
		return nil
	}
	if e.OperatesFrom.After(*e.OperatesUntil) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidInterval,
			e.OperatesFrom.Format(time.RFC3339), e.OperatesUntil.Format(time.RFC3339))
	}
	return nil
}

// Ref is a reference from one record to a record of another collection.
type Ref struct {
	Field  string
	Target EntityType
	UUID   uuid.UUID
}

// UUIDSet is a set of record keys.
type UUIDSet map[uuid.UUID]struct{}

// NewUUIDSet builds a set from the given keys.
func NewUUIDSet(ids ...uuid.UUID) UUIDSet {
	s := make(UUIDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is a member of the set.
func (s UUIDSet) Has(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id into the set.
func (s UUIDSet) Add(id uuid.UUID) {
	s[id] = struct{}{}
}
