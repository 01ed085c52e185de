package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Node is a bus of the electrical grid.
type Node struct {
	Entity
	VTarget   float64 `validate:"gte=0"`
	VRated    float64 `validate:"gte=0"`
	Slack     bool
	Subnet    int
	VoltLvl   string
	Latitude  float64 `validate:"gte=-90,lte=90"`
	Longitude float64 `validate:"gte=-180,lte=180"`
}

// Line connects two nodes.
type Line struct {
	Entity
	NodeA             uuid.UUID
	NodeB             uuid.UUID
	Length            float64 `validate:"gte=0"`
	ParallelDevices   int     `validate:"gte=1"`
	IMax              float64 `validate:"gte=0"`
	OLMCharacteristic string
}

// Switch connects two nodes and can be opened. By convention NodeB is the
// auxiliary node of the switch; the schema does not enforce it.
type Switch struct {
	Entity
	NodeA  uuid.UUID
	NodeB  uuid.UUID
	Closed bool
}

// Side selects one terminal of a two-terminal element.
type Side string

const (
	SideA Side = "a"
	SideB Side = "b"
)

// ErrUnknownSide is returned for a side selector other than "a" or "b".
var ErrUnknownSide = errors.New("unknown side")

// ParseSide converts a selector such as "a", "B" or "node_b" into a Side.
func ParseSide(s string) (Side, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "node_") {
	case "a":
		return SideA, nil
	case "b":
		return SideB, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSide, s)
}

// NodeAt returns the node on the given side of the line.
func (l Line) NodeAt(side Side) (uuid.UUID, error) {
	switch side {
	case SideA:
		return l.NodeA, nil
	case SideB:
		return l.NodeB, nil
	}
	return uuid.Nil, fmt.Errorf("%w: %q", ErrUnknownSide, side)
}

// NodeAt returns the node on the given side of the switch.
func (s Switch) NodeAt(side Side) (uuid.UUID, error) {
	switch side {
	case SideA:
		return s.NodeA, nil
	case SideB:
		return s.NodeB, nil
	}
	return uuid.Nil, fmt.Errorf("%w: %q", ErrUnknownSide, side)
}
