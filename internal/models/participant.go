package models

import "github.com/google/uuid"

// Participant is implemented by every record attached to a single grid node.
type Participant interface {
	NodeUUID() uuid.UUID
	RatedPower() float64
}

// ParticipantBase holds the attributes shared by all system participants.
type ParticipantBase struct {
	Entity
	Node             uuid.UUID
	QCharacteristics string
	SRated           float64 `validate:"gte=0"`
	CosPhiRated      float64 `validate:"gte=0,lte=1"`
}

// NodeUUID returns the node the participant is connected to.
func (p ParticipantBase) NodeUUID() uuid.UUID { return p.Node }

// RatedPower returns the rated apparent power in kVA.
func (p ParticipantBase) RatedPower() float64 { return p.SRated }

// Load is an electrical consumer.
type Load struct {
	ParticipantBase
	LoadProfile string
	EConsAnnual float64 `validate:"gte=0"`
}

// FixedFeedIn is a generator with a fixed infeed profile.
type FixedFeedIn struct {
	ParticipantBase
}

// PV is a photovoltaic plant.
type PV struct {
	ParticipantBase
	Albedo         float64 `validate:"gte=0,lte=1"`
	AzimuthAngle   float64
	ElevationAngle float64
	EtaConv        float64 `validate:"gte=0"`
	KG             float64
	KT             float64
	MarketReaction bool
}

// Wec is a wind energy converter.
type Wec struct {
	ParticipantBase
	HubHeight      float64 `validate:"gte=0"`
	MarketReaction bool
}

// BM is a biomass plant.
type BM struct {
	ParticipantBase
	CostControlled bool
	MarketReaction bool
	FeedInTariff   float64
}

// Storage is a battery storage.
type Storage struct {
	ParticipantBase
	EStorage float64 `validate:"gte=0"`
	PMax     float64 `validate:"gte=0"`
}

// EV is an electric vehicle.
type EV struct {
	ParticipantBase
	EStorage     float64 `validate:"gte=0"`
	EConsumption float64 `validate:"gte=0"`
}

// HP is a heat pump. It draws power from a node and feeds a thermal bus.
type HP struct {
	ParticipantBase
	ThermalBus uuid.UUID
	PThermal   float64 `validate:"gte=0"`
}
