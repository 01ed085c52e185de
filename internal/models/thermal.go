package models

import "github.com/google/uuid"

// ThermalBus is a node of the thermal grid.
type ThermalBus struct {
	Entity
}

// ThermalHouse is a thermal load attached to a thermal bus.
type ThermalHouse struct {
	Entity
	ThermalBus            uuid.UUID
	EthLosses             float64 `validate:"gte=0"`
	EthCapa               float64 `validate:"gte=0"`
	LowerTemperatureLimit float64
	TargetTemperature     float64 `validate:"gtefield=LowerTemperatureLimit"`
	UpperTemperatureLimit float64 `validate:"gtefield=TargetTemperature"`
}
