package models

// DataType classifies how an externally mapped entity is used.
type DataType string

const (
	DataTypePrimaryInput      DataType = "primary_input"
	DataTypeEmInput           DataType = "em_input"
	DataTypeGridResult        DataType = "grid_result"
	DataTypeParticipantResult DataType = "participant_result"
)

// ValidDataTypes is the set of all valid mapping data types.
var ValidDataTypes = []DataType{
	DataTypePrimaryInput,
	DataTypeEmInput,
	DataTypeGridResult,
	DataTypeParticipantResult,
}

// IsValid returns true if the data type is recognized.
func (dt DataType) IsValid() bool {
	for _, v := range ValidDataTypes {
		if dt == v {
			return true
		}
	}
	return false
}

// ColumnScheme names the time series columns an entity type expects.
type ColumnScheme string

const (
	ColumnSchemeActivePower          ColumnScheme = "p"
	ColumnSchemeApparentPower        ColumnScheme = "pq"
	ColumnSchemeApparentPowerAndHeat ColumnScheme = "pqh"
	ColumnSchemeHeatDemand           ColumnScheme = "h"
	ColumnSchemeVoltage              ColumnScheme = "v"
	ColumnSchemeCurrent              ColumnScheme = "i"
)

// ValidColumnSchemes is the set of all valid column schemes.
var ValidColumnSchemes = []ColumnScheme{
	ColumnSchemeActivePower,
	ColumnSchemeApparentPower,
	ColumnSchemeApparentPowerAndHeat,
	ColumnSchemeHeatDemand,
	ColumnSchemeVoltage,
	ColumnSchemeCurrent,
}

// IsValid returns true if the column scheme is recognized.
func (cs ColumnScheme) IsValid() bool {
	for _, v := range ValidColumnSchemes {
		if cs == v {
			return true
		}
	}
	return false
}

// Columns returns the value columns of a time series in this scheme.
func (cs ColumnScheme) Columns() []string {
	switch cs {
	case ColumnSchemeActivePower:
		return []string{"p"}
	case ColumnSchemeApparentPower:
		return []string{"p", "q"}
	case ColumnSchemeApparentPowerAndHeat:
		return []string{"p", "q", "heat"}
	case ColumnSchemeHeatDemand:
		return []string{"heat"}
	case ColumnSchemeVoltage:
		return []string{"v_mag", "v_ang"}
	case ColumnSchemeCurrent:
		return []string{"i_mag", "i_ang"}
	}
	return nil
}

// MappingEntry links an entity to an externally facing identifier.
type MappingEntry struct {
	Row
	ID           string       `json:"id"`
	ColumnScheme ColumnScheme `json:"column_scheme"`
	DataType     DataType     `json:"data_type"`
}
