package grid

import (
	"time"

	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/ajitpratap0/gridkit/internal/models"
	"github.com/ajitpratap0/gridkit/internal/table"
)

var validate = validator.New()

// entitySchema declares a schema whose records embed models.Entity. The base
// attributes come first, followed by cols.
func entitySchema[T any](et models.EntityType, entity func(*T) *models.Entity, cols ...table.Column[T]) *table.Schema[T] {
	base := []table.Column[T]{
		table.String("id", func(r *T) *string { return &entity(r).ID }),
		table.OptionalRef("operator", func(r *T) **uuid.UUID { return &entity(r).Operator }),
		table.OptionalTime("operates_from", func(r *T) **time.Time { return &entity(r).OperatesFrom }),
		table.OptionalTime("operates_until", func(r *T) **time.Time { return &entity(r).OperatesUntil }),
	}
	return table.NewSchema(et, func(r *T) *models.Row { return &entity(r).Row }, append(base, cols...)...).
		WithLabel(func(r *T) string { return entity(r).ID }).
		WithValidator(func(r *T) error {
			if err := validate.Struct(r); err != nil {
				return err
			}
			return entity(r).ValidateInterval()
		})
}

func nodeRef(field string, id uuid.UUID) models.Ref {
	return models.Ref{Field: field, Target: models.EntityTypeNode, UUID: id}
}

func thermalBusRef(id uuid.UUID) models.Ref {
	return models.Ref{Field: "thermal_bus", Target: models.EntityTypeThermalBus, UUID: id}
}

// NodeSchema declares node_input.csv.
var NodeSchema = entitySchema(models.EntityTypeNode,
	func(r *models.Node) *models.Entity { return &r.Entity },
	table.Float("v_target", func(r *models.Node) *float64 { return &r.VTarget }),
	table.Float("v_rated", func(r *models.Node) *float64 { return &r.VRated }),
	table.Bool("slack", func(r *models.Node) *bool { return &r.Slack }),
	table.Int("subnet", func(r *models.Node) *int { return &r.Subnet }),
	table.String("volt_lvl", func(r *models.Node) *string { return &r.VoltLvl }).Optional(),
	table.Float("latitude", func(r *models.Node) *float64 { return &r.Latitude }),
	table.Float("longitude", func(r *models.Node) *float64 { return &r.Longitude }),
)

// LineSchema declares line_input.csv.
var LineSchema = entitySchema(models.EntityTypeLine,
	func(r *models.Line) *models.Entity { return &r.Entity },
	table.Ref("node_a", func(r *models.Line) *uuid.UUID { return &r.NodeA }),
	table.Ref("node_b", func(r *models.Line) *uuid.UUID { return &r.NodeB }),
	table.Float("length", func(r *models.Line) *float64 { return &r.Length }),
	table.Int("parallel_devices", func(r *models.Line) *int { return &r.ParallelDevices }),
	table.Float("i_max", func(r *models.Line) *float64 { return &r.IMax }),
	table.String("olm_characteristic", func(r *models.Line) *string { return &r.OLMCharacteristic }).Optional(),
).WithRefs(func(r *models.Line) []models.Ref {
	return []models.Ref{nodeRef("node_a", r.NodeA), nodeRef("node_b", r.NodeB)}
})

// SwitchSchema declares switch_input.csv.
var SwitchSchema = entitySchema(models.EntityTypeSwitch,
	func(r *models.Switch) *models.Entity { return &r.Entity },
	table.Ref("node_a", func(r *models.Switch) *uuid.UUID { return &r.NodeA }),
	table.Ref("node_b", func(r *models.Switch) *uuid.UUID { return &r.NodeB }),
	table.Bool("closed", func(r *models.Switch) *bool { return &r.Closed }),
).WithRefs(func(r *models.Switch) []models.Ref {
	return []models.Ref{nodeRef("node_a", r.NodeA), nodeRef("node_b", r.NodeB)}
})

// participantSchema declares a participant schema: the entity base, the
// shared participant attributes, then cols.
func participantSchema[T any](et models.EntityType, part func(*T) *models.ParticipantBase, cols ...table.Column[T]) *table.Schema[T] {
	shared := []table.Column[T]{
		table.Ref("node", func(r *T) *uuid.UUID { return &part(r).Node }),
		table.String("q_characteristics", func(r *T) *string { return &part(r).QCharacteristics }).Optional(),
		table.Float("s_rated", func(r *T) *float64 { return &part(r).SRated }),
		table.Float("cos_phi_rated", func(r *T) *float64 { return &part(r).CosPhiRated }),
	}
	return entitySchema(et, func(r *T) *models.Entity { return &part(r).Entity }, append(shared, cols...)...).
		WithRefs(func(r *T) []models.Ref {
			return []models.Ref{nodeRef("node", part(r).Node)}
		})
}

// LoadSchema declares load_input.csv.
var LoadSchema = participantSchema(models.EntityTypeLoad,
	func(r *models.Load) *models.ParticipantBase { return &r.ParticipantBase },
	table.String("load_profile", func(r *models.Load) *string { return &r.LoadProfile }).Optional(),
	table.Float("e_cons_annual", func(r *models.Load) *float64 { return &r.EConsAnnual }),
)

// FixedFeedInSchema declares fixed_feed_in_input.csv.
var FixedFeedInSchema = participantSchema(models.EntityTypeFixedFeedIn,
	func(r *models.FixedFeedIn) *models.ParticipantBase { return &r.ParticipantBase },
)

// PVSchema declares pv_input.csv.
var PVSchema = participantSchema(models.EntityTypePV,
	func(r *models.PV) *models.ParticipantBase { return &r.ParticipantBase },
	table.Float("albedo", func(r *models.PV) *float64 { return &r.Albedo }),
	table.Float("azimuth", func(r *models.PV) *float64 { return &r.AzimuthAngle }),
	table.Float("elevation_angle", func(r *models.PV) *float64 { return &r.ElevationAngle }),
	table.Float("eta_conv", func(r *models.PV) *float64 { return &r.EtaConv }),
	table.Float("k_g", func(r *models.PV) *float64 { return &r.KG }),
	table.Float("k_t", func(r *models.PV) *float64 { return &r.KT }),
	table.Bool("market_reaction", func(r *models.PV) *bool { return &r.MarketReaction }),
)

// WecSchema declares wec_input.csv.
var WecSchema = participantSchema(models.EntityTypeWec,
	func(r *models.Wec) *models.ParticipantBase { return &r.ParticipantBase },
	table.Float("hub_height", func(r *models.Wec) *float64 { return &r.HubHeight }),
	table.Bool("market_reaction", func(r *models.Wec) *bool { return &r.MarketReaction }),
)

// BMSchema declares bm_input.csv.
var BMSchema = participantSchema(models.EntityTypeBM,
	func(r *models.BM) *models.ParticipantBase { return &r.ParticipantBase },
	table.Bool("cost_controlled", func(r *models.BM) *bool { return &r.CostControlled }),
	table.Bool("market_reaction", func(r *models.BM) *bool { return &r.MarketReaction }),
	table.Float("feed_in_tariff", func(r *models.BM) *float64 { return &r.FeedInTariff }),
)

// StorageSchema declares storage_input.csv.
var StorageSchema = participantSchema(models.EntityTypeStorage,
	func(r *models.Storage) *models.ParticipantBase { return &r.ParticipantBase },
	table.Float("e_storage", func(r *models.Storage) *float64 { return &r.EStorage }),
	table.Float("p_max", func(r *models.Storage) *float64 { return &r.PMax }),
)

// EVSchema declares ev_input.csv.
var EVSchema = participantSchema(models.EntityTypeEV,
	func(r *models.EV) *models.ParticipantBase { return &r.ParticipantBase },
	table.Float("e_storage", func(r *models.EV) *float64 { return &r.EStorage }),
	table.Float("e_cons", func(r *models.EV) *float64 { return &r.EConsumption }),
)

// HPSchema declares hp_input.csv. A heat pump references a node and a thermal bus.
var HPSchema = participantSchema(models.EntityTypeHP,
	func(r *models.HP) *models.ParticipantBase { return &r.ParticipantBase },
	table.Ref("thermal_bus", func(r *models.HP) *uuid.UUID { return &r.ThermalBus }),
	table.Float("p_thermal", func(r *models.HP) *float64 { return &r.PThermal }),
).WithRefs(func(r *models.HP) []models.Ref {
	return []models.Ref{nodeRef("node", r.Node), thermalBusRef(r.ThermalBus)}
})

// ThermalBusSchema declares thermal_bus_input.csv.
var ThermalBusSchema = entitySchema(models.EntityTypeThermalBus,
	func(r *models.ThermalBus) *models.Entity { return &r.Entity },
)

// ThermalHouseSchema declares thermal_house_input.csv.
var ThermalHouseSchema = entitySchema(models.EntityTypeThermalHouse,
	func(r *models.ThermalHouse) *models.Entity { return &r.Entity },
	table.Ref("thermal_bus", func(r *models.ThermalHouse) *uuid.UUID { return &r.ThermalBus }),
	table.Float("eth_losses", func(r *models.ThermalHouse) *float64 { return &r.EthLosses }),
	table.Float("eth_capa", func(r *models.ThermalHouse) *float64 { return &r.EthCapa }),
	table.Float("target_temperature", func(r *models.ThermalHouse) *float64 { return &r.TargetTemperature }),
	table.Float("upper_temperature_limit", func(r *models.ThermalHouse) *float64 { return &r.UpperTemperatureLimit }),
	table.Float("lower_temperature_limit", func(r *models.ThermalHouse) *float64 { return &r.LowerTemperatureLimit }),
).WithRefs(func(r *models.ThermalHouse) []models.Ref {
	return []models.Ref{thermalBusRef(r.ThermalBus)}
})
