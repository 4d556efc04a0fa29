package ihp

import (
	"sync"

	"github.com/thatsimonsguy/ihp-controller/internal/coil"
	"github.com/thatsimonsguy/ihp-controller/internal/model"
	"github.com/thatsimonsguy/ihp-controller/internal/node"
	"github.com/thatsimonsguy/ihp-controller/internal/tank"
)

// DefaultFlowCeiling leaves the air flow unclamped.
const DefaultFlowCeiling = 1e10

// CoilRef names the coil configured for a role. An empty Type means the
// role's own coil type.
type CoilRef struct {
	Type string
	Name string
}

// UnitDef is the configuration of one integrated heat pump.
type UnitDef struct {
	Name string

	AirInlet    node.ID
	AirOutlet   node.ID
	WaterInlet  node.ID
	WaterOutlet node.ID
	TankOutlet  node.ID

	Coils [model.NumCoilRoles]CoilRef

	IndoorOverCoolAllow   float64 // °C
	AmbientOverCoolAllow  float64 // °C
	IndoorWHHighPriority  float64 // °C
	AmbientWHHighPriority float64 // °C

	ModeMatchSCWH  model.MatchPolicy
	MinSpeedSCWH   int
	MinSpeedSCDWH  int
	MinSpeedSHDWH  int
	WaterVolSCDWH  float64 // m³
	TimeLimitSHDWH float64 // s

	// Zero values take the defaults: scales 1.0, ceilings DefaultFlowCeiling.
	CoolVolFlowScale   float64
	HeatVolFlowScale   float64
	MaxCoolAirVolFlow  float64
	MaxCoolAirMassFlow float64
	MaxHeatAirVolFlow  float64
	MaxHeatAirMassFlow float64

	Tank tank.Ref
}

// Unit is the runtime record of one integrated heat pump.
type Unit struct {
	mu sync.Mutex

	Name string
	Type string

	AirInlet    node.ID
	AirOutlet   node.ID
	WaterInlet  node.ID
	WaterOutlet node.ID
	TankOutlet  node.ID

	Coils coil.Registry

	IndoorOverCoolAllow   float64
	AmbientOverCoolAllow  float64
	IndoorWHHighPriority  float64
	AmbientWHHighPriority float64

	ModeMatchSCWH  model.MatchPolicy
	MinSpeedSCWH   int
	MinSpeedSCDWH  int
	MinSpeedSHDWH  int
	WaterVolSCDWH  float64
	TimeLimitSHDWH float64

	CurMode                model.Mode
	IsWHCallAvail          bool
	SHDWHRunTime           float64 // s
	WaterFlowAccumVol      float64 // m³
	ControlledZoneTemp     float64 // °C
	TotalHeatingEnergyRate float64 // W

	CoolVolFlowScale   float64
	HeatVolFlowScale   float64
	MaxCoolAirVolFlow  float64
	MaxCoolAirMassFlow float64
	MaxHeatAirVolFlow  float64
	MaxHeatAirMassFlow float64

	Tank tank.Ref

	sized bool
	// sizeErr is the sizing failure, returned by every later entry point.
	sizeErr error
	// live marks coils simulated by their owning caller since the last decision.
	live [model.NumCoilRoles]bool
	// retired holds coils of the previous mode still waiting for a passive flush.
	retired []model.CoilRole
}

func newUnit(def UnitDef) *Unit {
	u := &Unit{
		Name:                  def.Name,
		Type:                  model.UnitType,
		AirInlet:              def.AirInlet,
		AirOutlet:             def.AirOutlet,
		WaterInlet:            def.WaterInlet,
		WaterOutlet:           def.WaterOutlet,
		TankOutlet:            def.TankOutlet,
		IndoorOverCoolAllow:   def.IndoorOverCoolAllow,
		AmbientOverCoolAllow:  def.AmbientOverCoolAllow,
		IndoorWHHighPriority:  def.IndoorWHHighPriority,
		AmbientWHHighPriority: def.AmbientWHHighPriority,
		ModeMatchSCWH:         def.ModeMatchSCWH,
		MinSpeedSCWH:          orInt(def.MinSpeedSCWH, 1),
		MinSpeedSCDWH:         orInt(def.MinSpeedSCDWH, 1),
		MinSpeedSHDWH:         orInt(def.MinSpeedSHDWH, 1),
		WaterVolSCDWH:         def.WaterVolSCDWH,
		TimeLimitSHDWH:        def.TimeLimitSHDWH,
		CurMode:               model.ModeIdle,
		CoolVolFlowScale:      orFloat(def.CoolVolFlowScale, 1.0),
		HeatVolFlowScale:      orFloat(def.HeatVolFlowScale, 1.0),
		MaxCoolAirVolFlow:     orFloat(def.MaxCoolAirVolFlow, DefaultFlowCeiling),
		MaxCoolAirMassFlow:    orFloat(def.MaxCoolAirMassFlow, DefaultFlowCeiling),
		MaxHeatAirVolFlow:     orFloat(def.MaxHeatAirVolFlow, DefaultFlowCeiling),
		MaxHeatAirMassFlow:    orFloat(def.MaxHeatAirMassFlow, DefaultFlowCeiling),
		Tank:                  def.Tank,
	}
	return u
}

func (u *Unit) clearLive() {
	u.live = [model.NumCoilRoles]bool{}
}

func (u *Unit) retire(roles []model.CoilRole) {
	for _, r := range roles {
		found := false
		for _, q := range u.retired {
			if q == r {
				found = true
				break
			}
		}
		if !found {
			u.retired = append(u.retired, r)
		}
	}
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
