package state

import (
	"github.com/thatsimonsguy/ihp-controller/internal/coil"
	"github.com/thatsimonsguy/ihp-controller/internal/config"
	"github.com/thatsimonsguy/ihp-controller/internal/ihp"
	"github.com/thatsimonsguy/ihp-controller/internal/model"
	"github.com/thatsimonsguy/ihp-controller/internal/node"
	"github.com/thatsimonsguy/ihp-controller/internal/tank"
)

// Plant is everything the simulation needs to build its collaborators and
// load its units.
type Plant struct {
	Coils []coil.Spec
	Tanks []tank.Ref
	Units []ihp.UnitDef
}

// NewPlant turns configured coils, tanks and units into model inputs. Unit
// nodes are registered on nodes by name.
func NewPlant(coils []config.Coil, tanks []config.Tank, units []config.Unit, nodes *node.Network) *Plant {
	return &Plant{
		Coils: hydrateCoils(coils),
		Tanks: hydrateTanks(tanks),
		Units: hydrateUnits(units, coils, tanks, nodes),
	}
}

func NewPlantFromConfig(cfg *config.Config, nodes *node.Network) *Plant {
	return NewPlant(cfg.Coils, cfg.Tanks, cfg.Units, nodes)
}

func hydrateCoils(coils []config.Coil) []coil.Spec {
	specs := make([]coil.Spec, 0, len(coils))
	for _, c := range coils {
		capacity := c.RatedCapacity
		if capacity <= 0 {
			capacity = coil.AutoSize
		}
		speeds := make([]coil.Speed, 0, len(c.Speeds))
		for _, sp := range c.Speeds {
			speeds = append(speeds, coil.Speed{
				CapacityRatio: sp.CapacityRatio,
				AirVolFlow:    sp.AirVolFlow,
				WaterVolFlow:  sp.WaterVolFlow,
			})
		}
		specs = append(specs, coil.Spec{
			Type:          c.Type,
			Name:          c.Name,
			RatedCapacity: capacity,
			RatedCOPHeat:  c.RatedCOPHeat,
			PartLoadCurve: c.PartLoadCurve,
			Speeds:        speeds,
		})
	}
	return specs
}

func hydrateTanks(tanks []config.Tank) []tank.Ref {
	refs := make([]tank.Ref, 0, len(tanks))
	for _, t := range tanks {
		refs = append(refs, tank.Ref{Type: t.Type, Name: t.Name})
	}
	return refs
}

func hydrateUnits(units []config.Unit, coils []config.Coil, tanks []config.Tank, nodes *node.Network) []ihp.UnitDef {
	coilTypes := make(map[string]string, len(coils))
	for _, c := range coils {
		coilTypes[c.Name] = c.Type
	}
	tankTypes := make(map[string]string, len(tanks))
	for _, t := range tanks {
		tankTypes[t.Name] = t.Type
	}

	register := func(name string) node.ID {
		if name == "" {
			return 0
		}
		return nodes.Register(name)
	}

	defs := make([]ihp.UnitDef, 0, len(units))
	for _, u := range units {
		def := ihp.UnitDef{
			Name:                  u.Name,
			AirInlet:              register(u.AirInletNode),
			AirOutlet:             register(u.AirOutletNode),
			WaterInlet:            register(u.WaterInletNode),
			WaterOutlet:           register(u.WaterOutletNode),
			TankOutlet:            register(u.TankOutletNode),
			IndoorOverCoolAllow:   u.IndoorOverCoolAllow,
			AmbientOverCoolAllow:  u.AmbientOverCoolAllow,
			IndoorWHHighPriority:  u.IndoorWHHighPriority,
			AmbientWHHighPriority: u.AmbientWHHighPriority,
			ModeMatchSCWH:         model.MatchPolicy(u.ModeMatchSCWH),
			MinSpeedSCWH:          u.MinSpeedSCWH,
			MinSpeedSCDWH:         u.MinSpeedSCDWH,
			MinSpeedSHDWH:         u.MinSpeedSHDWH,
			WaterVolSCDWH:         u.WaterVolSCDWH,
			TimeLimitSHDWH:        u.TimeLimitSHDWH,
			CoolVolFlowScale:      u.CoolVolFlowScale,
			HeatVolFlowScale:      u.HeatVolFlowScale,
			MaxCoolAirVolFlow:     u.MaxCoolAirVolFlow,
			MaxCoolAirMassFlow:    u.MaxCoolAirMassFlow,
			MaxHeatAirVolFlow:     u.MaxHeatAirVolFlow,
			MaxHeatAirMassFlow:    u.MaxHeatAirMassFlow,
		}
		for role, name := range u.Coils.ByRole() {
			if name != "" {
				def.Coils[role] = ihp.CoilRef{Type: coilTypes[name], Name: name}
			}
		}
		if u.Tank != "" {
			def.Tank = tank.Ref{Type: tankTypes[u.Tank], Name: u.Tank}
		}
		defs = append(defs, def)
	}
	return defs
}
