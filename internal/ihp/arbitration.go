package ihp

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/ihp-controller/internal/datadog"
	"github.com/thatsimonsguy/ihp-controller/internal/model"
	"github.com/thatsimonsguy/ihp-controller/internal/tank"
)

// conditions is everything the mode decision looks at.
type conditions struct {
	whCall     bool
	sensLoad   float64
	latentLoad float64
	zoneTemp   float64
	outdoor    float64
	deadband   float64

	// accumulators as they stood before this decision
	prevRunTime float64
	prevVolume  float64

	indoorOverCool    float64
	ambientOverCool   float64
	indoorWHPriority  float64
	ambientWHPriority float64
	matchPolicy       model.MatchPolicy
	volumeLimit       float64
	timeLimit         float64
}

// selectMode picks the operating mode for one timestep.
func selectMode(c conditions) model.Mode {
	cooling := c.sensLoad < -c.deadband || c.latentLoad < -c.deadband
	heating := c.sensLoad > c.deadband
	overCoolOK := c.zoneTemp > c.indoorOverCool && c.outdoor > c.ambientOverCool
	whPriority := c.zoneTemp > c.indoorWHPriority && c.outdoor > c.ambientWHPriority

	if !c.whCall {
		switch {
		case cooling:
			return model.ModeSpaceCooling
		case heating && overCoolOK:
			// passive gains will carry the zone
			return model.ModeIdle
		case heating:
			return model.ModeSpaceHeating
		default:
			return model.ModeIdle
		}
	}

	switch {
	case cooling:
		if c.prevVolume < c.volumeLimit {
			return model.ModeSCDWH
		}
		if c.matchPolicy == model.MatchWaterHeating {
			return model.ModeSCWHMatchWH
		}
		return model.ModeSCWHMatchSC
	case overCoolOK:
		return model.ModeSCWHMatchWH
	case whPriority:
		return model.ModeDedicatedWaterHeating
	case heating:
		if c.prevRunTime > c.timeLimit {
			return model.ModeSHDWHElecHeatOn
		}
		return model.ModeSHDWHElecHeatOff
	default:
		return model.ModeDedicatedWaterHeating
	}
}

// DecideMode fixes the unit's mode for the current timestep. It must run
// before any SimulateUnit or flow query of the step.
func (s *System) DecideMode(index int, sensLoad, latentLoad float64) error {
	u, err := s.unit(index)
	if err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := s.ensureSized(u); err != nil {
		return err
	}

	u.IsWHCallAvail = false
	if u.Tank.Configured() && s.tanks != nil {
		calling, err := s.tanks.Simulate(&u.Tank, tank.Request{FirstIteration: true})
		if err != nil {
			return fmt.Errorf("unit %q: probe water heater %q: %w", u.Name, u.Tank.Name, err)
		}
		u.IsWHCallAvail = calling
	}

	prevRunTime, prevVolume := u.SHDWHRunTime, u.WaterFlowAccumVol
	u.SHDWHRunTime = 0
	u.WaterFlowAccumVol = 0

	mode := selectMode(conditions{
		whCall:            u.IsWHCallAvail,
		sensLoad:          sensLoad,
		latentLoad:        latentLoad,
		zoneTemp:          u.ControlledZoneTemp,
		outdoor:           s.env.OutDryBulbTemp(),
		deadband:          s.smallLoad,
		prevRunTime:       prevRunTime,
		prevVolume:        prevVolume,
		indoorOverCool:    u.IndoorOverCoolAllow,
		ambientOverCool:   u.AmbientOverCoolAllow,
		indoorWHPriority:  u.IndoorWHHighPriority,
		ambientWHPriority: u.AmbientWHHighPriority,
		matchPolicy:       u.ModeMatchSCWH,
		volumeLimit:       u.WaterVolSCDWH,
		timeLimit:         u.TimeLimitSHDWH,
	})

	step := s.env.TimeStepSeconds()
	switch mode {
	case model.ModeSCDWH:
		// kg/s to m³/s
		u.WaterFlowAccumVol = prevVolume + s.nodes.MassFlow(u.TankOutlet)/1000.0*step
	case model.ModeSHDWHElecHeatOn:
		u.SHDWHRunTime = prevRunTime + step
	}

	prev := u.CurMode
	u.CurMode = mode
	u.TotalHeatingEnergyRate = 0
	u.clearLive()
	if mode != prev {
		u.retire(retiredRoles(prev, mode))
	}

	tags := []string{"unit:" + u.Name}
	datadog.Gauge("ihp.mode", float64(mode), tags...)
	datadog.Gauge("ihp.scdwh_volume", u.WaterFlowAccumVol, tags...)
	datadog.Gauge("ihp.shdwh_runtime", u.SHDWHRunTime, tags...)
	if mode != prev {
		datadog.Count("ihp.mode_changes", 1, append(tags, "mode:"+mode.String())...)
	}

	log.Debug().
		Str("unit", u.Name).
		Str("mode", mode.String()).
		Str("prev_mode", prev.String()).
		Bool("wh_call", u.IsWHCallAvail).
		Float64("sens_load", sensLoad).
		Float64("latent_load", latentLoad).
		Float64("scdwh_volume", u.WaterFlowAccumVol).
		Float64("shdwh_runtime", u.SHDWHRunTime).
		Msg("Mode decided")
	return nil
}
