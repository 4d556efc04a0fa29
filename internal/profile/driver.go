package profile

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/ihp-controller/db"
	"github.com/thatsimonsguy/ihp-controller/internal/env"
	"github.com/thatsimonsguy/ihp-controller/internal/ihp"
	"github.com/thatsimonsguy/ihp-controller/internal/model"
	"github.com/thatsimonsguy/ihp-controller/internal/node"
	"github.com/thatsimonsguy/ihp-controller/internal/tank"
)

// Driver steps every loaded unit through a load profile the way a host
// simulation would: decide, run the air loop, run the water loop, read flows.
type Driver struct {
	sys   *ihp.System
	env   *env.Environment
	nodes *node.Network
	tanks *tank.Schedule
	units []ihp.UnitDef
	index []int

	// Record receives each step's decisions. Optional.
	Record func([]db.ModeDecision) error
}

func NewDriver(sys *ihp.System, e *env.Environment, nodes *node.Network, tanks *tank.Schedule, units []ihp.UnitDef) *Driver {
	return &Driver{
		sys:   sys,
		env:   e,
		nodes: nodes,
		tanks: tanks,
		units: units,
		index: make([]int, len(units)),
	}
}

// Run steps through rows in order and returns every unit's results.
func (d *Driver) Run(rows []Row) ([]Result, error) {
	results := make([]Result, 0, len(rows)*len(d.units))
	for _, row := range rows {
		step, err := d.Step(row)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", row.Step, err)
		}
		results = append(results, step...)
	}
	log.Info().
		Int("steps", len(rows)).
		Int("units", len(d.units)).
		Msg("Load profile complete")
	return results, nil
}

// Step advances every unit by one timestep.
func (d *Driver) Step(row Row) ([]Result, error) {
	d.env.SetOutDryBulbTemp(row.OutdoorTemp)

	results := make([]Result, 0, len(d.units))
	decisions := make([]db.ModeDecision, 0, len(d.units))
	for i, def := range d.units {
		res, err := d.stepUnit(i, def, row)
		if err != nil {
			return nil, fmt.Errorf("unit %q: %w", def.Name, err)
		}
		results = append(results, res)
		decisions = append(decisions, db.ModeDecision{
			Unit:             res.Unit,
			Step:             row.Step,
			Mode:             model.Mode(res.ModeCode),
			WHCall:           res.WHCall,
			ZoneTemp:         row.ZoneTemp,
			OutdoorTemp:      row.OutdoorTemp,
			SensLoad:         row.SensLoad,
			LatentLoad:       row.LatentLoad,
			TotalHeatingRate: res.TotalHeatingRate,
			SCDWHVolume:      res.SCDWHVolume,
			SHDWHRunTime:     res.SHDWHRunTime,
		})
	}

	if d.Record != nil {
		if err := d.Record(decisions); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (d *Driver) stepUnit(i int, def ihp.UnitDef, row Row) (Result, error) {
	idx := i + 1

	if def.Tank.Configured() && d.tanks != nil {
		if err := d.tanks.Set(def.Tank.Name, row.TankCall); err != nil {
			return Result{}, err
		}
	}
	if def.TankOutlet != 0 {
		if err := d.nodes.SetMassFlow(def.TankOutlet, row.TankFlow); err != nil {
			return Result{}, err
		}
	}
	if err := d.sys.SetControlledZoneTemp(idx, row.ZoneTemp); err != nil {
		return Result{}, err
	}
	if err := d.sys.DecideMode(idx, row.SensLoad, row.LatentLoad); err != nil {
		return Result{}, err
	}

	low, err := d.sys.LowSpeed(idx)
	if err != nil {
		return Result{}, err
	}
	high, err := d.sys.MaxSpeed(idx)
	if err != nil {
		return Result{}, err
	}
	speed := row.Speed
	if speed < low {
		speed = low
	}
	if high > 0 && speed > high {
		speed = high
	}

	req := ihp.SimulateRequest{
		CompressorOn:       row.PartLoad > 0,
		PartLoadFrac:       row.PartLoad,
		SpeedNum:           speed,
		SpeedRatio:         row.SpeedRatio,
		SensLoad:           row.SensLoad,
		LatentLoad:         row.LatentLoad,
		FirstHVACIteration: true,
	}
	for _, caller := range []model.Caller{model.CallerAirLoop, model.CallerWaterLoop} {
		req.Caller = caller
		if err := d.sys.SimulateUnit(def.Name, &d.index[i], req); err != nil {
			return Result{}, err
		}
	}

	res := Result{Step: row.Step, Unit: def.Name, Speed: speed, LowSpeed: low, MaxSpeed: high}
	if res.AirVolFlow, err = d.sys.AirVolFlow(idx, speed, row.SpeedRatio, model.CallerAirLoop); err != nil {
		return Result{}, err
	}
	if res.AirMassFlow, err = d.sys.AirMassFlow(idx, speed, row.SpeedRatio, model.CallerAirLoop); err != nil {
		return Result{}, err
	}
	if res.WaterVolFlow, err = d.sys.WaterVolFlow(idx, speed, row.SpeedRatio, model.CallerWaterLoop); err != nil {
		return Result{}, err
	}

	st, err := d.sys.State(idx)
	if err != nil {
		return Result{}, err
	}
	res.Mode = st.Mode.String()
	res.ModeCode = int(st.Mode)
	res.WHCall = st.WHCallAvail
	res.TotalHeatingRate = st.TotalHeatingEnergyRate
	res.SCDWHVolume = st.WaterFlowAccumVol
	res.SHDWHRunTime = st.SHDWHRunTime

	log.Debug().
		Int("step", row.Step).
		Str("unit", def.Name).
		Str("mode", res.Mode).
		Int("speed", speed).
		Float64("air_vol_flow", res.AirVolFlow).
		Msg("Step complete")
	return res, nil
}
