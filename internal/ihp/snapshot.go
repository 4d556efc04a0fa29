package ihp

import (
	"fmt"

	"github.com/thatsimonsguy/ihp-controller/internal/model"
)

// State is the runtime part of a unit that carries over between steps.
type State struct {
	Name                   string     `json:"name"`
	Mode                   model.Mode `json:"mode"`
	WHCallAvail            bool       `json:"wh_call_avail"`
	SHDWHRunTime           float64    `json:"shdwh_runtime_s"`
	WaterFlowAccumVol      float64    `json:"scdwh_volume_m3"`
	ControlledZoneTemp     float64    `json:"zone_temp_c"`
	TotalHeatingEnergyRate float64    `json:"total_heating_rate_w"`
}

// State returns a copy of one unit's runtime state.
func (s *System) State(index int) (State, error) {
	u, err := s.unit(index)
	if err != nil {
		return State{}, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return State{
		Name:                   u.Name,
		Mode:                   u.CurMode,
		WHCallAvail:            u.IsWHCallAvail,
		SHDWHRunTime:           u.SHDWHRunTime,
		WaterFlowAccumVol:      u.WaterFlowAccumVol,
		ControlledZoneTemp:     u.ControlledZoneTemp,
		TotalHeatingEnergyRate: u.TotalHeatingEnergyRate,
	}, nil
}

// States returns the runtime state of every unit in load order.
func (s *System) States() ([]State, error) {
	n := s.NumUnits()
	if !s.Loaded() {
		return nil, ErrNotLoaded
	}
	out := make([]State, 0, n)
	for i := 1; i <= n; i++ {
		st, err := s.State(i)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// Restore puts saved runtime state back on the unit with the same name.
func (s *System) Restore(st State) error {
	idx, err := s.find(st.Name)
	if err != nil {
		return err
	}
	if idx == 0 {
		return &LookupError{Op: "Restore", Type: model.UnitType, Name: st.Name}
	}
	if !st.Mode.Valid() {
		return fmt.Errorf("unit %q: invalid saved mode %d", st.Name, int(st.Mode))
	}
	u, err := s.unit(idx)
	if err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.CurMode != st.Mode {
		u.retire(retiredRoles(u.CurMode, st.Mode))
	}
	u.CurMode = st.Mode
	u.IsWHCallAvail = st.WHCallAvail
	u.SHDWHRunTime = st.SHDWHRunTime
	u.WaterFlowAccumVol = st.WaterFlowAccumVol
	u.ControlledZoneTemp = st.ControlledZoneTemp
	u.TotalHeatingEnergyRate = st.TotalHeatingEnergyRate
	return nil
}
