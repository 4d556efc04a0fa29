package ihp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/ihp-controller/internal/model"
)

// Load builds every unit from its definition. All problems found in the pass
// are returned together; on error no unit is loaded.
func (s *System) Load(defs []UnitDef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return errors.New("integrated heat pumps already loaded")
	}

	if s.coils == nil {
		return &ConfigurationError{Unit: "*", Err: errors.New("no coil model configured")}
	}
	if len(defs) == 0 {
		return &ConfigurationError{Unit: "*", Err: errors.New("no integrated heat pumps defined")}
	}

	var errs []error
	units := make([]*Unit, 0, len(defs))
	byName := make(map[string]int, len(defs))

	for i, def := range defs {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
			errs = append(errs, &ConfigurationError{Unit: name, Err: errors.New("name is blank")})
		} else if _, dup := byName[name]; dup {
			errs = append(errs, &ConfigurationError{Unit: name, Err: errors.New("name is not unique")})
		}
		def.Name = name

		u := newUnit(def)
		errs = append(errs, s.resolveCoils(u, def)...)
		errs = append(errs, validateUnit(u)...)

		units = append(units, u)
		if _, dup := byName[name]; !dup {
			byName[name] = len(units)
		}
	}

	if len(errs) > 0 {
		log.Error().Int("errors", len(errs)).Msg("Integrated heat pump configuration failed")
		return errors.Join(errs...)
	}

	for _, u := range units {
		if err := s.connectNodes(u); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	s.units = units
	s.byName = byName
	s.loaded = true

	for _, u := range units {
		log.Info().
			Str("unit", u.Name).
			Str("tank", u.Tank.Name).
			Msg("Integrated heat pump loaded")
	}
	return nil
}

func (s *System) resolveCoils(u *Unit, def UnitDef) []error {
	var errs []error
	for _, role := range model.CoilRoles() {
		ref := def.Coils[role]
		if ref.Name == "" {
			// combined coils are optional for a unit without a water heater
			if role.RequiresTank() && !def.Tank.Configured() {
				continue
			}
			errs = append(errs, &ConfigurationError{Unit: u.Name, Role: role.String(), Err: errors.New("required coil not specified")})
			continue
		}
		coilType := ref.Type
		if coilType == "" {
			coilType = role.CoilType()
		}
		u.Coils.Assign(role, coilType, ref.Name)
		if err := u.Coils.Resolve(s.coils, role); err != nil {
			errs = append(errs, &ConfigurationError{Unit: u.Name, Role: role.String(), Coil: ref.Name, Err: err})
		}
	}
	return errs
}

func validateUnit(u *Unit) []error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, &ConfigurationError{Unit: u.Name, Err: fmt.Errorf(format, args...)})
	}

	if u.AirInlet == 0 || u.AirOutlet == 0 {
		bad("air inlet and outlet nodes are required")
	}
	if u.Tank.Configured() && (u.WaterInlet == 0 || u.WaterOutlet == 0) {
		bad("water inlet and outlet nodes are required with water heater %q", u.Tank.Name)
	}
	if u.ModeMatchSCWH != model.MatchCooling && u.ModeMatchSCWH != model.MatchWaterHeating {
		bad("mode match policy must be 0 or 1, got %d", u.ModeMatchSCWH)
	}
	for _, sp := range []struct {
		name  string
		value int
	}{
		{"scwh", u.MinSpeedSCWH},
		{"scdwh", u.MinSpeedSCDWH},
		{"shdwh", u.MinSpeedSHDWH},
	} {
		if sp.value < 1 {
			bad("minimum %s speed must be at least 1, got %d", sp.name, sp.value)
		}
	}
	if u.WaterVolSCDWH < 0 {
		bad("scdwh water volume limit must not be negative")
	}
	if u.TimeLimitSHDWH < 0 {
		bad("shdwh time limit must not be negative")
	}
	if u.CoolVolFlowScale < 0 || u.HeatVolFlowScale < 0 {
		bad("flow scales must not be negative")
	}
	if u.MaxCoolAirVolFlow < 0 || u.MaxHeatAirVolFlow < 0 || u.MaxCoolAirMassFlow < 0 || u.MaxHeatAirMassFlow < 0 {
		bad("flow ceilings must not be negative")
	}
	return errs
}

// connectNodes attaches the unit's air and water nodes to each configured coil.
func (s *System) connectNodes(u *Unit) error {
	for _, role := range model.CoilRoles() {
		h := u.Coils.Handle(role)
		if h == 0 {
			continue
		}
		if role.AirSide() {
			if err := s.coils.SetAirNodes(h, u.AirInlet, u.AirOutlet); err != nil {
				return &ConfigurationError{Unit: u.Name, Role: role.String(), Coil: u.Coils.Slot(role).Name, Err: err}
			}
		}
		if role.WaterSide() {
			if err := s.coils.SetWaterNodes(h, u.WaterInlet, u.WaterOutlet); err != nil {
				return &ConfigurationError{Unit: u.Name, Role: role.String(), Coil: u.Coils.Slot(role).Name, Err: err}
			}
		}
	}
	return nil
}
