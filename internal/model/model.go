package model

import "fmt"

// Mode is the operating mode of an integrated heat pump for one timestep.
type Mode int

const (
	ModeIdle Mode = iota
	ModeSpaceCooling
	ModeSpaceHeating
	ModeDedicatedWaterHeating
	ModeSCWHMatchSC
	ModeSCWHMatchWH
	ModeSCDWH
	ModeSHDWHElecHeatOff
	ModeSHDWHElecHeatOn
)

var modeNames = [...]string{
	ModeIdle:                  "idle",
	ModeSpaceCooling:          "space_cooling",
	ModeSpaceHeating:          "space_heating",
	ModeDedicatedWaterHeating: "dedicated_water_heating",
	ModeSCWHMatchSC:           "scwh_match_sc",
	ModeSCWHMatchWH:           "scwh_match_wh",
	ModeSCDWH:                 "scdwh",
	ModeSHDWHElecHeatOff:      "shdwh_elec_heat_off",
	ModeSHDWHElecHeatOn:       "shdwh_elec_heat_on",
}

// Modes lists every mode in code order.
func Modes() []Mode {
	modes := make([]Mode, 0, len(modeNames))
	for m := range modeNames {
		modes = append(modes, Mode(m))
	}
	return modes
}

func (m Mode) Valid() bool {
	return m >= ModeIdle && m <= ModeSHDWHElecHeatOn
}

func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode accepts the names produced by Mode.String.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return Mode(m), nil
		}
	}
	return ModeIdle, fmt.Errorf("unknown mode %q", s)
}

// Caller identifies which loop is invoking the unit.
type Caller int

const (
	CallerAirLoop Caller = iota
	CallerWaterLoop
)

func (c Caller) String() string {
	if c == CallerWaterLoop {
		return "water_loop"
	}
	return "air_loop"
}

// MatchPolicy selects which load the SCWH coil follows when cooling and water heating
// are called together.
type MatchPolicy int

const (
	MatchCooling      MatchPolicy = 0
	MatchWaterHeating MatchPolicy = 1
)

// CoilRole is one of the eight coil personalities of an integrated heat pump.
type CoilRole int

const (
	RoleSC CoilRole = iota
	RoleSH
	RoleDWH
	RoleSCWH
	RoleSCDWHCool
	RoleSCDWHWH
	RoleSHDWHHeat
	RoleSHDWHWH

	NumCoilRoles = int(RoleSHDWHWH) + 1
)

// Coil object types understood by the variable-speed coil model.
const (
	CoilTypeCoolingDX    = "COIL:COOLING:DX:VARIABLESPEED"
	CoilTypeHeatingDX    = "COIL:HEATING:DX:VARIABLESPEED"
	CoilTypeWaterHeating = "COIL:WATERHEATING:AIRTOWATERHEATPUMP:VARIABLESPEED"
)

type roleInfo struct {
	name     string
	coilType string
	air      bool // shares the unit's air nodes
	water    bool // shares the unit's water nodes
}

var roles = [NumCoilRoles]roleInfo{
	RoleSC:        {"sc", CoilTypeCoolingDX, true, false},
	RoleSH:        {"sh", CoilTypeHeatingDX, true, false},
	RoleDWH:       {"dwh", CoilTypeWaterHeating, false, true},
	RoleSCWH:      {"scwh", CoilTypeWaterHeating, true, true},
	RoleSCDWHCool: {"scdwh_cool", CoilTypeCoolingDX, true, true},
	RoleSCDWHWH:   {"scdwh_wh", CoilTypeWaterHeating, true, true},
	RoleSHDWHHeat: {"shdwh_heat", CoilTypeHeatingDX, true, true},
	RoleSHDWHWH:   {"shdwh_wh", CoilTypeWaterHeating, false, true},
}

// CoilRoles lists the roles in slot order.
func CoilRoles() []CoilRole {
	out := make([]CoilRole, NumCoilRoles)
	for i := range out {
		out[i] = CoilRole(i)
	}
	return out
}

func (r CoilRole) String() string {
	if r < 0 || int(r) >= NumCoilRoles {
		return fmt.Sprintf("role(%d)", int(r))
	}
	return roles[r].name
}

// CoilType returns the coil object type a role must reference.
func (r CoilRole) CoilType() string { return roles[r].coilType }

// AirSide reports whether the role's coil is connected to the unit's air nodes.
func (r CoilRole) AirSide() bool { return roles[r].air }

// WaterSide reports whether the role's coil is connected to the unit's water nodes.
func (r CoilRole) WaterSide() bool { return roles[r].water }

// RequiresTank reports whether the role only serves modes that answer a water heating call.
func (r CoilRole) RequiresTank() bool { return r != RoleSC && r != RoleSH }

// SmallLoad is the load magnitude in watts below which a zone load counts as zero.
const SmallLoad = 1.0

// UnitType is the type tag of every unit handled by this module.
const UnitType = "AIRSOURCE_IHP"
