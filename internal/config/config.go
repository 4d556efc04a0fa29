package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/thatsimonsguy/ihp-controller/internal/model"
	"github.com/thatsimonsguy/ihp-controller/internal/tank"
)

// EnvDDAgentAddr overrides the configured DogStatsD address.
const EnvDDAgentAddr = "IHP_DD_AGENT_ADDR"

type Speed struct {
	CapacityRatio float64 `json:"capacity_ratio" yaml:"capacity_ratio"`
	AirVolFlow    float64 `json:"air_vol_flow_m3s" yaml:"air_vol_flow_m3s"`
	WaterVolFlow  float64 `json:"water_vol_flow_m3s" yaml:"water_vol_flow_m3s"`
}

// Coil is one variable-speed coil. A zero capacity is autosized from the
// unit's space cooling coil.
type Coil struct {
	Name          string  `json:"name" yaml:"name"`
	Type          string  `json:"type" yaml:"type"`
	RatedCapacity float64 `json:"rated_capacity_w" yaml:"rated_capacity_w"`
	RatedCOPHeat  float64 `json:"rated_cop_heat" yaml:"rated_cop_heat"`
	PartLoadCurve int     `json:"part_load_curve" yaml:"part_load_curve"`
	Speeds        []Speed `json:"speeds" yaml:"speeds"`
}

type Tank struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// UnitCoils names the coil filling each role of a unit.
type UnitCoils struct {
	SC        string `json:"sc" yaml:"sc"`
	SH        string `json:"sh" yaml:"sh"`
	DWH       string `json:"dwh" yaml:"dwh"`
	SCWH      string `json:"scwh" yaml:"scwh"`
	SCDWHCool string `json:"scdwh_cool" yaml:"scdwh_cool"`
	SCDWHWH   string `json:"scdwh_wh" yaml:"scdwh_wh"`
	SHDWHHeat string `json:"shdwh_heat" yaml:"shdwh_heat"`
	SHDWHWH   string `json:"shdwh_wh" yaml:"shdwh_wh"`
}

// ByRole returns the coil names in role order.
func (c UnitCoils) ByRole() [model.NumCoilRoles]string {
	return [model.NumCoilRoles]string{
		model.RoleSC:        c.SC,
		model.RoleSH:        c.SH,
		model.RoleDWH:       c.DWH,
		model.RoleSCWH:      c.SCWH,
		model.RoleSCDWHCool: c.SCDWHCool,
		model.RoleSCDWHWH:   c.SCDWHWH,
		model.RoleSHDWHHeat: c.SHDWHHeat,
		model.RoleSHDWHWH:   c.SHDWHWH,
	}
}

type Unit struct {
	Name string `json:"name" yaml:"name"`

	AirInletNode    string `json:"air_inlet_node" yaml:"air_inlet_node"`
	AirOutletNode   string `json:"air_outlet_node" yaml:"air_outlet_node"`
	WaterInletNode  string `json:"water_inlet_node" yaml:"water_inlet_node"`
	WaterOutletNode string `json:"water_outlet_node" yaml:"water_outlet_node"`
	TankOutletNode  string `json:"tank_outlet_node" yaml:"tank_outlet_node"`

	Coils UnitCoils `json:"coils" yaml:"coils"`
	Tank  string    `json:"tank" yaml:"tank"`

	IndoorOverCoolAllow   float64 `json:"indoor_overcool_allow_c" yaml:"indoor_overcool_allow_c"`
	AmbientOverCoolAllow  float64 `json:"ambient_overcool_allow_c" yaml:"ambient_overcool_allow_c"`
	IndoorWHHighPriority  float64 `json:"indoor_wh_high_priority_c" yaml:"indoor_wh_high_priority_c"`
	AmbientWHHighPriority float64 `json:"ambient_wh_high_priority_c" yaml:"ambient_wh_high_priority_c"`

	ModeMatchSCWH  int     `json:"mode_match_scwh" yaml:"mode_match_scwh"`
	MinSpeedSCWH   int     `json:"min_speed_scwh" yaml:"min_speed_scwh"`
	MinSpeedSCDWH  int     `json:"min_speed_scdwh" yaml:"min_speed_scdwh"`
	MinSpeedSHDWH  int     `json:"min_speed_shdwh" yaml:"min_speed_shdwh"`
	WaterVolSCDWH  float64 `json:"water_vol_scdwh_m3" yaml:"water_vol_scdwh_m3"`
	TimeLimitSHDWH float64 `json:"time_limit_shdwh_s" yaml:"time_limit_shdwh_s"`

	CoolVolFlowScale   float64 `json:"cool_vol_flow_scale" yaml:"cool_vol_flow_scale"`
	HeatVolFlowScale   float64 `json:"heat_vol_flow_scale" yaml:"heat_vol_flow_scale"`
	MaxCoolAirVolFlow  float64 `json:"max_cool_air_vol_flow_m3s" yaml:"max_cool_air_vol_flow_m3s"`
	MaxCoolAirMassFlow float64 `json:"max_cool_air_mass_flow_kgs" yaml:"max_cool_air_mass_flow_kgs"`
	MaxHeatAirVolFlow  float64 `json:"max_heat_air_vol_flow_m3s" yaml:"max_heat_air_vol_flow_m3s"`
	MaxHeatAirMassFlow float64 `json:"max_heat_air_mass_flow_kgs" yaml:"max_heat_air_mass_flow_kgs"`
}

type Config struct {
	ConfigFile  string `json:"-" yaml:"-"`
	DBPath      string `json:"-" yaml:"-"`
	StateFile   string `json:"-" yaml:"-"`
	ProfileFile string `json:"-" yaml:"-"`
	OutputFile  string `json:"-" yaml:"-"`
	EnvFile     string `json:"-" yaml:"-"`
	LogFile     string `json:"-" yaml:"-"`
	ServeAddr   string `json:"-" yaml:"-"`
	Reseed      bool   `json:"-" yaml:"-"`

	LogLevel zerolog.Level `json:"-" yaml:"-"`

	TimeStepMinutes float64 `json:"timestep_minutes" yaml:"timestep_minutes"`
	SmallLoad       float64 `json:"small_load_w" yaml:"small_load_w"`

	EnableDatadog bool     `json:"enable_datadog" yaml:"enable_datadog"`
	DDAgentAddr   string   `json:"dd_agent_addr" yaml:"dd_agent_addr"`
	DDNamespace   string   `json:"dd_namespace" yaml:"dd_namespace"`
	DDTags        []string `json:"dd_tags" yaml:"dd_tags"`

	Coils []Coil `json:"coils" yaml:"coils"`
	Tanks []Tank `json:"tanks" yaml:"tanks"`
	Units []Unit `json:"units" yaml:"units"`
}

func Load() Config {
	cfg, err := Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

// Parse reads flags from args, then the env file and the config file they
// point at. Configuration problems panic.
func Parse(set *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	var logLevel string

	set.StringVar(&cfg.ConfigFile, "config-file", "config.yaml", "Path to unit config file (.json, .yaml or .yml)")
	set.StringVar(&cfg.DBPath, "db", "data/ihp.db", "Path to the SQLite database file")
	set.StringVar(&cfg.StateFile, "state-file", "data/state.json", "Path to unit runtime checkpoint")
	set.StringVar(&cfg.ProfileFile, "profile", "profile.csv", "Path to load profile CSV")
	set.StringVar(&cfg.OutputFile, "output", "results.csv", "Path to per-step results CSV")
	set.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	set.StringVar(&cfg.LogFile, "log-file", "", "Log file path; stderr when empty")
	set.StringVar(&cfg.EnvFile, "env-file", ".env", "Optional environment file")
	set.StringVar(&cfg.ServeAddr, "serve", "", "Serve the decision API on this address after the run")
	set.BoolVar(&cfg.Reseed, "reseed", false, "Replace the stored plant with the config file's")
	if err := set.Parse(args); err != nil {
		return cfg, err
	}
	cfg.LogLevel = parseLogLevel(logLevel)

	if err := godotenv.Load(cfg.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("failed to load env file %s: %w", cfg.EnvFile, err)
	}

	data, err := os.ReadFile(cfg.ConfigFile)
	if err != nil {
		panic("Failed to load config file: " + err.Error())
	}
	if err := Decode(cfg.ConfigFile, data, &cfg); err != nil {
		panic("Failed to parse config file: " + err.Error())
	}

	if addr := os.Getenv(EnvDDAgentAddr); addr != "" {
		cfg.DDAgentAddr = addr
	}

	cfg.applyDefaults()
	cfg.validate()
	return cfg, nil
}

// Decode unmarshals YAML for .yaml/.yml paths and JSON otherwise.
func Decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		return dec.Decode(cfg)
	default:
		return json.NewDecoder(bytes.NewReader(data)).Decode(cfg)
	}
}

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (cfg *Config) applyDefaults() {
	if cfg.TimeStepMinutes == 0 {
		cfg.TimeStepMinutes = 15
	}
	if cfg.SmallLoad == 0 {
		cfg.SmallLoad = model.SmallLoad
	}
	if cfg.DDAgentAddr == "" {
		cfg.DDAgentAddr = "127.0.0.1:8125"
	}
	for i := range cfg.Tanks {
		if cfg.Tanks[i].Type == "" {
			cfg.Tanks[i].Type = tank.TypeHeatPumpPumped
		}
	}
	for i := range cfg.Units {
		u := &cfg.Units[i]
		for _, sp := range []*int{&u.MinSpeedSCWH, &u.MinSpeedSCDWH, &u.MinSpeedSHDWH} {
			if *sp == 0 {
				*sp = 1
			}
		}
		for _, sc := range []*float64{&u.CoolVolFlowScale, &u.HeatVolFlowScale} {
			if *sc == 0 {
				*sc = 1.0
			}
		}
		for _, c := range []*float64{&u.MaxCoolAirVolFlow, &u.MaxCoolAirMassFlow, &u.MaxHeatAirVolFlow, &u.MaxHeatAirMassFlow} {
			if *c == 0 {
				*c = 1e10
			}
		}
	}
}

func (cfg *Config) validate() {
	var (
		missingFields []string
		duplicates    []string
		unknownRefs   []string
		invalid       []string
	)

	if cfg.TimeStepMinutes < 0 {
		invalid = append(invalid, "timestep_minutes must be positive")
	}
	if len(cfg.Units) == 0 {
		missingFields = append(missingFields, "units")
	}

	coils := map[string]string{}
	for i, c := range cfg.Coils {
		switch {
		case c.Name == "":
			missingFields = append(missingFields, fmt.Sprintf("coils[%d].name", i))
			continue
		case coils[c.Name] != "":
			duplicates = append(duplicates, "coil "+c.Name)
		}
		coils[c.Name] = c.Type
		switch c.Type {
		case model.CoilTypeCoolingDX, model.CoilTypeHeatingDX, model.CoilTypeWaterHeating:
		default:
			invalid = append(invalid, fmt.Sprintf("coil %s has unknown type %q", c.Name, c.Type))
		}
		if len(c.Speeds) == 0 {
			missingFields = append(missingFields, fmt.Sprintf("coils.%s.speeds", c.Name))
		}
	}

	tanks := map[string]bool{}
	for i, t := range cfg.Tanks {
		if t.Name == "" {
			missingFields = append(missingFields, fmt.Sprintf("tanks[%d].name", i))
			continue
		}
		if tanks[t.Name] {
			duplicates = append(duplicates, "tank "+t.Name)
		}
		tanks[t.Name] = true
	}

	units := map[string]bool{}
	for i, u := range cfg.Units {
		if u.Name == "" {
			missingFields = append(missingFields, fmt.Sprintf("units[%d].name", i))
		} else if units[u.Name] {
			duplicates = append(duplicates, "unit "+u.Name)
		}
		units[u.Name] = true

		if u.AirInletNode == "" || u.AirOutletNode == "" {
			missingFields = append(missingFields, fmt.Sprintf("units.%s.air nodes", u.Name))
		}
		if u.Tank != "" && !tanks[u.Tank] {
			unknownRefs = append(unknownRefs, fmt.Sprintf("units.%s.tank %s", u.Name, u.Tank))
		}
		for role, name := range u.Coils.ByRole() {
			if name == "" {
				continue
			}
			coilType, ok := coils[name]
			if !ok {
				unknownRefs = append(unknownRefs, fmt.Sprintf("units.%s.coils.%s %s", u.Name, model.CoilRole(role), name))
				continue
			}
			if want := model.CoilRole(role).CoilType(); coilType != want {
				invalid = append(invalid, fmt.Sprintf("units.%s.coils.%s %s is %s, want %s", u.Name, model.CoilRole(role), name, coilType, want))
			}
		}
		if u.ModeMatchSCWH != int(model.MatchCooling) && u.ModeMatchSCWH != int(model.MatchWaterHeating) {
			invalid = append(invalid, fmt.Sprintf("units.%s.mode_match_scwh must be 0 or 1", u.Name))
		}
	}

	var problems []string
	if len(missingFields) > 0 {
		problems = append(problems, "Missing required config fields: "+strings.Join(missingFields, ", "))
	}
	if len(duplicates) > 0 {
		problems = append(problems, "Duplicate names: "+strings.Join(duplicates, ", "))
	}
	if len(unknownRefs) > 0 {
		problems = append(problems, "Unknown references: "+strings.Join(unknownRefs, ", "))
	}
	if len(invalid) > 0 {
		problems = append(problems, "Invalid values: "+strings.Join(invalid, ", "))
	}
	if len(problems) > 0 {
		panic(strings.Join(problems, "; "))
	}
}
