package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/ihp-controller/internal/model"
)

const yamlConfig = `
timestep_minutes: 10
coils:
  - name: sc
    type: COIL:COOLING:DX:VARIABLESPEED
    rated_capacity_w: 10000
    speeds:
      - {capacity_ratio: 0.5, air_vol_flow_m3s: 0.3, water_vol_flow_m3s: 0}
      - {capacity_ratio: 1.0, air_vol_flow_m3s: 0.5, water_vol_flow_m3s: 0}
  - name: sh
    type: COIL:HEATING:DX:VARIABLESPEED
    speeds:
      - {capacity_ratio: 1.0, air_vol_flow_m3s: 0.5, water_vol_flow_m3s: 0}
tanks:
  - name: hpwh
units:
  - name: ihp1
    air_inlet_node: zone return
    air_outlet_node: zone supply
    coils:
      sc: sc
      sh: sh
`

func validConfig() Config {
	speeds := []Speed{{CapacityRatio: 1, AirVolFlow: 0.5}}
	return Config{
		Coils: []Coil{
			{Name: "sc", Type: model.CoilTypeCoolingDX, RatedCapacity: 10000, Speeds: speeds},
			{Name: "sh", Type: model.CoilTypeHeatingDX, Speeds: speeds},
			{Name: "dwh", Type: model.CoilTypeWaterHeating, Speeds: speeds},
		},
		Tanks: []Tank{{Name: "hpwh"}},
		Units: []Unit{{
			Name:          "ihp1",
			AirInletNode:  "in",
			AirOutletNode: "out",
			Tank:          "hpwh",
			Coils:         UnitCoils{SC: "sc", SH: "sh", DWH: "dwh"},
		}},
	}
}

func TestDecode(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		var cfg Config
		require.NoError(t, Decode("units.yaml", []byte(yamlConfig), &cfg))
		assert.Equal(t, 10.0, cfg.TimeStepMinutes)
		require.Len(t, cfg.Coils, 2)
		assert.Len(t, cfg.Coils[0].Speeds, 2)
		assert.Equal(t, "sh", cfg.Units[0].Coils.SH)
	})

	t.Run("yaml rejects unknown fields", func(t *testing.T) {
		var cfg Config
		assert.Error(t, Decode("units.yml", []byte("bogus: 1\n"), &cfg))
	})

	t.Run("json", func(t *testing.T) {
		var cfg Config
		data := `{"small_load_w": 5, "units": [{"name": "ihp1", "mode_match_scwh": 1}]}`
		require.NoError(t, Decode("units.json", []byte(data), &cfg))
		assert.Equal(t, 5.0, cfg.SmallLoad)
		assert.Equal(t, 1, cfg.Units[0].ModeMatchSCWH)
	})
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.applyDefaults()

	assert.Equal(t, 15.0, cfg.TimeStepMinutes)
	assert.Equal(t, model.SmallLoad, cfg.SmallLoad)
	assert.Equal(t, "WATERHEATER:HEATPUMP:PUMPEDCONDENSER", cfg.Tanks[0].Type)

	u := cfg.Units[0]
	assert.Equal(t, 1, u.MinSpeedSCWH)
	assert.Equal(t, 1, u.MinSpeedSHDWH)
	assert.Equal(t, 1.0, u.CoolVolFlowScale)
	assert.Equal(t, 1e10, u.MaxHeatAirMassFlow)
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	cfg.applyDefaults()
	assert.NotPanics(t, cfg.validate)
}

func TestValidate_Problems(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no units", func(c *Config) { c.Units = nil }, "units"},
		{"duplicate coil", func(c *Config) { c.Coils = append(c.Coils, c.Coils[0]) }, "coil sc"},
		{"unknown coil type", func(c *Config) { c.Coils[0].Type = "COIL:BOGUS" }, "unknown type"},
		{"coil without speeds", func(c *Config) { c.Coils[1].Speeds = nil }, "coils.sh.speeds"},
		{"unknown tank", func(c *Config) { c.Units[0].Tank = "other" }, "units.ihp1.tank other"},
		{"unknown coil", func(c *Config) { c.Units[0].Coils.SCWH = "nope" }, "units.ihp1.coils.scwh nope"},
		{"coil in the wrong role", func(c *Config) { c.Units[0].Coils.SH = "sc" }, "want " + model.CoilTypeHeatingDX},
		{"match policy", func(c *Config) { c.Units[0].ModeMatchSCWH = 3 }, "mode_match_scwh"},
		{"missing air nodes", func(c *Config) { c.Units[0].AirOutletNode = "" }, "air nodes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			cfg.applyDefaults()
			assert.Contains(t, panicValue(t, cfg.validate), tt.want)
		})
	}
}

func TestValidate_ReportsEverything(t *testing.T) {
	cfg := validConfig()
	cfg.Units[0].Tank = "other"
	cfg.Coils[0].Type = "COIL:BOGUS"
	cfg.Units = append(cfg.Units, cfg.Units[0])

	msg := panicValue(t, cfg.validate)
	assert.Contains(t, msg, "Duplicate names: unit ihp1")
	assert.Contains(t, msg, "Unknown references")
	assert.Contains(t, msg, "Invalid values")
}

func TestParse(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "units.yaml")
	envPath := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(cfgPath, []byte(yamlConfig), 0o644))
	require.NoError(t, os.WriteFile(envPath, []byte(EnvDDAgentAddr+"=10.0.0.5:8125\n"), 0o644))
	t.Setenv(EnvDDAgentAddr, "")
	require.NoError(t, os.Unsetenv(EnvDDAgentAddr))

	cfg, err := Parse(flag.NewFlagSet("test", flag.ContinueOnError), []string{
		"-config-file", cfgPath,
		"-env-file", envPath,
		"-log-level", "debug",
		"-db", ":memory:",
	})
	require.NoError(t, err)

	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.Equal(t, ":memory:", cfg.DBPath)
	assert.Equal(t, "10.0.0.5:8125", cfg.DDAgentAddr)
	assert.Equal(t, 10.0, cfg.TimeStepMinutes)
	assert.Equal(t, 1, cfg.Units[0].MinSpeedSCDWH)
}

func TestParse_MissingEnvFileIsFine(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "units.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(yamlConfig), 0o644))

	cfg, err := Parse(flag.NewFlagSet("test", flag.ContinueOnError), []string{
		"-config-file", cfgPath,
		"-env-file", filepath.Join(dir, "missing.env"),
	})
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
}

func TestParse_MissingConfigPanics(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = Parse(flag.NewFlagSet("test", flag.ContinueOnError), []string{
			"-config-file", filepath.Join(t.TempDir(), "missing.yaml"),
			"-env-file", "",
		})
	})
}

func panicValue(t *testing.T, fn func()) (msg string) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		msg, _ = r.(string)
	}()
	fn()
	return ""
}
