package ihp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/ihp-controller/internal/model"
	"github.com/thatsimonsguy/ihp-controller/internal/tank"
)

func baseConditions() conditions {
	return conditions{
		zoneTemp:          22,
		outdoor:           10,
		deadband:          model.SmallLoad,
		indoorOverCool:    26,
		ambientOverCool:   28,
		indoorWHPriority:  24,
		ambientWHPriority: 20,
		volumeLimit:       0.1,
		timeLimit:         3600,
	}
}

func TestSelectMode(t *testing.T) {
	tests := []struct {
		name string
		with func(*conditions)
		want model.Mode
	}{
		{"no load no call", func(c *conditions) {}, model.ModeIdle},
		{"sensible cooling", func(c *conditions) { c.sensLoad = -5000 }, model.ModeSpaceCooling},
		{"latent cooling", func(c *conditions) { c.latentLoad = -200 }, model.ModeSpaceCooling},
		{"load inside deadband", func(c *conditions) { c.sensLoad = -1.0 }, model.ModeIdle},
		{"heating", func(c *conditions) { c.sensLoad = 3000 }, model.ModeSpaceHeating},
		{"heating deferred while overcool allowed", func(c *conditions) {
			c.sensLoad = 3000
			c.zoneTemp, c.outdoor = 30, 32
		}, model.ModeIdle},
		{"heating not deferred when only zone is warm", func(c *conditions) {
			c.sensLoad = 3000
			c.zoneTemp, c.outdoor = 30, 20
		}, model.ModeSpaceHeating},
		{"cooling and call under volume budget", func(c *conditions) {
			c.whCall, c.sensLoad, c.prevVolume = true, -2000, 0.05
		}, model.ModeSCDWH},
		{"cooling and call at volume budget matches cooling", func(c *conditions) {
			c.whCall, c.sensLoad, c.prevVolume = true, -2000, 0.1
		}, model.ModeSCWHMatchSC},
		{"cooling and call at volume budget matches water heating", func(c *conditions) {
			c.whCall, c.sensLoad, c.prevVolume = true, -2000, 0.1
			c.matchPolicy = model.MatchWaterHeating
		}, model.ModeSCWHMatchWH},
		{"call with overcool allowed", func(c *conditions) {
			c.whCall = true
			c.zoneTemp, c.outdoor = 27, 29
		}, model.ModeSCWHMatchWH},
		{"call with water heating priority", func(c *conditions) {
			c.whCall = true
			c.zoneTemp, c.outdoor = 25, 22
		}, model.ModeDedicatedWaterHeating},
		{"call and heating under time limit", func(c *conditions) {
			c.whCall, c.sensLoad, c.prevRunTime = true, 1500, 3600
		}, model.ModeSHDWHElecHeatOff},
		{"call and heating over time limit", func(c *conditions) {
			c.whCall, c.sensLoad, c.prevRunTime = true, 1500, 4000
		}, model.ModeSHDWHElecHeatOn},
		{"call only", func(c *conditions) { c.whCall = true }, model.ModeDedicatedWaterHeating},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseConditions()
			tt.with(&c)
			assert.Equal(t, tt.want, selectMode(c))
		})
	}
}

func TestSelectModeAlwaysValid(t *testing.T) {
	loads := []float64{-5000, -1, 0, 1, 5000}
	temps := []float64{-10, 21, 25, 27, 35}
	for _, call := range []bool{false, true} {
		for _, sens := range loads {
			for _, latent := range loads {
				for _, zone := range temps {
					for _, out := range temps {
						c := baseConditions()
						c.whCall, c.sensLoad, c.latentLoad = call, sens, latent
						c.zoneTemp, c.outdoor = zone, out
						c.prevVolume, c.prevRunTime = 0.2, 5000
						assert.True(t, selectMode(c).Valid())
					}
				}
			}
		}
	}
}

func TestDecideModeScenarios(t *testing.T) {
	t.Run("cooling without a call", func(t *testing.T) {
		f := newFixture(t, nil)
		f.conditions(t, 22, 30, false)
		assert.Equal(t, model.ModeSpaceCooling, f.decide(t, -5000, 0))
	})

	t.Run("heating deferred on a warm day", func(t *testing.T) {
		f := newFixture(t, nil)
		f.conditions(t, 30, 32, false)
		assert.Equal(t, model.ModeIdle, f.decide(t, 3000, 0))
	})

	t.Run("cooling and water heating under volume budget", func(t *testing.T) {
		f := newFixture(t, nil)
		require.NoError(t, f.sys.Restore(State{Name: "ihp1", WaterFlowAccumVol: 0.05}))
		require.NoError(t, f.nodes.SetMassFlow(f.def.TankOutlet, 0.2))
		f.conditions(t, 22, 30, true)

		assert.Equal(t, model.ModeSCDWH, f.decide(t, -2000, 0))
		assert.InDelta(t, 0.05+0.2/1000*900, f.state(t).WaterFlowAccumVol, 1e-12)
		assert.Zero(t, f.state(t).SHDWHRunTime)
	})

	t.Run("heating and water heating past time limit", func(t *testing.T) {
		f := newFixture(t, nil)
		require.NoError(t, f.sys.Restore(State{Name: "ihp1", SHDWHRunTime: 4000}))
		f.conditions(t, 20, 5, true)

		assert.Equal(t, model.ModeSHDWHElecHeatOn, f.decide(t, 1500, 0))
		assert.InDelta(t, 4900.0, f.state(t).SHDWHRunTime, 1e-9)
		assert.Zero(t, f.state(t).WaterFlowAccumVol)
	})

	t.Run("heating and water heating inside time limit", func(t *testing.T) {
		f := newFixture(t, nil)
		require.NoError(t, f.sys.Restore(State{Name: "ihp1", SHDWHRunTime: 3600}))
		f.conditions(t, 20, 5, true)

		assert.Equal(t, model.ModeSHDWHElecHeatOff, f.decide(t, 1500, 0))
		assert.Zero(t, f.state(t).SHDWHRunTime)
	})

	t.Run("volume at the limit falls through to combined coil", func(t *testing.T) {
		f := newFixture(t, nil)
		require.NoError(t, f.sys.Restore(State{Name: "ihp1", WaterFlowAccumVol: 0.1}))
		f.conditions(t, 22, 30, true)

		assert.Equal(t, model.ModeSCWHMatchSC, f.decide(t, -2000, 0))
		assert.Zero(t, f.state(t).WaterFlowAccumVol)
	})
}

func TestDecideModeClearsAccumulators(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.sys.Restore(State{Name: "ihp1", SHDWHRunTime: 4000, WaterFlowAccumVol: 0.05}))
	f.conditions(t, 22, 30, false)

	assert.Equal(t, model.ModeSpaceCooling, f.decide(t, -5000, 0))
	st := f.state(t)
	assert.Zero(t, st.SHDWHRunTime)
	assert.Zero(t, st.WaterFlowAccumVol)
}

func TestDecideModeAccumulatesAcrossSteps(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.nodes.SetMassFlow(f.def.TankOutlet, 0.05))
	f.conditions(t, 22, 30, true)

	// 0.045 m³ per step against a 0.1 m³ budget
	assert.Equal(t, model.ModeSCDWH, f.decide(t, -2000, 0))
	assert.Equal(t, model.ModeSCDWH, f.decide(t, -2000, 0))
	assert.Equal(t, model.ModeSCDWH, f.decide(t, -2000, 0))
	assert.InDelta(t, 0.135, f.state(t).WaterFlowAccumVol, 1e-12)
	assert.Equal(t, model.ModeSCWHMatchSC, f.decide(t, -2000, 0))
	assert.Zero(t, f.state(t).WaterFlowAccumVol)
}

func TestDecideModeProbesTank(t *testing.T) {
	f := newFixture(t, nil)
	f.conditions(t, 22, 10, true)
	f.decide(t, 0, 0)
	assert.True(t, f.state(t).WHCallAvail)
	assert.Equal(t, 1, f.tanks.Probes("hpwh"))
}

func TestDecideModeWithoutTank(t *testing.T) {
	f := newFixture(t, func(d *UnitDef) { d.Tank = tank.Ref{} })
	f.conditions(t, 22, 30, true)

	assert.Equal(t, model.ModeSpaceCooling, f.decide(t, -2000, 0))
	assert.False(t, f.state(t).WHCallAvail)
	assert.Zero(t, f.tanks.Probes("hpwh"))
}

func TestDecideModeConfiguredDeadband(t *testing.T) {
	f := newFixture(t, nil)
	f.sys.smallLoad = 50
	f.conditions(t, 22, 10, false)
	assert.Equal(t, model.ModeIdle, f.decide(t, -40, 0))
	assert.Equal(t, model.ModeSpaceCooling, f.decide(t, -60, 0))
}
