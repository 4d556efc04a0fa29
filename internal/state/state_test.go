package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/ihp-controller/internal/coil"
	"github.com/thatsimonsguy/ihp-controller/internal/config"
	"github.com/thatsimonsguy/ihp-controller/internal/ihp"
	"github.com/thatsimonsguy/ihp-controller/internal/model"
	"github.com/thatsimonsguy/ihp-controller/internal/node"
	"github.com/thatsimonsguy/ihp-controller/internal/tank"
)

func testConfig() *config.Config {
	speeds := []config.Speed{
		{CapacityRatio: 0.5, AirVolFlow: 0.3, WaterVolFlow: 0.0001},
		{CapacityRatio: 1.0, AirVolFlow: 0.5, WaterVolFlow: 0.0002},
	}
	coils := []config.Coil{
		{Name: "sc", Type: model.CoilTypeCoolingDX, RatedCapacity: 8000, Speeds: speeds},
		{Name: "sh", Type: model.CoilTypeHeatingDX, Speeds: speeds},
		{Name: "dwh", Type: model.CoilTypeWaterHeating, RatedCOPHeat: 3, PartLoadCurve: 7, Speeds: speeds},
	}
	return &config.Config{
		Coils: coils,
		Tanks: []config.Tank{{Name: "hpwh", Type: tank.TypeHeatPumpPumped}},
		Units: []config.Unit{{
			Name:                 "ihp1",
			AirInletNode:         "zone return",
			AirOutletNode:        "zone supply",
			WaterInletNode:       "tank source out",
			WaterOutletNode:      "zone return",
			Coils:                config.UnitCoils{SC: "sc", SH: "sh", DWH: "dwh"},
			IndoorOverCoolAllow:  26,
			AmbientOverCoolAllow: 28,
			ModeMatchSCWH:        1,
			MinSpeedSCWH:         2,
			CoolVolFlowScale:     0.9,
		}},
	}
}

func TestNewPlantFromConfig(t *testing.T) {
	nodes := node.NewNetwork()
	plant := NewPlantFromConfig(testConfig(), nodes)

	require.Len(t, plant.Coils, 3)
	assert.Equal(t, 8000.0, plant.Coils[0].RatedCapacity)
	assert.Equal(t, coil.AutoSize, plant.Coils[1].RatedCapacity)
	assert.Equal(t, 7, plant.Coils[2].PartLoadCurve)
	assert.Len(t, plant.Coils[2].Speeds, 2)

	require.Len(t, plant.Tanks, 1)
	assert.Equal(t, tank.Ref{Type: tank.TypeHeatPumpPumped, Name: "hpwh"}, plant.Tanks[0])

	require.Len(t, plant.Units, 1)
	def := plant.Units[0]
	assert.Equal(t, "ihp1", def.Name)
	assert.Equal(t, 3, nodes.Len())
	assert.Equal(t, def.AirInlet, def.WaterOutlet)
	assert.NotZero(t, def.AirOutlet)
	assert.Zero(t, def.TankOutlet)
	assert.Equal(t, model.MatchWaterHeating, def.ModeMatchSCWH)
	assert.Equal(t, 2, def.MinSpeedSCWH)
	assert.Equal(t, 0.9, def.CoolVolFlowScale)
	assert.Equal(t, ihp.CoilRef{Type: model.CoilTypeWaterHeating, Name: "dwh"}, def.Coils[model.RoleDWH])
	assert.Equal(t, ihp.CoilRef{}, def.Coils[model.RoleSCWH])
	assert.False(t, def.Tank.Configured())
}

func TestPlantLoads(t *testing.T) {
	cfg := testConfig()
	cfg.Units[0].Tank = "hpwh"

	nodes := node.NewNetwork()
	plant := NewPlantFromConfig(cfg, nodes)
	assert.Equal(t, "hpwh", plant.Units[0].Tank.Name)

	catalog := coil.NewCatalog(nodes)
	for _, spec := range plant.Coils {
		_, err := catalog.Add(spec)
		require.NoError(t, err)
	}
	tanks := tank.NewSchedule()
	for _, ref := range plant.Tanks {
		tanks.Add(ref.Name)
	}

	sys := ihp.NewSystem(ihp.Deps{Coils: catalog, Tanks: tanks, Nodes: nodes})
	// a unit with a water heater needs every combined coil
	err := sys.Load(plant.Units)
	require.Error(t, err)

	cfg.Units[0].Tank = ""
	plant = NewPlantFromConfig(cfg, nodes)
	require.NoError(t, sys.Load(plant.Units))
	require.NoError(t, sys.SizeAll())

	capacity, err := sys.CoilCapacity(model.UnitType, "ihp1", model.ModeSpaceHeating)
	require.NoError(t, err)
	assert.Equal(t, 8000.0, capacity)
}
