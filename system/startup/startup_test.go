package startup

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/ihp-controller/db"
	"github.com/thatsimonsguy/ihp-controller/internal/config"
	"github.com/thatsimonsguy/ihp-controller/internal/model"
)

func testConfig(dbPath string) *config.Config {
	speeds := []config.Speed{
		{CapacityRatio: 0.5, AirVolFlow: 0.3},
		{CapacityRatio: 1.0, AirVolFlow: 0.5},
	}
	return &config.Config{
		DBPath:          dbPath,
		TimeStepMinutes: 10,
		Coils: []config.Coil{
			{Name: "sc", Type: model.CoilTypeCoolingDX, RatedCapacity: 8000, Speeds: speeds},
			{Name: "sh", Type: model.CoilTypeHeatingDX, Speeds: speeds},
		},
		Units: []config.Unit{{
			Name:          "ihp1",
			AirInletNode:  "return",
			AirOutletNode: "supply",
			Coils:         config.UnitCoils{SC: "sc", SH: "sh"},
		}},
	}
}

func TestInitialize(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "ihp.db"))

	rt, err := Initialize(cfg)
	require.NoError(t, err)
	defer rt.Close()

	assert.Equal(t, 1, rt.System.NumUnits())
	assert.Equal(t, []string{"ihp1"}, rt.System.UnitNames())
	assert.Equal(t, 2, rt.Nodes.Len())
	assert.Equal(t, 10*time.Minute, rt.Env.TimeStep())

	capacity, err := rt.System.CoilCapacity(model.UnitType, "ihp1", model.ModeSpaceHeating)
	require.NoError(t, err)
	assert.Equal(t, 8000.0, capacity, "heating coil is sized from the cooling coil")

	summaries, err := db.GetUnitSummaries(rt.DB)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "ihp1", summaries[0].Name)
}

func TestInitializeKeepsStoredPlant(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ihp.db")
	rt, err := Initialize(testConfig(path))
	require.NoError(t, err)
	require.NoError(t, rt.Close())

	require.NoError(t, db.SetCoilCapacityCLI(path, "sc", 6000))

	cfg := testConfig(path)
	rt, err = Initialize(cfg)
	require.NoError(t, err)
	capacity, err := rt.System.CoilCapacity(model.UnitType, "ihp1", model.ModeSpaceCooling)
	require.NoError(t, err)
	assert.Equal(t, 6000.0, capacity)
	require.NoError(t, rt.Close())

	cfg.Reseed = true
	rt, err = Initialize(cfg)
	require.NoError(t, err)
	defer rt.Close()
	capacity, err = rt.System.CoilCapacity(model.UnitType, "ihp1", model.ModeSpaceCooling)
	require.NoError(t, err)
	assert.Equal(t, 8000.0, capacity)
}

func TestInitializeRejectsBadPlant(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "ihp.db"))
	cfg.Units[0].Coils.SH = ""

	_, err := Initialize(cfg)
	require.Error(t, err)
}
