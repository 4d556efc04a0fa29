package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/ihp-controller/internal/coil"
	"github.com/thatsimonsguy/ihp-controller/internal/ihp"
	"github.com/thatsimonsguy/ihp-controller/internal/model"
	"github.com/thatsimonsguy/ihp-controller/internal/node"
)

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "state.json")
	s := New(path)

	_, err := s.Load()
	assert.True(t, os.IsNotExist(err))

	cp := &Checkpoint{
		SavedAt: time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC),
		Step:    96,
		Units: []ihp.State{{
			Name:              "ihp1",
			Mode:              model.ModeSCDWH,
			WHCallAvail:       true,
			WaterFlowAccumVol: 0.045,
		}},
	}
	require.NoError(t, s.Save(cp))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, cp, got)
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := New(path).Load()
	assert.Error(t, err)
}

func TestRestore(t *testing.T) {
	nodes := node.NewNetwork()
	catalog := coil.NewCatalog(nodes)
	speeds := []coil.Speed{{CapacityRatio: 1, AirVolFlow: 0.5}}
	_, err := catalog.Add(coil.Spec{Type: model.CoilTypeCoolingDX, Name: "sc", RatedCapacity: 9000, Speeds: speeds})
	require.NoError(t, err)
	_, err = catalog.Add(coil.Spec{Type: model.CoilTypeHeatingDX, Name: "sh", RatedCapacity: coil.AutoSize, Speeds: speeds})
	require.NoError(t, err)

	def := ihp.UnitDef{
		Name:      "ihp1",
		AirInlet:  nodes.Register("in"),
		AirOutlet: nodes.Register("out"),
	}
	def.Coils[model.RoleSC] = ihp.CoilRef{Name: "sc"}
	def.Coils[model.RoleSH] = ihp.CoilRef{Name: "sh"}

	sys := ihp.NewSystem(ihp.Deps{Coils: catalog, Nodes: nodes})
	require.NoError(t, sys.Load([]ihp.UnitDef{def}))

	skipped, err := Restore(sys, &Checkpoint{Units: []ihp.State{
		{Name: "ihp1", Mode: model.ModeSpaceHeating, ControlledZoneTemp: 19.5},
		{Name: "retired unit", Mode: model.ModeIdle},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"retired unit"}, skipped)

	st, err := sys.State(1)
	require.NoError(t, err)
	assert.Equal(t, model.ModeSpaceHeating, st.Mode)
	assert.Equal(t, 19.5, st.ControlledZoneTemp)

	_, err = Restore(sys, &Checkpoint{Units: []ihp.State{{Name: "ihp1", Mode: model.Mode(99)}}})
	assert.Error(t, err)
}
