package ihp

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/ihp-controller/internal/coil"
	"github.com/thatsimonsguy/ihp-controller/internal/env"
	"github.com/thatsimonsguy/ihp-controller/internal/model"
	"github.com/thatsimonsguy/ihp-controller/internal/node"
	"github.com/thatsimonsguy/ihp-controller/internal/tank"
)

// recorder logs every simulate and passive update the system asks for.
type recorder struct {
	*coil.Catalog
	names map[coil.Handle]string
	calls []string
}

func (r *recorder) Simulate(h coil.Handle, p coil.SimParams) error {
	r.calls = append(r.calls, "sim:"+r.names[h])
	return r.Catalog.Simulate(h, p)
}

func (r *recorder) PassiveUpdate(h coil.Handle) error {
	r.calls = append(r.calls, "passive:"+r.names[h])
	return r.Catalog.PassiveUpdate(h)
}

func (r *recorder) reset() { r.calls = nil }

type fixture struct {
	sys     *System
	coils   *recorder
	nodes   *node.Network
	env     *env.Environment
	tanks   *tank.Schedule
	handles map[model.CoilRole]coil.Handle
	def     UnitDef
}

func testSpeeds() []coil.Speed {
	return []coil.Speed{
		{CapacityRatio: 0.4, AirVolFlow: 0.25, WaterVolFlow: 0.0001},
		{CapacityRatio: 0.7, AirVolFlow: 0.40, WaterVolFlow: 0.0002},
		{CapacityRatio: 1.0, AirVolFlow: 0.55, WaterVolFlow: 0.0003},
	}
}

func baseDef(nodes *node.Network) UnitDef {
	def := UnitDef{
		Name:                  "ihp1",
		AirInlet:              nodes.Register("ihp air inlet"),
		AirOutlet:             nodes.Register("ihp air outlet"),
		WaterInlet:            nodes.Register("ihp water inlet"),
		WaterOutlet:           nodes.Register("ihp water outlet"),
		TankOutlet:            nodes.Register("tank use outlet"),
		IndoorOverCoolAllow:   26,
		AmbientOverCoolAllow:  28,
		IndoorWHHighPriority:  24,
		AmbientWHHighPriority: 20,
		ModeMatchSCWH:         model.MatchCooling,
		MinSpeedSCWH:          1,
		MinSpeedSCDWH:         2,
		MinSpeedSHDWH:         3,
		WaterVolSCDWH:         0.1,
		TimeLimitSHDWH:        3600,
		Tank:                  tank.Ref{Type: tank.TypeHeatPumpPumped, Name: "hpwh"},
	}
	for _, role := range model.CoilRoles() {
		def.Coils[role] = CoilRef{Name: role.String()}
	}
	return def
}

// newFixture loads one fully configured unit. mutate may adjust the
// definition before it is loaded.
func newFixture(t *testing.T, mutate func(*UnitDef)) *fixture {
	t.Helper()

	nodes := node.NewNetwork()
	def := baseDef(nodes)
	if mutate != nil {
		mutate(&def)
	}
	require.NoError(t, nodes.Set(def.AirInlet, node.State{Temp: 24, MassFlow: 0.5}))
	if def.WaterInlet != 0 {
		require.NoError(t, nodes.Set(def.WaterInlet, node.State{Temp: 45, MassFlow: 0.2}))
	}

	rec, handles := newRecorder(t, nodes)

	tanks := tank.NewSchedule()
	tanks.Add("hpwh")

	e := env.New(15 * time.Minute)
	sys := NewSystem(Deps{Coils: rec, Tanks: tanks, Env: e, Nodes: nodes})
	require.NoError(t, sys.Load([]UnitDef{def}))

	return &fixture{sys: sys, coils: rec, nodes: nodes, env: e, tanks: tanks, handles: handles, def: def}
}

// newRecorder adds one coil per role, named after the role. Only the space
// cooling coil has a hard capacity.
func newRecorder(t *testing.T, nodes *node.Network) (*recorder, map[model.CoilRole]coil.Handle) {
	t.Helper()
	rec := &recorder{Catalog: coil.NewCatalog(nodes), names: map[coil.Handle]string{}}
	handles := map[model.CoilRole]coil.Handle{}
	for _, role := range model.CoilRoles() {
		capacity := coil.AutoSize
		if role == model.RoleSC {
			capacity = 10000
		}
		h, err := rec.Add(coil.Spec{
			Type:          role.CoilType(),
			Name:          role.String(),
			RatedCapacity: capacity,
			RatedCOPHeat:  3,
			Speeds:        testSpeeds(),
			PartLoadCurve: int(role) + 10,
		})
		require.NoError(t, err)
		rec.names[h] = role.String()
		handles[role] = h
	}
	return rec, handles
}

// conditions sets the zone, the outdoor air and the tank call.
func (f *fixture) conditions(t *testing.T, zone, outdoor float64, whCall bool) {
	t.Helper()
	require.NoError(t, f.sys.SetControlledZoneTemp(1, zone))
	f.env.SetOutDryBulbTemp(outdoor)
	require.NoError(t, f.tanks.Set("hpwh", whCall))
}

func (f *fixture) decide(t *testing.T, sens, latent float64) model.Mode {
	t.Helper()
	require.NoError(t, f.sys.DecideMode(1, sens, latent))
	mode, err := f.sys.CurrentMode(1)
	require.NoError(t, err)
	return mode
}

func (f *fixture) state(t *testing.T) State {
	t.Helper()
	st, err := f.sys.State(1)
	require.NoError(t, err)
	return st
}

func (f *fixture) simulate(t *testing.T, caller model.Caller) {
	t.Helper()
	idx := 1
	require.NoError(t, f.sys.SimulateUnit("ihp1", &idx, SimulateRequest{
		CompressorOn: true,
		PartLoadFrac: 1,
		SpeedNum:     3,
		SpeedRatio:   0.7,
		Caller:       caller,
	}))
}

func sim(role model.CoilRole) string     { return fmt.Sprintf("sim:%s", role) }
func passive(role model.CoilRole) string { return fmt.Sprintf("passive:%s", role) }
