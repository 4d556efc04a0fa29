package startup

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/ihp-controller/db"
	"github.com/thatsimonsguy/ihp-controller/internal/coil"
	"github.com/thatsimonsguy/ihp-controller/internal/config"
	"github.com/thatsimonsguy/ihp-controller/internal/env"
	"github.com/thatsimonsguy/ihp-controller/internal/ihp"
	"github.com/thatsimonsguy/ihp-controller/internal/node"
	"github.com/thatsimonsguy/ihp-controller/internal/state"
	"github.com/thatsimonsguy/ihp-controller/internal/tank"
)

// Runtime is a loaded and sized simulation, ready to step.
type Runtime struct {
	DB      *sql.DB
	Plant   *state.Plant
	Nodes   *node.Network
	Env     *env.Environment
	Tanks   *tank.Schedule
	Catalog *coil.Catalog
	System  *ihp.System
}

func (rt *Runtime) Close() error {
	if rt.DB == nil {
		return nil
	}
	return rt.DB.Close()
}

// Initialize opens the database, seeds it from cfg when it holds no units (or
// when asked to reseed), and builds the plant from what is stored.
func Initialize(cfg *config.Config) (*Runtime, error) {
	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	rt, err := initialize(conn, cfg)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return rt, nil
}

func initialize(conn *sql.DB, cfg *config.Config) (*Runtime, error) {
	stored, err := db.GetUnits(conn)
	if err != nil {
		return nil, err
	}
	if cfg.Reseed || len(stored) == 0 {
		if err := db.SeedDatabase(conn, cfg); err != nil {
			return nil, err
		}
	} else {
		log.Info().Int("units", len(stored)).Msg("Using plant stored in database")
	}

	coils, err := db.GetCoils(conn)
	if err != nil {
		return nil, err
	}
	tanks, err := db.GetTanks(conn)
	if err != nil {
		return nil, err
	}
	units, err := db.GetUnits(conn)
	if err != nil {
		return nil, err
	}

	nodes := node.NewNetwork()
	plant := state.NewPlant(coils, tanks, units, nodes)

	catalog := coil.NewCatalog(nodes)
	for _, spec := range plant.Coils {
		if _, err := catalog.Add(spec); err != nil {
			return nil, fmt.Errorf("failed to add coil: %w", err)
		}
	}
	schedule := tank.NewSchedule()
	for _, ref := range plant.Tanks {
		schedule.Add(ref.Name)
	}

	environment := env.New(time.Duration(cfg.TimeStepMinutes * float64(time.Minute)))
	sys := ihp.NewSystem(ihp.Deps{
		Coils:     catalog,
		Tanks:     schedule,
		Env:       environment,
		Nodes:     nodes,
		SmallLoad: cfg.SmallLoad,
	})
	if err := sys.Load(plant.Units); err != nil {
		return nil, err
	}
	if err := sys.SizeAll(); err != nil {
		return nil, err
	}

	log.Info().
		Int("units", sys.NumUnits()).
		Int("coils", len(plant.Coils)).
		Int("nodes", nodes.Len()).
		Dur("timestep", environment.TimeStep()).
		Msg("Heat pumps loaded and sized")

	return &Runtime{
		DB:      conn,
		Plant:   plant,
		Nodes:   nodes,
		Env:     environment,
		Tanks:   schedule,
		Catalog: catalog,
		System:  sys,
	}, nil
}
