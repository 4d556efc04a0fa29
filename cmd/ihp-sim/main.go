package main

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/ihp-controller/db"
	"github.com/thatsimonsguy/ihp-controller/internal/api"
	"github.com/thatsimonsguy/ihp-controller/internal/config"
	"github.com/thatsimonsguy/ihp-controller/internal/datadog"
	"github.com/thatsimonsguy/ihp-controller/internal/logging"
	"github.com/thatsimonsguy/ihp-controller/internal/profile"
	"github.com/thatsimonsguy/ihp-controller/internal/store"
	"github.com/thatsimonsguy/ihp-controller/system/shutdown"
	"github.com/thatsimonsguy/ihp-controller/system/startup"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg.LogLevel, cfg.LogFile)
	datadog.InitMetrics(&cfg)

	log.Info().
		Str("config_file", cfg.ConfigFile).
		Str("db", cfg.DBPath).
		Str("profile", cfg.ProfileFile).
		Msg("Starting IHP simulation")

	rt, err := startup.Initialize(&cfg)
	if err != nil {
		shutdown.ShutdownWithError(err, "Failed to initialize heat pumps")
		return
	}
	shutdown.OnShutdown(rt.Close)

	st := store.New(cfg.StateFile)
	cp, err := st.Load()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Info().Str("state_file", cfg.StateFile).Msg("No checkpoint found, starting from idle")
	case err != nil:
		log.Warn().Err(err).Msg("Failed to load checkpoint, starting from idle")
	default:
		skipped, err := store.Restore(rt.System, cp)
		if err != nil {
			shutdown.ShutdownWithError(err, "Failed to restore checkpoint")
			return
		}
		for _, name := range skipped {
			log.Warn().Str("unit", name).Msg("Checkpoint unit not loaded, skipped")
		}
		log.Info().Int("step", cp.Step).Time("saved_at", cp.SavedAt).Msg("Restored checkpoint")
	}

	rows, err := readProfile(cfg.ProfileFile)
	if err != nil {
		shutdown.ShutdownWithError(err, "Failed to read load profile")
		return
	}

	driver := profile.NewDriver(rt.System, rt.Env, rt.Nodes, rt.Tanks, rt.Plant.Units)
	driver.Record = func(decisions []db.ModeDecision) error {
		return db.RecordModeDecisions(rt.DB, decisions)
	}
	results, err := driver.Run(rows)
	if err != nil {
		shutdown.ShutdownWithError(err, "Simulation failed")
		return
	}

	if err := writeResults(cfg.OutputFile, results); err != nil {
		shutdown.ShutdownWithError(err, "Failed to write results")
		return
	}
	profile.LogSummaries(profile.Summarize(results, rt.Env.TimeStep()))

	states, err := rt.System.States()
	if err != nil {
		shutdown.ShutdownWithError(err, "Failed to read unit state")
		return
	}
	last := 0
	if len(rows) > 0 {
		last = rows[len(rows)-1].Step
	}
	if err := st.Save(&store.Checkpoint{SavedAt: time.Now().UTC(), Step: last, Units: states}); err != nil {
		log.Error().Err(err).Msg("Failed to save checkpoint")
	}

	if cfg.ServeAddr != "" {
		if err := api.NewServer(rt.DB).Start(cfg.ServeAddr); err != nil {
			shutdown.ShutdownWithError(err, "API server stopped")
			return
		}
	}
	shutdown.Shutdown(0)
}

func readProfile(path string) ([]profile.Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return profile.ReadRows(file)
}

func writeResults(path string, results []profile.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := profile.WriteResults(file, results); err != nil {
		file.Close()
		return err
	}
	log.Info().Str("output", path).Int("rows", len(results)).Msg("Results written")
	return file.Close()
}
