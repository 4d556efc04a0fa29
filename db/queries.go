package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/thatsimonsguy/ihp-controller/internal/config"
	"github.com/thatsimonsguy/ihp-controller/internal/model"
)

// ModeDecision is one unit's mode decision for one timestep.
type ModeDecision struct {
	ID               int64      `json:"id"`
	Unit             string     `json:"unit"`
	Step             int        `json:"step"`
	Mode             model.Mode `json:"-"`
	ModeName         string     `json:"mode"`
	WHCall           bool       `json:"wh_call"`
	ZoneTemp         float64    `json:"zone_temp_c"`
	OutdoorTemp      float64    `json:"outdoor_temp_c"`
	SensLoad         float64    `json:"sens_load_w"`
	LatentLoad       float64    `json:"latent_load_w"`
	TotalHeatingRate float64    `json:"total_heating_rate_w"`
	SCDWHVolume      float64    `json:"scdwh_volume_m3"`
	SHDWHRunTime     float64    `json:"shdwh_runtime_s"`
	RecordedAt       time.Time  `json:"recorded_at"`
}

// UnitSummary is a unit with its most recent decision, if any.
type UnitSummary struct {
	Name       string `json:"name"`
	Tank       string `json:"tank,omitempty"`
	LatestMode string `json:"latest_mode,omitempty"`
	LatestStep *int   `json:"latest_step,omitempty"`
	Decisions  int    `json:"decisions"`
}

// GetCoils retrieves all coils in name order.
func GetCoils(db *sql.DB) ([]config.Coil, error) {
	rows, err := db.Query(`SELECT name, coil_type, rated_capacity, rated_cop_heat, part_load_curve, speeds FROM coils ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query coils: %w", err)
	}
	defer rows.Close()

	var coils []config.Coil
	for rows.Next() {
		var c config.Coil
		var speeds string
		if err := rows.Scan(&c.Name, &c.Type, &c.RatedCapacity, &c.RatedCOPHeat, &c.PartLoadCurve, &speeds); err != nil {
			return nil, fmt.Errorf("failed to scan coil: %w", err)
		}
		if err := json.Unmarshal([]byte(speeds), &c.Speeds); err != nil {
			return nil, fmt.Errorf("failed to decode speeds of coil %s: %w", c.Name, err)
		}
		coils = append(coils, c)
	}
	return coils, rows.Err()
}

func GetTanks(db *sql.DB) ([]config.Tank, error) {
	rows, err := db.Query(`SELECT name, tank_type FROM tanks ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tanks: %w", err)
	}
	defer rows.Close()

	var tanks []config.Tank
	for rows.Next() {
		var t config.Tank
		if err := rows.Scan(&t.Name, &t.Type); err != nil {
			return nil, fmt.Errorf("failed to scan tank: %w", err)
		}
		tanks = append(tanks, t)
	}
	return tanks, rows.Err()
}

// GetUnits retrieves unit definitions in load order. The tank column wins
// over the tank stored in the definition.
func GetUnits(db *sql.DB) ([]config.Unit, error) {
	rows, err := db.Query(`SELECT name, tank, definition FROM units ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query units: %w", err)
	}
	defer rows.Close()

	var units []config.Unit
	for rows.Next() {
		var name, definition string
		var tank sql.NullString
		if err := rows.Scan(&name, &tank, &definition); err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		var u config.Unit
		if err := json.Unmarshal([]byte(definition), &u); err != nil {
			return nil, fmt.Errorf("failed to decode unit %s: %w", name, err)
		}
		u.Name = name
		u.Tank = tank.String
		units = append(units, u)
	}
	return units, rows.Err()
}

// GetUnitSummaries lists units in load order with their latest decision.
func GetUnitSummaries(db *sql.DB) ([]UnitSummary, error) {
	rows, err := db.Query(`
		SELECT u.name, u.tank,
			(SELECT d.mode FROM mode_decisions d WHERE d.unit = u.name ORDER BY d.step DESC, d.id DESC LIMIT 1),
			(SELECT MAX(d.step) FROM mode_decisions d WHERE d.unit = u.name),
			(SELECT COUNT(*) FROM mode_decisions d WHERE d.unit = u.name)
		FROM units u
		ORDER BY u.position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query unit summaries: %w", err)
	}
	defer rows.Close()

	summaries := []UnitSummary{}
	for rows.Next() {
		var s UnitSummary
		var tank, mode sql.NullString
		var step sql.NullInt64
		if err := rows.Scan(&s.Name, &tank, &mode, &step, &s.Decisions); err != nil {
			return nil, fmt.Errorf("failed to scan unit summary: %w", err)
		}
		s.Tank = tank.String
		s.LatestMode = mode.String
		if step.Valid {
			n := int(step.Int64)
			s.LatestStep = &n
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// UnitExists reports whether a unit of that name is stored.
func UnitExists(db *sql.DB, name string) (bool, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM units WHERE name = ?`, name).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to look up unit %s: %w", name, err)
	}
	return n > 0, nil
}

// GetModeDecisions retrieves a unit's decisions in step order. limit <= 0
// returns all of them.
func GetModeDecisions(db *sql.DB, unit string, limit int) ([]ModeDecision, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(`SELECT id, unit, step, mode, wh_call, zone_temp, outdoor_temp, sens_load, latent_load, total_heating_rate, scdwh_volume, shdwh_runtime, recorded_at
		FROM mode_decisions WHERE unit = ? ORDER BY step, id LIMIT ?`, unit, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions for %s: %w", unit, err)
	}
	defer rows.Close()

	decisions := []ModeDecision{}
	for rows.Next() {
		var d ModeDecision
		var recordedAt string
		err = rows.Scan(&d.ID, &d.Unit, &d.Step, &d.ModeName, &d.WHCall, &d.ZoneTemp, &d.OutdoorTemp,
			&d.SensLoad, &d.LatentLoad, &d.TotalHeatingRate, &d.SCDWHVolume, &d.SHDWHRunTime, &recordedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		if d.Mode, err = model.ParseMode(d.ModeName); err != nil {
			return nil, fmt.Errorf("decision %d: %w", d.ID, err)
		}
		d.RecordedAt, _ = time.Parse(time.RFC3339, recordedAt)
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}
