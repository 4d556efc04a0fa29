package db

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/ihp-controller/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// Open opens the database at path and applies the schema. ":memory:" gives a
// private in-memory database.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps ":memory:" databases shared across queries
	conn.SetMaxOpenConns(1)
	if err := ApplySchema(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func ApplySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// SeedDatabase replaces the stored coils, tanks and units with the ones in
// cfg. Recorded decisions are kept.
func SeedDatabase(db *sql.DB, cfg *config.Config) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"coils", "tanks", "units"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	// Insert coils
	for _, c := range cfg.Coils {
		_, err = tx.Exec(`INSERT INTO coils (name, coil_type, rated_capacity, rated_cop_heat, part_load_curve, speeds) VALUES (?, ?, ?, ?, ?, ?)`,
			c.Name, c.Type, c.RatedCapacity, c.RatedCOPHeat, c.PartLoadCurve, marshalJSON(c.Speeds))
		if err != nil {
			return fmt.Errorf("failed to insert coil %s: %w", c.Name, err)
		}
	}

	// Insert tanks
	for _, t := range cfg.Tanks {
		_, err = tx.Exec(`INSERT INTO tanks (name, tank_type) VALUES (?, ?)`, t.Name, t.Type)
		if err != nil {
			return fmt.Errorf("failed to insert tank %s: %w", t.Name, err)
		}
	}

	// Insert units in load order
	for i, u := range cfg.Units {
		_, err = tx.Exec(`INSERT INTO units (name, position, tank, definition) VALUES (?, ?, ?, ?)`,
			u.Name, i+1, nullString(u.Tank), marshalJSON(u))
		if err != nil {
			return fmt.Errorf("failed to insert unit %s: %w", u.Name, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}

	log.Info().
		Int("coils", len(cfg.Coils)).
		Int("tanks", len(cfg.Tanks)).
		Int("units", len(cfg.Units)).
		Msg("Database seeded from config")
	return nil
}

func marshalJSON(v interface{}) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
