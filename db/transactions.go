package db

import (
	"database/sql"
	"fmt"
	"time"
)

// StartTransaction starts a new database transaction.
func StartTransaction(db *sql.DB) (*sql.Tx, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	return tx, nil
}

// CommitTransaction commits the given transaction.
func CommitTransaction(tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RollbackTransaction rolls back the given transaction.
func RollbackTransaction(tx *sql.Tx) {
	tx.Rollback()
}

// RecordModeDecisions writes one step's decisions for every unit together.
func RecordModeDecisions(db *sql.DB, decisions []ModeDecision) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	for _, d := range decisions {
		if err := RecordModeDecisionWithTx(tx, d); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func RecordModeDecisionWithTx(tx *sql.Tx, d ModeDecision) error {
	recordedAt := d.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}
	_, err := tx.Exec(`INSERT INTO mode_decisions (unit, step, mode, wh_call, zone_temp, outdoor_temp, sens_load, latent_load, total_heating_rate, scdwh_volume, shdwh_runtime, recorded_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Unit, d.Step, d.Mode.String(), d.WHCall, d.ZoneTemp, d.OutdoorTemp, d.SensLoad, d.LatentLoad,
		d.TotalHeatingRate, d.SCDWHVolume, d.SHDWHRunTime, recordedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record decision for %s step %d: %w", d.Unit, d.Step, err)
	}
	return nil
}

func UpdateUnitTank(db *sql.DB, unit, tank string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	if err := UpdateUnitTankWithTx(tx, unit, tank); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// UpdateUnitTankWithTx points a unit at a stored tank; an empty tank detaches it.
func UpdateUnitTankWithTx(tx *sql.Tx, unit, tank string) error {
	if tank != "" {
		var n int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM tanks WHERE name = ?`, tank).Scan(&n); err != nil {
			return fmt.Errorf("look up tank %s: %w", tank, err)
		}
		if n == 0 {
			return fmt.Errorf("tank %s not found", tank)
		}
	}
	res, err := tx.Exec(`UPDATE units SET tank = ? WHERE name = ?`, nullString(tank), unit)
	return checkUpdated(res, err, "unit "+unit)
}

// UpdateCoilCapacityWithTx sets a coil's rated capacity; zero or less autosizes it.
func UpdateCoilCapacityWithTx(tx *sql.Tx, coil string, watts float64) error {
	res, err := tx.Exec(`UPDATE coils SET rated_capacity = ? WHERE name = ?`, watts, coil)
	return checkUpdated(res, err, "coil "+coil)
}

// DeleteModeDecisionsWithTx drops a unit's recorded decisions, or every
// unit's when unit is empty.
func DeleteModeDecisionsWithTx(tx *sql.Tx, unit string) (int64, error) {
	var res sql.Result
	var err error
	if unit == "" {
		res, err = tx.Exec(`DELETE FROM mode_decisions`)
	} else {
		res, err = tx.Exec(`DELETE FROM mode_decisions WHERE unit = ?`, unit)
	}
	if err != nil {
		return 0, fmt.Errorf("delete decisions: %w", err)
	}
	return res.RowsAffected()
}

func checkUpdated(res sql.Result, err error, what string) error {
	if err != nil {
		return fmt.Errorf("update %s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s not found", what)
	}
	return nil
}
