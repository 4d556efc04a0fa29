package db

func SetUnitTankCLI(dbPath, unit, tank string) error {
	dbConn, err := Open(dbPath)
	if err != nil {
		return err
	}
	defer dbConn.Close()
	tx, err := StartTransaction(dbConn)
	if err != nil {
		return err
	}
	if err := UpdateUnitTankWithTx(tx, unit, tank); err != nil {
		RollbackTransaction(tx)
		return err
	}
	return CommitTransaction(tx)
}

func SetCoilCapacityCLI(dbPath, coil string, watts float64) error {
	db, err := Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := StartTransaction(db)
	if err != nil {
		return err
	}
	if err := UpdateCoilCapacityWithTx(tx, coil, watts); err != nil {
		RollbackTransaction(tx)
		return err
	}
	return CommitTransaction(tx)
}

func ClearDecisionsCLI(dbPath, unit string) (int64, error) {
	db, err := Open(dbPath)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	tx, err := StartTransaction(db)
	if err != nil {
		return 0, err
	}
	n, err := DeleteModeDecisionsWithTx(tx, unit)
	if err != nil {
		RollbackTransaction(tx)
		return 0, err
	}
	return n, CommitTransaction(tx)
}

func ListDecisionsCLI(dbPath, unit string, limit int) ([]ModeDecision, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return GetModeDecisions(db, unit, limit)
}

func ListUnitsCLI(dbPath string) ([]UnitSummary, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return GetUnitSummaries(db)
}
