package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/thatsimonsguy/ihp-controller/db"
)

func main() {
	DebugCLI()
}

func DebugCLI() {
	var dbPath, command, unit, tank, coil string
	var capacity float64
	var limit int
	flag.StringVar(&dbPath, "db", "data/ihp.db", "Path to the SQLite database file")
	flag.StringVar(&command, "cmd", "", "Command to run: set-unit-tank, set-coil-capacity, clear-decisions, list-decisions, list-units")
	flag.StringVar(&unit, "unit", "", "Unit name for unit commands")
	flag.StringVar(&tank, "tank", "", "Water heater name; empty detaches the tank")
	flag.StringVar(&coil, "coil", "", "Coil name for set-coil-capacity")
	flag.Float64Var(&capacity, "capacity", 0, "Rated capacity in W; zero autosizes")
	flag.IntVar(&limit, "limit", 20, "Decisions to list; zero lists all")
	help := flag.Bool("help", false, "Show help")
	flag.Parse()

	if *help || command == "" {
		fmt.Println("\nUsage of ihp-debug:")
		fmt.Println("  -db string\tPath to the SQLite database file (default 'data/ihp.db')")
		fmt.Println("  -cmd string\tCommand to run: set-unit-tank, set-coil-capacity, clear-decisions, list-decisions, list-units")
		fmt.Println("  -unit string\tUnit name for unit commands")
		fmt.Println("  -tank string\tWater heater name; empty detaches the tank")
		fmt.Println("  -coil string\tCoil name for set-coil-capacity")
		fmt.Println("  -capacity float\tRated capacity in W; zero autosizes")
		fmt.Println("  -limit int\tDecisions to list; zero lists all (default 20)")
		fmt.Println("  -help\tShow this help message")
		os.Exit(0)
	}

	var err error
	switch command {
	case "set-unit-tank":
		if unit == "" {
			fmt.Println("Error: unit is required")
			os.Exit(1)
		}
		err = db.SetUnitTankCLI(dbPath, unit, tank)
	case "set-coil-capacity":
		if coil == "" {
			fmt.Println("Error: coil is required")
			os.Exit(1)
		}
		err = db.SetCoilCapacityCLI(dbPath, coil, capacity)
	case "clear-decisions":
		var n int64
		n, err = db.ClearDecisionsCLI(dbPath, unit)
		if err == nil {
			fmt.Printf("Deleted %d decisions\n", n)
		}
	case "list-decisions":
		if unit == "" {
			fmt.Println("Error: unit is required")
			os.Exit(1)
		}
		var decisions []db.ModeDecision
		decisions, err = db.ListDecisionsCLI(dbPath, unit, limit)
		for _, d := range decisions {
			fmt.Printf("%6d  %-24s wh_call=%-5t heat=%8.1fW  zone=%5.1fC  out=%5.1fC\n",
				d.Step, d.ModeName, d.WHCall, d.TotalHeatingRate, d.ZoneTemp, d.OutdoorTemp)
		}
	case "list-units":
		var units []db.UnitSummary
		units, err = db.ListUnitsCLI(dbPath)
		for _, u := range units {
			latest := "-"
			if u.LatestMode != "" {
				latest = u.LatestMode
			}
			fmt.Printf("%-16s tank=%-16s decisions=%-6d latest=%s\n", u.Name, u.Tank, u.Decisions, latest)
		}
	default:
		fmt.Println("Invalid command")
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Command %s failed: %v\n", command, err)
		os.Exit(1)
	}
	fmt.Printf("Command %s completed successfully\n", command)
}
