package coil

import "github.com/thatsimonsguy/ihp-controller/internal/node"

// Handle is a 1-based index into a coil model. Zero means not configured.
type Handle int

// AutoSize marks a rated capacity that the sizing pass must fill in.
const AutoSize = -99999.0

// Cycling schemes understood by variable-speed coils.
const (
	CyclingFan    = 1
	ContinuousFan = 2
)

// SimParams are the per-call operating conditions handed to a coil.
type SimParams struct {
	CyclingScheme     int
	MaxCyclesPerHour  float64
	TimeConstant      float64 // s
	FanDelay          float64 // s
	CompressorOn      bool
	PartLoadFrac      float64
	SpeedNum          int
	SpeedRatio        float64
	SensLoad          float64 // W
	LatentLoad        float64 // W
	OnOffAirFlowRatio float64
}

// Output is what a coil reports after its last simulation.
type Output struct {
	Capacity               float64 // W
	TotalHeatingEnergyRate float64 // W
	AirVolFlowRate         float64 // m³/s
	AirMassFlowRate        float64 // kg/s
	WaterVolFlowRate       float64 // m³/s
}

// Model is the variable-speed coil collaborator. All capacity and flow data
// comes from here; the heat pump never computes it itself.
type Model interface {
	Validate(coilType, name string) error
	ResolveIndex(coilType, name string) (Handle, error)

	Simulate(h Handle, p SimParams) error
	PassiveUpdate(h Handle) error
	SetActive(h Handle, active bool)

	Size(h Handle) error
	SetPairedCoil(h, paired Handle) error
	RatedCapacity(h Handle) float64
	SetRatedCapacity(h Handle, watts float64)
	RatedCOPHeat(h Handle) float64

	NumSpeeds(h Handle) int
	RatedAirVolFlow(h Handle, speed int) float64
	RatedAirMassFlow(h Handle, speed int) float64
	RatedWaterVolFlow(h Handle, speed int) float64
	PartLoadCurveIndex(h Handle) int

	Live(h Handle) Output

	SetAirNodes(h Handle, inlet, outlet node.ID) error
	SetWaterNodes(h Handle, inlet, outlet node.ID) error
}
