package profile

import (
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"

	"github.com/thatsimonsguy/ihp-controller/internal/model"
)

// Summary aggregates one unit's results over a run.
type Summary struct {
	Unit            string
	Steps           int
	ModeSteps       map[model.Mode]int
	ModeChanges     int
	HeatingEnergy   float64 // J
	PeakHeatingRate float64 // W
	MeanHeatingRate float64 // W
	PeakAirVolFlow  float64 // m³/s
}

// Summarize groups results by unit, in first-seen order.
func Summarize(results []Result, timeStep time.Duration) []Summary {
	var order []string
	rates := map[string][]float64{}
	airFlows := map[string][]float64{}
	byUnit := map[string]*Summary{}
	last := map[string]int{}

	for _, r := range results {
		s, ok := byUnit[r.Unit]
		if !ok {
			s = &Summary{Unit: r.Unit, ModeSteps: map[model.Mode]int{}}
			byUnit[r.Unit] = s
			order = append(order, r.Unit)
		} else if last[r.Unit] != r.ModeCode {
			s.ModeChanges++
		}
		last[r.Unit] = r.ModeCode
		s.Steps++
		s.ModeSteps[model.Mode(r.ModeCode)]++
		rates[r.Unit] = append(rates[r.Unit], r.TotalHeatingRate)
		airFlows[r.Unit] = append(airFlows[r.Unit], r.AirVolFlow)
	}

	out := make([]Summary, 0, len(order))
	for _, unit := range order {
		s := byUnit[unit]
		rate := rates[unit]
		total := floats.Sum(rate)
		s.HeatingEnergy = total * timeStep.Seconds()
		s.MeanHeatingRate = total / float64(len(rate))
		s.PeakHeatingRate = floats.Max(rate)
		s.PeakAirVolFlow = floats.Max(airFlows[unit])
		out = append(out, *s)
	}
	return out
}

func LogSummaries(summaries []Summary) {
	for _, s := range summaries {
		ev := log.Info().
			Str("unit", s.Unit).
			Int("steps", s.Steps).
			Int("mode_changes", s.ModeChanges).
			Float64("heating_energy_kwh", s.HeatingEnergy/3.6e6).
			Float64("peak_heating_rate_w", s.PeakHeatingRate).
			Float64("peak_air_vol_flow_m3s", s.PeakAirVolFlow)
		for _, m := range model.Modes() {
			if n := s.ModeSteps[m]; n > 0 {
				ev = ev.Int("steps_"+m.String(), n)
			}
		}
		ev.Msg("Unit summary")
	}
}
