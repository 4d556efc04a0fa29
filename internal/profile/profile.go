package profile

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// Row is one timestep of the load profile driving every unit.
type Row struct {
	Step        int     `csv:"step"`
	OutdoorTemp float64 `csv:"outdoor_c"`
	ZoneTemp    float64 `csv:"zone_c"`
	SensLoad    float64 `csv:"sens_load_w"`
	LatentLoad  float64 `csv:"latent_load_w"`
	TankCall    bool    `csv:"tank_call"`
	TankFlow    float64 `csv:"tank_flow_kg_s"`
	Speed       int     `csv:"speed"`
	SpeedRatio  float64 `csv:"speed_ratio"`
	PartLoad    float64 `csv:"part_load"`
}

// Result is one unit's outcome for one timestep.
type Result struct {
	Step             int     `csv:"step"`
	Unit             string  `csv:"unit"`
	Mode             string  `csv:"mode"`
	ModeCode         int     `csv:"mode_code"`
	WHCall           bool    `csv:"wh_call"`
	Speed            int     `csv:"speed"`
	LowSpeed         int     `csv:"low_speed"`
	MaxSpeed         int     `csv:"max_speed"`
	TotalHeatingRate float64 `csv:"total_heating_rate_w"`
	AirVolFlow       float64 `csv:"air_vol_flow_m3s"`
	AirMassFlow      float64 `csv:"air_mass_flow_kgs"`
	WaterVolFlow     float64 `csv:"water_vol_flow_m3s"`
	SCDWHVolume      float64 `csv:"scdwh_volume_m3"`
	SHDWHRunTime     float64 `csv:"shdwh_runtime_s"`
}

func ReadRows(r io.Reader) ([]Row, error) {
	var rows []Row
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("read load profile: %w", err)
	}
	return rows, nil
}

func WriteResults(w io.Writer, results []Result) error {
	if err := gocsv.Marshal(&results, w); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}
