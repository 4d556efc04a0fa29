package coil

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/ihp-controller/internal/model"
	"github.com/thatsimonsguy/ihp-controller/internal/node"
)

const (
	AirDensity     = 1.2    // kg/m³
	AirSpecHeat    = 1005.0 // J/kg·K
	WaterDensity   = 1000.0 // kg/m³
	WaterSpecHeat  = 4180.0 // J/kg·K
	AirFlowPerWatt = 5.0e-5 // m³/s of rated air flow per W of rated capacity
)

// Speed is the rated operating point of one compressor speed.
type Speed struct {
	CapacityRatio float64 // fraction of rated capacity
	AirVolFlow    float64 // m³/s
	WaterVolFlow  float64 // m³/s
}

// Spec describes one coil in the catalog.
type Spec struct {
	Type          string
	Name          string
	RatedCapacity float64 // W, or AutoSize
	RatedCOPHeat  float64
	Speeds        []Speed
	PartLoadCurve int
}

// Stats counts what happened to a coil over its lifetime.
type Stats struct {
	Simulations    int
	PassiveUpdates int
}

type entry struct {
	Spec
	sized    bool
	paired   Handle
	active   bool
	airIn    node.ID
	airOut   node.ID
	waterIn  node.ID
	waterOut node.ID
	live     Output
	airOutSt node.State
	watOutSt node.State
	stats    Stats
}

// Catalog is a rated-data coil model. Capacity and flows come straight from
// the per-speed table; outlet nodes get a single energy balance.
type Catalog struct {
	mu    sync.Mutex
	nodes *node.Network
	coils []*entry
	index map[string]Handle
}

func NewCatalog(nodes *node.Network) *Catalog {
	return &Catalog{nodes: nodes, index: make(map[string]Handle)}
}

func key(coilType, name string) string { return coilType + "/" + name }

// Add registers a coil and returns its handle.
func (c *Catalog) Add(spec Spec) (Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch spec.Type {
	case model.CoilTypeCoolingDX, model.CoilTypeHeatingDX, model.CoilTypeWaterHeating:
	default:
		return 0, fmt.Errorf("coil %q: unknown type %q", spec.Name, spec.Type)
	}
	if spec.Name == "" {
		return 0, fmt.Errorf("coil of type %s has no name", spec.Type)
	}
	if _, dup := c.index[key(spec.Type, spec.Name)]; dup {
		return 0, fmt.Errorf("coil %q of type %s is not unique", spec.Name, spec.Type)
	}
	if len(spec.Speeds) == 0 {
		return 0, fmt.Errorf("coil %q has no speeds", spec.Name)
	}

	e := &entry{Spec: spec, sized: spec.RatedCapacity != AutoSize}
	c.coils = append(c.coils, e)
	h := Handle(len(c.coils))
	c.index[key(spec.Type, spec.Name)] = h
	return h, nil
}

func (c *Catalog) Validate(coilType, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.index[key(coilType, name)]; !ok {
		return fmt.Errorf("%s %q not found", coilType, name)
	}
	return nil
}

func (c *Catalog) ResolveIndex(coilType, name string) (Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.index[key(coilType, name)]
	if !ok {
		return 0, fmt.Errorf("%s %q not found", coilType, name)
	}
	return h, nil
}

func (c *Catalog) Simulate(h Handle, p SimParams) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, err := c.get(h)
	if err != nil {
		return err
	}
	if !e.sized {
		return fmt.Errorf("coil %q simulated before sizing", e.Name)
	}

	var out Output
	if e.active && p.CompressorOn && p.PartLoadFrac > 0 {
		speed, ratio := clampSpeed(p.SpeedNum, p.SpeedRatio, len(e.Speeds))
		capRatio := blend(e.Speeds, speed, ratio, func(s Speed) float64 { return s.CapacityRatio })
		out.AirVolFlowRate = blend(e.Speeds, speed, ratio, func(s Speed) float64 { return s.AirVolFlow })
		out.WaterVolFlowRate = blend(e.Speeds, speed, ratio, func(s Speed) float64 { return s.WaterVolFlow })
		out.AirMassFlowRate = out.AirVolFlowRate * AirDensity
		out.Capacity = e.RatedCapacity * capRatio * p.PartLoadFrac
		if e.Type != model.CoilTypeCoolingDX {
			out.TotalHeatingEnergyRate = out.Capacity
		}
	}
	e.live = out
	e.stats.Simulations++

	c.balance(e)
	return c.push(e)
}

// PassiveUpdate re-publishes the last outlet state of an active coil. An
// inactive coil is zeroed and its inlets pass straight through.
func (c *Catalog) PassiveUpdate(h Handle) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, err := c.get(h)
	if err != nil {
		return err
	}
	e.stats.PassiveUpdates++
	if !e.active {
		e.live = Output{}
		c.balance(e)
	}
	return c.push(e)
}

func (c *Catalog) SetActive(h Handle, active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, err := c.get(h); err == nil {
		e.active = active
	}
}

// Size fills in an autosized capacity from the paired coil, or from the top
// speed air flow when there is no paired capacity to follow.
func (c *Catalog) Size(h Handle) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, err := c.get(h)
	if err != nil {
		return err
	}
	if e.sized {
		return nil
	}
	if e.RatedCapacity == AutoSize {
		if p, err := c.get(e.paired); err == nil && p.RatedCapacity != AutoSize {
			e.RatedCapacity = p.RatedCapacity
		} else if top := e.Speeds[len(e.Speeds)-1].AirVolFlow; top > 0 {
			e.RatedCapacity = top / AirFlowPerWatt
		} else {
			return fmt.Errorf("coil %q: cannot autosize capacity without air flow or paired coil", e.Name)
		}
	}
	e.sized = true
	log.Debug().
		Str("coil", e.Name).
		Float64("capacity_w", e.RatedCapacity).
		Msg("Coil sized")
	return nil
}

func (c *Catalog) SetPairedCoil(h, paired Handle) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, err := c.get(h)
	if err != nil {
		return err
	}
	p, err := c.get(paired)
	if err != nil {
		return err
	}
	if e.Type != model.CoilTypeCoolingDX || p.Type != model.CoilTypeHeatingDX {
		return fmt.Errorf("cannot pair %s %q with %s %q", e.Type, e.Name, p.Type, p.Name)
	}
	e.paired = paired
	p.paired = h
	return nil
}

func (c *Catalog) RatedCapacity(h Handle) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, err := c.get(h); err == nil {
		return e.RatedCapacity
	}
	return 0
}

func (c *Catalog) SetRatedCapacity(h Handle, watts float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, err := c.get(h); err == nil {
		e.RatedCapacity = watts
	}
}

func (c *Catalog) RatedCOPHeat(h Handle) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, err := c.get(h); err == nil {
		return e.RatedCOPHeat
	}
	return 0
}

func (c *Catalog) NumSpeeds(h Handle) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, err := c.get(h); err == nil {
		return len(e.Speeds)
	}
	return 0
}

func (c *Catalog) RatedAirVolFlow(h Handle, speed int) float64 {
	return c.speedValue(h, speed, func(s Speed) float64 { return s.AirVolFlow })
}

func (c *Catalog) RatedAirMassFlow(h Handle, speed int) float64 {
	return c.speedValue(h, speed, func(s Speed) float64 { return s.AirVolFlow * AirDensity })
}

func (c *Catalog) RatedWaterVolFlow(h Handle, speed int) float64 {
	return c.speedValue(h, speed, func(s Speed) float64 { return s.WaterVolFlow })
}

func (c *Catalog) PartLoadCurveIndex(h Handle) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, err := c.get(h); err == nil {
		return e.PartLoadCurve
	}
	return 0
}

func (c *Catalog) Live(h Handle) Output {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, err := c.get(h); err == nil {
		return e.live
	}
	return Output{}
}

func (c *Catalog) SetAirNodes(h Handle, inlet, outlet node.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.get(h)
	if err != nil {
		return err
	}
	e.airIn, e.airOut = inlet, outlet
	return nil
}

func (c *Catalog) SetWaterNodes(h Handle, inlet, outlet node.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.get(h)
	if err != nil {
		return err
	}
	e.waterIn, e.waterOut = inlet, outlet
	return nil
}

func (c *Catalog) Stats(h Handle) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, err := c.get(h); err == nil {
		return e.stats
	}
	return Stats{}
}

func (c *Catalog) Active(h Handle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, err := c.get(h); err == nil {
		return e.active
	}
	return false
}

func (c *Catalog) get(h Handle) (*entry, error) {
	if h < 1 || int(h) > len(c.coils) {
		return nil, fmt.Errorf("invalid coil handle %d", h)
	}
	return c.coils[h-1], nil
}

func (c *Catalog) speedValue(h Handle, speed int, field func(Speed) float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.get(h)
	if err != nil || speed < 1 || speed > len(e.Speeds) {
		return 0
	}
	return field(e.Speeds[speed-1])
}

// heatsWater reports whether the coil owns the water outlet node. Air-side
// coils sharing a unit's water nodes leave them alone.
func (e *entry) heatsWater() bool { return e.Type == model.CoilTypeWaterHeating }

// balance computes outlet node states from the live output.
func (c *Catalog) balance(e *entry) {
	if c.nodes == nil {
		return
	}

	if in, err := c.nodes.Get(e.airIn); err == nil {
		out := in
		mass := e.live.AirMassFlowRate
		if mass > 0 {
			var airHeat float64
			switch e.Type {
			case model.CoilTypeCoolingDX:
				airHeat = -e.live.Capacity
			case model.CoilTypeHeatingDX:
				airHeat = e.live.Capacity
			case model.CoilTypeWaterHeating:
				// evaporator side draws the non-compressor share from the air
				airHeat = -e.live.Capacity
				if e.RatedCOPHeat > 0 {
					airHeat *= 1 - 1/e.RatedCOPHeat
				}
			}
			out.Temp = in.Temp + airHeat/(mass*AirSpecHeat)
			out.MassFlow = mass
		}
		e.airOutSt = out
	}

	if !e.heatsWater() {
		return
	}
	if in, err := c.nodes.Get(e.waterIn); err == nil {
		out := in
		mass := e.live.WaterVolFlowRate * WaterDensity
		if mass > 0 {
			out.Temp = in.Temp + e.live.TotalHeatingEnergyRate/(mass*WaterSpecHeat)
			out.MassFlow = mass
		}
		e.watOutSt = out
	}
}

func (c *Catalog) push(e *entry) error {
	if c.nodes == nil {
		return nil
	}
	if e.airOut != 0 {
		if err := c.nodes.Set(e.airOut, e.airOutSt); err != nil {
			return fmt.Errorf("coil %q air outlet: %w", e.Name, err)
		}
	}
	if e.waterOut != 0 && e.heatsWater() {
		if err := c.nodes.Set(e.waterOut, e.watOutSt); err != nil {
			return fmt.Errorf("coil %q water outlet: %w", e.Name, err)
		}
	}
	return nil
}

func clampSpeed(speed int, ratio float64, n int) (int, float64) {
	if speed < 1 {
		speed = 1
	}
	if speed > n {
		speed, ratio = n, 1
	}
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return speed, ratio
}

func blend(speeds []Speed, speed int, ratio float64, field func(Speed) float64) float64 {
	hi := field(speeds[speed-1])
	if speed == 1 {
		return hi
	}
	return ratio*hi + (1-ratio)*field(speeds[speed-2])
}
