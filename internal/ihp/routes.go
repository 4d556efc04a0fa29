package ihp

import "github.com/thatsimonsguy/ihp-controller/internal/model"

// airAccess says which callers see an air flow in a mode.
type airAccess int

const (
	airNone      airAccess = iota // no air flow in this mode
	airOwnerOnly                  // the other caller sees zero
	airAlways                     // both callers see the rated flow
	airShared                     // the other caller sees the live flow once the owner has run
)

type waterAccess int

const (
	waterNone  waterAccess = iota
	waterRated             // interpolated rated flow of the water role
	waterLive              // flow reported by the water role's last simulation
)

type flowScale int

const (
	scaleUnity flowScale = iota
	scaleCool
	scaleHeat
)

// route is everything the dispatcher and the flow queries need to know
// about one mode.
type route struct {
	// roles are simulated in this order; the water heating coil goes first.
	roles []model.CoilRole
	owner model.Caller
	idle  bool

	captureHeat bool
	heatRole    model.CoilRole

	speedRole model.CoilRole
	minSpeed  func(u *Unit) int

	airRole   model.CoilRole
	air       airAccess
	scale     flowScale
	waterRole model.CoilRole
	water     waterAccess

	capacityRole     model.CoilRole
	capacityFallback model.CoilRole
	hasFallback      bool
}

func speedOne(*Unit) int { return 1 }

var idleRoute = route{
	roles:            []model.CoilRole{model.RoleSC, model.RoleDWH},
	idle:             true,
	speedRole:        model.RoleSC,
	minSpeed:         speedOne,
	airRole:          model.RoleSC,
	air:              airNone,
	water:            waterNone,
	capacityRole:     model.RoleDWH,
	capacityFallback: model.RoleSCWH,
	hasFallback:      true,
}

var routes = map[model.Mode]route{
	model.ModeIdle: idleRoute,
	model.ModeSpaceCooling: {
		roles:        []model.CoilRole{model.RoleSC},
		owner:        model.CallerAirLoop,
		speedRole:    model.RoleSC,
		minSpeed:     speedOne,
		airRole:      model.RoleSC,
		air:          airOwnerOnly,
		scale:        scaleCool,
		waterRole:    model.RoleSC,
		water:        waterLive,
		capacityRole: model.RoleSC,
	},
	model.ModeSpaceHeating: {
		roles:        []model.CoilRole{model.RoleSH},
		owner:        model.CallerAirLoop,
		speedRole:    model.RoleSH,
		minSpeed:     speedOne,
		airRole:      model.RoleSH,
		air:          airOwnerOnly,
		scale:        scaleHeat,
		waterRole:    model.RoleSH,
		water:        waterLive,
		capacityRole: model.RoleSH,
	},
	model.ModeDedicatedWaterHeating: {
		roles:            []model.CoilRole{model.RoleDWH},
		owner:            model.CallerWaterLoop,
		captureHeat:      true,
		heatRole:         model.RoleDWH,
		speedRole:        model.RoleDWH,
		minSpeed:         speedOne,
		airRole:          model.RoleDWH,
		air:              airAlways,
		scale:            scaleUnity,
		waterRole:        model.RoleDWH,
		water:            waterRated,
		capacityRole:     model.RoleDWH,
		capacityFallback: model.RoleSCWH,
		hasFallback:      true,
	},
	model.ModeSCWHMatchSC: {
		roles:        []model.CoilRole{model.RoleSCWH},
		owner:        model.CallerAirLoop,
		captureHeat:  true,
		heatRole:     model.RoleSCWH,
		speedRole:    model.RoleSCWH,
		minSpeed:     func(u *Unit) int { return u.MinSpeedSCWH },
		airRole:      model.RoleSCWH,
		air:          airShared,
		scale:        scaleCool,
		waterRole:    model.RoleSCWH,
		water:        waterLive,
		capacityRole: model.RoleSCWH,
	},
	model.ModeSCWHMatchWH: {
		roles:        []model.CoilRole{model.RoleSCWH},
		owner:        model.CallerWaterLoop,
		captureHeat:  true,
		heatRole:     model.RoleSCWH,
		speedRole:    model.RoleSCWH,
		minSpeed:     func(u *Unit) int { return u.MinSpeedSCWH },
		airRole:      model.RoleSCWH,
		air:          airShared,
		scale:        scaleCool,
		waterRole:    model.RoleSCWH,
		water:        waterRated,
		capacityRole: model.RoleSCWH,
	},
	model.ModeSCDWH: {
		roles:        []model.CoilRole{model.RoleSCDWHWH, model.RoleSCDWHCool},
		owner:        model.CallerAirLoop,
		captureHeat:  true,
		heatRole:     model.RoleSCDWHWH,
		speedRole:    model.RoleSCDWHCool,
		minSpeed:     func(u *Unit) int { return u.MinSpeedSCDWH },
		airRole:      model.RoleSCDWHCool,
		air:          airShared,
		scale:        scaleCool,
		waterRole:    model.RoleSCDWHWH,
		water:        waterLive,
		capacityRole: model.RoleSCDWHWH,
	},
	model.ModeSHDWHElecHeatOff: shdwhRoute,
	model.ModeSHDWHElecHeatOn:  shdwhRoute,
}

var shdwhRoute = route{
	roles:        []model.CoilRole{model.RoleSHDWHWH, model.RoleSHDWHHeat},
	owner:        model.CallerAirLoop,
	captureHeat:  true,
	heatRole:     model.RoleSHDWHWH,
	speedRole:    model.RoleSHDWHHeat,
	minSpeed:     func(u *Unit) int { return u.MinSpeedSHDWH },
	airRole:      model.RoleSHDWHHeat,
	air:          airShared,
	scale:        scaleHeat,
	waterRole:    model.RoleSHDWHWH,
	water:        waterLive,
	capacityRole: model.RoleSHDWHWH,
}

// routeFor returns the route of a mode; unknown modes behave like Idle.
func routeFor(m model.Mode) route {
	if r, ok := routes[m]; ok {
		return r
	}
	return idleRoute
}

// retiredRoles lists the coils of from that to does not own. Idle coils are
// already off and synced, so leaving Idle retires nothing.
func retiredRoles(from, to model.Mode) []model.CoilRole {
	prev := routeFor(from)
	if prev.idle {
		return nil
	}
	next := routeFor(to)
	var out []model.CoilRole
	for _, r := range prev.roles {
		keep := false
		if !next.idle {
			for _, n := range next.roles {
				if n == r {
					keep = true
					break
				}
			}
		}
		if !keep {
			out = append(out, r)
		}
	}
	return out
}

func (r route) flowScale(u *Unit) float64 {
	switch r.scale {
	case scaleCool:
		return u.CoolVolFlowScale
	case scaleHeat:
		return u.HeatVolFlowScale
	default:
		return 1.0
	}
}
