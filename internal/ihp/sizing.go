package ihp

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/ihp-controller/internal/coil"
	"github.com/thatsimonsguy/ihp-controller/internal/model"
)

// Autosized capacities of the water heating coils as a fraction of the
// space cooling coil's rated capacity.
const (
	scdwhWHCapacityRatio = 0.13
	shdwhWHCapacityRatio = 0.10
)

// SizeAll sizes every unit that has not been sized yet.
func (s *System) SizeAll() error {
	s.mu.RLock()
	if !s.loaded {
		s.mu.RUnlock()
		return ErrNotLoaded
	}
	units := append([]*Unit(nil), s.units...)
	s.mu.RUnlock()

	var errs []error
	for _, u := range units {
		u.mu.Lock()
		err := s.ensureSized(u)
		u.mu.Unlock()
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ensureSized runs the sizing pass once. A failed pass is not retried.
// Callers hold u.mu.
func (s *System) ensureSized(u *Unit) error {
	if u.sizeErr != nil {
		return u.sizeErr
	}
	if u.sized {
		return nil
	}
	if err := s.size(u); err != nil {
		u.sizeErr = err
		return err
	}
	u.sized = true
	return nil
}

// size propagates the space cooling capacity to the dependent coils and
// sizes each one after its capacity is set.
func (s *System) size(u *Unit) error {
	var errs []error
	fail := func(role model.CoilRole, err error) {
		errs = append(errs, &ConfigurationError{Unit: u.Name, Role: role.String(), Coil: u.Coils.Slot(role).Name, Err: err})
	}
	h := u.Coils.Handle

	if err := s.coils.SetPairedCoil(h(model.RoleSC), h(model.RoleSH)); err != nil {
		fail(model.RoleSC, fmt.Errorf("could not match with heating coil %q: %w", u.Coils.Slot(model.RoleSH).Name, err))
	}
	if err := s.coils.Size(h(model.RoleSC)); err != nil {
		// nothing else can be sized without the reference capacity
		fail(model.RoleSC, fmt.Errorf("failed to size: %w", err))
		return errors.Join(errs...)
	}
	ref := s.coils.RatedCapacity(h(model.RoleSC))

	if err := s.coils.Size(h(model.RoleSH)); err != nil {
		fail(model.RoleSH, fmt.Errorf("failed to size: %w", err))
	}

	if cool := h(model.RoleSCDWHCool); cool != 0 {
		if s.coils.RatedCapacity(cool) == coil.AutoSize {
			s.coils.SetRatedCapacity(cool, ref)
		}
		if heat := h(model.RoleSHDWHHeat); heat != 0 {
			if err := s.coils.SetPairedCoil(cool, heat); err != nil {
				fail(model.RoleSCDWHCool, fmt.Errorf("could not match with heating coil %q: %w", u.Coils.Slot(model.RoleSHDWHHeat).Name, err))
			}
		}
	}
	s.sizeRole(u, model.RoleSCDWHCool, fail)
	s.sizeRole(u, model.RoleSHDWHHeat, fail)

	if scwh := h(model.RoleSCWH); scwh != 0 && s.coils.RatedCapacity(scwh) == coil.AutoSize {
		cop := s.coils.RatedCOPHeat(scwh)
		if cop <= 1 {
			fail(model.RoleSCWH, fmt.Errorf("rated heating COP %.3f must exceed 1 to autosize", cop))
			return errors.Join(errs...)
		}
		s.coils.SetRatedCapacity(scwh, ref/(1-1/cop))
	}
	s.sizeRole(u, model.RoleSCWH, fail)

	s.autosizeRole(u, model.RoleDWH, ref)
	s.sizeRole(u, model.RoleDWH, fail)

	s.autosizeRole(u, model.RoleSCDWHWH, ref*scdwhWHCapacityRatio)
	s.sizeRole(u, model.RoleSCDWHWH, fail)

	s.autosizeRole(u, model.RoleSHDWHWH, ref*shdwhWHCapacityRatio)
	s.sizeRole(u, model.RoleSHDWHWH, fail)

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	log.Info().
		Str("unit", u.Name).
		Float64("rated_capacity_w", ref).
		Msg("Integrated heat pump sized")
	return nil
}

func (s *System) autosizeRole(u *Unit, role model.CoilRole, watts float64) {
	h := u.Coils.Handle(role)
	if h != 0 && s.coils.RatedCapacity(h) == coil.AutoSize {
		s.coils.SetRatedCapacity(h, watts)
	}
}

func (s *System) sizeRole(u *Unit, role model.CoilRole, fail func(model.CoilRole, error)) {
	h := u.Coils.Handle(role)
	if h == 0 {
		return
	}
	if err := s.coils.Size(h); err != nil {
		fail(role, fmt.Errorf("failed to size: %w", err))
	}
}
