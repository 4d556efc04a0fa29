package coil

import (
	"fmt"

	"github.com/thatsimonsguy/ihp-controller/internal/model"
)

// Slot binds one role of a unit to a coil of the coil model.
type Slot struct {
	Type   string
	Name   string
	Handle Handle
}

// Configured reports whether the slot resolved to a coil.
func (s Slot) Configured() bool { return s.Handle != 0 }

// Registry maps the eight roles of a unit to coil handles.
type Registry struct {
	slots [model.NumCoilRoles]Slot
}

// Assign records the coil named for a role. The handle stays unset until Resolve.
func (r *Registry) Assign(role model.CoilRole, coilType, name string) {
	r.slots[role] = Slot{Type: coilType, Name: name}
}

// Resolve validates the coil assigned to role and caches its handle.
func (r *Registry) Resolve(m Model, role model.CoilRole) error {
	s := &r.slots[role]
	if s.Name == "" {
		return fmt.Errorf("%s coil not assigned", role)
	}
	if s.Type != role.CoilType() {
		return fmt.Errorf("%s coil %q has type %s, expected %s", role, s.Name, s.Type, role.CoilType())
	}
	if err := m.Validate(s.Type, s.Name); err != nil {
		return fmt.Errorf("%s coil %q: %w", role, s.Name, err)
	}
	h, err := m.ResolveIndex(s.Type, s.Name)
	if err != nil {
		return fmt.Errorf("%s coil %q: %w", role, s.Name, err)
	}
	s.Handle = h
	return nil
}

func (r *Registry) Slot(role model.CoilRole) Slot { return r.slots[role] }

func (r *Registry) Handle(role model.CoilRole) Handle { return r.slots[role].Handle }

func (r *Registry) Configured(role model.CoilRole) bool { return r.slots[role].Configured() }
