package ihp

import (
	"errors"
	"fmt"
)

// CapacitySentinel is returned by CoilCapacity when the unit cannot be found.
const CapacitySentinel = -1000.0

// ErrNotLoaded is returned by every entry point called before Load.
var ErrNotLoaded = errors.New("integrated heat pumps not loaded")

// ConfigurationError reports a bad unit definition or a sizing failure.
type ConfigurationError struct {
	Unit string
	Role string
	Coil string
	Err  error
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Role != "" && e.Coil != "":
		return fmt.Sprintf("unit %q: %s coil %q: %v", e.Unit, e.Role, e.Coil, e.Err)
	case e.Role != "":
		return fmt.Sprintf("unit %q: %s coil: %v", e.Unit, e.Role, e.Err)
	default:
		return fmt.Sprintf("unit %q: %v", e.Unit, e.Err)
	}
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// LookupError reports a query for a unit name that does not exist.
type LookupError struct {
	Op   string
	Type string
	Name string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: could not find coil type %q with name %q", e.Op, e.Type, e.Name)
}

// InvalidIndexError reports an index outside the loaded units, or one that
// no longer matches the name it was cached for.
type InvalidIndexError struct {
	Index  int
	Count  int
	Name   string
	Stored string
}

func (e *InvalidIndexError) Error() string {
	if e.Stored != "" {
		return fmt.Sprintf("invalid index %d: name %q, stored name for that index %q", e.Index, e.Name, e.Stored)
	}
	return fmt.Sprintf("invalid index %d: %d units loaded, name %q", e.Index, e.Count, e.Name)
}
