package node

import (
	"fmt"
	"sync"
)

// ID is a 1-based node number. Zero means the node is not set.
type ID int

// State is the part of a node the heat pump reads and writes.
type State struct {
	Name     string
	Temp     float64 // °C
	MassFlow float64 // kg/s
	HumRat   float64 // kg water / kg dry air
}

// Network holds every named node of a simulation.
type Network struct {
	mu     sync.Mutex
	nodes  []State
	byName map[string]ID
}

func NewNetwork() *Network {
	return &Network{byName: make(map[string]ID)}
}

// Register returns the node for name, creating it on first use.
func (n *Network) Register(name string) ID {
	n.mu.Lock()
	defer n.mu.Unlock()

	if id, ok := n.byName[name]; ok {
		return id
	}
	n.nodes = append(n.nodes, State{Name: name})
	id := ID(len(n.nodes))
	n.byName[name] = id
	return id
}

func (n *Network) Lookup(name string) (ID, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id, ok := n.byName[name]
	return id, ok
}

func (n *Network) Get(id ID) (State, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.valid(id) {
		return State{}, fmt.Errorf("node %d not registered", id)
	}
	return n.nodes[id-1], nil
}

// MassFlow returns the node's mass flow rate, or 0 for an unset node.
func (n *Network) MassFlow(id ID) float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.valid(id) {
		return 0
	}
	return n.nodes[id-1].MassFlow
}

func (n *Network) SetMassFlow(id ID, flow float64) error {
	return n.update(id, func(s *State) { s.MassFlow = flow })
}

func (n *Network) SetTemp(id ID, temp float64) error {
	return n.update(id, func(s *State) { s.Temp = temp })
}

// Set overwrites temperature and flow of a node but keeps its name.
func (n *Network) Set(id ID, st State) error {
	return n.update(id, func(s *State) {
		s.Temp = st.Temp
		s.MassFlow = st.MassFlow
		s.HumRat = st.HumRat
	})
}

func (n *Network) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.nodes)
}

func (n *Network) update(id ID, fn func(*State)) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.valid(id) {
		return fmt.Errorf("node %d not registered", id)
	}
	fn(&n.nodes[id-1])
	return nil
}

func (n *Network) valid(id ID) bool {
	return id > 0 && int(id) <= len(n.nodes)
}
