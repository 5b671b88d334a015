package eval

import (
	"reflect"
	"sync"
)

// State is the lifecycle stage of a node's observation.
type State uint8

const (
	// Unobserved nodes have never been evaluated.
	Unobserved State = iota
	// Observed nodes have been evaluated at least once since the last
	// reset.
	Observed
	// Invalidated nodes were observed before a reset and have not been
	// evaluated since.
	Invalidated
)

func (s State) String() string {
	switch s {
	case Observed:
		return "observed"
	case Invalidated:
		return "invalidated"
	default:
		return "unobserved"
	}
}

// Observation is what the interpreter learned about one node from its
// most recent evaluation.
type Observation struct {
	// Type is the exit descriptor: the dynamic type of the last non-null
	// result, or nil when every result was null.
	Type reflect.Type
	// Target is the type of the object a link was applied to. For
	// function references it is the type of the function, and for
	// constructors the constructed type.
	Target reflect.Type
	// Member is the property, method, function, or constructor the node
	// was linked to.
	Member *Member
	// ArgTypes are the dynamic types of the arguments of the last call
	// or index operation.
	ArgTypes []reflect.Type
	// Count is the number of evaluations since the last reset.
	Count int
	// State is the lifecycle stage.
	State State
	// Varied reports whether two non-null results had different types.
	Varied bool
	// Null reports whether any result was null.
	Null bool
	// ShortCircuit reports whether a null-safe link was reached with a
	// null target.
	ShortCircuit bool
}

// Linked reports whether o recorded a resolved member.
func (o Observation) Linked() bool { return o.Member != nil }

// Observations is a side table of per-node observations keyed by node ID.
// A nil *Observations records nothing. It is safe for concurrent use.
type Observations struct {
	entries []Observation
	mu      sync.RWMutex
}

// NewObservations returns a table for a tree of n nodes.
func NewObservations(n int) *Observations {
	return &Observations{entries: make([]Observation, n)}
}

// Get returns a copy of the observation for node id.
func (o *Observations) Get(id int) Observation {
	if o == nil {
		return Observation{}
	}

	o.mu.RLock()
	defer o.mu.RUnlock()

	if id < 0 || id >= len(o.entries) {
		return Observation{}
	}

	return o.entries[id]
}

// Len returns the number of entries.
func (o *Observations) Len() int {
	if o == nil {
		return 0
	}

	o.mu.RLock()
	defer o.mu.RUnlock()

	return len(o.entries)
}

// Reset invalidates every observation.
func (o *Observations) Reset() {
	if o == nil {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for i, e := range o.entries {
		s := Unobserved
		if e.State != Unobserved {
			s = Invalidated
		}

		o.entries[i] = Observation{State: s}
	}
}

func (o *Observations) update(id int, fn func(*Observation)) {
	if o == nil || id < 0 {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if id >= len(o.entries) {
		o.entries = append(o.entries, make([]Observation, id+1-len(o.entries))...)
	}

	fn(&o.entries[id])
}

// result records the value a node produced.
func (o *Observations) result(id int, v any) {
	o.update(id, func(e *Observation) {
		if t := reflect.TypeOf(v); t == nil {
			e.Null = true
		} else {
			if e.Type != nil && e.Type != t {
				e.Varied = true
			}

			e.Type = t
		}

		e.State = Observed
		e.Count++
	})
}

// link records the member a node was linked to on a target type.
func (o *Observations) link(id int, target reflect.Type, m *Member, argTypes []reflect.Type) {
	o.update(id, func(e *Observation) {
		e.Target = target
		e.Member = m
		e.ArgTypes = argTypes
	})
}

func (o *Observations) shortCircuit(id int) {
	o.update(id, func(e *Observation) {
		e.ShortCircuit = true
		e.State = Observed
		e.Count++
	})
}
