package core

import (
	"encoding/json"
	"fmt"
)

// Quantity is a numeric value with a unit label, used for derived
// results stored in an Observation's calculated data.
type Quantity struct {
	Value float64
	Unit  string
}

// String renders the value with its unit, e.g. "43.2 Mlambda".
func (q Quantity) String() string {
	if q.Unit == "" {
		return fmt.Sprintf("%g", q.Value)
	}
	return fmt.Sprintf("%g %s", q.Value, q.Unit)
}

// MarshalJSON flattens the quantity to its bare numeric value. The unit
// label is deliberately not serialized: consumers of exported data
// expect plain numbers, and a round-trip through JSON yields a float64.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Value)
}
