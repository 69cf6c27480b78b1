package ed_core

import "fmt"

// ConfigError is returned when a topology or configuration breaks a
// structural invariant. Values are never clamped.
type ConfigError struct {
	Field  string
	Reason string
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// ShapeMismatchError is returned by TrainStep and Predict when a pattern does
// not fit the topology.
type ShapeMismatchError struct {
	What string
	Want int
	Got  int
}

func (e ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: %s has length %d, expected %d", e.What, e.Got, e.Want)
}
