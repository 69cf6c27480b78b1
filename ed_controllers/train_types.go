package ed_controllers

import (
	"ed_diffusion/ed_core"
	"ed_diffusion/ed_patterns"
)

const (
	StatusConverged    = "CONVERGED"
	StatusLimitReached = "LIMIT_REACHED"
	StatusFailed       = "FAILED"
)

// DefaultMaxEpochs is used when a session is started without an epoch limit.
const DefaultMaxEpochs = 10000

type EDSettings struct {
	InputFeatures int            `json:"input_features"`
	Outputs       int            `json:"outputs"`
	Hidden1       int            `json:"hidden1"`
	Hidden2       int            `json:"hidden2"`
	PatternCount  int            `json:"pattern_count"`
	InputMode     string         `json:"input_mode"`
	PatternTypes  []string       `json:"pattern_types"`
	UpdateMode    string         `json:"update_mode"`
	Config        ed_core.Config `json:"config"`

	topology        ed_core.Topology
	inputMode       ed_patterns.InputMode
	patternHandlers []ed_patterns.EDPatternHandler
}

func (s EDSettings) Topology() ed_core.Topology { return s.topology }

// SessionInstance is everything one training run mutates.
type SessionInstance struct {
	Patterns ed_patterns.PatternSet
	Engine   *ed_core.Engine
}

type SessionData struct {
	RunId        string                 `json:"run_id"`
	Seed         int64                  `json:"seed"`
	Epochs       int                    `json:"epochs"`
	FinalError   float64                `json:"final_error"`
	ErrorCount   int                    `json:"error_count"`
	Stats        LearningStats          `json:"stats"`
	Patterns     ed_patterns.PatternSet `json:"patterns"`
	InitialState ed_core.EngineState    `json:"initial_state"`
	FinalState   ed_core.EngineState    `json:"final_state"`
	Status       string                 `json:"status"`
	Err          string                 `json:"error,omitempty"`
}

// EpochState is the per-epoch message sent to trackers.
type EpochState struct {
	RunId      string  `json:"run_id"`
	Epoch      int     `json:"epoch"`
	TotalError float64 `json:"total_error"`
	ErrorCount int     `json:"error_count"`
	Accuracy   float64 `json:"accuracy"`
	Status     string  `json:"status"`
}
