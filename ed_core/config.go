package ed_core

import (
	"fmt"
	"math"
	"strings"

	"ed_diffusion/ed_learnRules"
)

// UpdateMode selects the weight update law. The zero value is Selective.
type UpdateMode int

const (
	Selective UpdateMode = iota
	Bidirectional
)

func (m UpdateMode) String() string {
	switch m {
	case Selective:
		return "SELECTIVE"
	case Bidirectional:
		return "BIDIRECTIONAL"
	}
	return fmt.Sprintf("UpdateMode(%d)", int(m))
}

// ParseUpdateMode accepts the mode names in any case, with "DECREMENT" as an
// alias of the bidirectional mode.
func ParseUpdateMode(name string) (UpdateMode, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "SELECTIVE":
		return Selective, nil
	case "BIDIRECTIONAL", "DECREMENT":
		return Bidirectional, nil
	}
	return Selective, fmt.Errorf("update mode is invalid: %s", name)
}

// UpdateModeFromDecrement maps the weight decrement flag onto a mode.
func UpdateModeFromDecrement(decrement bool) UpdateMode {
	if decrement {
		return Bidirectional
	}
	return Selective
}

func (m UpdateMode) learnRule() (ed_learnRules.EDLearnRuleHandler, error) {
	switch m {
	case Selective:
		return ed_learnRules.SelectiveLearnRule{}, nil
	case Bidirectional:
		return ed_learnRules.BidirectionalLearnRule{}, nil
	}
	return nil, ConfigError{Field: "update mode", Reason: fmt.Sprintf("unknown value %d", int(m))}
}

func (m UpdateMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *UpdateMode) UnmarshalText(text []byte) error {
	parsed, err := ParseUpdateMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

type Config struct {
	Timesteps            int        `json:"timesteps"`
	LearningRate         float64    `json:"learning_rate"`
	Bias                 float64    `json:"bias"`
	SigmoidSteepness     float64    `json:"sigmoid_steepness"`
	ErrorAmplification   float64    `json:"error_amplification"`
	WeightRange          float64    `json:"weight_range"`
	ThresholdRange       float64    `json:"threshold_range"`
	ConvergenceThreshold float64    `json:"convergence_threshold"`
	MultiLayer           bool       `json:"multi_layer"`
	LoopCutting          bool       `json:"loop_cutting"`
	SelfLoopCutting      bool       `json:"self_loop_cutting"`
	InhibitoryInputs     bool       `json:"inhibitory_inputs"`
	UpdateMode           UpdateMode `json:"update_mode"`
	Seed                 int64      `json:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Timesteps:            2,
		LearningRate:         0.8,
		Bias:                 0.8,
		SigmoidSteepness:     0.4,
		ErrorAmplification:   1.0,
		WeightRange:          1.0,
		ThresholdRange:       1.0,
		ConvergenceThreshold: 0.1,
		MultiLayer:           true,
		LoopCutting:          true,
		SelfLoopCutting:      true,
		InhibitoryInputs:     true,
		UpdateMode:           Selective,
		Seed:                 1,
	}
}

func (c Config) Validate() error {
	if c.Timesteps < 1 {
		return ConfigError{Field: "timesteps", Reason: "must be at least 1"}
	}
	if !(c.SigmoidSteepness > 0) {
		return ConfigError{Field: "sigmoid steepness", Reason: "must be positive"}
	}
	if c.WeightRange < 0 {
		return ConfigError{Field: "weight range", Reason: "must not be negative"}
	}
	if c.ThresholdRange < 0 {
		return ConfigError{Field: "threshold range", Reason: "must not be negative"}
	}
	finite := []struct {
		field string
		value float64
	}{
		{"learning rate", c.LearningRate},
		{"bias", c.Bias},
		{"sigmoid steepness", c.SigmoidSteepness},
		{"error amplification", c.ErrorAmplification},
		{"weight range", c.WeightRange},
		{"threshold range", c.ThresholdRange},
		{"convergence threshold", c.ConvergenceThreshold},
	}
	for _, f := range finite {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return ConfigError{Field: f.field, Reason: "must be finite"}
		}
	}
	if _, err := c.UpdateMode.learnRule(); err != nil {
		return err
	}
	return nil
}
