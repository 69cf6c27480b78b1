package ed_patterns

import (
	"fmt"
	"math/rand"
	"strings"
)

type EDPatternHandler interface {
	CreateTargetColumn(inputs [][]float64, ctx *TargetContext) ([]float64, error)
}

// TargetContext is shared by every target column of one pattern set.
type TargetContext struct {
	Rand    *rand.Rand
	Column  int
	Claimed map[int]bool // patterns already chosen by a one-hot column
}

type PatternSet struct {
	Inputs  [][]float64 `json:"inputs"`
	Targets [][]float64 `json:"targets"`
}

func (p PatternSet) Len() int { return len(p.Inputs) }

func (p PatternSet) Features() int {
	if len(p.Inputs) == 0 {
		return 0
	}
	return len(p.Inputs[0])
}

func (p PatternSet) Outputs() int {
	if len(p.Targets) == 0 {
		return 0
	}
	return len(p.Targets[0])
}

func (p PatternSet) Validate() error {
	if len(p.Inputs) == 0 {
		return fmt.Errorf("pattern set is empty")
	}
	if len(p.Inputs) != len(p.Targets) {
		return fmt.Errorf("pattern set has %d inputs and %d targets", len(p.Inputs), len(p.Targets))
	}
	for i := range p.Inputs {
		if len(p.Inputs[i]) != p.Features() {
			return fmt.Errorf("input %d has %d features, expected %d", i, len(p.Inputs[i]), p.Features())
		}
		if len(p.Targets[i]) != p.Outputs() {
			return fmt.Errorf("target %d has %d values, expected %d", i, len(p.Targets[i]), p.Outputs())
		}
	}
	return nil
}

type InputMode int

const (
	BinaryInputs InputMode = iota
	RandomInputs
)

func (m InputMode) String() string {
	if m == RandomInputs {
		return "RANDOM"
	}
	return "BINARY"
}

func ParseInputMode(name string) (InputMode, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "0", "BINARY":
		return BinaryInputs, nil
	case "1", "RANDOM":
		return RandomInputs, nil
	}
	return BinaryInputs, fmt.Errorf("input mode is invalid: %s", name)
}

// CreateInputPatterns enumerates binary patterns from the bits of the pattern
// index, or draws uniform values in random mode.
func CreateInputPatterns(count int, features int, mode InputMode, localRand *rand.Rand) [][]float64 {
	inputs := make([][]float64, count)
	for p := 0; p < count; p++ {
		inputs[p] = make([]float64, features)
		for s := 0; s < features; s++ {
			if mode == RandomInputs {
				inputs[p][s] = localRand.Float64()
			} else if p&(1<<s) != 0 {
				inputs[p][s] = 1
			}
		}
	}
	return inputs
}

// CreatePatternSet builds the inputs and then one target column per handler.
func CreatePatternSet(count int, features int, mode InputMode, handlers []EDPatternHandler, localRand *rand.Rand) (PatternSet, error) {
	if count < 1 || features < 1 || len(handlers) == 0 {
		return PatternSet{}, fmt.Errorf("pattern set needs patterns, features and outputs: %d/%d/%d", count, features, len(handlers))
	}
	inputs := CreateInputPatterns(count, features, mode, localRand)
	targets := make([][]float64, count)
	for p := range targets {
		targets[p] = make([]float64, len(handlers))
	}

	ctx := &TargetContext{Rand: localRand, Claimed: make(map[int]bool)}
	for column, handler := range handlers {
		ctx.Column = column
		values, err := handler.CreateTargetColumn(inputs, ctx)
		if err != nil {
			return PatternSet{}, fmt.Errorf("output %d: %w", column, err)
		}
		for p := range targets {
			targets[p][column] = values[p]
		}
	}
	return PatternSet{Inputs: inputs, Targets: targets}, nil
}

// PatternHandlerFactory accepts a pattern name or its numeric code.
func PatternHandlerFactory(name string, ask AskFunc) (EDPatternHandler, error) {
	var handler EDPatternHandler
	switch parsed := strings.ToUpper(strings.TrimSpace(name)); parsed {
	case "0", "RANDOM":
		handler = RandomBinaryPatterns{}
	case "1", "PARITY":
		handler = ParityPatterns{}
	case "2", "MIRROR":
		handler = MirrorPatterns{}
	case "3", "MANUAL":
		if ask != nil {
			handler = ManualPatterns{Ask: ask}
		}
	case "4", "REAL_RANDOM":
		handler = RealRandomPatterns{}
	case "5", "ONE_HOT":
		handler = OneHotPatterns{}
	}
	if handler == nil {
		return nil, fmt.Errorf("pattern type is invalid: %s", name)
	}
	return handler, nil
}

// PatternTypeName normalizes a pattern name or code to its canonical name.
func PatternTypeName(name string) (string, error) {
	names := []string{"RANDOM", "PARITY", "MIRROR", "MANUAL", "REAL_RANDOM", "ONE_HOT"}
	parsed := strings.ToUpper(strings.TrimSpace(name))
	for code, canonical := range names {
		if parsed == canonical || parsed == fmt.Sprint(code) {
			return canonical, nil
		}
	}
	return "", fmt.Errorf("pattern type is invalid: %s", name)
}

func XORPatterns() PatternSet {
	return PatternSet{
		Inputs:  [][]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
		Targets: [][]float64{{0}, {1}, {1}, {0}},
	}
}
