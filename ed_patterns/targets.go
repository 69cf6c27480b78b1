package ed_patterns

import "fmt"

// AskFunc supplies a manual target for one pattern and output.
type AskFunc func(pattern int, input []float64, output int) (float64, error)

type RandomBinaryPatterns struct{}
type ParityPatterns struct{}
type MirrorPatterns struct{}
type ManualPatterns struct {
	Ask AskFunc
}
type RealRandomPatterns struct{}
type OneHotPatterns struct{}

func (RandomBinaryPatterns) CreateTargetColumn(inputs [][]float64, ctx *TargetContext) ([]float64, error) {
	column := make([]float64, len(inputs))
	for p := range column {
		if ctx.Rand.Float64() > 0.5 {
			column[p] = 1
		}
	}
	return column, nil
}

// Odd number of active (> 0.5) inputs gives 1.
func (ParityPatterns) CreateTargetColumn(inputs [][]float64, ctx *TargetContext) ([]float64, error) {
	column := make([]float64, len(inputs))
	for p, input := range inputs {
		active := 0
		for _, v := range input {
			if v > 0.5 {
				active++
			}
		}
		column[p] = float64(active % 2)
	}
	return column, nil
}

// A pattern whose first half mirrors its second half gives 1.
func (MirrorPatterns) CreateTargetColumn(inputs [][]float64, ctx *TargetContext) ([]float64, error) {
	column := make([]float64, len(inputs))
	for p, input := range inputs {
		n := len(input)
		symmetric := true
		for s := 0; s < n/2; s++ {
			if input[s] != input[n-1-s] {
				symmetric = false
				break
			}
		}
		if symmetric {
			column[p] = 1
		}
	}
	return column, nil
}

func (m ManualPatterns) CreateTargetColumn(inputs [][]float64, ctx *TargetContext) ([]float64, error) {
	if m.Ask == nil {
		return nil, fmt.Errorf("manual patterns need an input source")
	}
	column := make([]float64, len(inputs))
	for p, input := range inputs {
		value, err := m.Ask(p, input, ctx.Column)
		if err != nil {
			return nil, err
		}
		column[p] = value
	}
	return column, nil
}

func (RealRandomPatterns) CreateTargetColumn(inputs [][]float64, ctx *TargetContext) ([]float64, error) {
	column := make([]float64, len(inputs))
	for p := range column {
		column[p] = ctx.Rand.Float64()
	}
	return column, nil
}

// Exactly one pattern per column is 1. Columns of the same set pick distinct
// patterns.
func (OneHotPatterns) CreateTargetColumn(inputs [][]float64, ctx *TargetContext) ([]float64, error) {
	if len(ctx.Claimed) >= len(inputs) {
		return nil, fmt.Errorf("one-hot needs an unused pattern, all %d are taken", len(inputs))
	}
	column := make([]float64, len(inputs))
	chosen := ctx.Rand.Intn(len(inputs))
	for ctx.Claimed[chosen] {
		chosen = ctx.Rand.Intn(len(inputs))
	}
	ctx.Claimed[chosen] = true
	column[chosen] = 1
	return column, nil
}
