package ed_learnRules

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// newTestLayer has two excitatory and one inhibitory source feeding targets 1 and 2.
func newTestLayer() LearnLayer {
	weights := mat.NewDense(3, 3, []float64{
		0, 0, 0,
		0.5, 0, -0.25,
		0.1, 0.2, 0,
	})
	return LearnLayer{
		Weights:      weights,
		Polarity:     []float64{1, 1, -1},
		NeuronInput:  []float64{0.8, 0.6, 0.4},
		NeuronOutput: []float64{0, 0.3, 0.7},
		Excitatory:   []float64{0, 0.5, 0.5},
		Inhibitory:   []float64{0, 0, 0},
		First:        1,
		Last:         2,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

func TestDeltaBaseUsesActivationMagnitude(t *testing.T) {
	if got, want := DeltaBase(0.8, 1, -0.3), DeltaBase(0.8, 1, 0.3); got != want {
		t.Fatalf("DeltaBase(-0.3) = %v, want %v", got, want)
	}
	if got := DeltaBase(0.8, 0.5, 0.5); !almostEqual(got, 0.8*0.5*0.25) {
		t.Fatalf("DeltaBase = %v", got)
	}
}

func TestSelectiveLearnRule(t *testing.T) {
	layer := newTestLayer()
	SelectiveLearnRule{}.EDLearnLayer(layer, 0.8)

	// w[1][0]: excitatory source, excitatory channel, polarity product +1
	want10 := 0.5 + DeltaBase(0.8, 0.8, 0.3)*0.5
	if got := layer.Weights.At(1, 0); !almostEqual(got, want10) {
		t.Errorf("w[1][0] = %v, want %v", got, want10)
	}
	// w[1][2]: inhibitory source reads the inhibitory channel, which is zero
	if got := layer.Weights.At(1, 2); got != -0.25 {
		t.Errorf("w[1][2] = %v, want -0.25", got)
	}
	// target 2 is inhibitory, so the polarity product is negative
	want21 := 0.2 - DeltaBase(0.8, 0.6, 0.7)*0.5
	if got := layer.Weights.At(2, 1); !almostEqual(got, want21) {
		t.Errorf("w[2][1] = %v, want %v", got, want21)
	}
}

func TestBidirectionalLearnRule(t *testing.T) {
	layer := newTestLayer()
	layer.Inhibitory[2] = 0.2
	BidirectionalLearnRule{}.EDLearnLayer(layer, 0.5)

	want12 := -0.25 + DeltaBase(0.5, 0.4, 0.3)*0.5
	if got := layer.Weights.At(1, 2); !almostEqual(got, want12) {
		t.Errorf("w[1][2] = %v, want %v", got, want12)
	}
	want20 := 0.1 - DeltaBase(0.5, 0.8, 0.7)*(0.5-0.2)
	if got := layer.Weights.At(2, 0); !almostEqual(got, want20) {
		t.Errorf("w[2][0] = %v, want %v", got, want20)
	}
}

func TestZeroWeightsStayDisconnected(t *testing.T) {
	rules := map[string]EDLearnRuleHandler{
		"selective":     SelectiveLearnRule{},
		"bidirectional": BidirectionalLearnRule{},
	}
	for name, rule := range rules {
		layer := newTestLayer()
		rule.EDLearnLayer(layer, 1)
		for _, idx := range [][2]int{{0, 0}, {0, 1}, {1, 1}, {2, 2}} {
			if got := layer.Weights.At(idx[0], idx[1]); got != 0 {
				t.Errorf("%s: w%v = %v, want 0", name, idx, got)
			}
		}
	}
}

func TestLearnLayerOutsideTargetRangeUntouched(t *testing.T) {
	layer := newTestLayer()
	layer.Weights.Set(0, 0, 0.9)
	SelectiveLearnRule{}.EDLearnLayer(layer, 1)
	if got := layer.Weights.At(0, 0); got != 0.9 {
		t.Fatalf("row outside the target range changed: %v", got)
	}
}
