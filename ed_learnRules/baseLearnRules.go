package ed_learnRules

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

type EDLearnRuleHandler interface {
	EDLearnLayer(layer LearnLayer, learningRate float64)
}

// LearnLayer is the state of one sub-network right after error diffusion.
// Rows of Weights are targets, columns are sources. First and Last bound the
// target rows that learn.
type LearnLayer struct {
	Weights      *mat.Dense
	Polarity     []float64
	NeuronInput  []float64
	NeuronOutput []float64
	Excitatory   []float64
	Inhibitory   []float64
	First        int
	Last         int
}

type SelectiveLearnRule struct{}
type BidirectionalLearnRule struct{}

func (learnRule SelectiveLearnRule) EDLearnLayer(layer LearnLayer, learningRate float64) {
	applyLayerDeltas(layer, learningRate, func(target, source int) float64 {
		signal := layer.Inhibitory[target]
		if layer.Polarity[source] > 0 {
			signal = layer.Excitatory[target]
		}
		return signal * layer.Polarity[source] * layer.Polarity[target]
	})
}

func (learnRule BidirectionalLearnRule) EDLearnLayer(layer LearnLayer, learningRate float64) {
	applyLayerDeltas(layer, learningRate, func(target, source int) float64 {
		return layer.Polarity[target] * (layer.Excitatory[target] - layer.Inhibitory[target])
	})
}

// DeltaBase is the shared magnitude of an ED weight change, taken over the
// absolute value of the target activation.
func DeltaBase(learningRate float64, input float64, output float64) float64 {
	o := math.Abs(output)
	return learningRate * input * o * (1 - o)
}

// applyLayerDeltas computes every delta from the snapshot in layer and applies
// them with a single Add. Zero weights stay zero.
func applyLayerDeltas(layer LearnLayer, learningRate float64, signal func(target, source int) float64) {
	rows, cols := layer.Weights.Dims()
	deltas := mat.NewDense(rows, cols, nil)
	for target := layer.First; target <= layer.Last; target++ {
		for source := 0; source < cols; source++ {
			if layer.Weights.At(target, source) == 0 {
				continue
			}
			base := DeltaBase(learningRate, layer.NeuronInput[source], layer.NeuronOutput[target])
			deltas.Set(target, source, base*signal(target, source))
		}
	}
	layer.Weights.Add(layer.Weights, deltas)
}
