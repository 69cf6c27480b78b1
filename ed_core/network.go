package ed_core

import (
	"math"
	"math/rand"

	"ed_diffusion/ed_learnRules"

	"gonum.org/v1/gonum/mat"
)

// subNetwork owns everything one output unit needs. Nothing is shared between
// sub-networks except the read-only input pattern.
type subNetwork struct {
	weights      *mat.Dense
	polarity     []float64
	neuronInput  []float64
	neuronOutput []float64
	excitatory   []float64
	inhibitory   []float64
}

func newSubNetwork(topo Topology, cfg Config, localRand *rand.Rand) *subNetwork {
	n := topo.NeuronCount()
	net := &subNetwork{
		polarity:     topo.Polarity(),
		neuronInput:  make([]float64, n),
		neuronOutput: make([]float64, n),
		excitatory:   make([]float64, n),
		inhibitory:   make([]float64, n),
	}
	net.weights = buildWeights(topo, cfg, net.polarity, localRand)
	pos, neg := topo.BiasIndices()
	net.neuronInput[pos] = cfg.Bias
	net.neuronInput[neg] = cfg.Bias
	return net
}

func buildWeights(topo Topology, cfg Config, polarity []float64, localRand *rand.Rand) *mat.Dense {
	n := topo.NeuronCount()
	weights := mat.NewDense(n, n, nil)
	first, last := topo.TargetRange()
	for target := first; target <= last; target++ {
		for source := 0; source < n; source++ {
			w := initialWeight(topo, cfg, target, source, localRand)
			weights.Set(target, source, w*polarity[source]*polarity[target])
		}
	}
	return weights
}

// initialWeight applies the connection rules in a fixed order; later rules
// see the result of earlier ones. The returned magnitude is non-negative and
// gets its sign from the polarity product.
func initialWeight(topo Topology, cfg Config, target, source int, localRand *rand.Rand) float64 {
	output := topo.OutputIndex()
	hiddenFirst, _ := topo.HiddenRange()

	var w float64
	if source < 2 {
		w = cfg.ThresholdRange * localRand.Float64()
	} else {
		w = cfg.WeightRange * localRand.Float64()
	}
	// the second hidden layer never reads inputs
	if topo.IsSecondLayer(target) && topo.IsInput(source) {
		w = 0
	}
	if cfg.LoopCutting && target != source && target > output && source >= output {
		w = 0
	}
	if cfg.LoopCutting && target >= output && source == output {
		w = 0
	}
	if cfg.MultiLayer && topo.IsInput(source) && target == output {
		w = 0
	}
	if topo.IsSecondLayer(target) && source >= hiddenFirst {
		w = cfg.WeightRange * localRand.Float64()
	}
	if target == source {
		if cfg.SelfLoopCutting {
			w = 0
		} else {
			w = cfg.WeightRange * localRand.Float64()
		}
	}
	if !cfg.InhibitoryInputs && topo.IsInput(source) && source%2 == 1 {
		w = 0
	}
	return w
}

// forward runs the recurrent activation pass. Bias and input slots stay fixed
// across timesteps; target slots are fed back from the previous timestep.
func (net *subNetwork) forward(topo Topology, cfg Config, input []float64) {
	for k, v := range input {
		net.neuronInput[2*k+2] = v
		net.neuronInput[2*k+3] = v
	}
	first, last := topo.TargetRange()
	if cfg.LoopCutting {
		for i := first; i <= last; i++ {
			net.neuronInput[i] = 0
		}
	}

	in := mat.NewVecDense(len(net.neuronInput), net.neuronInput)
	sums := mat.NewVecDense(len(net.neuronInput), nil)
	for step := 0; step < cfg.Timesteps; step++ {
		sums.MulVec(net.weights, in)
		for target := first; target <= last; target++ {
			net.neuronOutput[target] = Sigmoid(sums.AtVec(target), cfg.SigmoidSteepness)
		}
		copy(net.neuronInput[first:last+1], net.neuronOutput[first:last+1])
	}
}

// diffuse stores the split error at the output neuron and broadcasts it,
// amplified, to every other hidden neuron. It returns |error|.
func (net *subNetwork) diffuse(topo Topology, cfg Config, target float64) float64 {
	output := topo.OutputIndex()
	predictionError := target - net.neuronOutput[output]
	excitatory, inhibitory := SplitError(predictionError)
	net.excitatory[output] = excitatory
	net.inhibitory[output] = inhibitory

	first, last := topo.HiddenRange()
	for i := first; i <= last; i++ {
		net.excitatory[i] = excitatory * cfg.ErrorAmplification
		net.inhibitory[i] = inhibitory * cfg.ErrorAmplification
	}
	return math.Abs(predictionError)
}

func (net *subNetwork) learnLayer(topo Topology) ed_learnRules.LearnLayer {
	first, last := topo.TargetRange()
	return ed_learnRules.LearnLayer{
		Weights:      net.weights,
		Polarity:     net.polarity,
		NeuronInput:  net.neuronInput,
		NeuronOutput: net.neuronOutput,
		Excitatory:   net.excitatory,
		Inhibitory:   net.inhibitory,
		First:        first,
		Last:         last,
	}
}

// activationCopy shares the weights but not the activation slices.
func (net *subNetwork) activationCopy() *subNetwork {
	return &subNetwork{
		weights:      net.weights,
		polarity:     net.polarity,
		neuronInput:  append([]float64(nil), net.neuronInput...),
		neuronOutput: append([]float64(nil), net.neuronOutput...),
		excitatory:   net.excitatory,
		inhibitory:   net.inhibitory,
	}
}

func (net *subNetwork) state() SubNetworkState {
	rows, cols := net.weights.Dims()
	weights := make([][]float64, rows)
	for target := 0; target < rows; target++ {
		weights[target] = make([]float64, cols)
		mat.Row(weights[target], target, net.weights)
	}
	return SubNetworkState{
		Weights:      weights,
		Polarity:     append([]float64(nil), net.polarity...),
		NeuronInput:  append([]float64(nil), net.neuronInput...),
		NeuronOutput: append([]float64(nil), net.neuronOutput...),
		Excitatory:   append([]float64(nil), net.excitatory...),
		Inhibitory:   append([]float64(nil), net.inhibitory...),
	}
}
