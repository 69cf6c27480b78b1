package ed_core

import "encoding/json"

// Topology fixes the neuron index space shared by every sub-network:
//
//	0, 1                       positive and negative bias
//	2 .. sizeInput+1           input pairs, even index excitatory, odd inhibitory
//	sizeInput+2                output neuron, also the first hidden neuron
//	sizeInput+3 .. total+1     remaining hidden neurons, the last sizeHidden2 of
//	                           them forming the second hidden layer
type Topology struct {
	sizeInput    int
	sizeOutput   int
	sizeHidden   int
	sizeHidden2  int
	totalNeurons int
}

// NewTopology takes the already doubled input size.
func NewTopology(inputSize, outputCount, hidden1, hidden2 int) (Topology, error) {
	switch {
	case inputSize < 2:
		return Topology{}, ConfigError{Field: "input size", Reason: "must be at least 2"}
	case inputSize%2 != 0:
		return Topology{}, ConfigError{Field: "input size", Reason: "must be even"}
	case outputCount < 1:
		return Topology{}, ConfigError{Field: "output count", Reason: "must be at least 1"}
	case hidden1 < 1:
		return Topology{}, ConfigError{Field: "hidden1", Reason: "must be at least 1, the output neuron is the first hidden neuron"}
	case hidden2 < 0:
		return Topology{}, ConfigError{Field: "hidden2", Reason: "must not be negative"}
	}
	sizeHidden := hidden1 + hidden2
	return Topology{
		sizeInput:    inputSize,
		sizeOutput:   outputCount,
		sizeHidden:   sizeHidden,
		sizeHidden2:  hidden2,
		totalNeurons: inputSize + 1 + sizeHidden,
	}, nil
}

func (t Topology) SizeInput() int     { return t.sizeInput }
func (t Topology) SizeOutput() int    { return t.sizeOutput }
func (t Topology) SizeHidden() int    { return t.sizeHidden }
func (t Topology) SizeHidden2() int   { return t.sizeHidden2 }
func (t Topology) TotalNeurons() int  { return t.totalNeurons }
func (t Topology) InputFeatures() int { return t.sizeInput / 2 }

// NeuronCount is the length of every per-neuron slice.
func (t Topology) NeuronCount() int { return t.totalNeurons + 2 }

func (t Topology) BiasIndices() (int, int) { return 0, 1 }

func (t Topology) InputRange() (int, int) { return 2, t.sizeInput + 1 }

func (t Topology) OutputIndex() int { return t.sizeInput + 2 }

// HiddenRange covers the hidden neurons after the output neuron. It is empty
// (first > last) when the output is the only hidden neuron.
func (t Topology) HiddenRange() (int, int) { return t.sizeInput + 3, t.totalNeurons + 1 }

// TargetRange covers every neuron that computes an activation.
func (t Topology) TargetRange() (int, int) { return t.sizeInput + 2, t.totalNeurons + 1 }

func (t Topology) SecondLayerRange() (int, int, bool) {
	return t.totalNeurons + 2 - t.sizeHidden2, t.totalNeurons + 1, t.sizeHidden2 > 0
}

func (t Topology) IsInput(i int) bool {
	first, last := t.InputRange()
	return i >= first && i <= last
}

func (t Topology) IsSecondLayer(i int) bool {
	return i > t.totalNeurons+1-t.sizeHidden2
}

// Polarity alternates +1/-1 by index parity; the output neuron is always +1.
func (t Topology) Polarity() []float64 {
	polarity := make([]float64, t.NeuronCount())
	for i := range polarity {
		polarity[i] = float64(((i+1)%2)*2 - 1)
	}
	polarity[t.OutputIndex()] = 1
	return polarity
}

func (t Topology) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		SizeInput    int `json:"size_input"`
		SizeOutput   int `json:"size_output"`
		SizeHidden   int `json:"size_hidden"`
		SizeHidden2  int `json:"size_hidden2"`
		TotalNeurons int `json:"total_neurons"`
	}{t.sizeInput, t.sizeOutput, t.sizeHidden, t.sizeHidden2, t.totalNeurons})
}
