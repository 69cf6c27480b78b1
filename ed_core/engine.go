package ed_core

import (
	"math/rand"

	"ed_diffusion/ed_learnRules"

	"github.com/pkg/errors"
	"github.com/sourcegraph/conc"
	"gonum.org/v1/gonum/mat"
)

// missThreshold is the |error| above which a pattern counts as wrong.
const missThreshold = 0.5

// Engine owns one sub-network per output unit. It is not safe for concurrent
// use; TrainStep parallelizes internally across sub-networks.
type Engine struct {
	topo      Topology
	cfg       Config
	learnRule ed_learnRules.EDLearnRuleHandler
	networks  []*subNetwork

	errorTotal float64
	errorCount int
}

// SubNetworkState is a deep copy of one sub-network, indexed [target][source]
// for weights.
type SubNetworkState struct {
	Weights      [][]float64 `json:"weights"`
	Polarity     []float64   `json:"polarity"`
	NeuronInput  []float64   `json:"neuron_input"`
	NeuronOutput []float64   `json:"neuron_output"`
	Excitatory   []float64   `json:"excitatory"`
	Inhibitory   []float64   `json:"inhibitory"`
}

type EngineState struct {
	Topology   Topology          `json:"topology"`
	Networks   []SubNetworkState `json:"networks"`
	ErrorTotal float64           `json:"error_total"`
	ErrorCount int               `json:"error_count"`
}

// Weights returns every sub-network's weight matrix, indexed [sub][target][source].
func (s EngineState) Weights() [][][]float64 {
	weights := make([][][]float64, len(s.Networks))
	for i, net := range s.Networks {
		weights[i] = net.Weights
	}
	return weights
}

// Initialize builds the polarity vectors and weight matrices. Sub-networks are
// built in order from a single source seeded with cfg.Seed, so equal seeds give
// identical weights.
func Initialize(topo Topology, cfg Config) (*Engine, error) {
	if topo.NeuronCount() <= 2 {
		return nil, errors.WithStack(ConfigError{Field: "topology", Reason: "is empty, use NewTopology"})
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "initialize")
	}
	learnRule, err := cfg.UpdateMode.learnRule()
	if err != nil {
		return nil, errors.Wrap(err, "initialize")
	}

	localRand := rand.New(rand.NewSource(cfg.Seed))
	networks := make([]*subNetwork, topo.SizeOutput())
	for i := range networks {
		networks[i] = newSubNetwork(topo, cfg, localRand)
	}
	return &Engine{
		topo:      topo,
		cfg:       cfg,
		learnRule: learnRule,
		networks:  networks,
	}, nil
}

func (e *Engine) Topology() Topology { return e.topo }
func (e *Engine) Config() Config     { return e.cfg }

func (e *Engine) checkInput(input []float64) error {
	if len(input) != e.topo.InputFeatures() {
		return ShapeMismatchError{What: "input pattern", Want: e.topo.InputFeatures(), Got: len(input)}
	}
	return nil
}

// TrainStep runs forward, diffuse and update for every sub-network. A
// malformed pattern returns a ShapeMismatchError and changes nothing.
func (e *Engine) TrainStep(input []float64, target []float64) error {
	if err := e.checkInput(input); err != nil {
		return errors.WithStack(err)
	}
	if len(target) != e.topo.SizeOutput() {
		return errors.WithStack(ShapeMismatchError{What: "target pattern", Want: e.topo.SizeOutput(), Got: len(target)})
	}

	absErrors := make([]float64, len(e.networks))
	var wg conc.WaitGroup
	for i, net := range e.networks {
		wg.Go(func() {
			net.forward(e.topo, e.cfg, input)
			absErrors[i] = net.diffuse(e.topo, e.cfg, target[i])
			e.learnRule.EDLearnLayer(net.learnLayer(e.topo), e.cfg.LearningRate)
		})
	}
	wg.Wait()

	for _, absError := range absErrors {
		e.errorTotal += absError
		if absError > missThreshold {
			e.errorCount++
		}
	}
	return nil
}

// Predict runs the forward pass on a copy of the activation state and returns
// each sub-network's output. Weights, activations and counters are untouched.
func (e *Engine) Predict(input []float64) ([]float64, error) {
	if err := e.checkInput(input); err != nil {
		return nil, errors.WithStack(err)
	}
	outputs := make([]float64, len(e.networks))
	for i, net := range e.networks {
		scratch := net.activationCopy()
		scratch.forward(e.topo, e.cfg, input)
		outputs[i] = scratch.neuronOutput[e.topo.OutputIndex()]
	}
	return outputs, nil
}

// Outputs returns the output neuron of every sub-network after the last
// forward pass.
func (e *Engine) Outputs() []float64 {
	outputs := make([]float64, len(e.networks))
	for i, net := range e.networks {
		outputs[i] = net.neuronOutput[e.topo.OutputIndex()]
	}
	return outputs
}

func (e *Engine) ErrorTotal() float64 { return e.errorTotal }
func (e *Engine) ErrorCount() int     { return e.errorCount }

// ResetEpochCounters is left to the trainer; the engine never calls it.
func (e *Engine) ResetEpochCounters() {
	e.errorTotal = 0
	e.errorCount = 0
}

func (e *Engine) Snapshot() EngineState {
	networks := make([]SubNetworkState, len(e.networks))
	for i, net := range e.networks {
		networks[i] = net.state()
	}
	return EngineState{
		Topology:   e.topo,
		Networks:   networks,
		ErrorTotal: e.errorTotal,
		ErrorCount: e.errorCount,
	}
}

// WeightsOf returns a copy of one sub-network's weight matrix.
func (e *Engine) WeightsOf(sub int) *mat.Dense {
	return mat.DenseCopyOf(e.networks[sub].weights)
}

func (e *Engine) ConnectionCount() int {
	return ConnectionCount(e.Snapshot().Weights())
}
