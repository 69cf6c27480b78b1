package main

import (
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"strconv"

	"ed_diffusion/ed_controllers"
	"ed_diffusion/ed_core"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type consoleRun struct {
	seed          int64
	inputFeatures int
	patternCount  int
	outputs       int
	inputMode     int
	patternTypes  []string
	hidden1       int
	hidden2       int
	displayMode   ed_controllers.DisplayMode
	updateMode    string
	maxEpochs     int
	config        ed_core.Config
}

func main() {
	_ = godotenv.Load()

	p := newPrompter(os.Stdin, os.Stdout, os.Getenv("ED_NONINTERACTIVE") == "1")
	if err := run(p, os.Stdout); err != nil {
		if errors.Is(err, errQuit) {
			fmt.Println("Bye.")
			return
		}
		log.Fatalf("ed_console: %v", err)
	}
}

func run(p *prompter, w io.Writer) error {
	fmt.Fprintln(w, "=== Error Diffusion Neural Network Learning ===")
	params, err := askParameters(p, w)
	if err != nil {
		return err
	}

	controller := ed_controllers.TrainController{Monitor: ed_controllers.NewMonitor(w, params.displayMode)}
	ask := func(pattern int, input []float64, output int) (float64, error) {
		return p.Float(fmt.Sprintf("Pattern %d %v, output %d: target value? ", pattern, input, output), 0, nil)
	}
	settings, err := controller.SettingsFactory(params.inputFeatures, params.outputs, params.hidden1, params.hidden2, params.patternCount, strconv.Itoa(params.inputMode), params.patternTypes, params.updateMode, params.config, ask)
	if err != nil {
		return errors.Wrap(err, "invalid settings")
	}

	fmt.Fprintf(w, "\nGenerating %d training patterns...\n", params.patternCount)
	instance, err := controller.CreateSessionInstance(settings, params.seed, rand.New(rand.NewSource(params.seed)))
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Starting Error Diffusion learning...")
	session := controller.TrainInstance(uuid.NewString(), instance, nil, params.maxEpochs, 0, 0, params.seed)
	if session.Status == ed_controllers.StatusFailed {
		return errors.New(session.Err)
	}

	outputs, miscount, err := controller.Evaluate(instance.Engine, instance.Patterns)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "\n=== FINAL PREDICTIONS ===")
	for i, out := range outputs {
		fmt.Fprintf(w, "%v -> %.4f (target %v)\n", instance.Patterns.Inputs[i], out, instance.Patterns.Targets[i])
	}
	fmt.Fprintf(w, "Wrong outputs: %d, live connections: %d\n", miscount, instance.Engine.ConnectionCount())
	return nil
}

// askParameters prompts in the order of the classic ED console.
func askParameters(p *prompter, w io.Writer) (consoleRun, error) {
	params := consoleRun{config: ed_core.DefaultConfig()}
	cfg := &params.config
	var err error

	seed, err := p.Int("Randomized seed? (default=1): ", 1, nil)
	if err != nil {
		return params, err
	}
	params.seed = int64(seed)
	if params.inputFeatures, err = p.Int("Input neurons? (default=4): ", 4, atLeast(1)); err != nil {
		return params, err
	}
	if params.patternCount, err = p.Int("Training patterns? (default=16): ", 16, atLeast(1)); err != nil {
		return params, err
	}
	if params.outputs, err = p.Int("Output neurons? (default=1): ", 1, atLeast(1)); err != nil {
		return params, err
	}

	fmt.Fprintln(w, "\n=== ED Training Pattern Generation ===")
	if params.inputMode, err = p.Int("Input generation mode (0=binary systematic, 1=random)? (default=0): ", 0, between(0, 1)); err != nil {
		return params, err
	}
	for o := 0; o < params.outputs; o++ {
		fmt.Fprintf(w, "\nOutput %d pattern type:\n", o)
		fmt.Fprintln(w, "  0 = Random targets")
		fmt.Fprintln(w, "  1 = Parity (XOR for 2 inputs)")
		fmt.Fprintln(w, "  2 = Mirror/symmetry detection")
		fmt.Fprintln(w, "  3 = Manual entry")
		fmt.Fprintln(w, "  4 = Real-valued random")
		fmt.Fprintln(w, "  5 = One-hot classification")
		choice, err := p.Int("Choice? (default=1 for parity): ", 1, between(0, 5))
		if err != nil {
			return params, err
		}
		params.patternTypes = append(params.patternTypes, strconv.Itoa(choice))
	}

	if params.hidden1, err = p.Int("Hidden neurons? (default=8): ", 8, atLeast(1)); err != nil {
		return params, err
	}
	if params.hidden2, err = p.Int("Second hidden layer? (default=0): ", 0, atLeast(0)); err != nil {
		return params, err
	}
	mode, err := p.Int("Output mode? (0=quiet, 1=verbose, 2=compact, 3=minimal): ", 0, between(0, 3))
	if err != nil {
		return params, err
	}
	params.displayMode = ed_controllers.DisplayMode(mode)

	fmt.Fprintln(w, "\n=== Error Diffusion Parameter Configuration ===")
	if cfg.Timesteps, err = p.Int("Timesteps (recurrent iterations)? (default=2): ", 2, atLeast(1)); err != nil {
		return params, err
	}
	if cfg.WeightRange, err = p.Float("Initial weight range? (default=1.0): ", 1.0, nonNegative); err != nil {
		return params, err
	}
	if cfg.ThresholdRange, err = p.Float("Initial threshold range? (default=1.0): ", 1.0, nonNegative); err != nil {
		return params, err
	}
	if cfg.MultiLayer, err = p.Flag("Multi-layer flag (force hierarchical processing)? (default=1): ", true); err != nil {
		return params, err
	}
	decrement, err := p.Flag("Weight decrement mode (bidirectional updates)? (default=0): ", false)
	if err != nil {
		return params, err
	}
	cfg.UpdateMode = ed_core.UpdateModeFromDecrement(decrement)
	params.updateMode = cfg.UpdateMode.String()
	if cfg.LoopCutting, err = p.Flag("Loop cutting (prevent recurrent connections)? (default=1): ", true); err != nil {
		return params, err
	}
	if cfg.SelfLoopCutting, err = p.Flag("Self-loop cutting (prevent self-connections)? (default=1): ", true); err != nil {
		return params, err
	}
	if cfg.InhibitoryInputs, err = p.Flag("Inhibitory input connections? (default=1): ", true); err != nil {
		return params, err
	}
	if cfg.SigmoidSteepness, err = p.Float("Sigmoid steepness? (default=0.4): ", 0.4, positive); err != nil {
		return params, err
	}
	if cfg.ErrorAmplification, err = p.Float("Error amplification for hidden layers? (default=1.0): ", 1.0, nil); err != nil {
		return params, err
	}
	if cfg.LearningRate, err = p.Float("Learning rate? (default=0.8): ", 0.8, nil); err != nil {
		return params, err
	}
	if cfg.Bias, err = p.Float("Bias input value? (default=0.8): ", 0.8, nil); err != nil {
		return params, err
	}
	if cfg.ConvergenceThreshold, err = p.Float("Convergence threshold? (default=0.1): ", 0.1, nonNegative); err != nil {
		return params, err
	}
	if params.maxEpochs, err = p.Int(fmt.Sprintf("Maximum epochs? (default=%d): ", ed_controllers.DefaultMaxEpochs), ed_controllers.DefaultMaxEpochs, atLeast(1)); err != nil {
		return params, err
	}
	cfg.Seed = params.seed

	return params, nil
}
