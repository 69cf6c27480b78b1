package ed_controllers

import (
	"fmt"
	"io"
	"math"
	"strings"

	"ed_diffusion/ed_core"
)

type DisplayMode int

const (
	DisplayQuiet DisplayMode = iota
	DisplayVerbose
	DisplayCompact
	DisplayMinimal
)

func ParseDisplayMode(name string) (DisplayMode, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "0", "QUIET":
		return DisplayQuiet, nil
	case "1", "VERBOSE":
		return DisplayVerbose, nil
	case "2", "COMPACT":
		return DisplayCompact, nil
	case "3", "MINIMAL":
		return DisplayMinimal, nil
	}
	return DisplayQuiet, fmt.Errorf("display mode is invalid: %s", name)
}

// Monitor prints training progress from engine snapshots of the first
// sub-network. It never mutates the engine.
type Monitor struct {
	W    io.Writer
	Mode DisplayMode
}

func NewMonitor(w io.Writer, mode DisplayMode) *Monitor {
	return &Monitor{W: w, Mode: mode}
}

// digit maps an activation in [0,1] onto 0..9.
func digit(v float64) int {
	return int(math.Abs(v) * 9.999)
}

func (m *Monitor) WritePattern(engine *ed_core.Engine, target []float64) {
	if m.Mode == DisplayQuiet {
		return
	}
	topo := engine.Topology()
	net := engine.Snapshot().Networks[0]
	out := topo.OutputIndex()
	first, last := topo.TargetRange()

	var b strings.Builder
	switch m.Mode {
	case DisplayVerbose:
		b.WriteString("inputs: ")
		inFirst, inLast := topo.InputRange()
		for i := inFirst; i <= inLast; i += 2 {
			fmt.Fprintf(&b, "%4.2f ", net.NeuronInput[i])
		}
		fmt.Fprintf(&b, "-> %7.5f, %4.2f hidden: ", net.NeuronOutput[out], target[0])
		for i := out + 1; i <= out+4 && i <= last; i++ {
			fmt.Fprintf(&b, "%7.4f ", net.NeuronOutput[i])
		}
		b.WriteString("\n")
	case DisplayCompact:
		fmt.Fprintf(&b, "%1d: ", int(target[0]*9.999))
		for i := first; i <= last; i++ {
			fmt.Fprintf(&b, "%1d", digit(net.NeuronOutput[i]))
			if i == out {
				b.WriteString(" ")
			}
		}
		b.WriteString("\n")
	case DisplayMinimal:
		fmt.Fprintf(&b, "%1d:%1d ", int(target[0]*9.999), digit(net.NeuronOutput[out]))
	}
	io.WriteString(m.W, b.String())
}

func (m *Monitor) WriteEpoch(engine *ed_core.Engine, stats LearningStats) {
	if m.Mode == DisplayMinimal {
		fmt.Fprintln(m.W)
	}
	if m.Mode == DisplayQuiet {
		m.writeWeightMatrix(engine)
	}
	fmt.Fprintf(m.W, "Error patterns: %3d, Epoch: %d %s\n", stats.ErrorCount, stats.Epoch, statusLabel(stats.Status()))
}

func (m *Monitor) writeWeightMatrix(engine *ed_core.Engine) {
	topo := engine.Topology()
	weights := engine.Snapshot().Networks[0].Weights
	first, last := topo.TargetRange()

	fmt.Fprintln(m.W, "\n=== WEIGHT MATRIX ===")
	fmt.Fprintln(m.W, "columns: th+ th- in1+ in1- in2+ in2- ... hidden")
	for target := first; target <= last; target++ {
		fmt.Fprintf(m.W, "Neuron %2d: ", target)
		for _, w := range weights[target] {
			fmt.Fprintf(m.W, "%6.2f ", w)
		}
		fmt.Fprintln(m.W)
	}
}

func (m *Monitor) WriteSummary(stats LearningStats, status string, threshold float64) {
	switch status {
	case StatusConverged:
		fmt.Fprintln(m.W, "\n=== ED CONVERGENCE ACHIEVED ===")
		fmt.Fprintf(m.W, "Converged in %d epochs\n", stats.Epoch)
		fmt.Fprintf(m.W, "Final total error: %.6f (threshold: %g)\n", stats.TotalError, threshold)
		fmt.Fprintf(m.W, "Error patterns: %d/%d\n", stats.ErrorCount, stats.PatternCount)
		fmt.Fprintf(m.W, "Final accuracy: %.1f%%\n", stats.Accuracy)
		fmt.Fprintf(m.W, "Average error per pattern: %.6f\n", stats.AverageError())
	case StatusLimitReached:
		fmt.Fprintln(m.W, "\n=== TRAINING TERMINATED ===")
		fmt.Fprintf(m.W, "Maximum epochs (%d) reached\n", stats.Epoch)
		fmt.Fprintf(m.W, "Final error: %.4f\n", stats.TotalError)
		fmt.Fprintf(m.W, "Error patterns: %d/%d (%.1f%%)\n", stats.ErrorCount, stats.PatternCount, 100*stats.ErrorRate())
		if stats.ErrorRate() <= 0.1 {
			fmt.Fprintln(m.W, "Result: GOOD")
		} else {
			fmt.Fprintln(m.W, "Result: BAD, adjust the parameters and train again")
		}
	default:
		fmt.Fprintf(m.W, "\n=== TRAINING %s after %d epochs ===\n", status, stats.Epoch)
	}
}

func statusLabel(status string) string {
	switch status {
	case StatePerfect:
		return "✓ PERFECT!"
	case StateExcellent:
		return "✓ Excellent"
	case StateGood:
		return "→ Good"
	}
	return "→ Learning..."
}
