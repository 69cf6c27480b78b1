package ed_controllers

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"ed_diffusion/ed_core"
)

func paritySettings(t *testing.T, cfg ed_core.Config) EDSettings {
	t.Helper()
	settings, err := TrainController{}.SettingsFactory(2, 1, 8, 0, 4, "BINARY", []string{"PARITY"}, "SELECTIVE", cfg, nil)
	if err != nil {
		t.Fatalf("SettingsFactory: %v", err)
	}
	return settings
}

func neverConverges() ed_core.Config {
	cfg := ed_core.DefaultConfig()
	cfg.ConvergenceThreshold = 0
	return cfg
}

func TestSettingsFactoryRejectsBadConfigs(t *testing.T) {
	cases := map[string]func() error{
		"no hidden": func() error {
			_, err := TrainController{}.SettingsFactory(2, 1, 0, 0, 4, "BINARY", []string{"PARITY"}, "SELECTIVE", ed_core.DefaultConfig(), nil)
			return err
		},
		"no patterns": func() error {
			_, err := TrainController{}.SettingsFactory(2, 1, 8, 0, 0, "BINARY", []string{"PARITY"}, "SELECTIVE", ed_core.DefaultConfig(), nil)
			return err
		},
		"unknown pattern type": func() error {
			_, err := TrainController{}.SettingsFactory(2, 1, 8, 0, 4, "BINARY", []string{"SPIRAL"}, "SELECTIVE", ed_core.DefaultConfig(), nil)
			return err
		},
		"type count": func() error {
			_, err := TrainController{}.SettingsFactory(2, 3, 8, 0, 4, "BINARY", []string{"PARITY", "MIRROR"}, "SELECTIVE", ed_core.DefaultConfig(), nil)
			return err
		},
		"update mode": func() error {
			_, err := TrainController{}.SettingsFactory(2, 1, 8, 0, 4, "BINARY", []string{"PARITY"}, "SIDEWAYS", ed_core.DefaultConfig(), nil)
			return err
		},
		"manual without source": func() error {
			_, err := TrainController{}.SettingsFactory(2, 1, 8, 0, 4, "BINARY", []string{"MANUAL"}, "SELECTIVE", ed_core.DefaultConfig(), nil)
			return err
		},
	}
	for name, run := range cases {
		if run() == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestSettingsFactoryRepeatsSinglePatternType(t *testing.T) {
	settings, err := TrainController{}.SettingsFactory(3, 3, 6, 2, 8, "1", []string{"1"}, "decrement", ed_core.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("SettingsFactory: %v", err)
	}
	if len(settings.PatternTypes) != 3 {
		t.Fatalf("pattern types = %v, want 3 entries", settings.PatternTypes)
	}
	for _, name := range settings.PatternTypes {
		if name != "PARITY" {
			t.Errorf("pattern type %q, want PARITY", name)
		}
	}
	if settings.UpdateMode != "BIDIRECTIONAL" || settings.Config.UpdateMode != ed_core.Bidirectional {
		t.Errorf("update mode = %s/%v", settings.UpdateMode, settings.Config.UpdateMode)
	}
	if settings.Topology().SizeInput() != 6 || settings.Topology().SizeHidden2() != 2 {
		t.Errorf("topology = %+v", settings.Topology())
	}
	n := settings.Topology().NeuronCount()
	if got := (TrainController{}).GetDataSizeFromConfig(settings); got != 3*n*n {
		t.Errorf("data size = %d, want %d", got, 3*n*n)
	}
}

func TestTrainSessionConvergesOnParity(t *testing.T) {
	settings := paritySettings(t, ed_core.DefaultConfig())
	for _, seed := range []int64{1, 7, 2024} {
		session := TrainController{}.StartTrainSession(settings, nil, 3000, 10, 100, seed, rand.New(rand.NewSource(seed)))
		if session.Status != StatusConverged {
			t.Errorf("seed %d: status %s after %d epochs, error %v", seed, session.Status, session.Epochs, session.FinalError)
			continue
		}
		if session.FinalError >= settings.Config.ConvergenceThreshold {
			t.Errorf("seed %d: final error %v not below threshold", seed, session.FinalError)
		}
		if len(session.Stats.ErrorHistory) != session.Epochs {
			t.Errorf("seed %d: %d history entries for %d epochs", seed, len(session.Stats.ErrorHistory), session.Epochs)
		}
		if session.RunId == "" {
			t.Errorf("seed %d: missing run id", seed)
		}
	}
}

func TestEvaluateAfterConvergence(t *testing.T) {
	settings := paritySettings(t, ed_core.DefaultConfig())
	controller := TrainController{}
	instance, err := controller.CreateSessionInstance(settings, 7, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("CreateSessionInstance: %v", err)
	}
	session := controller.TrainInstance("run", instance, nil, 3000, 0, 0, 7)
	if session.Status != StatusConverged {
		t.Fatalf("status %s", session.Status)
	}
	outputs, miscount, err := controller.Evaluate(instance.Engine, instance.Patterns)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if miscount != 0 {
		t.Errorf("miscount = %d, outputs %v", miscount, outputs)
	}
	if len(outputs) != instance.Patterns.Len() {
		t.Errorf("%d outputs for %d patterns", len(outputs), instance.Patterns.Len())
	}
}

func TestTrainSessionReachesLimit(t *testing.T) {
	settings := paritySettings(t, neverConverges())
	session := TrainController{}.StartTrainSession(settings, nil, 5, 10, 100, 3, rand.New(rand.NewSource(3)))
	if session.Status != StatusLimitReached {
		t.Fatalf("status = %s, want %s", session.Status, StatusLimitReached)
	}
	if session.Epochs != 5 {
		t.Errorf("epochs = %d, want 5", session.Epochs)
	}
	if ed_core.CompareWeights(session.InitialState.Weights(), session.FinalState.Weights()) {
		t.Error("weights did not change during training")
	}
}

func TestTrainSessionMessages(t *testing.T) {
	settings := paritySettings(t, neverConverges())
	stateChannel := make(chan SessionStateMessage, 100)
	session := TrainController{}.StartTrainSession(settings, stateChannel, 25, 3, 10, 5, rand.New(rand.NewSource(5)))
	close(stateChannel)

	var epochs []int
	var last SessionStateMessage
	for message := range stateChannel {
		last = message
		if message.CommandType == CommandEpoch {
			state := message.SessionState.(EpochState)
			if state.RunId != session.RunId {
				t.Errorf("run id %s, want %s", state.RunId, session.RunId)
			}
			epochs = append(epochs, state.Epoch)
		}
	}
	want := []int{1, 2, 3, 10, 20}
	if len(epochs) != len(want) {
		t.Fatalf("epoch messages %v, want %v", epochs, want)
	}
	for i := range want {
		if epochs[i] != want[i] {
			t.Errorf("epoch messages %v, want %v", epochs, want)
			break
		}
	}
	if last.CommandType != CommandFinished {
		t.Fatalf("last command = %s, want %s", last.CommandType, CommandFinished)
	}
	if final := last.SessionState.(EpochState); final.Status != StatusLimitReached || final.Epoch != 25 {
		t.Errorf("final state = %+v", final)
	}
}

func TestMonitorModes(t *testing.T) {
	markers := map[DisplayMode]string{
		DisplayQuiet:   "=== WEIGHT MATRIX ===",
		DisplayVerbose: "inputs: ",
		DisplayCompact: "Error patterns:",
		DisplayMinimal: "Error patterns:",
	}
	for mode, marker := range markers {
		var out bytes.Buffer
		controller := TrainController{Monitor: NewMonitor(&out, mode)}
		settings := paritySettings(t, neverConverges())
		controller.StartTrainSession(settings, nil, 2, 0, 0, 1, rand.New(rand.NewSource(1)))
		text := out.String()
		if !strings.Contains(text, marker) {
			t.Errorf("mode %d: output lacks %q:\n%s", mode, marker, text)
		}
		if !strings.Contains(text, "=== TRAINING TERMINATED ===") {
			t.Errorf("mode %d: missing summary", mode)
		}
		if strings.Count(text, "Epoch: ") != 2 {
			t.Errorf("mode %d: want one line per epoch:\n%s", mode, text)
		}
	}
}

func TestParseDisplayMode(t *testing.T) {
	for name, want := range map[string]DisplayMode{"": DisplayQuiet, "1": DisplayVerbose, "compact": DisplayCompact, "MINIMAL": DisplayMinimal} {
		got, err := ParseDisplayMode(name)
		if err != nil || got != want {
			t.Errorf("ParseDisplayMode(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseDisplayMode("loud"); err == nil {
		t.Error("expected an error")
	}
}
