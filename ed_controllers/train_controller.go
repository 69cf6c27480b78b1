package ed_controllers

import (
	"fmt"
	"math/rand"

	"ed_diffusion/ed_core"
	"ed_diffusion/ed_patterns"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// TrainController runs the epoch loop around an engine. Monitor is optional.
type TrainController struct {
	Monitor *Monitor
}

// SettingsFactory validates a configuration and resolves its pattern handlers
// and update mode. A single pattern type is used for every output.
func (TrainController) SettingsFactory(inputFeatures int, outputs int, hidden1 int, hidden2 int, patternCount int, inputMode string, patternTypes []string, updateMode string, cfg ed_core.Config, ask ed_patterns.AskFunc) (EDSettings, error) {

	topo, err := ed_core.NewTopology(inputFeatures*2, outputs, hidden1, hidden2)
	if err != nil {
		return EDSettings{}, err
	}
	if patternCount < 1 {
		return EDSettings{}, fmt.Errorf("pattern count is invalid: %d", patternCount)
	}

	parsedInputMode, err := ed_patterns.ParseInputMode(inputMode)
	if err != nil {
		return EDSettings{}, err
	}

	mode, err := ed_core.ParseUpdateMode(updateMode)
	if err != nil {
		return EDSettings{}, err
	}
	cfg.UpdateMode = mode
	if err := cfg.Validate(); err != nil {
		return EDSettings{}, err
	}

	if len(patternTypes) == 1 && outputs > 1 {
		repeated := make([]string, outputs)
		for i := range repeated {
			repeated[i] = patternTypes[0]
		}
		patternTypes = repeated
	}
	if len(patternTypes) != outputs {
		return EDSettings{}, fmt.Errorf("pattern types are invalid: %d types for %d outputs", len(patternTypes), outputs)
	}
	names := make([]string, outputs)
	handlers := make([]ed_patterns.EDPatternHandler, outputs)
	for i, patternType := range patternTypes {
		if names[i], err = ed_patterns.PatternTypeName(patternType); err != nil {
			return EDSettings{}, err
		}
		if handlers[i], err = ed_patterns.PatternHandlerFactory(patternType, ask); err != nil {
			return EDSettings{}, err
		}
	}

	return EDSettings{
		InputFeatures:   inputFeatures,
		Outputs:         outputs,
		Hidden1:         hidden1,
		Hidden2:         hidden2,
		PatternCount:    patternCount,
		InputMode:       parsedInputMode.String(),
		PatternTypes:    names,
		UpdateMode:      mode.String(),
		Config:          cfg,
		topology:        topo,
		inputMode:       parsedInputMode,
		patternHandlers: handlers,
	}, nil
}

// CreateSessionInstance generates the patterns from localRand and seeds the
// engine with seed.
func (s TrainController) CreateSessionInstance(settings EDSettings, seed int64, localRand *rand.Rand) (SessionInstance, error) {
	patterns, err := ed_patterns.CreatePatternSet(settings.PatternCount, settings.InputFeatures, settings.inputMode, settings.patternHandlers, localRand)
	if err != nil {
		return SessionInstance{}, errors.Wrap(err, "create patterns")
	}
	cfg := settings.Config
	cfg.Seed = seed
	engine, err := ed_core.Initialize(settings.topology, cfg)
	if err != nil {
		return SessionInstance{}, errors.Wrap(err, "create engine")
	}
	return SessionInstance{Patterns: patterns, Engine: engine}, nil
}

// StartTrainSession trains until the epoch error drops below the convergence
// threshold or maxEpochs is reached. The first sendEpochThreshold epochs are
// reported on stateChannel, then every sendEpochStep-th. Sends never block.
func (s TrainController) StartTrainSession(settings EDSettings, stateChannel chan SessionStateMessage, maxEpochs int, sendEpochThreshold int, sendEpochStep int, seed int64, localRand *rand.Rand) SessionData {

	runId := uuid.NewString()
	instance, err := s.CreateSessionInstance(settings, seed, localRand)
	if err != nil {
		return SessionData{RunId: runId, Seed: seed, Status: StatusFailed, Err: err.Error()}
	}
	return s.TrainInstance(runId, instance, stateChannel, maxEpochs, sendEpochThreshold, sendEpochStep, seed)
}

// TrainInstance runs the epoch loop over an already built instance.
func (s TrainController) TrainInstance(runId string, instance SessionInstance, stateChannel chan SessionStateMessage, maxEpochs int, sendEpochThreshold int, sendEpochStep int, seed int64) SessionData {
	if maxEpochs <= 0 {
		maxEpochs = DefaultMaxEpochs
	}
	engine := instance.Engine
	patterns := instance.Patterns
	threshold := engine.Config().ConvergenceThreshold

	session := SessionData{
		RunId:        runId,
		Seed:         seed,
		Patterns:     patterns,
		InitialState: engine.Snapshot(),
		Status:       StatusLimitReached,
	}
	stats := NewLearningStats(patterns.Len())

	for epoch := 1; epoch <= maxEpochs; epoch++ {
		engine.ResetEpochCounters()
		for p := 0; p < patterns.Len(); p++ {
			if err := engine.TrainStep(patterns.Inputs[p], patterns.Targets[p]); err != nil {
				session.Status = StatusFailed
				session.Err = err.Error()
				return s.closeSession(session, engine, stats, stateChannel)
			}
			if s.Monitor != nil {
				s.Monitor.WritePattern(engine, patterns.Targets[p])
			}
		}

		stats.UpdateEpoch(epoch, engine.ErrorTotal(), engine.ErrorCount())
		converged := stats.CheckConvergence(threshold)
		if s.Monitor != nil {
			s.Monitor.WriteEpoch(engine, stats)
		}
		if epoch <= sendEpochThreshold || (sendEpochStep > 0 && epoch%sendEpochStep == 0) {
			sendState(stateChannel, SessionStateMessage{CommandType: CommandEpoch, SessionState: epochState(runId, stats)})
		}
		if converged {
			session.Status = StatusConverged
			break
		}
	}
	return s.closeSession(session, engine, stats, stateChannel)
}

func (s TrainController) closeSession(session SessionData, engine *ed_core.Engine, stats LearningStats, stateChannel chan SessionStateMessage) SessionData {
	session.Epochs = stats.Epoch
	session.FinalError = stats.TotalError
	session.ErrorCount = stats.ErrorCount
	session.Stats = stats
	session.FinalState = engine.Snapshot()
	if s.Monitor != nil {
		s.Monitor.WriteSummary(stats, session.Status, engine.Config().ConvergenceThreshold)
	}
	final := epochState(session.RunId, stats)
	final.Status = session.Status
	sendState(stateChannel, SessionStateMessage{CommandType: CommandFinished, SessionState: final})
	return session
}

// Evaluate runs every pattern through Predict and counts outputs off by more
// than 0.5.
func (TrainController) Evaluate(engine *ed_core.Engine, patterns ed_patterns.PatternSet) ([][]float64, int, error) {
	outputs := make([][]float64, patterns.Len())
	miscount := 0
	for p := 0; p < patterns.Len(); p++ {
		predicted, err := engine.Predict(patterns.Inputs[p])
		if err != nil {
			return nil, 0, err
		}
		outputs[p] = predicted
		for o, value := range predicted {
			if diff := patterns.Targets[p][o] - value; diff > 0.5 || diff < -0.5 {
				miscount++
			}
		}
	}
	return outputs, miscount, nil
}

// GetDataSizeFromConfig is the number of weight slots the settings allocate.
func (TrainController) GetDataSizeFromConfig(settings EDSettings) int {
	n := settings.topology.NeuronCount()
	return settings.Outputs * n * n
}

func epochState(runId string, stats LearningStats) EpochState {
	return EpochState{
		RunId:      runId,
		Epoch:      stats.Epoch,
		TotalError: stats.TotalError,
		ErrorCount: stats.ErrorCount,
		Accuracy:   stats.Accuracy,
		Status:     stats.Status(),
	}
}

func sendState(stateChannel chan SessionStateMessage, message SessionStateMessage) {
	if stateChannel == nil {
		return
	}
	select {
	case stateChannel <- message:
	default:
	}
}
