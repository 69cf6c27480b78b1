package ed_controllers

import (
	"sync"
	"time"

	"ed_diffusion/ed_core"
)

const (
	CommandEpoch    = "EPOCH"
	CommandFinished = "FINISHED"
)

type OpenSession struct {
	Uid                 string
	Config              EDSettings
	StartTime           time.Time
	MaxSessionCount     int
	CurrentSessionCount int
	CurrentRunId        string
	LastState           *EpochState
	Tracking            bool                     `json:"-"`
	CurrentStateChannel chan SessionStateMessage `json:"-"`
}

type SessionMap struct {
	Sessions map[string]*OpenSession
	Mutex    sync.RWMutex
}

type SessionStateMessage struct {
	CommandType  string // EPOCH or FINISHED
	SessionState interface{}
}

type SimulationSettings struct {
	MaxSessionCount  int             `json:"max_session_count"`
	MaxEpochs        int             `json:"max_epochs"`
	MaxWorkerCount   int             `json:"max_worker_count"`
	InputFeatures    int             `json:"input_features"`
	Outputs          int             `json:"outputs"`
	PatternCount     int             `json:"pattern_count"`
	InputMode        string          `json:"input_mode"`
	PatternTypes     [][]string      `json:"pattern_types"`
	UpdateModes      []string        `json:"update_modes"`
	Hidden1Configs   []int           `json:"hidden1_configs"`
	Hidden2Configs   []int           `json:"hidden2_configs"`
	LearningRates    []float64       `json:"learning_rates"`
	TimestepsConfigs []int           `json:"timesteps_configs"`
	BaseConfig       *ed_core.Config `json:"base_config,omitempty"`
}
