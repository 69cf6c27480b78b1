package ed_controllers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"ed_diffusion/ed_core"

	"github.com/beevik/ntp"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
)

type SimulationController struct {
	TrainController    TrainController
	DatabaseController *DatabaseController
	// NTPServer is queried for session timestamps; empty means local time.
	NTPServer    string
	SettingsFile string
}

// Function to read and deserialize JSON file
func (s *SimulationController) LoadSimulationSettings(filename string) (*SimulationSettings, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var settings SimulationSettings
	err = json.Unmarshal(data, &settings)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	if settings.MaxWorkerCount < 1 {
		settings.MaxWorkerCount = 1
	}

	return &settings, nil
}

func (s *SimulationController) SimulateOnStart(sessionMap *SessionMap) {
	settingsFile := s.SettingsFile
	if settingsFile == "" {
		settingsFile = "simulation_settings.json"
	}
	simSettings, err := s.LoadSimulationSettings(settingsFile)
	if err != nil {
		log.Fatalf("Error loading settings: %v", err)
	}

	fmt.Println("Settings loaded:")
	fmt.Printf("%+v\n", *simSettings)

	s.RunSimulation(simSettings, sessionMap)
	fmt.Println("-- All automatic configs finished --")
}

// ExpandSettings builds every valid combination of the sweep. Invalid
// combinations are logged and skipped.
func (s *SimulationController) ExpandSettings(simSettings *SimulationSettings) []EDSettings {
	base := ed_core.DefaultConfig()
	if simSettings.BaseConfig != nil {
		base = *simSettings.BaseConfig
	}
	learningRates := simSettings.LearningRates
	if len(learningRates) == 0 {
		learningRates = []float64{base.LearningRate}
	}
	timesteps := simSettings.TimestepsConfigs
	if len(timesteps) == 0 {
		timesteps = []int{base.Timesteps}
	}
	hidden2Configs := simSettings.Hidden2Configs
	if len(hidden2Configs) == 0 {
		hidden2Configs = []int{0}
	}
	updateModes := simSettings.UpdateModes
	if len(updateModes) == 0 {
		updateModes = []string{base.UpdateMode.String()}
	}

	var expanded []EDSettings
	for _, mode := range updateModes {
		for _, patternTypes := range simSettings.PatternTypes {
			for _, hidden1 := range simSettings.Hidden1Configs {
				for _, hidden2 := range hidden2Configs {
					for _, rate := range learningRates {
						for _, steps := range timesteps {
							cfg := base
							cfg.LearningRate = rate
							cfg.Timesteps = steps
							edSettings, err := s.TrainController.SettingsFactory(simSettings.InputFeatures, simSettings.Outputs, hidden1, hidden2, simSettings.PatternCount, simSettings.InputMode, patternTypes, mode, cfg, nil)
							if err != nil {
								log.Printf("skipping config %v/%d/%d/%g/%d/%s: %v", patternTypes, hidden1, hidden2, rate, steps, mode, err)
								continue
							}
							expanded = append(expanded, edSettings)
						}
					}
				}
			}
		}
	}
	return expanded
}

func (s *SimulationController) RunSimulation(simSettings *SimulationSettings, sessionMap *SessionMap) {
	workerPool := pool.New().WithMaxGoroutines(simSettings.MaxWorkerCount)
	for _, edSettings := range s.ExpandSettings(simSettings) {
		workerPool.Go(func() {
			s.runConfig(edSettings, simSettings, sessionMap)
		})
	}
	workerPool.Wait()
}

func (s *SimulationController) runConfig(edSettings EDSettings, simSettings *SimulationSettings, sessionMap *SessionMap) {
	startTime := s.currentTime()
	token := s.generateToken(startTime, edSettings)
	sessionBufferSize := 10
	sessionChannel := make(chan SessionStateMessage, sessionBufferSize)
	trainerChannel := make(chan SessionStateMessage, sessionBufferSize)
	simulationData := OpenSession{
		Uid:                 token,
		Config:              edSettings,
		StartTime:           startTime,
		MaxSessionCount:     simSettings.MaxSessionCount,
		CurrentSessionCount: 0,
		CurrentStateChannel: sessionChannel,
	}
	sessionMap.Mutex.Lock()
	sessionMap.Sessions[token] = &simulationData
	sessionMap.Mutex.Unlock()

	relayDone := make(chan struct{})
	go s.relayStates(token, trainerChannel, sessionChannel, sessionMap, relayDone)

	for i := 0; i < simSettings.MaxSessionCount; i++ {
		startTime = s.currentTime()
		seed := time.Now().UnixNano()
		localRand := rand.New(rand.NewSource(seed))
		sendEpochThreshold := 10
		sendEpochStep := 100

		runId := uuid.NewString()
		sessionMap.Mutex.Lock()
		sessionMap.Sessions[token].CurrentRunId = runId
		sessionMap.Mutex.Unlock()

		session := s.runSession(runId, edSettings, trainerChannel, simSettings.MaxEpochs, sendEpochThreshold, sendEpochStep, seed, localRand)
		endTime := s.currentTime()
		if s.DatabaseController != nil {
			s.DatabaseController.insertIntoDB(edSettings, session, startTime, endTime)
		}

		sessionMap.Mutex.Lock()
		sessionMap.Sessions[token].CurrentSessionCount += 1
		sessionMap.Mutex.Unlock()
	}

	close(trainerChannel)
	<-relayDone
	sessionMap.Mutex.Lock()
	delete(sessionMap.Sessions, token)
	sessionMap.Mutex.Unlock()
	close(sessionChannel)
}

func (s *SimulationController) runSession(runId string, edSettings EDSettings, stateChannel chan SessionStateMessage, maxEpochs, sendEpochThreshold, sendEpochStep int, seed int64, localRand *rand.Rand) SessionData {
	instance, err := s.TrainController.CreateSessionInstance(edSettings, seed, localRand)
	if err != nil {
		log.Printf("session %s failed to start: %v", runId, err)
		return SessionData{RunId: runId, Seed: seed, Status: StatusFailed, Err: err.Error()}
	}
	return s.TrainController.TrainInstance(runId, instance, stateChannel, maxEpochs, sendEpochThreshold, sendEpochStep, seed)
}

// relayStates keeps the latest epoch state on the open session and forwards
// messages to trackers without blocking the trainer.
func (s *SimulationController) relayStates(token string, in <-chan SessionStateMessage, out chan SessionStateMessage, sessionMap *SessionMap, done chan<- struct{}) {
	defer close(done)
	for message := range in {
		if state, ok := message.SessionState.(EpochState); ok {
			sessionMap.Mutex.Lock()
			if session, found := sessionMap.Sessions[token]; found {
				session.LastState = &state
			}
			sessionMap.Mutex.Unlock()
		}
		select {
		case out <- message:
		default:
		}
	}
}

func (s *SimulationController) currentTime() time.Time {
	if s.NTPServer == "" {
		return time.Now()
	}
	current, err := s.getCurrentTimeFromNTP()
	if err != nil {
		return time.Now()
	}
	return current
}

func (s *SimulationController) getCurrentTimeFromNTP() (time.Time, error) {
	time, err := ntp.Time(s.NTPServer)
	if err != nil {
		return time, fmt.Errorf("failed to get time from NTP server: %v", err)
	}
	return time, nil
}

func (s *SimulationController) generateToken(startTime time.Time, config EDSettings) string {
	idStamp := fmt.Sprintf("%d%d%d%d%v%s%g%d%s", config.InputFeatures, config.Outputs, config.Hidden1, config.Hidden2, config.PatternTypes, config.UpdateMode, config.Config.LearningRate, config.Config.Timesteps, startTime)
	h := sha256.New()
	h.Write([]byte(idStamp))
	token := hex.EncodeToString(h.Sum(nil))
	return token
}

func NewSessionMap() *SessionMap {
	return &SessionMap{
		Sessions: make(map[string]*OpenSession),
	}
}
