package ed_controllers

const (
	StatePerfect   = "PERFECT"
	StateExcellent = "EXCELLENT"
	StateGood      = "GOOD"
	StateLearning  = "LEARNING"
)

type LearningStats struct {
	Epoch        int       `json:"epoch"`
	TotalError   float64   `json:"total_error"`
	ErrorCount   int       `json:"error_count"`
	PatternCount int       `json:"pattern_count"`
	ErrorHistory []float64 `json:"error_history"`
	Converged    bool      `json:"converged"`
	Accuracy     float64   `json:"accuracy"`
}

func NewLearningStats(patternCount int) LearningStats {
	return LearningStats{PatternCount: patternCount}
}

func (s *LearningStats) UpdateEpoch(epoch int, totalError float64, errorCount int) {
	s.Epoch = epoch
	s.TotalError = totalError
	s.ErrorCount = errorCount
	s.ErrorHistory = append(s.ErrorHistory, totalError)
	if s.PatternCount > 0 {
		s.Accuracy = 100 * float64(s.PatternCount-errorCount) / float64(s.PatternCount)
	}
}

func (s *LearningStats) CheckConvergence(threshold float64) bool {
	s.Converged = s.TotalError < threshold
	return s.Converged
}

func (s LearningStats) ErrorRate() float64 {
	if s.PatternCount == 0 {
		return 0
	}
	return float64(s.ErrorCount) / float64(s.PatternCount)
}

func (s LearningStats) AverageError() float64 {
	if s.PatternCount == 0 {
		return 0
	}
	return s.TotalError / float64(s.PatternCount)
}

// Status grades the last epoch by its share of wrong patterns.
func (s LearningStats) Status() string {
	switch {
	case s.ErrorCount == 0:
		return StatePerfect
	case float64(s.ErrorCount) <= float64(s.PatternCount)*0.1:
		return StateExcellent
	case float64(s.ErrorCount) <= float64(s.PatternCount)*0.3:
		return StateGood
	}
	return StateLearning
}
