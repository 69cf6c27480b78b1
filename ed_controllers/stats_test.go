package ed_controllers

import "testing"

func TestLearningStatsStatus(t *testing.T) {
	cases := []struct {
		errors int
		want   string
	}{
		{0, StatePerfect},
		{1, StateExcellent},
		{2, StateGood},
		{3, StateGood},
		{4, StateLearning},
		{10, StateLearning},
	}
	for _, c := range cases {
		stats := NewLearningStats(10)
		stats.UpdateEpoch(1, 0.5, c.errors)
		if got := stats.Status(); got != c.want {
			t.Errorf("%d/10 wrong: status %s, want %s", c.errors, got, c.want)
		}
	}
}

func TestLearningStatsUpdateEpoch(t *testing.T) {
	stats := NewLearningStats(4)
	stats.UpdateEpoch(1, 1.2, 3)
	stats.UpdateEpoch(2, 0.05, 0)

	if stats.Epoch != 2 || stats.ErrorCount != 0 || stats.Accuracy != 100 {
		t.Errorf("stats = %+v", stats)
	}
	if len(stats.ErrorHistory) != 2 || stats.ErrorHistory[0] != 1.2 {
		t.Errorf("history = %v", stats.ErrorHistory)
	}
	if !stats.CheckConvergence(0.1) || !stats.Converged {
		t.Error("0.05 should converge below 0.1")
	}
	if stats.CheckConvergence(0.05) {
		t.Error("convergence requires an error strictly below the threshold")
	}
	if got := stats.AverageError(); got != 0.0125 {
		t.Errorf("average error = %v", got)
	}
}

func TestLearningStatsEmpty(t *testing.T) {
	stats := NewLearningStats(0)
	stats.UpdateEpoch(1, 0, 0)
	if stats.ErrorRate() != 0 || stats.AverageError() != 0 {
		t.Errorf("empty stats = %+v", stats)
	}
}
