package ed_controllers

// ConvergenceCountData holds the count of converged and total sessions for one
// update mode and hidden layer configuration
type ConvergenceCountData struct {
	UpdateMode     string `json:"update_mode"`
	HiddenGroup    string `json:"hidden_group"`
	ConvergedCount int    `json:"converged_count"`
	TotalCount     int    `json:"total_count"`
}

// SessionAvgsAndCounts holds relevant data for a specific query, like all sessions with a specific hidden configuration
type SessionAvgsAndCounts struct {
	AvgEpochs      float64 `json:"avg_epochs"`
	AvgFinalError  float64 `json:"avg_final_error"`
	TotalCount     int     `json:"total_count"`
	ConvergedCount int     `json:"converged_count"`
	LimitCount     int     `json:"limit_count"`
}
