package ed_controllers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"regexp"
	"runtime"
	"strings"
	"time"

	"ed_diffusion/ed_core"

	"github.com/pkg/errors"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

const DefaultTableName = "ed_sessions"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type DatabaseController struct {
	db     *sql.DB
	driver string
	table  string
}

// NewDatabaseController opens driver "mysql" or "sqlite" and checks the
// connection.
func NewDatabaseController(driver, dsn, table string) (*DatabaseController, error) {
	if driver != "mysql" && driver != "sqlite" {
		return nil, errors.Errorf("database driver is invalid: %s", driver)
	}
	if table == "" {
		table = DefaultTableName
	}
	if !tableNamePattern.MatchString(table) {
		return nil, errors.Errorf("table name is invalid: %s", table)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "error connecting to the database")
	}
	if driver == "sqlite" {
		// one connection keeps ":memory:" databases alive and serializes writers
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "error connecting to the database")
	}

	dbController := DatabaseController{db: db, driver: driver, table: table}
	return &dbController, nil
}

// NewDatabaseControllerFromEnv reads DB_DRIVER (mysql by default), DB_TABLE and
// either DB_USER, DB_PASSWORD, DB_HOST, DB_PORT, DB_NAME or DB_PATH.
func NewDatabaseControllerFromEnv() (*DatabaseController, error) {
	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = "mysql"
	}
	var dsn string
	switch driver {
	case "mysql":
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), os.Getenv("DB_HOST"), os.Getenv("DB_PORT"), os.Getenv("DB_NAME"))
	case "sqlite":
		dsn = os.Getenv("DB_PATH")
		if dsn == "" {
			dsn = "ed_sessions.db"
		}
	}
	return NewDatabaseController(driver, dsn, os.Getenv("DB_TABLE"))
}

func (dc *DatabaseController) CloseDb() error {
	return dc.db.Close()
}

func (dc *DatabaseController) Table() string {
	return dc.table
}

func (dc *DatabaseController) EnsureSchema() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id VARCHAR(64) PRIMARY KEY,
			host VARCHAR(255),
			seed BIGINT,
			program_version VARCHAR(64),
			input_features INT,
			outputs INT,
			hidden1 INT,
			hidden2 INT,
			timesteps INT,
			learning_rate DOUBLE,
			update_mode VARCHAR(32),
			pattern_types TEXT,
			data_size INT,
			start_time VARCHAR(32),
			end_time VARCHAR(32),
			status VARCHAR(32),
			epochs INT,
			final_error DOUBLE,
			error_count INT,
			error_history LONGTEXT,
			initial_state LONGTEXT,
			final_state LONGTEXT
		)`, dc.table)
	_, err := dc.db.Exec(query)
	return errors.Wrap(err, "create table")
}

func (dc *DatabaseController) insertIntoDB(config EDSettings, session SessionData, startTime time.Time, endTime time.Time) {
	if err := dc.InsertSession(config, session, startTime, endTime); err != nil {
		log.Printf("failed to insert session %s: %v", session.RunId, err)
	}
}

func (dc *DatabaseController) InsertSession(config EDSettings, session SessionData, startTime time.Time, endTime time.Time) error {
	patternTypesJSON, err := json.Marshal(config.PatternTypes)
	if err != nil {
		return errors.Wrap(err, "failed to marshal pattern types")
	}
	historyJSON, err := json.Marshal(session.Stats.ErrorHistory)
	if err != nil {
		return errors.Wrap(err, "failed to marshal error history")
	}
	initialStateJSON, err := json.Marshal(session.InitialState.Weights())
	if err != nil {
		return errors.Wrap(err, "failed to marshal initial state")
	}
	finalStateJSON, err := json.Marshal(session.FinalState.Weights())
	if err != nil {
		return errors.Wrap(err, "failed to marshal final state")
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = os.Getenv("HOSTNAME")
	}

	dataSize := ed_core.ConnectionCount(session.FinalState.Weights())

	query := fmt.Sprintf(`INSERT INTO %s (run_id, host, seed, program_version, input_features, outputs, hidden1, hidden2, timesteps, learning_rate, update_mode, pattern_types, data_size, start_time, end_time, status, epochs, final_error, error_count, error_history, initial_state, final_state) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, dc.table)
	_, err = dc.db.Exec(query,
		session.RunId,
		hostname,
		session.Seed,
		runtime.Version(),
		config.InputFeatures,
		config.Outputs,
		config.Hidden1,
		config.Hidden2,
		config.Config.Timesteps,
		config.Config.LearningRate,
		config.UpdateMode,
		string(patternTypesJSON),
		dataSize,
		startTime.Format("2006-01-02 15:04:05"),
		endTime.Format("2006-01-02 15:04:05"),
		session.Status,
		session.Epochs,
		session.FinalError,
		session.ErrorCount,
		string(historyJSON),
		string(initialStateJSON),
		string(finalStateJSON),
	)
	return errors.Wrap(err, "failed to insert data")
}

func (dc *DatabaseController) FetchFullTableAsJSON(tableName string) (string, error) {
	if !tableNamePattern.MatchString(tableName) {
		return "", errors.Errorf("table name is invalid: %s", tableName)
	}
	rows, err := dc.db.Query(fmt.Sprintf("SELECT * FROM %s", tableName))
	if err != nil {
		return "", errors.Wrap(err, "error retrieving data")
	}
	defer rows.Close()

	results := []map[string]interface{}{}

	columns, err := rows.Columns()
	if err != nil {
		return "", errors.Wrap(err, "error getting columns")
	}

	for rows.Next() {
		// one interface{} per column, plus pointers to them for Scan
		values := make([]interface{}, len(columns))
		valuePointers := make([]interface{}, len(columns))
		for i := range values {
			valuePointers[i] = &values[i]
		}

		if err := rows.Scan(valuePointers...); err != nil {
			return "", errors.Wrap(err, "error scanning row")
		}

		rowMap := make(map[string]interface{})
		for i, col := range columns {
			var v interface{}
			val := values[i]

			// Convert []byte to string for readability
			b, ok := val.([]byte)
			if ok {
				v = string(b)
			} else {
				v = val
			}

			rowMap[col] = v
		}

		results = append(results, rowMap)
	}
	if err := rows.Err(); err != nil {
		return "", errors.Wrap(err, "error reading rows")
	}

	jsonData, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "error marshaling results to JSON")
	}

	return string(jsonData), nil
}

// QuerySurfaceGraph groups converged sessions by two axis columns and returns
// the epoch and final error spread of each cell, headers first.
func (dc *DatabaseController) QuerySurfaceGraph(X string, Y string, tableName string, updateMode string) ([][]interface{}, error) {
	if !dc.ValidateGraphAxis(X) || !dc.ValidateGraphAxis(Y) {
		return nil, errors.Errorf("graph axis is invalid: %s, %s", X, Y)
	}
	if !tableNamePattern.MatchString(tableName) {
		return nil, errors.Errorf("table name is invalid: %s", tableName)
	}
	x, y := strings.ToLower(X), strings.ToLower(Y)
	query := fmt.Sprintf(`
		SELECT %s, %s,
			MIN(epochs), MAX(epochs), AVG(epochs),
			MIN(final_error), MAX(final_error), AVG(final_error)
		FROM %s
		WHERE status = ? AND update_mode = ?
		GROUP BY %s, %s
		ORDER BY %s, %s`, x, y, tableName, x, y, x, y)
	rows, err := dc.db.Query(query, StatusConverged, strings.ToUpper(updateMode))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var graphData [][]interface{}
	graphData = append(graphData, []interface{}{"X", "Y", "epochs_min", "epochs_max", "epochs_avg", "error_min", "error_max", "error_avg"})

	for rows.Next() {
		var xValue, yValue string
		var epochsMin, epochsMax, epochsAvg float64
		var errorMin, errorMax, errorAvg float64
		err := rows.Scan(&xValue, &yValue, &epochsMin, &epochsMax, &epochsAvg, &errorMin, &errorMax, &errorAvg)
		if err != nil {
			return nil, err
		}
		graphData = append(graphData, []interface{}{xValue, yValue, epochsMin, epochsMax, epochsAvg, errorMin, errorMax, errorAvg})
	}

	return graphData, rows.Err()
}

// QueryConvergenceCount retrieves the count of converged rows and total rows
func (dc *DatabaseController) QueryConvergenceCount(tableName string) ([]ConvergenceCountData, error) {
	if !tableNamePattern.MatchString(tableName) {
		return nil, errors.Errorf("table name is invalid: %s", tableName)
	}
	query := fmt.Sprintf(`
		SELECT
			update_mode,
			hidden1,
			hidden2,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS converged_count,
			COUNT(*) AS total_count
		FROM %s
		GROUP BY update_mode, hidden1, hidden2
		ORDER BY update_mode, hidden1, hidden2`, tableName)

	rows, err := dc.db.Query(query, StatusConverged)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []ConvergenceCountData{}
	for rows.Next() {
		var data ConvergenceCountData
		var hidden1, hidden2 int
		err := rows.Scan(&data.UpdateMode, &hidden1, &hidden2, &data.ConvergedCount, &data.TotalCount)
		if err != nil {
			return nil, err
		}
		data.HiddenGroup = fmt.Sprintf("%d-%d", hidden1, hidden2)
		results = append(results, data)
	}

	return results, rows.Err()
}

func (dc *DatabaseController) GetSessionsByHidden(hidden1, hidden2 int, tableName string) (*SessionAvgsAndCounts, error) {
	if !tableNamePattern.MatchString(tableName) {
		return nil, errors.Errorf("table name is invalid: %s", tableName)
	}
	query := fmt.Sprintf(`
		SELECT
			COALESCE(AVG(epochs), 0),
			COALESCE(AVG(final_error), 0),
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		FROM %s
		WHERE hidden1 = ? AND hidden2 = ?`, tableName)

	result := SessionAvgsAndCounts{}
	err := dc.db.QueryRow(query, StatusConverged, hidden1, hidden2).Scan(
		&result.AvgEpochs,
		&result.AvgFinalError,
		&result.TotalCount,
		&result.ConvergedCount,
	)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	result.LimitCount = result.TotalCount - result.ConvergedCount

	return &result, nil
}

func (dc *DatabaseController) ValidateGraphAxis(axis string) bool {

	availableAxis := []string{"HIDDEN1", "HIDDEN2", "TIMESTEPS", "LEARNING_RATE", "DATA_SIZE", "INPUT_FEATURES"}
	for _, item := range availableAxis {
		if item == strings.ToUpper(axis) {
			return true
		}
	}
	return false
}

func (dc *DatabaseController) ValidateUpdateMode(mode string) bool {

	availableModes := []string{"SELECTIVE", "BIDIRECTIONAL"}
	for _, item := range availableModes {
		if item == strings.ToUpper(mode) {
			return true
		}
	}
	return false
}

func (dc *DatabaseController) ValidatePatternType(patternType string) bool {

	availableTypes := []string{"RANDOM", "PARITY", "MIRROR", "MANUAL", "REAL_RANDOM", "ONE_HOT"}
	for _, item := range availableTypes {
		if item == strings.ToUpper(patternType) {
			return true
		}
	}
	return false
}
