package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"ed_diffusion/ed_controllers"

	"github.com/joho/godotenv"
	"golang.org/x/net/websocket"
)

type controlServer struct {
	sessionMap   *ed_controllers.SessionMap
	dbController *ed_controllers.DatabaseController
	trackPeriod  time.Duration
}

func main() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("No .env file loaded, using the process environment")
	}

	welcomeMessage := " -  -  ED Control Server  -  - "
	fmt.Println(welcomeMessage)

	dbController, err := ed_controllers.NewDatabaseControllerFromEnv()
	if err != nil {
		fmt.Println(err)
		return
	}
	defer dbController.CloseDb()
	if err := dbController.EnsureSchema(); err != nil {
		fmt.Println(err)
		return
	}

	ntpServer, found := os.LookupEnv("NTP_SERVER")
	if !found {
		ntpServer = "pool.ntp.org"
	}
	simController := ed_controllers.SimulationController{
		TrainController:    ed_controllers.TrainController{},
		DatabaseController: dbController,
		NTPServer:          ntpServer,
		SettingsFile:       os.Getenv("SIMULATION_SETTINGS"),
	}

	server := &controlServer{
		sessionMap:   ed_controllers.NewSessionMap(),
		dbController: dbController,
		trackPeriod:  5 * time.Second,
	}

	go simController.SimulateOnStart(server.sessionMap)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	if err := http.ListenAndServe(addr, server.routes()); err != nil {
		log.Fatal(err)
	}
}

func (s *controlServer) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/sessions", s.listSessionMapHandler)
	mux.HandleFunc("/track-sessions", s.trackAllSessionsHandler)
	mux.HandleFunc("/events", s.realTimeSessionHandler)
	mux.HandleFunc("/get-config", s.settingsByUidHandler)
	mux.HandleFunc("/query3DGraph", s.get3DGraphHandler)
	mux.HandleFunc("/convergence", s.convergenceHandler)
	mux.HandleFunc("/summary", s.summaryHandler)
	mux.HandleFunc("/datadump", s.datadumpHandler)
	mux.Handle("/ws", websocket.Handler(s.sessionStateWSHandler))
	return mux
}

func (s *controlServer) listSessionMapHandler(w http.ResponseWriter, r *http.Request) {
	s.sessionMap.Mutex.RLock()
	jsonString, err := json.Marshal(s.sessionMap.Sessions)
	s.sessionMap.Mutex.RUnlock()
	if err != nil {
		fmt.Println(err)
		http.Error(w, "Error encoding sessions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, string(jsonString))
}

func setEventStreamHeaders(w http.ResponseWriter) {
	// Set http headers required for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// You may need this locally for CORS requests
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

func (s *controlServer) trackAllSessionsHandler(w http.ResponseWriter, r *http.Request) {
	setEventStreamHeaders(w)

	clientGone := r.Context().Done()

	rc := http.NewResponseController(w)
	t := time.NewTicker(s.trackPeriod)
	defer t.Stop()
	for {
		select {
		case <-clientGone:
			return
		case <-t.C:
			s.sessionMap.Mutex.RLock()
			jsonString, err := json.Marshal(s.sessionMap.Sessions)
			s.sessionMap.Mutex.RUnlock()
			if err != nil {
				fmt.Println(err)
				return
			}

			_, err = fmt.Fprintf(w, "data: %s\n\n", string(jsonString))
			if err != nil {
				return
			}
			err = rc.Flush()
			if err != nil {
				return
			}
		}
	}
}

// realTimeSessionHandler streams the epoch states of one open session until
// the client leaves or the session finishes.
func (s *controlServer) realTimeSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := r.FormValue("id")

	s.sessionMap.Mutex.Lock()
	sessionPointer, ok := s.sessionMap.Sessions[id]
	if !ok {
		s.sessionMap.Mutex.Unlock()
		fmt.Println("Session UID not found: ", id)
		http.NotFound(w, r)
		return
	}
	sessionPointer.Tracking = true
	stateChannel := sessionPointer.CurrentStateChannel
	s.sessionMap.Mutex.Unlock()

	defer func() {
		s.sessionMap.Mutex.Lock()
		if session, found := s.sessionMap.Sessions[id]; found {
			session.Tracking = false
		}
		s.sessionMap.Mutex.Unlock()
	}()

	setEventStreamHeaders(w)
	clientGone := r.Context().Done()
	rc := http.NewResponseController(w)

	for {
		select {
		case <-clientGone:
			return
		case currentState, open := <-stateChannel:
			if !open {
				return
			}
			parsedState, err := json.Marshal(currentState)
			if err != nil {
				return
			}
			_, err = fmt.Fprintf(w, "data: %s\n\n", parsedState)
			if err != nil {
				return
			}
			err = rc.Flush()
			if err != nil {
				return
			}
		}
	}
}

func (s *controlServer) settingsByUidHandler(w http.ResponseWriter, r *http.Request) {
	id := r.FormValue("id")
	s.sessionMap.Mutex.RLock()
	sessionPointer, ok := s.sessionMap.Sessions[id]
	if !ok {
		s.sessionMap.Mutex.RUnlock()
		fmt.Println("Session UID not found: ", id)
		http.NotFound(w, r)
		return
	}
	config := sessionPointer.Config
	s.sessionMap.Mutex.RUnlock()

	parsedConfig, err := json.Marshal(config)
	if err != nil {
		http.Error(w, "Error encoding config", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, err = fmt.Fprint(w, string(parsedConfig))
	if err != nil {
		fmt.Println("Error while sending sessionConfig")
	}
}

type GraphRequestBody struct {
	X          string `json:"X"`
	Y          string `json:"Y"`
	UpdateMode string `json:"UpdateMode"`
	TableName  string `json:"TableName"`
}

func (s *controlServer) get3DGraphHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return
	}
	if s.dbController == nil {
		http.Error(w, "No database configured", http.StatusServiceUnavailable)
		return
	}

	var requestBody GraphRequestBody
	decoder := json.NewDecoder(r.Body)
	err := decoder.Decode(&requestBody)
	if err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	axisX := strings.ToUpper(requestBody.X)
	axisY := strings.ToUpper(requestBody.Y)
	updateMode := strings.ToUpper(requestBody.UpdateMode)
	tableName := requestBody.TableName
	if tableName == "" {
		tableName = s.dbController.Table()
	}

	if !(s.dbController.ValidateGraphAxis(axisX) && s.dbController.ValidateGraphAxis(axisY)) {
		http.Error(w, "Invalid axis requested", http.StatusBadRequest)
		return
	}
	if !s.dbController.ValidateUpdateMode(updateMode) {
		http.Error(w, "Invalid update mode", http.StatusBadRequest)
		return
	}

	response, err := s.dbController.QuerySurfaceGraph(axisX, axisY, tableName, updateMode)
	if err != nil {
		fmt.Println("Error while querying graph")
		fmt.Println(err)
		http.Error(w, "Error querying graph", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

func (s *controlServer) convergenceHandler(w http.ResponseWriter, r *http.Request) {
	if s.dbController == nil {
		http.Error(w, "No database configured", http.StatusServiceUnavailable)
		return
	}
	response, err := s.dbController.QueryConvergenceCount(s.tableName(r))
	if err != nil {
		fmt.Println(err)
		http.Error(w, "Error querying convergence", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (s *controlServer) summaryHandler(w http.ResponseWriter, r *http.Request) {
	if s.dbController == nil {
		http.Error(w, "No database configured", http.StatusServiceUnavailable)
		return
	}
	hidden1, err1 := strconv.Atoi(r.FormValue("hidden1"))
	hidden2, err2 := strconv.Atoi(r.FormValue("hidden2"))
	if err1 != nil || err2 != nil {
		http.Error(w, "hidden1 and hidden2 must be integers", http.StatusBadRequest)
		return
	}
	response, err := s.dbController.GetSessionsByHidden(hidden1, hidden2, s.tableName(r))
	if err != nil {
		fmt.Println(err)
		http.Error(w, "Error querying sessions", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (s *controlServer) datadumpHandler(w http.ResponseWriter, r *http.Request) {
	if s.dbController == nil {
		http.Error(w, "No database configured", http.StatusServiceUnavailable)
		return
	}
	jsonResult, err := s.dbController.FetchFullTableAsJSON(s.tableName(r))
	if err != nil {
		http.Error(w, "Error fetching table as JSON", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, jsonResult)
}

func (s *controlServer) tableName(r *http.Request) string {
	if table := r.FormValue("table"); table != "" {
		return table
	}
	return s.dbController.Table()
}

type wsStateMessage struct {
	Uid                 string                     `json:"uid"`
	Found               bool                       `json:"found"`
	CurrentRunId        string                     `json:"current_run_id,omitempty"`
	CurrentSessionCount int                        `json:"current_session_count"`
	MaxSessionCount     int                        `json:"max_session_count"`
	LastState           *ed_controllers.EpochState `json:"last_state,omitempty"`
}

// sessionStateWSHandler answers every session uid received, plain or as
// {"id": uid}, with a snapshot of that session's latest epoch state.
func (s *controlServer) sessionStateWSHandler(ws *websocket.Conn) {
	defer ws.Close()

	for {
		var uid string
		if err := websocket.Message.Receive(ws, &uid); err != nil {
			if err != io.EOF {
				fmt.Printf("WS read error: %v\n", err)
			}
			return
		}
		uid = strings.TrimSpace(uid)
		if strings.HasPrefix(uid, "{") {
			var request struct {
				Id string `json:"id"`
			}
			if err := json.Unmarshal([]byte(uid), &request); err != nil {
				fmt.Printf("WS parse error: %v\n", err)
				continue
			}
			uid = request.Id
		}

		reply := wsStateMessage{Uid: uid}
		s.sessionMap.Mutex.RLock()
		if session, found := s.sessionMap.Sessions[uid]; found {
			reply.Found = true
			reply.CurrentRunId = session.CurrentRunId
			reply.CurrentSessionCount = session.CurrentSessionCount
			reply.MaxSessionCount = session.MaxSessionCount
			if session.LastState != nil {
				state := *session.LastState
				reply.LastState = &state
			}
		}
		s.sessionMap.Mutex.RUnlock()

		data, err := json.Marshal(reply)
		if err != nil {
			return
		}
		if err := websocket.Message.Send(ws, string(data)); err != nil {
			return
		}
	}
}
