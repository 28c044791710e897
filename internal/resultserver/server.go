package resultserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mariobadr/rhythm/internal/rlog"
)

// DefaultAddr is the listen address used when --serve-addr is not given.
const DefaultAddr = ":7403"

const (
	err404 = "Failed to fetch requested resource: %s"
	err500 = "Internal Server Error"
)

// Server is the HTTP front end onto a Registry of completed runs.
type Server struct {
	registry *Registry
	log      rlog.Logger
}

// New builds a Server backed by the given registry.
func New(registry *Registry, log rlog.Logger) *Server {
	if log == nil {
		log = rlog.Nop{}
	}
	return &Server{registry: registry, log: log}
}

// Router builds the gorilla/mux router exposing /runs and its two
// per-run breakdown endpoints.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/runs", s.handleListRuns)
	r.HandleFunc("/runs/{id}/time-stacks", s.handleTimeStacks)
	r.HandleFunc("/runs/{id}/sync-stacks", s.handleSyncStacks)
	return r
}

// ListenAndServe starts serving the registry's runs at addr. It blocks
// until the server stops or errors.
func (s *Server) ListenAndServe(addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	s.log.Infof("resultserver: listening on %s", addr)
	return http.ListenAndServe(addr, s.Router())
}

func (s *Server) handleListRuns(w http.ResponseWriter, req *http.Request) {
	sendJSON(w, map[string][]string{"runs": s.registry.IDs()})
}

func (s *Server) handleTimeStacks(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	run, err := s.registry.Get(id)
	if err != nil {
		writeStatusError(w, id, err)
		return
	}
	sendJSON(w, run.TimeStackRows())
}

func (s *Server) handleSyncStacks(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	run, err := s.registry.Get(id)
	if err != nil {
		writeStatusError(w, id, err)
		return
	}
	sendJSON(w, run.SyncStackRows())
}

// writeStatusError translates a grpc/status-coded registry error into the
// matching HTTP response, the same code-to-status mapping used by the
// teacher's own err404/err500 constants.
func writeStatusError(w http.ResponseWriter, id string, err error) {
	if status.Code(err) == codes.NotFound {
		http.Error(w, fmt.Sprintf(err404, id), http.StatusNotFound)
		return
	}
	http.Error(w, err500, http.StatusInternalServerError)
}

func sendJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err500, http.StatusInternalServerError)
	}
}
