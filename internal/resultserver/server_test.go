package resultserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mariobadr/rhythm/internal/common"
	"github.com/mariobadr/rhythm/internal/stats"
	"github.com/mariobadr/rhythm/internal/syncmodel"
)

func newTestServer(t *testing.T) (*Server, *Registry) {
	t.Helper()
	reg, err := NewRegistry(4)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return New(reg, nil), reg
}

func TestHandleListRuns(t *testing.T) {
	srv, reg := newTestServer(t)
	reg.Register("run-a", stats.New())

	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var body struct {
		Runs []string `json:"runs"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Runs) != 1 || body.Runs[0] != "run-a" {
		t.Fatalf("unexpected runs list: %+v", body.Runs)
	}
}

func TestHandleTimeStacksUnknownRunIs404(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs/missing/time-stacks", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestHandleTimeStacksReturnsRows(t *testing.T) {
	srv, reg := newTestServer(t)

	sm := syncmodel.NewState(nil)
	sm.AddThread(0)
	sm.LiveThreads[0] = true
	sm.Thread(0).Status = syncmodel.Finished

	s := stats.New()
	s.Tick(1_000_000_000, 0, common.Event{ThreadID: 0, Kind: common.ThreadFinish}, sm)
	reg.Register("run-a", s)

	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs/run-a/time-stacks", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var rows []stats.TimeStackRow
	if err := json.NewDecoder(rr.Body).Decode(&rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	found := false
	for _, row := range rows {
		if row.TID == 0 && row.Status == "total" && row.Time == 1.0 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a total row for thread 0 with time 1.0, got: %+v", rows)
	}
}

func TestHandleSyncStacksUnknownRunIs404(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/runs/missing/sync-stacks", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}
