package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deadlocklab/ragsim/pkg/graphio"
	"github.com/deadlocklab/ragsim/pkg/store"
)

func newTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()
	st := store.NewMemoryStore()
	t.Cleanup(func() { st.Close() })
	ts := httptest.NewServer(New(st, nil).Router())
	t.Cleanup(ts.Close)
	return ts, st
}

func cycleRecord() graphio.Record {
	return graphio.Record{
		Processes: []string{"P1", "P2"},
		Resources: []graphio.ResourceRecord{
			{ID: "R1", TotalInstances: 1},
			{ID: "R2", TotalInstances: 1},
		},
		Allocations: []graphio.AllocationRecord{
			{Resource: "R1", Process: "P1", Count: 1},
			{Resource: "R2", Process: "P2", Count: 1},
		},
		Requests: []graphio.RequestRecord{
			{Process: "P1", Resource: "R2", Count: 1},
			{Process: "P2", Resource: "R1", Count: 1},
		},
	}
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestDetectEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/detect", cycleRecord())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	out := decode[DetectResponse](t, resp)

	if !out.Deadlock {
		t.Error("expected deadlock")
	}
	if len(out.Deadlocked) != 2 || out.Deadlocked[0] != "P1" {
		t.Errorf("Deadlocked = %v", out.Deadlocked)
	}
	if len(out.Suggestions) == 0 {
		t.Error("expected suggestions")
	}
	if !strings.Contains(out.Guide, "Deadlock Resolution Guide") {
		t.Errorf("Guide = %q", out.Guide)
	}
}

func TestDetectEndpointRejectsInvalidRecord(t *testing.T) {
	ts, _ := newTestServer(t)

	rec := cycleRecord()
	rec.Requests[0].Resource = "R9" // dangling endpoint

	resp := postJSON(t, ts.URL+"/api/detect", rec)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestDetectEndpointRejectsMalformedJSON(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/detect", "application/json", strings.NewReader("{oops"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestScenarioCRUD(t *testing.T) {
	ts, _ := newTestServer(t)

	// Create
	resp := postJSON(t, ts.URL+"/api/scenarios", store.Scenario{Name: "cycle", Record: cycleRecord()})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	created := decode[store.Scenario](t, resp)
	if created.ID == "" {
		t.Fatal("created scenario has no ID")
	}

	// Read
	resp, err := http.Get(ts.URL + "/api/scenarios/" + created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	got := decode[store.Scenario](t, resp)
	if got.Name != "cycle" {
		t.Errorf("got %+v", got)
	}

	// List
	resp, err = http.Get(ts.URL + "/api/scenarios")
	if err != nil {
		t.Fatal(err)
	}
	list := decode[[]store.Scenario](t, resp)
	if len(list) != 1 {
		t.Errorf("list has %d scenarios, want 1", len(list))
	}

	// Detect on saved scenario
	resp, err = http.Get(ts.URL + "/api/scenarios/" + created.ID + "/detect")
	if err != nil {
		t.Fatal(err)
	}
	det := decode[DetectResponse](t, resp)
	if !det.Deadlock {
		t.Error("saved scenario should deadlock")
	}

	// DOT export
	resp, err = http.Get(ts.URL + "/api/scenarios/" + created.ID + "/dot")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if !strings.Contains(buf.String(), "digraph RAG") {
		t.Errorf("dot export = %q", buf.String())
	}

	// Delete
	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/scenarios/"+created.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/scenarios/" + created.ID)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", resp.StatusCode)
	}
}

func TestCreateScenarioRejectsInvalidRecord(t *testing.T) {
	ts, st := newTestServer(t)

	rec := cycleRecord()
	rec.Resources[0].TotalInstances = 0

	resp := postJSON(t, ts.URL+"/api/scenarios", store.Scenario{Name: "bad", Record: rec})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	// Nothing may have been persisted.
	scs, err := st.List(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if len(scs) != 0 {
		t.Error("invalid scenario was persisted")
	}
}
