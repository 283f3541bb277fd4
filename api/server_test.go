package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lufenny/wealthsim/internal/config"
	"github.com/lufenny/wealthsim/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Assumptions = config.AssumptionsConfig{
		HorizonYears:      30,
		PropertyPrice:     500000,
		DownPaymentFrac:   0.10,
		MortgageRate:      0.04,
		MortgageTermYears: 30,
		AppreciationRate:  0.03,
		RentMonthly:       1500,
		RentGrowthRate:    0.02,
		InvestReturnRate:  0.05,
	}
	cfg.Engine = config.EngineConfig{Parallel: true, MaxWorkers: 4}
	cfg.Scenarios = config.ScenariosConfig{Presets: map[string]map[string]float64{
		"baseline":    {"invest_return_rate": 0.05},
		"optimistic":  {"invest_return_rate": 0.08},
		"pessimistic": {"invest_return_rate": 0.03},
	}}
	// Rate limiting off by default so tests exercise handlers freely
	cfg.API = config.APIConfig{Host: "127.0.0.1", Port: 8080}
	return cfg
}

func testServer(t *testing.T) *Server {
	t.Helper()
	srv, err := NewServer(testConfig())
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	go srv.wsHub.Run()
	return srv
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

// decodeData unwraps a successful envelope into a typed payload.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Fatalf("request failed: %s", resp.Error)
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		t.Fatalf("failed to decode data payload: %v", err)
	}
}

// ════════════════════════════════════════════════════════════════════
// Envelope and helper tests
// ════════════════════════════════════════════════════════════════════

func TestAPIResponseJSON(t *testing.T) {
	tests := []struct {
		name string
		resp APIResponse
	}{
		{
			name: "success with data",
			resp: APIResponse{Success: true, Data: map[string]string{"key": "value"}},
		},
		{
			name: "error",
			resp: APIResponse{Success: false, Error: "something went wrong"},
		},
		{
			name: "success with nil data",
			resp: APIResponse{Success: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.resp)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}

			var got APIResponse
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}

			if got.Success != tt.resp.Success {
				t.Errorf("Success: got %v, want %v", got.Success, tt.resp.Success)
			}
			if got.Error != tt.resp.Error {
				t.Errorf("Error: got %q, want %q", got.Error, tt.resp.Error)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusTeapot, APIResponse{Success: true})

	if rec.Code != http.StatusTeapot {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusTeapot)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type: got %q", ct)
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusBadRequest, "bad input")

	resp := decodeResponse(t, rec)
	if resp.Success {
		t.Error("error responses must not be marked successful")
	}
	if resp.Error != "bad input" {
		t.Errorf("error: got %q, want %q", resp.Error, "bad input")
	}
}

func TestStatusForError(t *testing.T) {
	iae := &models.InvalidAssumptionError{Field: "property_price", Constraint: "must be positive"}
	if got := statusForError(iae); got != http.StatusBadRequest {
		t.Errorf("invalid assumption: got %d, want 400", got)
	}
	if got := statusForError(http.ErrServerClosed); got != http.StatusInternalServerError {
		t.Errorf("other error: got %d, want 500", got)
	}
}

// ════════════════════════════════════════════════════════════════════
// Health and reference data
// ════════════════════════════════════════════════════════════════════

func TestHandleHealth(t *testing.T) {
	s := testServer(t)
	rec := doRequest(t, s, http.MethodGet, "/health", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	var data map[string]interface{}
	decodeData(t, rec, &data)
	if data["status"] != "ok" {
		t.Errorf("status field: got %v", data["status"])
	}
	if data["version"] != "dev" {
		t.Errorf("version: got %v, want dev", data["version"])
	}
	if data["data_years"] != "2010-2024" {
		t.Errorf("data_years: got %v, want 2010-2024", data["data_years"])
	}
}

func TestHandleDefaults(t *testing.T) {
	s := testServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/defaults", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	var data struct {
		Assumptions models.AssumptionSet `json:"assumptions"`
		Presets     []models.Scenario    `json:"presets"`
		Sweepable   []string             `json:"sweepable"`
	}
	decodeData(t, rec, &data)
	if data.Assumptions.PropertyPrice != 500000 {
		t.Errorf("property price: got %v, want 500000", data.Assumptions.PropertyPrice)
	}
	if len(data.Presets) != 3 || data.Presets[0].Name != "baseline" {
		t.Errorf("presets: got %+v", data.Presets)
	}
	if len(data.Sweepable) == 0 {
		t.Error("sweepable parameter list missing")
	}
}

func TestHandleRates(t *testing.T) {
	s := testServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/rates", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	var data struct {
		Rows    []map[string]interface{} `json:"rows"`
		Derived struct {
			FromData bool `json:"from_data"`
		} `json:"derived"`
	}
	decodeData(t, rec, &data)
	if len(data.Rows) != 15 {
		t.Errorf("rows: got %d, want 15", len(data.Rows))
	}
	if !data.Derived.FromData {
		t.Error("derived assumptions should be data-backed")
	}
}

// ════════════════════════════════════════════════════════════════════
// Projection endpoint
// ════════════════════════════════════════════════════════════════════

func TestHandleProject_Defaults(t *testing.T) {
	s := testServer(t)
	rec := doRequest(t, s, http.MethodPost, "/api/v1/project", "{}")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var data struct {
		Projection   *models.Projection  `json:"projection"`
		TippingPoint models.TippingPoint `json:"tipping_point"`
	}
	decodeData(t, rec, &data)
	if data.Projection == nil {
		t.Fatal("projection missing")
	}
	if got := len(data.Projection.Years); got != 31 {
		t.Errorf("years: got %d, want horizon+1 = 31", got)
	}
	if data.Projection.Buy.Len() != data.Projection.Rent.Len() {
		t.Error("series lengths must match")
	}
}

func TestHandleProject_Overrides(t *testing.T) {
	s := testServer(t)
	body := `{"overrides": {"invest_return_rate": 0.08, "horizon_years": 10}}`
	rec := doRequest(t, s, http.MethodPost, "/api/v1/project", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var data struct {
		Projection *models.Projection `json:"projection"`
	}
	decodeData(t, rec, &data)
	if got := data.Projection.Assumptions.InvestReturnRate; got != 0.08 {
		t.Errorf("invest return: got %v, want 0.08", got)
	}
	if got := len(data.Projection.Years); got != 11 {
		t.Errorf("years: got %d, want 11", got)
	}
}

func TestHandleProject_InvalidJSON(t *testing.T) {
	s := testServer(t)
	rec := doRequest(t, s, http.MethodPost, "/api/v1/project", "{not json")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
	if resp := decodeResponse(t, rec); resp.Success {
		t.Error("expected failure envelope")
	}
}

func TestHandleProject_InvalidAssumptions(t *testing.T) {
	s := testServer(t)
	a := models.DefaultAssumptions()
	a.DownPaymentFrac = 1.5
	body, _ := json.Marshal(ProjectRequest{Assumptions: &a})
	rec := doRequest(t, s, http.MethodPost, "/api/v1/project", string(body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if !strings.Contains(resp.Error, "down_payment_frac") {
		t.Errorf("error should name the offending field: %q", resp.Error)
	}
}

func TestHandleProject_UnknownOverride(t *testing.T) {
	s := testServer(t)
	rec := doRequest(t, s, http.MethodPost, "/api/v1/project", `{"overrides": {"weird": 1}}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}

// ════════════════════════════════════════════════════════════════════
// Scenarios endpoint
// ════════════════════════════════════════════════════════════════════

func TestHandleScenarios_Presets(t *testing.T) {
	s := testServer(t)
	rec := doRequest(t, s, http.MethodPost, "/api/v1/scenarios", "{}")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var batch models.BatchResult
	decodeData(t, rec, &batch)
	if len(batch.Outcomes) != 3 {
		t.Fatalf("outcomes: got %d, want 3", len(batch.Outcomes))
	}
	wantNames := []string{"baseline", "optimistic", "pessimistic"}
	for i, o := range batch.Outcomes {
		if o.Name != wantNames[i] {
			t.Errorf("outcome %d: got %q, want %q", i, o.Name, wantNames[i])
		}
		if !o.OK() {
			t.Errorf("outcome %q failed: %v", o.Name, o.Err)
		}
	}
}

func TestHandleScenarios_PartialFailure(t *testing.T) {
	s := testServer(t)
	good := models.DefaultAssumptions()
	bad := models.DefaultAssumptions()
	bad.PropertyPrice = -1
	body, _ := json.Marshal(ScenariosRequest{Scenarios: []models.Scenario{
		{Name: "good", Assumptions: good},
		{Name: "bad", Assumptions: bad},
	}})
	rec := doRequest(t, s, http.MethodPost, "/api/v1/scenarios", string(body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 with per-scenario errors", rec.Code)
	}
	var batch models.BatchResult
	decodeData(t, rec, &batch)
	if !batch.Outcomes[0].OK() {
		t.Errorf("good scenario failed: %v", batch.Outcomes[0].Err)
	}
	if batch.Outcomes[1].OK() {
		t.Error("bad scenario should carry an error descriptor")
	} else if batch.Outcomes[1].Err.Kind != models.ErrKindInvalidAssumption {
		t.Errorf("error kind: got %q", batch.Outcomes[1].Err.Kind)
	}
}

func TestHandleScenarios_DuplicateNames(t *testing.T) {
	s := testServer(t)
	a := models.DefaultAssumptions()
	body, _ := json.Marshal(ScenariosRequest{Scenarios: []models.Scenario{
		{Name: "twin", Assumptions: a},
		{Name: "twin", Assumptions: a},
	}})
	rec := doRequest(t, s, http.MethodPost, "/api/v1/scenarios", string(body))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}

// ════════════════════════════════════════════════════════════════════
// Sweep endpoint
// ════════════════════════════════════════════════════════════════════

func TestHandleSweep_Range(t *testing.T) {
	s := testServer(t)
	body := `{"axes": [{"param": "invest_return_rate", "min": 0.04, "max": 0.06, "steps": 3}]}`
	rec := doRequest(t, s, http.MethodPost, "/api/v1/sweep", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var grid models.SensitivityGrid
	decodeData(t, rec, &grid)
	if len(grid.Cells) != 3 {
		t.Fatalf("cells: got %d, want 3", len(grid.Cells))
	}
	vals := grid.Axes[0].Values
	if vals[0] != 0.04 || vals[2] != 0.06 {
		t.Errorf("axis endpoints: got %v", vals)
	}
	for i, c := range grid.Cells {
		if !c.OK() {
			t.Errorf("cell %d failed: %v", i, c.Err)
		}
		if c.Projection != nil {
			t.Errorf("cell %d retained a projection without keep_results", i)
		}
	}
}

func TestHandleSweep_KeepResults(t *testing.T) {
	s := testServer(t)
	body := `{"axes": [{"param": "mortgage_rate", "values": [0.03, 0.05]}], "keep_results": true}`
	rec := doRequest(t, s, http.MethodPost, "/api/v1/sweep", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var grid models.SensitivityGrid
	decodeData(t, rec, &grid)
	for i, c := range grid.Cells {
		if c.Projection == nil {
			t.Fatalf("cell %d: projection not retained", i)
		}
		if got := len(c.Projection.Years); got != 31 {
			t.Errorf("cell %d: years got %d, want 31", i, got)
		}
	}
}

func TestHandleSweep_ValuesAndRangeConflict(t *testing.T) {
	s := testServer(t)
	body := `{"axes": [{"param": "mortgage_rate", "values": [0.03], "min": 0.02, "max": 0.05, "steps": 4}]}`
	rec := doRequest(t, s, http.MethodPost, "/api/v1/sweep", body)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}

func TestHandleSweep_TooManyAxes(t *testing.T) {
	s := testServer(t)
	body := `{"axes": [
		{"param": "mortgage_rate", "values": [0.03]},
		{"param": "invest_return_rate", "values": [0.05]},
		{"param": "appreciation_rate", "values": [0.02]}
	]}`
	rec := doRequest(t, s, http.MethodPost, "/api/v1/sweep", body)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}

func TestHandleSweep_NoAxes(t *testing.T) {
	s := testServer(t)
	rec := doRequest(t, s, http.MethodPost, "/api/v1/sweep", "{}")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}

// ════════════════════════════════════════════════════════════════════
// Middleware
// ════════════════════════════════════════════════════════════════════

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.API.RatePerSecond = 1
	cfg.API.RateBurst = 1
	s, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	first := doRequest(t, s, http.MethodGet, "/api/v1/defaults", "")
	if first.Code != http.StatusOK {
		t.Fatalf("first request: got %d, want 200", first.Code)
	}
	second := doRequest(t, s, http.MethodGet, "/api/v1/defaults", "")
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second request: got %d, want 429", second.Code)
	}

	// /health stays reachable when the API is throttled
	health := doRequest(t, s, http.MethodGet, "/health", "")
	if health.Code != http.StatusOK {
		t.Errorf("health: got %d, want 200", health.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := testServer(t)
	doRequest(t, s, http.MethodGet, "/health", "")

	rec := doRequest(t, s, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "wealthsim_requests_total") {
		t.Error("request counter family missing from /metrics output")
	}
}

// ════════════════════════════════════════════════════════════════════
// WebSocket hub
// ════════════════════════════════════════════════════════════════════

func TestWSHub_NewWSHub(t *testing.T) {
	hub := NewWSHub()
	if hub == nil {
		t.Fatal("NewWSHub returned nil")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount: got %d, want 0", hub.ClientCount())
	}
}

func TestWSHub_RegisterAndUnregister(t *testing.T) {
	hub := NewWSHub()
	go hub.Run()

	// Give hub time to start
	time.Sleep(10 * time.Millisecond)

	client := &WSClient{
		hub:  hub,
		send: make(chan WSMessage, 256),
	}

	hub.Register(client)
	time.Sleep(10 * time.Millisecond)
	if hub.ClientCount() != 1 {
		t.Errorf("after register: ClientCount=%d, want 1", hub.ClientCount())
	}

	hub.Unregister(client)
	time.Sleep(10 * time.Millisecond)
	if hub.ClientCount() != 0 {
		t.Errorf("after unregister: ClientCount=%d, want 0", hub.ClientCount())
	}
}

func TestWSHub_Broadcast(t *testing.T) {
	hub := NewWSHub()
	go hub.Run()
	time.Sleep(10 * time.Millisecond)

	client1 := &WSClient{hub: hub, send: make(chan WSMessage, 256)}
	client2 := &WSClient{hub: hub, send: make(chan WSMessage, 256)}

	hub.Register(client1)
	hub.Register(client2)
	time.Sleep(10 * time.Millisecond)

	msg := WSMessage{Type: EventBatchProgress, Data: map[string]int{"done": 1, "total": 3}}
	hub.Broadcast(msg)

	// Both clients should receive the message
	select {
	case got := <-client1.send:
		if got.Type != EventBatchProgress {
			t.Errorf("client1 got type=%q", got.Type)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("client1 did not receive message")
	}

	select {
	case got := <-client2.send:
		if got.Type != EventBatchProgress {
			t.Errorf("client2 got type=%q", got.Type)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("client2 did not receive message")
	}

	hub.Unregister(client1)
	hub.Unregister(client2)
}

func TestWSHub_ConcurrentRegisterUnregister(t *testing.T) {
	hub := NewWSHub()
	go hub.Run()
	time.Sleep(10 * time.Millisecond)

	const numClients = 20
	clients := make([]*WSClient, numClients)
	for i := range clients {
		clients[i] = &WSClient{hub: hub, send: make(chan WSMessage, 256)}
	}

	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Add(1)
		go func(c *WSClient) {
			defer wg.Done()
			hub.Register(c)
		}(c)
	}
	wg.Wait()
	time.Sleep(10 * time.Millisecond)
	if hub.ClientCount() != numClients {
		t.Errorf("ClientCount: got %d, want %d", hub.ClientCount(), numClients)
	}

	for _, c := range clients {
		wg.Add(1)
		go func(c *WSClient) {
			defer wg.Done()
			hub.Unregister(c)
		}(c)
	}
	wg.Wait()
	time.Sleep(10 * time.Millisecond)
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount after drain: got %d, want 0", hub.ClientCount())
	}
}

func TestProjectBroadcastsCompletion(t *testing.T) {
	s := testServer(t)
	time.Sleep(10 * time.Millisecond)

	client := &WSClient{hub: s.wsHub, send: make(chan WSMessage, 256)}
	s.wsHub.Register(client)
	time.Sleep(10 * time.Millisecond)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/project", "{}")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	select {
	case got := <-client.send:
		if got.Type != EventProjectionComplete {
			t.Errorf("event type: got %q, want %q", got.Type, EventProjectionComplete)
		}
	case <-time.After(200 * time.Millisecond):
		t.Error("no completion event broadcast")
	}

	s.wsHub.Unregister(client)
}
