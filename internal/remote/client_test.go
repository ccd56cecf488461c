package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"study/internal/clock"
)

func testClient(srv *httptest.Server) *Client {
	return &Client{
		BaseURL:   srv.URL,
		AuthToken: "test-token",
		Client:    srv.Client(),
		email:     "admin@example.com",
		password:  "secret",
	}
}

func TestFetchAggregateMapsUnderscoredFields(t *testing.T) {
	boundary := clock.Date{Year: 2025, Month: time.June, Day: 19}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/statistics" {
			t.Errorf("Unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("window") != "daily" || q.Get("date") != "2025-06-19" || q.Get("userId") != "alice" {
			t.Errorf("Unexpected query %q", r.URL.RawQuery)
		}
		w.Write([]byte(`{"focus_time": 501, "sessions": 3, "tasks_done": 2}`))
	}))
	defer srv.Close()

	agg, err := testClient(srv).FetchAggregate(context.Background(), clock.Daily, boundary, "alice")
	if err != nil {
		t.Fatalf("FetchAggregate failed: %v", err)
	}

	want := Aggregate{FocusTime: 501, Sessions: 3, TasksDone: 2}
	if agg != want {
		t.Errorf("FetchAggregate = %+v, want %+v", agg, want)
	}
}

func TestFetchAggregateDefaultsMissingFieldsToZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sessions": 2}`))
	}))
	defer srv.Close()

	agg, err := testClient(srv).FetchAggregate(context.Background(), clock.Daily, clock.Date{Year: 2025, Month: time.June, Day: 19}, "alice")
	if err != nil {
		t.Fatalf("FetchAggregate failed: %v", err)
	}

	want := Aggregate{FocusTime: 0, Sessions: 2, TasksDone: 0}
	if agg != want {
		t.Errorf("FetchAggregate = %+v, want %+v", agg, want)
	}
}

// TestFetchAggregateRejectsSequence: the backend contract is one object per
// window. An array response must be an explicit error at the mapping
// boundary, not a type error somewhere downstream.
func TestFetchAggregateRejectsSequence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"focus_time": 501, "sessions": 3, "tasks_done": 2}]`))
	}))
	defer srv.Close()

	_, err := testClient(srv).FetchAggregate(context.Background(), clock.Daily, clock.Date{Year: 2025, Month: time.June, Day: 19}, "alice")
	if err == nil {
		t.Fatal("Expected an error for a sequence-shaped response")
	}
	if !strings.Contains(err.Error(), "single aggregate object") {
		t.Errorf("Error should name the contract violation, got: %v", err)
	}
}

func TestFetchAggregateStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ErrorResponse{Code: 500, Message: "backend on fire"})
	}))
	defer srv.Close()

	_, err := testClient(srv).FetchAggregate(context.Background(), clock.Daily, clock.Date{Year: 2025, Month: time.June, Day: 19}, "alice")
	if err == nil {
		t.Fatal("Expected an error for a 500 response")
	}
	if !strings.Contains(err.Error(), "backend on fire") {
		t.Errorf("Error should carry the backend message, got: %v", err)
	}
}

func TestLogFocusTimeSendsEventRecord(t *testing.T) {
	var got map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != eventsEndpoint {
			t.Errorf("Unexpected path %q", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("Unexpected method %q", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode event body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id": "abc123"}`))
	}))
	defer srv.Close()

	date := clock.Date{Year: 2025, Month: time.June, Day: 19}
	if err := testClient(srv).LogFocusTime(context.Background(), "alice", date, 1800); err != nil {
		t.Fatalf("LogFocusTime failed: %v", err)
	}

	if got["user"] != "alice" || got["kind"] != "focus" || got["date"] != "2025-06-19" {
		t.Errorf("Unexpected event record: %+v", got)
	}
	if seconds, _ := got["seconds"].(float64); int(seconds) != 1800 {
		t.Errorf("Expected 1800 seconds, got %v", got["seconds"])
	}
}

func TestCompleteSessionAndTaskKinds(t *testing.T) {
	var kinds []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var record map[string]any
		json.NewDecoder(r.Body).Decode(&record)
		kinds = append(kinds, record["kind"].(string))
		w.Write([]byte(`{"id": "abc123"}`))
	}))
	defer srv.Close()

	c := testClient(srv)
	date := clock.Date{Year: 2025, Month: time.June, Day: 19}

	if err := c.CompleteSession(context.Background(), "alice", date); err != nil {
		t.Fatalf("CompleteSession failed: %v", err)
	}
	if err := c.CompleteTask(context.Background(), "alice", date); err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}

	if len(kinds) != 2 || kinds[0] != "session" || kinds[1] != "task" {
		t.Errorf("Unexpected event kinds: %v", kinds)
	}
}

// TestTokenRefreshOnUnauthorized: a 401 triggers one re-authentication and a
// retry with the new token.
func TestTokenRefreshOnUnauthorized(t *testing.T) {
	var statisticsCalls int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case loginEndpoint:
			json.NewEncoder(w).Encode(AuthResponse{Token: "fresh-token"})
		case "/statistics":
			statisticsCalls++
			if r.Header.Get("Authorization") != "fresh-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{"focus_time": 60}`))
		default:
			t.Errorf("Unexpected path %q", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := testClient(srv) // starts with a stale token
	agg, err := c.FetchAggregate(context.Background(), clock.Daily, clock.Date{Year: 2025, Month: time.June, Day: 19}, "alice")
	if err != nil {
		t.Fatalf("FetchAggregate failed: %v", err)
	}

	if agg.FocusTime != 60 {
		t.Errorf("FocusTime = %d, want 60", agg.FocusTime)
	}
	if statisticsCalls != 2 {
		t.Errorf("Expected 2 statistics calls (401 then retry), got %d", statisticsCalls)
	}
	if c.AuthToken != "fresh-token" {
		t.Errorf("AuthToken = %q, want refreshed token", c.AuthToken)
	}
}
