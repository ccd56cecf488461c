package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"study/internal/clock"
)

const (
	loginEndpoint  = "/api/collections/_superusers/auth-with-password"
	eventsEndpoint = "/api/collections/study_events/records"
	envFile        = ".env"
)

// Aggregate is one pre-totaled statistics record for a single window and
// user. The backend does all aggregation; this side never folds per-event
// entries. Focus time is in seconds.
type Aggregate struct {
	FocusTime int `json:"focusTime"`
	Sessions  int `json:"sessions"`
	TasksDone int `json:"tasksDone"`
}

// AuthResponse represents the authentication response from the backend
type AuthResponse struct {
	Token string `json:"token"`
	Admin struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"admin"`
}

// ErrorResponse represents an error response from the backend
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// Client talks to the statistics backend. It authenticates with a password
// and refreshes the token once when a request comes back 401/403.
type Client struct {
	BaseURL   string
	AuthToken string
	Client    *http.Client
	email     string
	password  string
}

// NewClient initializes a backend client. Credentials come from the
// environment (optionally a .env file): STATS_URL, STATS_EMAIL,
// STATS_PASSWORD.
func NewClient() (*Client, error) {
	// The .env file is optional; the variables may already be exported.
	_ = godotenv.Load(envFile)

	statsURL := os.Getenv("STATS_URL")
	statsEmail := os.Getenv("STATS_EMAIL")
	statsPassword := os.Getenv("STATS_PASSWORD")

	if statsURL == "" || statsEmail == "" || statsPassword == "" {
		return nil, fmt.Errorf("missing required environment variables: STATS_URL, STATS_EMAIL, STATS_PASSWORD")
	}

	baseURL := statsURL
	if !strings.HasPrefix(baseURL, "http") {
		baseURL = "http://" + baseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	client := &Client{
		BaseURL:  baseURL,
		Client:   &http.Client{Timeout: 10 * time.Second},
		email:    statsEmail,
		password: statsPassword,
	}

	token, err := client.authenticate()
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	client.AuthToken = token
	log.Info("Statistics backend client initialized")
	return client, nil
}

// FetchAggregate fetches the pre-aggregated statistics object for one
// window, local date boundary and user. The backend returns exactly one
// object per request with underscored field names.
func (c *Client) FetchAggregate(ctx context.Context, w clock.Window, boundary clock.Date, user string) (Aggregate, error) {
	u, err := url.Parse(c.BaseURL + "/statistics")
	if err != nil {
		return Aggregate{}, fmt.Errorf("failed to parse URL: %w", err)
	}

	q := u.Query()
	q.Set("window", string(w))
	q.Set("date", boundary.String())
	q.Set("userId", user)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Aggregate{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.DoRequest(req)
	if err != nil {
		return Aggregate{}, fmt.Errorf("failed to fetch statistics: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Aggregate{}, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return Aggregate{}, fmt.Errorf("statistics request failed with status %d: %s", resp.StatusCode, string(body))
		}
		return Aggregate{}, fmt.Errorf("statistics request failed: %s", errResp.Message)
	}

	agg, err := decodeAggregate(body)
	if err != nil {
		log.Error("Statistics response violates the aggregate contract", "window", w, "date", boundary.String(), "error", err)
		return Aggregate{}, err
	}

	return agg, nil
}

// decodeAggregate maps the backend's underscored single-object payload onto
// the local model. Fields absent in the payload stay zero. A sequence-shaped
// payload is a contract violation and is rejected here, before any caller
// could try to iterate it.
func decodeAggregate(body []byte) (Aggregate, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return Aggregate{}, fmt.Errorf("statistics response is a sequence, expected a single aggregate object")
	}

	var wire struct {
		FocusTime int `json:"focus_time"`
		Sessions  int `json:"sessions"`
		TasksDone int `json:"tasks_done"`
	}
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return Aggregate{}, fmt.Errorf("failed to parse aggregate: %w", err)
	}

	return Aggregate{
		FocusTime: wire.FocusTime,
		Sessions:  wire.Sessions,
		TasksDone: wire.TasksDone,
	}, nil
}

// LogFocusTime records logged focus seconds under the user's local date.
func (c *Client) LogFocusTime(ctx context.Context, user string, date clock.Date, seconds int) error {
	return c.addEvent(ctx, "focus", user, date, seconds)
}

// CompleteSession records one completed study session.
func (c *Client) CompleteSession(ctx context.Context, user string, date clock.Date) error {
	return c.addEvent(ctx, "session", user, date, 0)
}

// CompleteTask records one completed task.
func (c *Client) CompleteTask(ctx context.Context, user string, date clock.Date) error {
	return c.addEvent(ctx, "task", user, date, 0)
}

func (c *Client) addEvent(ctx context.Context, kind, user string, date clock.Date, seconds int) error {
	record := map[string]any{
		"user":      user,
		"kind":      kind,
		"date":      date.String(),
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if seconds > 0 {
		record["seconds"] = seconds
	}

	jsonData, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+eventsEndpoint, strings.NewReader(string(jsonData)))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.DoRequest(req)
	if err != nil {
		return fmt.Errorf("failed to send event: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return fmt.Errorf("event write failed with status %d: %s", resp.StatusCode, string(body))
		}
		return fmt.Errorf("event write failed: %s", errResp.Message)
	}

	log.Info("Recorded study event", "kind", kind, "user", user, "date", date.String())
	return nil
}

// DoRequest executes an HTTP request with auth token and automatic token
// refresh on 401/403.
func (c *Client) DoRequest(req *http.Request) (*http.Response, error) {
	return c.doRequestWithRetry(req, true)
}

func (c *Client) doRequestWithRetry(req *http.Request, canRetry bool) (*http.Response, error) {
	req.Header.Set("Authorization", c.AuthToken)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}

	if (resp.StatusCode == 401 || resp.StatusCode == 403) && canRetry {
		resp.Body.Close()
		log.Info("Auth token expired, refreshing...")
		token, err := c.authenticate()
		if err != nil {
			return nil, fmt.Errorf("failed to refresh token: %w", err)
		}
		c.AuthToken = token
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("failed to rewind request body: %w", err)
			}
			req.Body = body
		}
		req.Header.Set("Authorization", c.AuthToken)
		return c.doRequestWithRetry(req, false)
	}

	return resp, nil
}

func (c *Client) authenticate() (string, error) {
	data := map[string]string{
		"identity": c.email,
		"password": c.password,
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest("POST", c.BaseURL+loginEndpoint, strings.NewReader(string(jsonData)))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return "", fmt.Errorf("authentication failed with status %d: %s", resp.StatusCode, string(body))
		}
		return "", fmt.Errorf("authentication failed: %s", errResp.Message)
	}

	var authResp AuthResponse
	if err := json.Unmarshal(body, &authResp); err != nil {
		return "", err
	}

	return authResp.Token, nil
}
