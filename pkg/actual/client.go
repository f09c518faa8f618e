package actual

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ClientConfig represents the configuration for the ledger server client.
type ClientConfig struct {
	ServerURL string
	Password  string
	DataDir   string        // local cache directory for downloaded budgets
	Timeout   time.Duration // Default: 30 seconds
}

// Client is a ledger server API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	password   string
	token      string
	dataDir    string
}

// NewClient creates a new ledger server client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:  config.ServerURL,
		password: config.Password,
		dataDir:  config.DataDir,
	}
}

// Init authenticates against the server and prepares the local data
// directory. It must be called before any other operation.
func (c *Client) Init() error {
	if c.dataDir != "" {
		if err := os.MkdirAll(c.dataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	body := map[string]string{
		"loginMethod": "password",
		"password":    c.password,
	}

	var result struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}

	if err := c.post("/account/login", body, &result); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	c.token = result.Data.Token
	return nil
}

// DownloadBudget downloads a budget file into the local data directory and
// opens it for querying.
func (c *Client) DownloadBudget(budgetID string) error {
	body := map[string]string{
		"budgetId": budgetID,
		"dataDir":  c.dataDir,
	}

	if err := c.post(fmt.Sprintf("/budgets/%s/download", budgetID), body, nil); err != nil {
		return fmt.Errorf("failed to download budget %s: %w", budgetID, err)
	}

	return nil
}

// RunQuery executes a query descriptor and returns the raw data payload.
func (c *Client) RunQuery(q *Query) (json.RawMessage, error) {
	var result struct {
		Data json.RawMessage `json:"data"`
	}

	if err := c.post("/query", q, &result); err != nil {
		return nil, fmt.Errorf("query on %s failed: %w", q.Table, err)
	}

	return result.Data, nil
}

// UnlinkedTransactions returns all transactions with no schedule reference.
func (c *Client) UnlinkedTransactions() ([]Transaction, error) {
	data, err := c.RunQuery(Q("transactions").FilterEq("schedule", nil).Select("*"))
	if err != nil {
		return nil, err
	}

	var transactions []Transaction
	if err := json.Unmarshal(data, &transactions); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}

	return transactions, nil
}

// SchedulesByName returns all schedules whose name equals name exactly.
func (c *Client) SchedulesByName(name string) ([]Schedule, error) {
	data, err := c.RunQuery(Q("schedules").FilterEq("name", name).Select("*"))
	if err != nil {
		return nil, err
	}

	var schedules []Schedule
	if err := json.Unmarshal(data, &schedules); err != nil {
		return nil, fmt.Errorf("failed to decode schedules: %w", err)
	}

	return schedules, nil
}

// CreateSchedule creates a schedule with the given fields and conditions
// and returns the server-assigned id.
func (c *Client) CreateSchedule(fields ScheduleFields, conditions []Condition) (string, error) {
	body := map[string]any{
		"fields":     fields,
		"conditions": conditions,
	}

	var result struct {
		Data string `json:"data"`
	}

	if err := c.post("/schedules", body, &result); err != nil {
		return "", fmt.Errorf("failed to create schedule: %w", err)
	}

	return result.Data, nil
}

// UpdateSchedule partially updates a schedule by id. Nil conditions leave
// the existing condition set untouched; runActions false suppresses any
// side-effecting schedule actions on the server.
func (c *Client) UpdateSchedule(fields ScheduleFields, conditions []Condition, runActions bool) error {
	if fields.ID == nil {
		return fmt.Errorf("schedule update requires an id")
	}

	body := map[string]any{
		"fields":     fields,
		"conditions": conditions,
		"runActions": runActions,
	}

	if err := c.post(fmt.Sprintf("/schedules/%s", *fields.ID), body, nil); err != nil {
		return fmt.Errorf("failed to update schedule %s: %w", *fields.ID, err)
	}

	return nil
}

// UpdateTransaction partially updates a transaction by id.
func (c *Client) UpdateTransaction(id string, fields TransactionUpdate) error {
	if err := c.post(fmt.Sprintf("/transactions/%s", id), fields, nil); err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", id, err)
	}

	return nil
}

// Sync pushes pending local changes to the server.
func (c *Client) Sync() error {
	if err := c.post("/sync", nil, nil); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	return nil
}

// Shutdown releases the session and closes idle connections.
func (c *Client) Shutdown() error {
	err := c.post("/account/logout", nil, nil)
	c.httpClient.CloseIdleConnections()
	if err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	return nil
}

// post sends a JSON POST request and decodes the response into out when
// out is non-nil.
func (c *Client) post(path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest("POST", c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("X-ACTUAL-TOKEN", c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.parseError(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// parseError parses an error response from the server.
func (c *Client) parseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("server error (status %d): failed to read error response", resp.StatusCode)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return fmt.Errorf("server error (status %d): %s", resp.StatusCode, string(body))
	}

	if errResp.Description != "" {
		return fmt.Errorf("server error: %s - %s", errResp.Error, errResp.Description)
	}

	return fmt.Errorf("server error: %s", errResp.Error)
}
