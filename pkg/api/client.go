package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"rolltodo/pkg/utils"
)

// DefaultBaseURL is the hosted Task Store.
const DefaultBaseURL = "https://todo-list-5-bc98.onrender.com"

// Options configures a Client.
type Options struct {
	BaseURL string

	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration

	// RequestsPerSecond throttles outgoing calls. Zero means unlimited.
	RequestsPerSecond float64

	// HTTPClient overrides the transport (tests).
	HTTPClient *http.Client
}

// Client implements Store over HTTP/JSON.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

var _ Store = (*Client)(nil)

// New creates a Client from opts.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", opts.BaseURL, err)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	c := &Client{baseURL: base, http: hc}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return c, nil
}

// BaseURL returns the store root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type credentials struct {
	RollNumber string `json:"roll_number"`
	Password   string `json:"password"`
}

type messageResponse struct {
	Msg   string `json:"msg"`
	Error string `json:"error"`
	ID    string `json:"id"`
}

// Login checks credentials. A rejection is not an error: it is reported in
// the result with the store's message.
func (c *Client) Login(ctx context.Context, rollNumber, password string) (LoginResult, error) {
	var resp messageResponse
	status, err := c.do(ctx, http.MethodPost, "/api/login", credentials{rollNumber, password}, &resp)
	if err != nil && status == 0 {
		return LoginResult{}, err
	}
	if resp.Msg == LoginSuccessMessage {
		return LoginResult{Success: true, Message: resp.Msg}, nil
	}
	msg := resp.Error
	if msg == "" {
		msg = resp.Msg
	}
	if msg == "" && err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Success: false, Message: msg}, nil
}

// Register creates an account. Like Login, a store-side refusal is returned in
// the result rather than as an error.
func (c *Client) Register(ctx context.Context, rollNumber, password string) (RegisterResult, error) {
	var resp messageResponse
	status, err := c.do(ctx, http.MethodPost, "/api/register", credentials{rollNumber, password}, &resp)
	if err != nil && status == 0 {
		return RegisterResult{}, err
	}
	if resp.Msg == "" && resp.Error == "" && err != nil {
		return RegisterResult{}, err
	}
	return RegisterResult{Message: resp.Msg, Error: resp.Error}, nil
}

// ListTasks returns the ordered collection for rollNumber.
func (c *Client) ListTasks(ctx context.Context, rollNumber string) ([]Task, error) {
	var tasks []Task
	if _, err := c.do(ctx, http.MethodGet, "/api/todos/"+url.PathEscape(rollNumber), nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

type createRequest struct {
	Task       string `json:"task"`
	RollNumber string `json:"roll_number"`
	Date       string `json:"date"`
	Time       string `json:"time"`
}

// CreateTask adds a task. The store only answers with the new id, so the
// returned record is completed from the request.
func (c *Client) CreateTask(ctx context.Context, rollNumber, text, date, clock string) (Task, error) {
	var resp messageResponse
	req := createRequest{Task: text, RollNumber: rollNumber, Date: date, Time: clock}
	if _, err := c.do(ctx, http.MethodPost, "/api/todo", req, &resp); err != nil {
		return Task{}, err
	}
	return Task{
		ID:         resp.ID,
		Text:       text,
		RollNumber: rollNumber,
		Date:       date,
		Time:       clock,
	}, nil
}

// DeleteTask removes a task by id.
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/todo/"+url.PathEscape(taskID), nil, nil)
	return err
}

// ToggleTask flips the completion flag of a task on the store.
func (c *Client) ToggleTask(ctx context.Context, taskID string) error {
	_, err := c.do(ctx, http.MethodPut, "/api/todo/"+url.PathEscape(taskID), nil, nil)
	return err
}

type reorderRequest struct {
	RollNumber string   `json:"roll_number"`
	TaskIDs    []string `json:"taskIds"`
}

// ReorderTasks submits the complete ordered id list.
func (c *Client) ReorderTasks(ctx context.Context, rollNumber string, taskIDs []string) error {
	_, err := c.do(ctx, http.MethodPut, "/api/reorder-todos", reorderRequest{rollNumber, taskIDs}, nil)
	return err
}

type moveRequest struct {
	TaskID     string    `json:"taskId"`
	RollNumber string    `json:"roll_number"`
	Direction  Direction `json:"direction"`
}

// MoveTask asks the store to swap a task with its neighbour.
func (c *Client) MoveTask(ctx context.Context, rollNumber, taskID string, dir Direction) error {
	_, err := c.do(ctx, http.MethodPut, "/api/move-task", moveRequest{taskID, rollNumber, dir}, nil)
	return err
}

// NormalizeOrder runs the store's one-time order fix-up.
func (c *Client) NormalizeOrder(ctx context.Context, rollNumber string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/fix-task-order/"+url.PathEscape(rollNumber), nil, nil)
	return err
}

// do sends one request. The returned status is 0 when no response arrived.
// On non-2xx it still decodes the body into out when possible and returns an
// *Error carrying the store's error text.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, err
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		utils.Warn("task store request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	utils.Debug("task store request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if out != nil {
			_ = json.Unmarshal(data, out)
		}
		return resp.StatusCode, &Error{Status: resp.StatusCode, Message: errorText(data)}
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

func errorText(data []byte) string {
	var body messageResponse
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(data))
}

// IsNotFound reports whether err is a 404 from the store.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
