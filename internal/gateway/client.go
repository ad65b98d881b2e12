// Package gateway talks to the remote task service and translates between
// board tasks and the service's wire records.
package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"kanban/internal/models"
)

// ErrMissingIndex is returned when an update or delete is attempted on a task
// the remote service has never stored.
var ErrMissingIndex = errors.New("task has no remote index")

// RemoteError reports a non-success response from the task service.
type RemoteError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("failed to %s: %d", e.Op, e.StatusCode)
}

// Client performs the list, create, update and delete calls against the
// remote task service. It does not retry.
type Client struct {
	baseURL   string
	userToken int64
	http      *http.Client
	log       log.FieldLogger
	now       func() time.Time
	randN     func(int) int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for failed calls.
func WithLogger(l log.FieldLogger) Option {
	return func(c *Client) { c.log = l }
}

// WithClock overrides the time source used for createdAt and index generation.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithRand overrides the random source used for index generation.
func WithRand(randN func(int) int) Option {
	return func(c *Client) { c.randN = randN }
}

// New creates a Client for the service at baseURL, scoped to userToken.
func New(baseURL string, userToken int64, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userToken: userToken,
		http:      &http.Client{Timeout: 15 * time.Second},
		log:       log.StandardLogger(),
		now:       time.Now,
		randN:     rand.Intn,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches every task of the configured user.
func (c *Client) List(ctx context.Context) ([]models.Task, error) {
	path := "/api/v1/tasks/user/" + strconv.FormatInt(c.userToken, 10)
	body, err := c.do(ctx, "load tasks", http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var records []models.Record
	if err := sonic.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}

	tasks := make([]models.Task, 0, len(records))
	for _, r := range records {
		tasks = append(tasks, c.fromRecord(r))
	}
	return tasks, nil
}

// Create stores a new task. A provisional index is generated when the task
// has none; the record the service echoes back wins.
func (c *Client) Create(ctx context.Context, t models.Task) (models.Task, error) {
	rec := c.toRecord(t, modeCreate)
	return c.write(ctx, "create task", http.MethodPost, rec)
}

// Update replaces the remote record with the same index.
func (c *Client) Update(ctx context.Context, t models.Task) (models.Task, error) {
	if t.Index == nil {
		return models.Task{}, fmt.Errorf("update task: %w", ErrMissingIndex)
	}
	rec := c.toRecord(t, modeUpdate)
	return c.write(ctx, "update task", http.MethodPut, rec)
}

// Delete removes the task with the given index and returns the service's
// response text.
func (c *Client) Delete(ctx context.Context, index int64) (string, error) {
	body, err := c.do(ctx, "delete task", http.MethodDelete, "/api/v1/tasks/"+strconv.FormatInt(index, 10), nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) write(ctx context.Context, op, method string, rec models.Record) (models.Task, error) {
	payload, err := sonic.Marshal(rec)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to encode task: %w", err)
	}

	body, err := c.do(ctx, op, method, "/api/v1/tasks", payload)
	if err != nil {
		return models.Task{}, err
	}

	// The service may answer with a plain message instead of the record.
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return c.fromRecord(rec), nil
	}

	var stored models.Record
	if err := sonic.Unmarshal(trimmed, &stored); err != nil {
		return models.Task{}, fmt.Errorf("failed to decode task: %w", err)
	}
	return c.fromRecord(stored), nil
}

func (c *Client) do(ctx context.Context, op, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).WithField("op", op).Warn("task service unreachable")
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.WithFields(log.Fields{"op": op, "status": resp.StatusCode}).Warn("task service rejected request")
		return nil, &RemoteError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return body, nil
}
