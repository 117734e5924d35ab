package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// JobStatus mirrors the batch-job API's run states.
type JobStatus string

const (
	StatusReady     JobStatus = "READY"
	StatusRunning   JobStatus = "RUNNING"
	StatusSucceeded JobStatus = "SUCCEEDED"
	StatusFailed    JobStatus = "FAILED"
	StatusAborted   JobStatus = "ABORTED"
	StatusTimedOut  JobStatus = "TIMED-OUT"
)

// Terminal reports whether no further progress can occur from s.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusReady, StatusRunning, "":
		return false
	}
	return true
}

// JobClient drives the create-run / poll-status / fetch-dataset
// protocol of an Apify-style actor API.
type JobClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewJobClient(baseURL, token string, timeout time.Duration) *JobClient {
	return &JobClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// Configured reports whether an API credential is available. An
// unconfigured client means job-backed extractors decline their
// targets instead of attempting them.
func (c *JobClient) Configured() bool {
	return c != nil && c.token != ""
}

// StartRun submits a job for actorID and returns the run identifier.
func (c *JobClient) StartRun(ctx context.Context, actorID string, input any) (string, error) {
	reqURL := fmt.Sprintf("%s/acts/%s/runs?token=%s", c.baseURL, actorID, c.token)

	body, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("jobs: marshal input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("jobs: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("jobs: start run: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("jobs: start run: status %d: %s", resp.StatusCode, respBody)
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("jobs: decode run response: %w", err)
	}
	if result.Data.ID == "" {
		return "", fmt.Errorf("jobs: run response carried no id")
	}
	return result.Data.ID, nil
}

// RunStatus fetches the current status of a run and, once available,
// the dataset holding its output.
func (c *JobClient) RunStatus(ctx context.Context, runID string) (JobStatus, string, error) {
	reqURL := fmt.Sprintf("%s/actor-runs/%s?token=%s", c.baseURL, runID, c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("jobs: create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("jobs: poll run %s: %w", runID, err)
	}
	defer resp.Body.Close()

	var status struct {
		Data struct {
			Status           JobStatus `json:"status"`
			DefaultDatasetID string    `json:"defaultDatasetId"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return "", "", fmt.Errorf("jobs: decode status for run %s: %w", runID, err)
	}
	return status.Data.Status, status.Data.DefaultDatasetID, nil
}

// DatasetItems fetches the result payload of a succeeded run, once.
func (c *JobClient) DatasetItems(ctx context.Context, datasetID string) ([]json.RawMessage, error) {
	reqURL := fmt.Sprintf("%s/datasets/%s/items?token=%s", c.baseURL, datasetID, c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("jobs: create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jobs: fetch dataset %s: %w", datasetID, err)
	}
	defer resp.Body.Close()

	var items []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("jobs: decode dataset %s: %w", datasetID, err)
	}
	return items, nil
}

// JobStrategy parameterizes the shared job protocol per content kind:
// which actor to run, how to shape its input, how to read its output,
// and what title to fall back to.
type JobStrategy interface {
	Kind() Kind
	ActorID() string
	Input(pageURL string) any
	// Parse pulls a title and body out of the dataset items. ok is
	// false when the payload holds nothing usable.
	Parse(items []json.RawMessage) (title, body string, ok bool)
	FallbackTitle(ctx context.Context, pageURL string) string
}

// runState is the transient state of one asynchronous extraction.
type runState struct {
	id       string
	status   JobStatus
	attempts int
}

const jobBodyLimit = 2000

// JobExtractor runs one strategy against the job API with a hard
// per-target wall-clock budget of pollInterval times maxAttempts.
type JobExtractor struct {
	client       *JobClient
	strategy     JobStrategy
	pollInterval time.Duration
	maxAttempts  int
	log          *zap.Logger
}

func NewJobExtractor(client *JobClient, strategy JobStrategy, pollInterval time.Duration, maxAttempts int, log *zap.Logger) *JobExtractor {
	return &JobExtractor{
		client:       client,
		strategy:     strategy,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
		log:          log,
	}
}

// Extract drives one target through the job state machine. Once a job
// is dispatched every terminal path yields a non-nil Result, sentinel
// bodies included; ErrDeclined is returned only when no credential is
// configured and the target was never dispatched.
func (e *JobExtractor) Extract(ctx context.Context, pageURL string) (*Result, error) {
	if !e.client.Configured() {
		return nil, ErrDeclined
	}

	title := e.strategy.FallbackTitle(ctx, pageURL)

	runID, err := e.client.StartRun(ctx, e.strategy.ActorID(), e.strategy.Input(pageURL))
	if err != nil {
		e.log.Warn("job creation failed", zap.String("url", pageURL), zap.Error(err))
		return e.sentinel(pageURL, title, BodyStartFailed), nil
	}

	run := &runState{id: runID, status: StatusRunning}
	e.log.Debug("job started", zap.String("url", pageURL), zap.String("run_id", runID))

	// The poll budget doubles as a deadline so a stuck job can never
	// hold the target past interval times attempts.
	budget := time.Duration(e.maxAttempts) * e.pollInterval
	pollCtx, cancel := context.WithTimeout(ctx, budget+e.pollInterval)
	defer cancel()

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for run.attempts < e.maxAttempts {
		select {
		case <-pollCtx.Done():
			return e.sentinel(pageURL, title, BodyTimedOut), nil
		case <-ticker.C:
		}
		run.attempts++

		status, datasetID, err := e.client.RunStatus(pollCtx, run.id)
		if err != nil {
			// A poll failure reads as still Pending; it consumes an
			// attempt but does not abort the loop.
			e.log.Debug("poll failed", zap.String("run_id", run.id), zap.Int("attempt", run.attempts), zap.Error(err))
			continue
		}
		run.status = status

		if status == StatusSucceeded {
			return e.collect(pollCtx, pageURL, title, datasetID), nil
		}
		if status.Terminal() {
			e.log.Warn("job ended without output",
				zap.String("url", pageURL),
				zap.String("run_id", run.id),
				zap.String("status", string(status)))
			return e.sentinel(pageURL, title, BodyFailed), nil
		}
	}

	e.log.Warn("job still pending after poll budget",
		zap.String("url", pageURL),
		zap.String("run_id", run.id),
		zap.Int("attempts", run.attempts))
	return e.sentinel(pageURL, title, BodyTimedOut), nil
}

// collect fetches the result payload of a succeeded run and shapes
// the terminal Result. An empty or unusable payload is still a
// success outcome, carried as a sentinel body.
func (e *JobExtractor) collect(ctx context.Context, pageURL, fallbackTitle, datasetID string) *Result {
	items, err := e.client.DatasetItems(ctx, datasetID)
	if err != nil {
		e.log.Warn("result fetch failed", zap.String("url", pageURL), zap.Error(err))
		return e.sentinel(pageURL, fallbackTitle, BodyFailed)
	}

	title, body, ok := e.strategy.Parse(items)
	if !ok {
		return e.sentinel(pageURL, fallbackTitle, BodyNoContent)
	}
	if title == "" {
		title = fallbackTitle
	}
	if len(body) > jobBodyLimit {
		body = body[:jobBodyLimit]
	}

	return &Result{
		URL:   pageURL,
		Title: title,
		Body:  body,
		Kind:  e.strategy.Kind(),
	}
}

func (e *JobExtractor) sentinel(pageURL, title, body string) *Result {
	return &Result{
		URL:   pageURL,
		Title: title,
		Body:  body,
		Kind:  e.strategy.Kind(),
	}
}
