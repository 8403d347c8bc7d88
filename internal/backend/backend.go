// Package backend binds the mission orchestration HTTP API.
package backend

import (
	"context"
	"net/http"
	"net/url"

	"beamdeck/internal/runs"
	"beamdeck/internal/transport"
)

// StartRequest is the body of POST /api/run/start.
type StartRequest struct {
	ProblemDescription string `json:"problem_description"`
}

// ContinueRequest is the body of POST /api/run/continue.
type ContinueRequest struct {
	RunID              string            `json:"run_id"`
	ProblemDescription string            `json:"problem_description"`
	Inputs             map[string]string `json:"inputs"`
}

// Health is the body of GET /api/health.
type Health struct {
	Status string `json:"status"`
	Cwd    string `json:"cwd,omitempty"`
}

// Client exposes the backend operations on top of a transport.Client.
type Client struct {
	tc *transport.Client
}

// New wraps a transport client.
func New(tc *transport.Client) *Client {
	return &Client{tc: tc}
}

// ListHistory fetches past runs, most recent first.
func (c *Client) ListHistory(ctx context.Context) ([]runs.HistorySummary, error) {
	var out []runs.HistorySummary
	if err := c.tc.Do(ctx, "list_history", http.MethodGet, "/api/history", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAgents fetches the agent roster.
func (c *Client) ListAgents(ctx context.Context) ([]runs.AgentProfile, error) {
	var out []runs.AgentProfile
	if err := c.tc.Do(ctx, "list_agents", http.MethodGet, "/api/agents", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteRun removes a run from history.
func (c *Client) DeleteRun(ctx context.Context, runID string) error {
	return c.tc.Do(ctx, "delete_run", http.MethodDelete, "/api/history/"+url.PathEscape(runID), nil, nil)
}

// StartRun begins a new mission.
func (c *Client) StartRun(ctx context.Context, req StartRequest) (*runs.RunResult, error) {
	var out runs.RunResult
	if err := c.tc.Do(ctx, "start_run", http.MethodPost, "/api/run/start", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ContinueRun resumes a mission that was awaiting clarification.
func (c *Client) ContinueRun(ctx context.Context, req ContinueRequest) (*runs.RunResult, error) {
	if req.Inputs == nil {
		req.Inputs = map[string]string{}
	}
	var out runs.RunResult
	if err := c.tc.Do(ctx, "continue_run", http.MethodPost, "/api/run/continue", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health probes the backend liveness endpoint.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.tc.Do(ctx, "health", http.MethodGet, "/api/health", nil, &out)
	return out, err
}
