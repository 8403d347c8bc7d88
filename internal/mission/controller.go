// Package mission owns the client-side lifecycle of mission runs: starting,
// continuing after clarification, history and the agent roster.
package mission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"beamdeck/internal/backend"
	"beamdeck/internal/observability"
	"beamdeck/internal/present"
	"beamdeck/internal/runs"
	"beamdeck/internal/transport"
)

const (
	genericStartFailure    = "Failed to start run"
	genericContinueFailure = "Failed to continue run"
)

// Backend is the remote surface the controller drives.
type Backend interface {
	ListHistory(ctx context.Context) ([]runs.HistorySummary, error)
	ListAgents(ctx context.Context) ([]runs.AgentProfile, error)
	DeleteRun(ctx context.Context, runID string) error
	StartRun(ctx context.Context, req backend.StartRequest) (*runs.RunResult, error)
	ContinueRun(ctx context.Context, req backend.ContinueRequest) (*runs.RunResult, error)
}

// Controller holds the mission State and the operations that mutate it.
//
// The lock guards state only and is never held across a backend call, so
// overlapping requests each apply their result when they finish.
type Controller struct {
	backend Backend
	adapter present.Adapter
	logger  *zap.Logger
	metrics *observability.Metrics

	mu    sync.Mutex
	state State
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records mission outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// NewController returns a controller with empty state.
func NewController(b Backend, adapter present.Adapter, opts ...Option) *Controller {
	c := &Controller{
		backend: b,
		adapter: adapter,
		logger:  zap.NewNop(),
		state:   State{FormInputs: map[string]string{}},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

func (c *Controller) update(fn func(s *State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.state)
}

// FetchHistory replaces the history list. With autoSelect, and nothing selected
// yet, the most recent entry becomes the selection. Failures are logged and
// leave state unchanged.
func (c *Controller) FetchHistory(ctx context.Context, autoSelect bool) error {
	items, err := c.backend.ListHistory(ctx)
	if err != nil {
		c.logger.Warn("failed to fetch history", zap.Error(err))
		return err
	}
	if items == nil {
		items = []runs.HistorySummary{}
	}
	c.update(func(s *State) {
		s.History = items
		if autoSelect && s.SelectedRun == nil && len(items) > 0 {
			selected := c.adapter.FromHistory(items[0])
			s.SelectedRun = &selected
		}
	})
	return nil
}

// FetchAgents replaces the agent roster. Failures are logged and leave state
// unchanged.
func (c *Controller) FetchAgents(ctx context.Context) error {
	agents, err := c.backend.ListAgents(ctx)
	if err != nil {
		c.logger.Warn("failed to fetch agents", zap.Error(err))
		return err
	}
	if agents == nil {
		agents = []runs.AgentProfile{}
	}
	c.update(func(s *State) { s.Agents = agents })
	return nil
}

// DeleteHistory removes a run. If it was the selected run, the selection and
// the last result are cleared too. Failures are logged and leave state
// unchanged; callers confirm intent before invoking.
func (c *Controller) DeleteHistory(ctx context.Context, runID string) error {
	if err := c.backend.DeleteRun(ctx, runID); err != nil {
		c.logger.Warn("failed to delete run", zap.String("run_id", runID), zap.Error(err))
		return err
	}
	c.update(func(s *State) {
		kept := make([]runs.HistorySummary, 0, len(s.History))
		for _, item := range s.History {
			if item.RunID != runID {
				kept = append(kept, item)
			}
		}
		s.History = kept
		if s.SelectedRun != nil && s.SelectedRun.RunID == runID {
			s.SelectedRun = nil
			s.Result = nil
		}
	})
	return nil
}

// StartMission begins a run for customPrompt, or for the current prompt when
// customPrompt is empty. A blank effective prompt is a no-op.
//
// On success the response becomes Result, and also SelectedRun unless the run
// is awaiting clarification. On failure the message lands in State.Error.
func (c *Controller) StartMission(ctx context.Context, customPrompt string) error {
	var text string
	c.mu.Lock()
	text = customPrompt
	if text == "" {
		text = c.state.Prompt
	}
	if strings.TrimSpace(text) == "" {
		c.mu.Unlock()
		return nil
	}
	c.state.Prompt = text
	c.state.IsLoading = true
	c.state.Error = ""
	c.state.Result = nil
	c.state.SelectedRun = nil
	c.state.FormInputs = map[string]string{}
	c.mu.Unlock()

	defer c.update(func(s *State) { s.IsLoading = false })

	res, err := c.backend.StartRun(ctx, backend.StartRequest{ProblemDescription: text})
	if err != nil {
		msg := failureMessage(err, genericStartFailure)
		c.logger.Error("start mission failed", zap.Error(err))
		c.update(func(s *State) { s.Error = msg })
		return errors.New(msg)
	}

	c.metrics.RecordMissionOutcome("start", string(res.State))
	c.logger.Info("mission started", zap.String("run_id", res.RunID), zap.String("state", string(res.State)))
	c.update(func(s *State) {
		s.Result = res
		if res.AwaitingUser() {
			s.SelectedRun = nil
		} else {
			s.SelectedRun = c.adapter.FromResult(res)
		}
	})
	return nil
}

// ContinueMission resumes the current result with the collected form inputs.
// Without a current result it is a no-op. The response always becomes both
// Result and SelectedRun; a COMPLETED run also refreshes history.
func (c *Controller) ContinueMission(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Result == nil {
		c.mu.Unlock()
		return nil
	}
	req := backend.ContinueRequest{
		RunID:              c.state.Result.RunID,
		ProblemDescription: c.state.Prompt,
		Inputs:             make(map[string]string, len(c.state.FormInputs)),
	}
	for k, v := range c.state.FormInputs {
		req.Inputs[k] = v
	}
	c.state.IsLoading = true
	c.state.Error = ""
	c.mu.Unlock()

	defer c.update(func(s *State) { s.IsLoading = false })

	res, err := c.backend.ContinueRun(ctx, req)
	if err != nil {
		msg := failureMessage(err, genericContinueFailure)
		c.logger.Error("continue mission failed", zap.String("run_id", req.RunID), zap.Error(err))
		c.update(func(s *State) { s.Error = msg })
		return errors.New(msg)
	}

	c.metrics.RecordMissionOutcome("continue", string(res.State))
	c.logger.Info("mission continued", zap.String("run_id", res.RunID), zap.String("state", string(res.State)))
	c.update(func(s *State) {
		s.Result = res
		s.SelectedRun = c.adapter.FromResult(res)
	})

	if res.State == runs.StateCompleted {
		_ = c.FetchHistory(ctx, false)
	}
	return nil
}

// Rerun starts a new mission from the selected run's problem description.
func (c *Controller) Rerun(ctx context.Context) error {
	c.mu.Lock()
	desc := ""
	if c.state.SelectedRun != nil {
		desc = c.state.SelectedRun.ProblemDescription
	}
	c.mu.Unlock()
	if desc == "" {
		return nil
	}
	return c.StartMission(ctx, desc)
}

// HandleInputChange records one clarification value.
func (c *Controller) HandleInputChange(name, value string) {
	c.update(func(s *State) {
		if s.FormInputs == nil {
			s.FormInputs = map[string]string{}
		}
		s.FormInputs[name] = value
	})
}

// ResetMission clears the selection, the last result and the prompt.
func (c *Controller) ResetMission() {
	c.update(func(s *State) {
		s.SelectedRun = nil
		s.Result = nil
		s.Prompt = ""
	})
}

// SetPrompt replaces the prompt text.
func (c *Controller) SetPrompt(prompt string) {
	c.update(func(s *State) { s.Prompt = prompt })
}

// SetSelectedRun overrides the selection; nil clears it.
func (c *Controller) SetSelectedRun(run *runs.SelectedRun) {
	c.update(func(s *State) { s.SelectedRun = run })
}

// SetResult overrides the last result; nil clears it.
func (c *Controller) SetResult(res *runs.RunResult) {
	c.update(func(s *State) { s.Result = res })
}

// SelectHistory shows a history entry in the stream view.
func (c *Controller) SelectHistory(item runs.HistorySummary) {
	selected := c.adapter.FromHistory(item)
	c.SetSelectedRun(&selected)
}

// failureMessage turns a start/continue error into the text shown to the user.
func failureMessage(err error, generic string) string {
	var statusErr *transport.StatusError
	if errors.As(err, &statusErr) {
		if strings.TrimSpace(statusErr.Detail) != "" {
			return statusErr.Detail
		}
		return generic
	}
	var nonJSON *transport.NonJSONResponseError
	if errors.As(err, &nonJSON) {
		return nonJSON.Error()
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Sprintf("%s: canceled", generic)
	}
	return fmt.Sprintf("%s: %v", generic, err)
}
