package mission

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"beamdeck/internal/backend"
	"beamdeck/internal/observability"
	"beamdeck/internal/present"
	"beamdeck/internal/runs"
	"beamdeck/internal/transport"
)

type fakeBackend struct {
	mu sync.Mutex

	history    []runs.HistorySummary
	historyErr error
	agents     []runs.AgentProfile
	agentsErr  error
	deleteErr  error
	startRes   *runs.RunResult
	startErr   error
	contRes    *runs.RunResult
	contErr    error

	historyCalls  int
	agentsCalls   int
	startCalls    int
	continueCalls int
	deleted       []string
	lastStart     backend.StartRequest
	lastContinue  backend.ContinueRequest
}

func (f *fakeBackend) ListHistory(context.Context) ([]runs.HistorySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	return f.history, f.historyErr
}

func (f *fakeBackend) ListAgents(context.Context) ([]runs.AgentProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agentsCalls++
	return f.agents, f.agentsErr
}

func (f *fakeBackend) DeleteRun(_ context.Context, runID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, runID)
	return nil
}

func (f *fakeBackend) StartRun(_ context.Context, req backend.StartRequest) (*runs.RunResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls++
	f.lastStart = req
	return f.startRes, f.startErr
}

func (f *fakeBackend) ContinueRun(_ context.Context, req backend.ContinueRequest) (*runs.RunResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.continueCalls++
	f.lastContinue = req
	return f.contRes, f.contErr
}

func newTestController(fb *fakeBackend) *Controller {
	return NewController(fb, present.NewAdapter("https://github.com/beam-me/user-code/blob/main/"))
}

func awaitingResult() *runs.RunResult {
	return &runs.RunResult{
		RunID:   "run_1",
		State:   runs.StateAwaitingUser,
		Summary: "Clarification Needed",
		Payload: runs.Payload{
			MissingVars: []runs.VariableSpec{{Name: "mass", Description: "Mass in kg", Type: "number"}},
		},
	}
}

func completedResult(runID string) *runs.RunResult {
	return &runs.RunResult{
		RunID:   runID,
		State:   runs.StateCompleted,
		Summary: "Mission Accomplished",
		Payload: runs.Payload{
			TraceLog:        []runs.LogEntry{{Agent: "Orchestrator", Step: "Reconciliation"}},
			ExecutionResult: &runs.ExecutionResult{Stdout: "done"},
		},
	}
}

func TestNewControllerEmptyState(t *testing.T) {
	c := newTestController(&fakeBackend{})
	s := c.Snapshot()
	require.Empty(t, s.Prompt)
	require.False(t, s.IsLoading)
	require.Nil(t, s.Result)
	require.Empty(t, s.Error)
	require.Nil(t, s.SelectedRun)
	require.NotNil(t, s.FormInputs)
	require.Equal(t, ViewInput, s.View())
}

func TestStartMissionBlankPromptIsNoop(t *testing.T) {
	fb := &fakeBackend{startRes: completedResult("run_1")}
	c := newTestController(fb)
	c.SetPrompt("   \n\t")
	before := c.Snapshot()

	require.NoError(t, c.StartMission(context.Background(), ""))
	require.NoError(t, c.StartMission(context.Background(), "  "))

	require.Equal(t, 0, fb.startCalls)
	require.Equal(t, before, c.Snapshot())
}

func TestStartMissionAwaitingUserKeepsSelectionEmpty(t *testing.T) {
	res := awaitingResult()
	fb := &fakeBackend{startRes: res}
	c := newTestController(fb)
	c.SetPrompt("stress in a steel beam")

	require.NoError(t, c.StartMission(context.Background(), ""))

	s := c.Snapshot()
	require.Equal(t, "stress in a steel beam", fb.lastStart.ProblemDescription)
	require.Same(t, res, s.Result)
	require.Nil(t, s.SelectedRun)
	require.False(t, s.IsLoading)
	require.Equal(t, ViewClarification, s.View())
	require.Len(t, s.MissingVars(), 1)
}

func TestStartMissionCompletedSelectsResult(t *testing.T) {
	res := completedResult("run_2")
	fb := &fakeBackend{startRes: res}
	c := newTestController(fb)

	require.NoError(t, c.StartMission(context.Background(), "falling ball"))

	s := c.Snapshot()
	require.Equal(t, "falling ball", s.Prompt)
	require.Same(t, res, s.Result)
	require.NotNil(t, s.SelectedRun)
	require.Equal(t, "run_2", s.SelectedRun.RunID)
	require.Equal(t, runs.StateCompleted, s.SelectedRun.State)
	require.Equal(t, "done", s.SelectedRun.Payload.ExecutionResult.Stdout)
	require.Equal(t, ViewStream, s.View())
}

func TestStartMissionCustomPromptOverridesCurrent(t *testing.T) {
	fb := &fakeBackend{startRes: completedResult("run_3")}
	c := newTestController(fb)
	c.SetPrompt("old prompt")

	require.NoError(t, c.StartMission(context.Background(), "new prompt"))
	require.Equal(t, "new prompt", fb.lastStart.ProblemDescription)
	require.Equal(t, "new prompt", c.Snapshot().Prompt)
}

func TestStartMissionResetsPerRunState(t *testing.T) {
	fb := &fakeBackend{startErr: &transport.StatusError{Status: 500, Detail: "Server Error: boom"}}
	c := newTestController(fb)
	c.SetResult(completedResult("old"))
	c.SetSelectedRun(&runs.SelectedRun{RunID: "old"})
	c.HandleInputChange("mass", "2")

	err := c.StartMission(context.Background(), "again")
	require.EqualError(t, err, "Server Error: boom")

	s := c.Snapshot()
	require.Nil(t, s.Result)
	require.Nil(t, s.SelectedRun)
	require.Empty(t, s.FormInputs)
	require.Equal(t, "Server Error: boom", s.Error)
	require.False(t, s.IsLoading)
}

func TestStartMissionErrorMessages(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"detail", &transport.StatusError{Status: 500, Detail: "quota exceeded"}, "quota exceeded"},
		{"no detail", &transport.StatusError{Status: 500}, "Failed to start run"},
		{"non json", &transport.NonJSONResponseError{Status: 502, Snippet: "<html>Gateway Timeout</html>"}, "server returned non-JSON response: <html>Gateway Timeout</html>..."},
		{"network", errors.New("dial tcp: connection refused"), "Failed to start run: dial tcp: connection refused"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestController(&fakeBackend{startErr: tc.err})
			_ = c.StartMission(context.Background(), "p")
			require.Equal(t, tc.want, c.Snapshot().Error)
		})
	}
}

func TestStartMissionNonJSONGatewayPage(t *testing.T) {
	body := "<html>Gateway Timeout</html>"
	tc := transport.New("http://mock", transport.WithHTTPClient(&http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return textResponse(http.StatusBadGateway, body), nil
		}),
	}))
	c := NewController(backend.New(tc), present.NewAdapter("https://example/"))

	require.Error(t, c.StartMission(context.Background(), "p"))

	s := c.Snapshot()
	require.Contains(t, s.Error, body)
	require.False(t, s.IsLoading)
	require.Nil(t, s.Result)
}

func TestStartMissionClearsPreviousError(t *testing.T) {
	fb := &fakeBackend{startErr: errors.New("boom")}
	c := newTestController(fb)
	_ = c.StartMission(context.Background(), "p")
	require.NotEmpty(t, c.Snapshot().Error)

	fb.startErr = nil
	fb.startRes = completedResult("run_ok")
	require.NoError(t, c.StartMission(context.Background(), "p"))
	require.Empty(t, c.Snapshot().Error)
}

func TestContinueMissionWithoutResultIsNoop(t *testing.T) {
	fb := &fakeBackend{contRes: completedResult("run_1")}
	c := newTestController(fb)

	require.NoError(t, c.ContinueMission(context.Background()))
	require.Equal(t, 0, fb.continueCalls)
	require.False(t, c.Snapshot().IsLoading)
}

func TestContinueMissionSendsInputsAndSelects(t *testing.T) {
	fb := &fakeBackend{startRes: awaitingResult()}
	c := newTestController(fb)
	require.NoError(t, c.StartMission(context.Background(), "beam stress"))

	c.HandleInputChange("mass", "2")
	c.HandleInputChange("length", "3")
	c.HandleInputChange("mass", "4")

	next := awaitingResult()
	next.Summary = "Still need more"
	fb.contRes = next
	require.NoError(t, c.ContinueMission(context.Background()))

	require.Equal(t, "run_1", fb.lastContinue.RunID)
	require.Equal(t, "beam stress", fb.lastContinue.ProblemDescription)
	require.Equal(t, map[string]string{"mass": "4", "length": "3"}, fb.lastContinue.Inputs)

	s := c.Snapshot()
	require.Same(t, next, s.Result)
	require.NotNil(t, s.SelectedRun)
	require.Equal(t, "Still need more", s.SelectedRun.Summary)
	require.Equal(t, ViewStream, s.View())
	require.Equal(t, 0, fb.historyCalls)
}

func TestContinueMissionCompletedRefreshesHistoryOnce(t *testing.T) {
	fb := &fakeBackend{
		startRes: awaitingResult(),
		history:  []runs.HistorySummary{{RunID: "run_1", ProblemDescription: "beam stress"}},
	}
	c := newTestController(fb)
	require.NoError(t, c.StartMission(context.Background(), "beam stress"))

	fb.contRes = completedResult("run_1")
	require.NoError(t, c.ContinueMission(context.Background()))

	s := c.Snapshot()
	require.Equal(t, 1, fb.historyCalls)
	require.Len(t, s.History, 1)
	require.Equal(t, "run_1", s.SelectedRun.RunID)
	require.Equal(t, "Mission Accomplished", s.SelectedRun.Summary)
}

func TestContinueMissionFailureKeepsResult(t *testing.T) {
	res := awaitingResult()
	fb := &fakeBackend{startRes: res}
	c := newTestController(fb)
	require.NoError(t, c.StartMission(context.Background(), "beam"))

	fb.contErr = &transport.StatusError{Status: 500}
	require.Error(t, c.ContinueMission(context.Background()))

	s := c.Snapshot()
	require.Equal(t, "Failed to continue run", s.Error)
	require.Same(t, res, s.Result)
	require.Nil(t, s.SelectedRun)
	require.False(t, s.IsLoading)
	require.Equal(t, 0, fb.historyCalls)
}

func TestFetchHistoryAutoSelect(t *testing.T) {
	fb := &fakeBackend{history: []runs.HistorySummary{
		{RunID: "run_new", ProblemDescription: "newest", FilePath: "a.py", Metadata: runs.HistoryMetadata{URL: "u"}},
		{RunID: "run_old", ProblemDescription: "oldest"},
	}}
	c := newTestController(fb)

	require.NoError(t, c.FetchHistory(context.Background(), true))

	s := c.Snapshot()
	require.Len(t, s.History, 2)
	require.NotNil(t, s.SelectedRun)
	require.Equal(t, "run_new", s.SelectedRun.RunID)
	require.Equal(t, present.HistoryStdout, s.SelectedRun.Payload.ExecutionResult.Stdout)
	require.Equal(t, "https://github.com/beam-me/user-code/blob/main/a.py", s.SelectedRun.Payload.CodeURL)
}

func TestFetchHistoryAutoSelectKeepsExistingSelection(t *testing.T) {
	fb := &fakeBackend{history: []runs.HistorySummary{{RunID: "run_new"}}}
	c := newTestController(fb)
	c.SetSelectedRun(&runs.SelectedRun{RunID: "mine"})

	require.NoError(t, c.FetchHistory(context.Background(), true))
	require.Equal(t, "mine", c.Snapshot().SelectedRun.RunID)
}

func TestFetchHistoryWithoutAutoSelectOrEmptyList(t *testing.T) {
	fb := &fakeBackend{history: []runs.HistorySummary{{RunID: "run_new"}}}
	c := newTestController(fb)
	require.NoError(t, c.FetchHistory(context.Background(), false))
	require.Nil(t, c.Snapshot().SelectedRun)

	fb.history = nil
	require.NoError(t, c.FetchHistory(context.Background(), true))
	s := c.Snapshot()
	require.Nil(t, s.SelectedRun)
	require.Empty(t, s.History)
}

func TestFetchHistoryFailureLeavesState(t *testing.T) {
	fb := &fakeBackend{history: []runs.HistorySummary{{RunID: "run_a"}}}
	c := newTestController(fb)
	require.NoError(t, c.FetchHistory(context.Background(), false))

	fb.historyErr = errors.New("offline")
	require.Error(t, c.FetchHistory(context.Background(), true))

	s := c.Snapshot()
	require.Len(t, s.History, 1)
	require.Nil(t, s.SelectedRun)
	require.Empty(t, s.Error)
}

func TestFetchAgents(t *testing.T) {
	fb := &fakeBackend{agents: []runs.AgentProfile{{ID: "hmao.orchestrator", Name: "Global Orchestrator"}}}
	c := newTestController(fb)
	require.NoError(t, c.FetchAgents(context.Background()))
	require.Len(t, c.Snapshot().Agents, 1)

	fb.agentsErr = errors.New("offline")
	require.Error(t, c.FetchAgents(context.Background()))
	s := c.Snapshot()
	require.Len(t, s.Agents, 1)
	require.Empty(t, s.Error)
}

func TestDeleteHistorySelectedRunClearsSelectionAndResult(t *testing.T) {
	fb := &fakeBackend{
		history:  []runs.HistorySummary{{RunID: "run_a"}, {RunID: "run_b"}},
		startRes: completedResult("run_a"),
	}
	c := newTestController(fb)
	require.NoError(t, c.FetchHistory(context.Background(), false))
	require.NoError(t, c.StartMission(context.Background(), "p"))

	require.NoError(t, c.DeleteHistory(context.Background(), "run_a"))

	s := c.Snapshot()
	require.Equal(t, []string{"run_a"}, fb.deleted)
	require.Len(t, s.History, 1)
	require.Equal(t, "run_b", s.History[0].RunID)
	require.Nil(t, s.SelectedRun)
	require.Nil(t, s.Result)
}

func TestDeleteHistoryOtherRunKeepsSelection(t *testing.T) {
	fb := &fakeBackend{
		history:  []runs.HistorySummary{{RunID: "run_a"}, {RunID: "run_b"}},
		startRes: completedResult("run_a"),
	}
	c := newTestController(fb)
	require.NoError(t, c.FetchHistory(context.Background(), false))
	require.NoError(t, c.StartMission(context.Background(), "p"))

	require.NoError(t, c.DeleteHistory(context.Background(), "run_b"))

	s := c.Snapshot()
	require.Len(t, s.History, 1)
	require.NotNil(t, s.SelectedRun)
	require.Equal(t, "run_a", s.SelectedRun.RunID)
	require.NotNil(t, s.Result)
}

func TestDeleteHistoryFailureLeavesState(t *testing.T) {
	fb := &fakeBackend{history: []runs.HistorySummary{{RunID: "run_a"}}, deleteErr: errors.New("500")}
	c := newTestController(fb)
	require.NoError(t, c.FetchHistory(context.Background(), true))

	require.Error(t, c.DeleteHistory(context.Background(), "run_a"))

	s := c.Snapshot()
	require.Len(t, s.History, 1)
	require.NotNil(t, s.SelectedRun)
	require.Empty(t, s.Error)
}

func TestDeleteHistoryAcceptsNoContent(t *testing.T) {
	tc := transport.New("http://mock", transport.WithHTTPClient(&http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.Method == http.MethodDelete {
				return textResponse(http.StatusNoContent, ""), nil
			}
			return textResponse(http.StatusOK, `[{"run_id":"a","problem_description":"drop a ball"}]`), nil
		}),
	}))
	c := NewController(backend.New(tc), present.NewAdapter("https://example/"))
	require.NoError(t, c.FetchHistory(context.Background(), true))
	require.NotNil(t, c.Snapshot().SelectedRun)

	require.NoError(t, c.DeleteHistory(context.Background(), "a"))

	s := c.Snapshot()
	require.Empty(t, s.History)
	require.Nil(t, s.SelectedRun)
	require.Nil(t, s.Result)
}

func TestResetMissionAndSelectHistory(t *testing.T) {
	fb := &fakeBackend{startRes: completedResult("run_a")}
	c := newTestController(fb)
	require.NoError(t, c.StartMission(context.Background(), "p"))

	c.ResetMission()
	s := c.Snapshot()
	require.Nil(t, s.SelectedRun)
	require.Nil(t, s.Result)
	require.Empty(t, s.Prompt)

	c.SelectHistory(runs.HistorySummary{RunID: "run_h", ProblemDescription: "old"})
	s = c.Snapshot()
	require.Equal(t, "run_h", s.SelectedRun.RunID)
	require.Equal(t, present.HistorySummary, s.SelectedRun.Summary)
}

func TestRerunStartsFromSelectedDescription(t *testing.T) {
	fb := &fakeBackend{startRes: completedResult("run_2")}
	c := newTestController(fb)

	require.NoError(t, c.Rerun(context.Background()))
	require.Equal(t, 0, fb.startCalls)

	c.SelectHistory(runs.HistorySummary{RunID: "run_1", ProblemDescription: "projectile range"})
	require.NoError(t, c.Rerun(context.Background()))
	require.Equal(t, 1, fb.startCalls)
	require.Equal(t, "projectile range", fb.lastStart.ProblemDescription)
	require.Equal(t, "run_2", c.Snapshot().SelectedRun.RunID)
}

func TestSnapshotIsACopy(t *testing.T) {
	c := newTestController(&fakeBackend{})
	c.HandleInputChange("a", "1")
	s := c.Snapshot()
	s.FormInputs["a"] = "mutated"
	require.Equal(t, "1", c.Snapshot().FormInputs["a"])
}

func TestMissionOutcomeMetrics(t *testing.T) {
	m := observability.NewMetrics()
	fb := &fakeBackend{startRes: awaitingResult()}
	c := NewController(fb, present.NewAdapter("https://example/"), WithMetrics(m))

	require.NoError(t, c.StartMission(context.Background(), "p"))
	require.Equal(t, 1.0, testutil.ToFloat64(m.MissionOutcomes.WithLabelValues("start", "AWAITING_USER")))
}

func TestOverlappingStartsApplyLastWrite(t *testing.T) {
	fb := &fakeBackend{startRes: completedResult("run_x")}
	c := newTestController(fb)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.StartMission(context.Background(), "p")
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	require.Equal(t, 8, fb.startCalls)
	require.False(t, s.IsLoading)
	require.Equal(t, "run_x", s.SelectedRun.RunID)
}
