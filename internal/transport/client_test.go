package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"beamdeck/internal/observability"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func stubResponse(status int, body string) roundTripFunc {
	return func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Header:     make(http.Header),
			Body:       io.NopCloser(strings.NewReader(body)),
		}, nil
	}
}

func TestDoDecodesJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/run/start", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NotEmpty(t, r.Header.Get("X-Request-ID"))
		require.NotEmpty(t, r.Header.Get("X-Client-Session"))
		raw, _ := io.ReadAll(r.Body)
		require.JSONEq(t, `{"problem_description":"drop a ball"}`, string(raw))
		_, _ = w.Write([]byte(`{"run_id":"run_1","state":"COMPLETED"}`))
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	var out struct {
		RunID string `json:"run_id"`
		State string `json:"state"`
	}
	err := c.Do(context.Background(), "start_run", http.MethodPost, "/api/run/start",
		map[string]string{"problem_description": "drop a ball"}, &out)
	require.NoError(t, err)
	require.Equal(t, "run_1", out.RunID)
	require.Equal(t, "COMPLETED", out.State)
}

func TestDoNonJSONCarriesSnippet(t *testing.T) {
	t.Parallel()

	body := "<html>Gateway Timeout</html>"
	c := New("http://mock", WithHTTPClient(&http.Client{Transport: stubResponse(http.StatusBadGateway, body)}))

	err := c.Do(context.Background(), "start_run", http.MethodPost, "/api/run/start", map[string]string{}, nil)
	require.Error(t, err)
	require.True(t, IsNonJSON(err))
	require.Contains(t, err.Error(), body)

	var nonJSON *NonJSONResponseError
	require.True(t, errors.As(err, &nonJSON))
	require.Equal(t, http.StatusBadGateway, nonJSON.Status)
}

func TestDoNonJSONTruncatesLongBody(t *testing.T) {
	t.Parallel()

	body := strings.Repeat("x", 250)
	c := New("http://mock", WithHTTPClient(&http.Client{Transport: stubResponse(http.StatusOK, body)}))

	err := c.Do(context.Background(), "list_history", http.MethodGet, "/api/history", nil, nil)
	var nonJSON *NonJSONResponseError
	require.True(t, errors.As(err, &nonJSON))
	require.Len(t, nonJSON.Snippet, SnippetLength)
	require.Equal(t, "server returned non-JSON response: "+strings.Repeat("x", 100)+"...", err.Error())
}

func TestDoEmptyBodyIsNonJSONWhenDecoding(t *testing.T) {
	t.Parallel()

	c := New("http://mock", WithHTTPClient(&http.Client{Transport: stubResponse(http.StatusOK, "")}))
	var out []map[string]any
	err := c.Do(context.Background(), "list_history", http.MethodGet, "/api/history", nil, &out)
	require.True(t, IsNonJSON(err))
}

func TestDoWithoutTargetOnlyNeedsOKStatus(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name   string
		status int
		body   string
	}{
		{"no content", http.StatusNoContent, ""},
		{"empty ok", http.StatusOK, ""},
		{"plain text ok", http.StatusOK, "deleted"},
		{"json ok", http.StatusOK, `{"status":"deleted"}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := New("http://mock", WithHTTPClient(&http.Client{Transport: stubResponse(tc.status, tc.body)}))
			err := c.Do(context.Background(), "delete_run", http.MethodDelete, "/api/history/run_1", nil, nil)
			require.NoError(t, err)
		})
	}
}

func TestDoWithoutTargetStillReportsFailures(t *testing.T) {
	t.Parallel()

	c := New("http://mock", WithHTTPClient(&http.Client{
		Transport: stubResponse(http.StatusNotFound, `{"detail":"Run not found"}`),
	}))
	err := c.Do(context.Background(), "delete_run", http.MethodDelete, "/api/history/run_1", nil, nil)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, "Run not found", statusErr.Detail)

	c = New("http://mock", WithHTTPClient(&http.Client{Transport: stubResponse(http.StatusBadGateway, "<html>bad gateway</html>")}))
	err = c.Do(context.Background(), "delete_run", http.MethodDelete, "/api/history/run_1", nil, nil)
	require.True(t, IsNonJSON(err))
}

func TestWithTimeoutDoesNotMutateSharedClient(t *testing.T) {
	t.Parallel()

	shared := &http.Client{Timeout: time.Minute}
	c := New("http://mock", WithHTTPClient(shared), WithTimeout(3*time.Second))

	require.Equal(t, time.Minute, shared.Timeout)
	require.Equal(t, 3*time.Second, c.http.Timeout)
	require.NotSame(t, shared, c.http)
}

func TestDoStatusErrorUsesDetail(t *testing.T) {
	t.Parallel()

	c := New("http://mock", WithHTTPClient(&http.Client{
		Transport: stubResponse(http.StatusInternalServerError, `{"detail":"Server Error: boom"}`),
	}))
	err := c.Do(context.Background(), "start_run", http.MethodPost, "/api/run/start", map[string]string{}, nil)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusInternalServerError, statusErr.Status)
	require.Equal(t, "Server Error: boom", statusErr.Detail)
	require.Equal(t, "Server Error: boom", err.Error())
}

func TestDoStatusErrorWithoutDetail(t *testing.T) {
	t.Parallel()

	c := New("http://mock", WithHTTPClient(&http.Client{
		Transport: stubResponse(http.StatusNotFound, `{"message":"nope"}`),
	}))
	err := c.Do(context.Background(), "continue_run", http.MethodPost, "/api/run/continue", map[string]string{}, nil)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Empty(t, statusErr.Detail)
	require.Equal(t, "backend returned HTTP 404", err.Error())
}

func TestDoStatusErrorStructuredDetail(t *testing.T) {
	t.Parallel()

	c := New("http://mock", WithHTTPClient(&http.Client{
		Transport: stubResponse(http.StatusUnprocessableEntity, `{"detail": [ {"loc": ["body"], "msg": "field required"} ]}`),
	}))
	err := c.Do(context.Background(), "start_run", http.MethodPost, "/api/run/start", map[string]string{}, nil)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, `[{"loc":["body"],"msg":"field required"}]`, statusErr.Detail)
}

func TestDoTransportFailure(t *testing.T) {
	t.Parallel()

	c := New("http://mock", WithHTTPClient(&http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		}),
	}))
	err := c.Do(context.Background(), "list_agents", http.MethodGet, "/api/agents", nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection refused")
	require.False(t, IsNonJSON(err))
}

func TestDoRecordsMetrics(t *testing.T) {
	t.Parallel()

	m := observability.NewMetrics()
	c := New("http://mock",
		WithMetrics(m),
		WithHTTPClient(&http.Client{Transport: stubResponse(http.StatusOK, `[]`)}),
	)
	require.NoError(t, c.Do(context.Background(), "list_history", http.MethodGet, "/api/history", nil, nil))
	require.Equal(t, 1.0, testutil.ToFloat64(m.BackendRequests.WithLabelValues("list_history", "ok")))
}
