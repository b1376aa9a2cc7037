package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CallSync(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/site/verify", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "example.com", payload["domain"])

		json.NewEncoder(w).Encode(CallResult{Data: map[string]any{"verified": true}})
	}))
	defer srv.Close()

	client := New(srv.URL, "secret")
	res, err := client.Call(context.Background(), "site/verify", map[string]any{"domain": "example.com"})
	require.NoError(t, err)
	assert.False(t, res.Async())
	assert.Equal(t, true, res.Data["verified"])
}

func TestClient_CallAsyncReturnsJobID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(CallResult{JobID: "job-42"})
	}))
	defer srv.Close()

	client := New(srv.URL, "")
	res, err := client.Call(context.Background(), "crawl/start", nil)
	require.NoError(t, err)
	assert.True(t, res.Async())
	assert.Equal(t, "job-42", res.JobID)
}

func TestClient_CallAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "domain not reachable"})
	}))
	defer srv.Close()

	client := New(srv.URL, "")
	_, err := client.Call(context.Background(), "site/verify", nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "domain not reachable", apiErr.Message)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "site/verify", apiErr.Endpoint)
}

func TestClient_JobStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/jobs/job-42", r.URL.Path)
		json.NewEncoder(w).Encode(JobState{
			Status:   JobRunning,
			Progress: 40,
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "")
	state, err := client.JobStatus(context.Background(), "job-42")
	require.NoError(t, err)
	assert.Equal(t, JobRunning, state.Status)
	assert.Equal(t, 40, state.Progress)
	assert.Equal(t, "job-42", state.JobID, "job id backfilled when the server omits it")
	assert.False(t, state.Status.Terminal())
}

func TestJobPhase_Terminal(t *testing.T) {
	assert.True(t, JobCompleted.Terminal())
	assert.True(t, JobFailed.Terminal())
	assert.False(t, JobQueued.Terminal())
	assert.False(t, JobRunning.Terminal())
}
