package wizard

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepStatusJSONRoundTrip(t *testing.T) {
	for _, st := range []StepStatus{StatusPending, StatusRunning, StatusCompleted, StatusError} {
		data, err := json.Marshal(st)
		require.NoError(t, err)

		var back StepStatus
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, st, back)
	}
}

func TestStepStatusUnmarshalRejectsNonStrings(t *testing.T) {
	// Saved state from other versions may hold arbitrary tokens here.
	// Every one of these must come back as an error, never a panic.
	tests := []struct {
		name string
		data string
	}{
		{name: "number", data: `0`},
		{name: "larger number", data: `42`},
		{name: "bool", data: `true`},
		{name: "null", data: `null`},
		{name: "object", data: `{}`},
		{name: "unknown string", data: `"paused"`},
		{name: "empty string", data: `""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var st StepStatus
			assert.Error(t, json.Unmarshal([]byte(tt.data), &st))
		})
	}
}

func TestStepStatusUnmarshalInsideMap(t *testing.T) {
	var view StateView
	err := json.Unmarshal([]byte(`{"step_statuses":{"verify-domain":0}}`), &view)
	assert.Error(t, err)
}
