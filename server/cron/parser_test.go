package cron

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAvailablePhases = map[string]bool{
	"discovery": true,
	"data-sync": true,
	"ai-setup":  true,
}

func TestParseTriggerSpecs_ValidSingleTrigger(t *testing.T) {
	specs, err := ParseTriggerSpecs("discovery:0 3 * * *", testAvailablePhases)
	require.NoError(t, err)
	require.Len(t, specs, 1)

	assert.Equal(t, []string{"discovery"}, specs[0].Phases)
	assert.Equal(t, "0 3 * * *", specs[0].CronSpec)
}

func TestParseTriggerSpecs_ValidMultiplePhases(t *testing.T) {
	specs, err := ParseTriggerSpecs("discovery,data-sync:0 3 * * *", testAvailablePhases)
	require.NoError(t, err)
	require.Len(t, specs, 1)

	assert.Equal(t, []string{"discovery", "data-sync"}, specs[0].Phases)
	assert.Equal(t, "0 3 * * *", specs[0].CronSpec)
}

func TestParseTriggerSpecs_ValidMultipleTriggers(t *testing.T) {
	specs, err := ParseTriggerSpecs("discovery:0 3 * * *;ai-setup:0 4 * * 0", testAvailablePhases)
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, []string{"discovery"}, specs[0].Phases)
	assert.Equal(t, "0 3 * * *", specs[0].CronSpec)
	assert.Equal(t, []string{"ai-setup"}, specs[1].Phases)
	assert.Equal(t, "0 4 * * 0", specs[1].CronSpec)
}

func TestParseTriggerSpecs_TrailingSemicolon(t *testing.T) {
	specs, err := ParseTriggerSpecs("discovery:0 3 * * *;", testAvailablePhases)
	require.NoError(t, err)
	require.Len(t, specs, 1)
}

func TestParseTriggerSpecs_WhitespaceTrimmed(t *testing.T) {
	specs, err := ParseTriggerSpecs("  discovery , data-sync : 0 3 * * *  ", testAvailablePhases)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, []string{"discovery", "data-sync"}, specs[0].Phases)
	assert.Equal(t, "0 3 * * *", specs[0].CronSpec)
}

func TestParseTriggerSpecs_Invalid(t *testing.T) {
	tests := []struct {
		name string
		spec string
	}{
		{name: "empty spec", spec: ""},
		{name: "only whitespace", spec: "   "},
		{name: "only semicolons", spec: ";;"},
		{name: "missing cron expression", spec: "discovery:"},
		{name: "missing phases", spec: ":0 3 * * *"},
		{name: "no separator", spec: "discovery"},
		{name: "unknown phase", spec: "teleportation:0 3 * * *"},
		{name: "duplicate phase in trigger", spec: "discovery,discovery:0 3 * * *"},
		{name: "invalid cron expression", spec: "discovery:not a cron"},
		{name: "six field cron rejected", spec: "discovery:0 0 3 * * *"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTriggerSpecs(tt.spec, testAvailablePhases)
			assert.Error(t, err)
		})
	}
}
