package cron

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

const (
	triggerSeparator   = ";"
	phaseSeparator     = ":"
	phaseListSeparator = ","
)

// TriggerSpec represents a parsed trigger specification with phases and
// cron schedule.
type TriggerSpec struct {
	Phases   []string
	CronSpec string
}

// ParseTriggerSpecs parses a multi-trigger specification string into individual trigger specs.
// The format is: phase1,phase2:cron_expression;phase3:cron_expression2
//
// Example:
//
//	"discovery,data-sync:0 3 * * *;ai-setup:0 4 * * 0"
//
// Returns an error if:
//   - Any trigger is missing phases or cron expression
//   - Any phase name is not in availablePhases
//   - Any cron expression is invalid
//   - Any trigger has duplicate phases
func ParseTriggerSpecs(spec string, availablePhases map[string]bool) ([]TriggerSpec, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, errors.New("cron spec cannot be empty")
	}

	// Split by semicolon for multiple triggers
	triggerStrs := strings.Split(spec, triggerSeparator)
	specs := make([]TriggerSpec, 0, len(triggerStrs))

	for _, triggerStr := range triggerStrs {
		triggerStr = strings.TrimSpace(triggerStr)
		if triggerStr == "" {
			continue // Skip empty triggers (e.g., trailing semicolon)
		}

		triggerSpec, err := parseSingleTrigger(triggerStr, availablePhases)
		if err != nil {
			return nil, err
		}
		specs = append(specs, triggerSpec)
	}

	if len(specs) == 0 {
		return nil, errors.New("no valid triggers found in cron spec")
	}

	return specs, nil
}

// parseSingleTrigger parses a single trigger specification.
func parseSingleTrigger(triggerStr string, availablePhases map[string]bool) (TriggerSpec, error) {
	// Split on the first colon to separate phases from the cron expression.
	// Cron expressions never contain colons.
	idx := strings.Index(triggerStr, phaseSeparator)
	if idx < 0 {
		return TriggerSpec{}, fmt.Errorf("invalid trigger spec: expected format 'phases:cron', got '%s'", triggerStr)
	}

	phasesStr := strings.TrimSpace(triggerStr[:idx])
	cronSpec := strings.TrimSpace(triggerStr[idx+1:])

	if phasesStr == "" {
		return TriggerSpec{}, fmt.Errorf("invalid trigger spec: missing phases in '%s'", triggerStr)
	}
	if cronSpec == "" {
		return TriggerSpec{}, fmt.Errorf("invalid trigger spec: missing cron schedule in '%s'", triggerStr)
	}

	// Parse phases
	phaseStrs := strings.Split(phasesStr, phaseListSeparator)
	phases := make([]string, 0, len(phaseStrs))
	seen := make(map[string]bool, len(phaseStrs))

	for _, p := range phaseStrs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue // Skip empty phase names
		}

		// Check for duplicates within this trigger
		if seen[p] {
			return TriggerSpec{}, fmt.Errorf("invalid trigger spec: duplicate phase '%s' in '%s'", p, triggerStr)
		}
		seen[p] = true

		// Validate phase exists
		if !availablePhases[p] {
			return TriggerSpec{}, fmt.Errorf("invalid trigger spec: unknown phase '%s' in '%s' (available: %s)",
				p, triggerStr, formatAvailablePhases(availablePhases))
		}

		phases = append(phases, p)
	}

	if len(phases) == 0 {
		return TriggerSpec{}, fmt.Errorf("invalid trigger spec: no valid phases in '%s'", triggerStr)
	}

	// Validate cron expression
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(cronSpec); err != nil {
		return TriggerSpec{}, fmt.Errorf("invalid trigger spec: invalid cron expression in '%s': %w", triggerStr, err)
	}

	return TriggerSpec{
		Phases:   phases,
		CronSpec: cronSpec,
	}, nil
}

// formatAvailablePhases formats the available phases for error messages.
func formatAvailablePhases(availablePhases map[string]bool) string {
	phases := make([]string, 0, len(availablePhases))
	for p := range availablePhases {
		phases = append(phases, p)
	}
	return strings.Join(phases, ", ")
}
