// Package steps defines the production onboarding catalog: the six
// phases, their step definitions, and the bespoke handlers for steps
// whose behavior is more than one collaborator call.
package steps
