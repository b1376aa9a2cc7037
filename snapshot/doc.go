// Package snapshot persists wizard run state so an interrupted onboarding
// can be resumed. Saves are best-effort: a failing store logs a warning
// and the run continues; only Load is allowed to matter, and only at
// mount time.
//
// Three store backends are provided: in-memory (tests, ephemeral runs),
// file (one JSON document per identity), and SQLite (shared state
// directory for multi-tenant deployments).
package snapshot
