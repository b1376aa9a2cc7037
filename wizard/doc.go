// Package wizard implements the onboarding setup wizard orchestrator.
//
// The wizard executes a fixed plan of phases, each holding an ordered or
// unordered group of steps that share an execution mode and a contiguous
// slice of overall progress. Steps are opaque collaborator calls: a step
// either completes synchronously or enqueues a background job that the
// wizard polls to completion.
//
// # Core Concepts
//
// A Plan is the static catalog of phases and step definitions, validated
// at construction; a corrupt plan never runs partially.
//
// The Wizard owns the mutable run state (step statuses, progress, stats,
// failure record) and guards it with a single mutex; phase runners are the
// only writers during a run.
//
// Cancellation is cooperative: aborting bumps a monotonic epoch, and every
// waiting loop holds a Token snapshot it checks at sub-second granularity.
// In-flight collaborator calls are never killed, their results are simply
// discarded once the epoch has advanced.
//
// # Recovery
//
// Every state change is offered to an optional StatePersister, so a crashed
// or reloaded client can restore the run and resume from the failed or
// current step. Retry re-runs just the failed step; restarting from an
// earlier step resets that step and everything after it, because later
// steps may depend on its output.
package wizard
