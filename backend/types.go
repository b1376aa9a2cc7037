package backend

// JobPhase is the lifecycle phase of a server-side background job.
type JobPhase string

const (
	JobQueued    JobPhase = "queued"
	JobRunning   JobPhase = "running"
	JobCompleted JobPhase = "completed"
	JobFailed    JobPhase = "failed"
)

// Terminal reports whether the job has reached a final phase.
func (p JobPhase) Terminal() bool {
	return p == JobCompleted || p == JobFailed
}

// CallResult is the outcome of a collaborator call.
// Synchronous endpoints return Data directly. Asynchronous endpoints
// return a JobID instead; callers branch on its presence and poll the
// job to completion.
type CallResult struct {
	Data  map[string]any `json:"data,omitempty"`
	JobID string         `json:"job_id,omitempty"`
}

// Async reports whether the call enqueued a background job.
func (r *CallResult) Async() bool {
	return r.JobID != ""
}

// JobState is a point-in-time view of a background job, observed only
// through polling.
type JobState struct {
	JobID    string         `json:"job_id"`
	Status   JobPhase       `json:"status"`
	Progress int            `json:"progress_percent"`
	Result   map[string]any `json:"result,omitempty"`
	Error    string         `json:"error,omitempty"`
}
