package domain

// Pipeline stage names, in execution order.
const (
	StageInit     = "init_session"
	StageExtract  = "extract"
	StageSegment  = "segment"
	StageEmbed    = "embed_store"
	StageFinalize = "finalize"
)

// Outcome is the terminal state of one pipeline stage.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// StageStatus is the per-stage status value the orchestrator consumes to
// decide continue-vs-abort.
type StageStatus struct {
	Stage   string
	Outcome Outcome
	Message string
}

// Failed reports whether the stage aborted.
func (s StageStatus) Failed() bool { return s.Outcome == OutcomeFailed }
