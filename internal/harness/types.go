package harness

import "github.com/roach88/graphstore/internal/graph"

// Trace statuses.
const (
	StatusReduced = "reduced"
	StatusIgnored = "ignored"
)

// TraceEvent is one dispatched event.
type TraceEvent struct {
	Seq    int64  `json:"seq"`
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Status string `json:"status"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Trace lists dispatched events in seq order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Rejected lists events whose bodies failed to decode.
	Rejected []string `json:"rejected,omitempty"`

	// Notifications is how many times the store notified its subscriber.
	Notifications int `json:"notifications"`

	// Digest identifies the final state.
	Digest string `json:"digest"`

	// Final is the last committed state.
	Final graph.State `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
