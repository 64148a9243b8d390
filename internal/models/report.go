package models

import (
	"strings"
	"time"
)

// Outcome is the result category of one project or repository in a report
type Outcome string

const (
	OutcomeOK Outcome = "ok"
	// OutcomeFailed is a git command that exited non-zero
	OutcomeFailed Outcome = "failed"
	// OutcomeError is an entity or repository error
	OutcomeError Outcome = "error"
	// OutcomeBranchExists means the local branch exists and force was off
	OutcomeBranchExists Outcome = "branch-exists"
	// OutcomeNoMatch means no repository has a remote for the project
	OutcomeNoMatch Outcome = "no-match"
)

// Mark returns the short marker printed in front of a report line
func (o Outcome) Mark() string {
	switch o {
	case OutcomeOK:
		return "OK"
	case OutcomeFailed, OutcomeError:
		return "KO"
	default:
		return "--"
	}
}

// Succeeded reports whether the outcome counts as done
func (o Outcome) Succeeded() bool {
	return o == OutcomeOK
}

// Operation names the topic operation a report belongs to
type Operation string

const (
	OperationFetch    Operation = "fetch"
	OperationCheckout Operation = "checkout"
)

// Result is one line of a report
type Result struct {
	Repository string  `json:"repository,omitempty"`
	Project    string  `json:"project,omitempty"`
	Commit     string  `json:"commit,omitempty"`
	Outcome    Outcome `json:"outcome"`
	Message    string  `json:"message,omitempty"`
	Output     string  `json:"output,omitempty"`
}

// Subject returns what the result is about: the project for fetches, the
// repository otherwise
func (r Result) Subject() string {
	if r.Project != "" {
		return r.Project
	}
	return r.Repository
}

// Line formats the result as "OK subject: message"
func (r Result) Line() string {
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		return r.Outcome.Mark() + " " + r.Subject()
	}
	return r.Outcome.Mark() + " " + r.Subject() + ": " + msg
}

// Report collects the results of one topic operation
type Report struct {
	ID        string    `json:"id"`
	Operation Operation `json:"operation"`
	Topic     string    `json:"topic,omitempty"`
	Branch    string    `json:"branch"`
	StartedAt time.Time `json:"started_at"`
	Results   []Result  `json:"results"`
}

// Add appends a result
func (r *Report) Add(res Result) {
	r.Results = append(r.Results, res)
}

// Succeeded returns the results with outcome ok
func (r *Report) Succeeded() []Result {
	return r.filter(func(o Outcome) bool { return o.Succeeded() })
}

// Failed returns the results with outcome failed or error
func (r *Report) Failed() []Result {
	return r.filter(func(o Outcome) bool { return o == OutcomeFailed || o == OutcomeError })
}

// OK reports whether no result failed
func (r *Report) OK() bool {
	return len(r.Failed()) == 0
}

func (r *Report) filter(keep func(Outcome) bool) []Result {
	var out []Result
	for _, res := range r.Results {
		if keep(res.Outcome) {
			out = append(out, res)
		}
	}
	return out
}
