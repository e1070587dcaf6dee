package report

import (
	"fmt"
)

// Stage identifies a pipeline stage in outcomes and errors.
type Stage string

const (
	StageTemplate    Stage = "template"
	StageResolve     Stage = "resolve"
	StageFill        Stage = "fill"
	StageSynthesize  Stage = "synthesize"
	StageArbitrate   Stage = "arbitrate"
	StageAttachments Stage = "attachments"
	StageSignature   Stage = "signature"
	StageCounters    Stage = "counters"
	StageFlatten     Stage = "flatten"
)

// OutcomeStatus classifies how a stage finished.
type OutcomeStatus string

const (
	StatusSuccess  OutcomeStatus = "success"
	StatusDegraded OutcomeStatus = "degraded"
	StatusFatal    OutcomeStatus = "fatal"
)

// StageOutcome records how a single pipeline stage finished. Degraded stages
// carry a human-readable reason; the document is still delivered.
type StageOutcome struct {
	Stage  Stage         `json:"stage"`
	Status OutcomeStatus `json:"status"`
	Reason string        `json:"reason,omitempty"`
}

// GenerationReport aggregates stage outcomes and the items omitted from the
// delivered document, so callers can react to "signature missing" without
// parsing log text.
type GenerationReport struct {
	Outcomes     []StageOutcome `json:"outcomes"`
	MissingItems []string       `json:"missing_items,omitempty"`
}

func (r *GenerationReport) success(s Stage) {
	r.Outcomes = append(r.Outcomes, StageOutcome{Stage: s, Status: StatusSuccess})
}

func (r *GenerationReport) degraded(s Stage, reason string) {
	r.Outcomes = append(r.Outcomes, StageOutcome{Stage: s, Status: StatusDegraded, Reason: reason})
}

func (r *GenerationReport) fatal(s Stage, reason string) {
	r.Outcomes = append(r.Outcomes, StageOutcome{Stage: s, Status: StatusFatal, Reason: reason})
}

// Degraded reports whether any stage finished degraded.
func (r *GenerationReport) Degraded() bool {
	for _, o := range r.Outcomes {
		if o.Status == StatusDegraded {
			return true
		}
	}
	return false
}

// Missing records an item omitted from the delivered document.
func (r *GenerationReport) Missing(item string) {
	r.MissingItems = append(r.MissingItems, item)
}

// Summary returns a one-line description of the report.
func (r *GenerationReport) Summary() string {
	var degraded int
	for _, o := range r.Outcomes {
		if o.Status == StatusDegraded {
			degraded++
		}
	}
	if degraded == 0 && len(r.MissingItems) == 0 {
		return fmt.Sprintf("%d stage(s) completed", len(r.Outcomes))
	}
	return fmt.Sprintf("%d stage(s) completed, %d degraded, %d item(s) missing",
		len(r.Outcomes), degraded, len(r.MissingItems))
}

// GenerationError is a hard failure surfaced to the caller. Only template
// load failure or total inability to produce bytes uses it; every other
// fault degrades the stage outcome instead.
type GenerationError struct {
	Stage Stage
	Op    string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("report generation failed in %s stage (%s): %v", e.Stage, e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
