package report

import (
	"errors"
	"strings"
	"testing"
)

func TestGenerationReportDegraded(t *testing.T) {
	rep := &GenerationReport{}
	rep.success(StageTemplate)
	if rep.Degraded() {
		t.Error("report with only successes must not be degraded")
	}

	rep.degraded(StageSignature, "no signature attachment")
	if !rep.Degraded() {
		t.Error("report with a degraded stage must be degraded")
	}
}

func TestGenerationReportSummary(t *testing.T) {
	rep := &GenerationReport{}
	rep.success(StageTemplate)
	rep.success(StageFill)
	if got := rep.Summary(); got != "2 stage(s) completed" {
		t.Errorf("Summary() = %q", got)
	}

	rep.degraded(StageFlatten, "render backend unavailable")
	rep.Missing("signature")
	got := rep.Summary()
	if !strings.Contains(got, "1 degraded") || !strings.Contains(got, "1 item(s) missing") {
		t.Errorf("Summary() = %q, want degraded and missing counts", got)
	}
}

func TestGenerationErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &GenerationError{Stage: StageTemplate, Op: "load", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("GenerationError must unwrap to the inner error")
	}
	if !strings.Contains(err.Error(), "template") {
		t.Errorf("Error() = %q, want the stage name", err.Error())
	}
}
