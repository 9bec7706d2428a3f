// Package report produces the clinical text report for a caliber estimate
// by calling an external Ollama chat service. Service faults never escape as
// errors: they are folded into a degraded Result.
package report

import "fmt"

// Status is the outcome class of a report request.
type Status int

const (
	// StatusSuccess means the service returned report text
	StatusSuccess Status = iota
	// StatusDegraded means the service was unreachable, slow or misbehaving
	StatusDegraded
	// StatusSkipped means no request was made
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusDegraded:
		return "degraded"
	case StatusSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result is success(Text) | degraded(Reason) | skipped(Reason).
type Result struct {
	Status Status
	Text   string
	Reason string

	// Model is the model name the fallback message refers to
	Model string
}

// Success wraps report text.
func Success(text string) Result {
	return Result{Status: StatusSuccess, Text: text}
}

// Degraded records why the service could not produce a report.
func Degraded(model, reason string) Result {
	return Result{Status: StatusDegraded, Reason: reason, Model: model}
}

// Skipped records that no report was requested.
func Skipped(reason string) Result {
	return Result{Status: StatusSkipped, Reason: reason}
}

// OK reports whether Text holds a service-generated report.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// Display converts the result to the text shown to a user.
func (r Result) Display() string {
	switch r.Status {
	case StatusSuccess:
		return r.Text
	case StatusDegraded:
		model := r.Model
		if model == "" {
			model = "configured"
		}
		return fmt.Sprintf("Report service unavailable: ensure the Ollama service is running and the '%s' model is pulled.", model)
	default:
		if r.Reason == "" {
			return "Clinical report not requested."
		}
		return fmt.Sprintf("Clinical report not requested: %s.", r.Reason)
	}
}
