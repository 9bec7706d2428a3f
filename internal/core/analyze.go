package core

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"retinal-vessel-caliber/internal/report"
)

// ReportFetcher produces the clinical report for a pair of widths. It must
// not fail: faults are returned as a degraded report.Result.
type ReportFetcher interface {
	Fetch(ctx context.Context, arteriole, venule float64) report.Result
}

// Analysis bundles the numeric pipeline result with its report.
type Analysis struct {
	*Result
	Report     report.Result
	Assessment report.Assessment
}

// MetricsMarkdown renders the measurement table for display.
func (a *Analysis) MetricsMarkdown() string {
	return report.MetricsMarkdown(a.ArterioleWidth, a.VenuleWidth)
}

// ReportMarkdown returns the service report, or the rule-based assessment
// preceded by the fallback notice when the service did not answer. An image
// without measurable vessels gets a notice instead of an assessment.
func (a *Analysis) ReportMarkdown() string {
	if a.Report.OK() {
		return a.Report.Display()
	}
	if a.Result.Skeleton == nil {
		return a.Report.Display()
	}
	if !a.Measurable() {
		return fmt.Sprintf("_%s_\n\n%s", a.Report.Display(), report.NoMeasurableVessels)
	}
	return fmt.Sprintf("_%s_\n\n%s", a.Report.Display(), report.AssessmentMarkdown(a.Assessment))
}

// Analyzer composes the pipeline with the report collaborator for one request.
type Analyzer struct {
	pipeline *Pipeline
	reports  ReportFetcher
	logger   logrus.FieldLogger
}

// NewAnalyzer creates an analyzer. A nil reports fetcher skips the report.
func NewAnalyzer(pipeline *Pipeline, reports ReportFetcher, logger logrus.FieldLogger) *Analyzer {
	return &Analyzer{pipeline: pipeline, reports: reports, logger: logger}
}

// Pipeline returns the underlying numeric pipeline.
func (a *Analyzer) Pipeline() *Pipeline {
	return a.pipeline
}

// Analyze computes the caliber estimate and then fetches the report. The
// numeric result is computed before any report request, and a report
// failure only ever degrades Analysis.Report. Unmeasurable results are
// neither assessed nor sent to the report service.
func (a *Analyzer) Analyze(ctx context.Context, img *RawImage) (*Analysis, error) {
	res, err := a.pipeline.Compute(img)
	if err != nil {
		return nil, err
	}

	analysis := &Analysis{Result: res}
	if res.Measurable() {
		analysis.Assessment = report.Assess(res.ArterioleWidth, res.VenuleWidth)
	}

	switch {
	case img == nil:
		analysis.Report = report.Skipped("no image supplied")
	case !res.Measurable():
		analysis.Report = report.Skipped("no measurable vessels")
	case a.reports == nil:
		analysis.Report = report.Skipped("report service disabled")
	default:
		analysis.Report = a.reports.Fetch(ctx, res.ArterioleWidth, res.VenuleWidth)
	}

	a.logger.WithFields(logrus.Fields{
		"run_id":        res.RunID,
		"report_status": analysis.Report.Status.String(),
	}).Debug("ANALYZE: Analysis complete")

	return analysis, nil
}
