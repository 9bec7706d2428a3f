package core

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retinal-vessel-caliber/internal/report"
)

type fakeFetcher struct {
	result report.Result
	calls  int
	gotA   float64
	gotV   float64
}

func (f *fakeFetcher) Fetch(_ context.Context, arteriole, venule float64) report.Result {
	f.calls++
	f.gotA, f.gotV = arteriole, venule
	return f.result
}

func TestAnalyze_DegradedReportKeepsNumbers(t *testing.T) {
	p, _ := newTestPipeline(t)
	logger, _ := test.NewNullLogger()
	fetcher := &fakeFetcher{result: report.Degraded("medllama2:latest", "connection refused")}

	analysis, err := NewAnalyzer(p, fetcher, logger).Analyze(context.Background(), syntheticFundus(3))
	require.NoError(t, err)

	require.True(t, analysis.Measurable())
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, analysis.ArterioleWidth, fetcher.gotA)
	assert.Equal(t, analysis.VenuleWidth, fetcher.gotV)
	assert.Equal(t, report.StatusDegraded, analysis.Report.Status)

	md := analysis.ReportMarkdown()
	assert.Contains(t, md, "Report service unavailable")
	assert.Contains(t, md, "**Risk Assessment**")
	assert.Contains(t, md, report.MandatoryStatement)
	assert.Contains(t, analysis.MetricsMarkdown(), "**CRAE**")
}

func TestAnalyze_SuccessfulReportIsPassedThrough(t *testing.T) {
	p, _ := newTestPipeline(t)
	logger, _ := test.NewNullLogger()
	fetcher := &fakeFetcher{result: report.Success("**Biometric Audit** ok")}

	analysis, err := NewAnalyzer(p, fetcher, logger).Analyze(context.Background(), syntheticFundus(1))
	require.NoError(t, err)

	assert.Equal(t, "**Biometric Audit** ok", analysis.ReportMarkdown())
	assert.Same(t, p, NewAnalyzer(p, fetcher, logger).Pipeline())
}

func TestAnalyze_NilImageSkipsReport(t *testing.T) {
	p, _ := newTestPipeline(t)
	logger, _ := test.NewNullLogger()
	fetcher := &fakeFetcher{result: report.Success("unused")}

	analysis, err := NewAnalyzer(p, fetcher, logger).Analyze(context.Background(), nil)
	require.NoError(t, err)

	assert.Zero(t, fetcher.calls)
	assert.Equal(t, report.StatusSkipped, analysis.Report.Status)
	assert.Nil(t, analysis.Skeleton)
	assert.Equal(t, analysis.Report.Display(), analysis.ReportMarkdown())
}

func TestAnalyze_DisabledReportService(t *testing.T) {
	p, _ := newTestPipeline(t)
	logger, _ := test.NewNullLogger()

	analysis, err := NewAnalyzer(p, nil, logger).Analyze(context.Background(), syntheticFundus(3))
	require.NoError(t, err)

	require.True(t, analysis.Measurable())
	assert.Equal(t, report.StatusSkipped, analysis.Report.Status)
	assert.Equal(t, report.Assess(analysis.ArterioleWidth, analysis.VenuleWidth), analysis.Assessment)
	assert.Contains(t, analysis.ReportMarkdown(), "report service disabled")
	assert.Contains(t, analysis.ReportMarkdown(), "**Risk Assessment**")
}

func TestAnalyze_UnmeasurableImageIsNotAssessed(t *testing.T) {
	p, _ := newTestPipeline(t)
	logger, _ := test.NewNullLogger()
	fetcher := &fakeFetcher{result: report.Degraded("medllama2:latest", "connection refused")}

	analysis, err := NewAnalyzer(p, fetcher, logger).Analyze(context.Background(), NewRawImage(100, 100, 3))
	require.NoError(t, err)

	assert.False(t, analysis.Measurable())
	require.NotNil(t, analysis.Skeleton)
	assert.Zero(t, fetcher.calls, "zero widths are not sent for a report")
	assert.Equal(t, report.StatusSkipped, analysis.Report.Status)
	assert.Equal(t, report.Assessment{}, analysis.Assessment)
	assert.False(t, analysis.Assessment.AtRisk)

	md := analysis.ReportMarkdown()
	assert.Contains(t, md, "No measurable vessels")
	assert.NotContains(t, md, "AT RISK")
	assert.NotContains(t, md, "hypertension")
}

func TestReportMarkdown_DegradedWithoutVessels(t *testing.T) {
	analysis := &Analysis{
		Result: &Result{Skeleton: &Mask{Width: 1, Height: 1, Pix: []byte{0}}},
		Report: report.Degraded("medllama2:latest", "timeout"),
	}

	md := analysis.ReportMarkdown()
	assert.Contains(t, md, "Report service unavailable")
	assert.Contains(t, md, report.NoMeasurableVessels)
	assert.NotContains(t, md, "**Risk Assessment**")
}

func TestAnalyze_InvalidImageFails(t *testing.T) {
	p, _ := newTestPipeline(t)
	logger, _ := test.NewNullLogger()
	fetcher := &fakeFetcher{}

	_, err := NewAnalyzer(p, fetcher, logger).Analyze(context.Background(), &RawImage{Width: 2, Height: 2, Channels: 5})
	assert.ErrorIs(t, err, ErrInvalidImageFormat)
	assert.Zero(t, fetcher.calls)
}
