package main

import (
	"context"
	"errors"
	"fmt"
	stdio "io"

	"github.com/sirupsen/logrus"

	"retinal-vessel-caliber/internal/core"
	"retinal-vessel-caliber/internal/io"
	"retinal-vessel-caliber/internal/visualization"
)

type headlessOptions struct {
	ImagePath     string
	SkeletonPath  string
	HistogramPath string
}

// runHeadless analyzes one image file and prints the measurement table and
// report as Markdown to out.
func runHeadless(ctx context.Context, analyzer *core.Analyzer, loader *io.ImageLoader, opts headlessOptions, out stdio.Writer, logger logrus.FieldLogger) error {
	img, err := loader.LoadRawImage(opts.ImagePath)
	if err != nil {
		return err
	}

	analysis, err := analyzer.Analyze(ctx, img)
	analyzer.Pipeline().Stats().Log(logger)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", opts.ImagePath, err)
	}

	if opts.SkeletonPath != "" {
		if err := loader.SaveMask(analysis.Skeleton, opts.SkeletonPath); err != nil {
			return fmt.Errorf("save skeleton: %w", err)
		}
	}

	if opts.HistogramPath != "" {
		params := analyzer.Pipeline().CalibrationParams()
		err := visualization.SaveWidthHistogram(opts.HistogramPath, analysis.Samples, params.NarrowPercent, params.WidePercent)
		switch {
		case errors.Is(err, visualization.ErrNoSamples):
			logger.Warn("HEADLESS: No width samples, histogram not written")
		case err != nil:
			return fmt.Errorf("save histogram: %w", err)
		default:
			logger.WithField("filepath", opts.HistogramPath).Info("HEADLESS: Histogram written")
		}
	}

	_, err = fmt.Fprintf(out, "%s\n\n%s\n", analysis.MetricsMarkdown(), analysis.ReportMarkdown())
	return err
}
