// Stateless image-to-caliber pipeline
package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"retinal-vessel-caliber/internal/algorithms"
	"retinal-vessel-caliber/internal/caliber"
	"retinal-vessel-caliber/internal/config"
	"retinal-vessel-caliber/internal/metrics"
)

// Result is the terminal output of one pipeline run.
type Result struct {
	caliber.Estimate

	// Skeleton is nil only when no image was supplied
	Skeleton   *Mask
	VesselMask *Mask

	// Samples are the filtered width samples in pixels, sorted ascending
	Samples     []float64
	Diagnostics metrics.Diagnostics

	RunID    string
	Duration time.Duration
}

// Pipeline runs Normalizer, ContrastEnhancer, VesselSegmenter, Skeletonizer
// and the width estimator in sequence. It holds only immutable configuration,
// so one Pipeline may serve concurrent Compute calls.
type Pipeline struct {
	normalizer *Normalizer
	enhancer   algorithms.Stage
	segmenter  algorithms.Stage
	skeleton   algorithms.Stage
	distance   algorithms.Stage
	estimator  *caliber.Estimator
	evaluator  *metrics.Evaluator
	stats      *PipelineStats
	logger     logrus.FieldLogger
}

// NewPipeline builds a pipeline from validated configuration
func NewPipeline(cfg config.PipelineConfig, logger logrus.FieldLogger) (*Pipeline, error) {
	if cfg.TargetWidth < 1 {
		return nil, fmt.Errorf("target width must be positive, got %d", cfg.TargetWidth)
	}

	estimator, err := caliber.NewEstimator(caliber.Params{
		MinWidthPx:        cfg.MinWidthPx,
		NarrowPercent:     cfg.NarrowPercent,
		WidePercent:       cfg.WidePercent,
		CalibrationFactor: cfg.CalibrationFactor,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid width estimator parameters: %w", err)
	}

	p := &Pipeline{
		normalizer: NewNormalizer(cfg.TargetWidth),
		enhancer:   algorithms.NewContrastEnhancer(cfg.ClipLimit, cfg.TileGrid),
		segmenter:  algorithms.NewVesselSegmenter(cfg.OpeningKernel, cfg.ThresholdBlockSize, cfg.ThresholdOffset),
		skeleton:   algorithms.NewSkeletonizer(),
		distance:   algorithms.NewDistanceField(),
		estimator:  estimator,
		evaluator:  metrics.NewEvaluator(),
		stats:      NewPipelineStats(),
		logger:     logger,
	}

	for _, stage := range p.Stages() {
		if err := stage.Validate(); err != nil {
			return nil, fmt.Errorf("invalid %s parameters: %w", stage.GetName(), err)
		}
	}

	stageNames := make([]string, 0, len(p.Stages()))
	for _, stage := range p.Stages() {
		stageNames = append(stageNames, stage.GetName())
	}
	logger.WithFields(logrus.Fields{
		"target_width": cfg.TargetWidth,
		"stages":       stageNames,
		"metrics":      p.evaluator.Names(),
	}).Debug("PIPELINE: Created")

	return p, nil
}

// Stages returns the matrix stages in execution order.
func (p *Pipeline) Stages() []algorithms.Stage {
	return []algorithms.Stage{p.enhancer, p.segmenter, p.skeleton, p.distance}
}

// TargetWidth returns the normalization width.
func (p *Pipeline) TargetWidth() int {
	return p.normalizer.TargetWidth
}

// CalibrationParams returns the width estimator constants.
func (p *Pipeline) CalibrationParams() caliber.Params {
	return p.estimator.Params()
}

// Stats returns the accumulated run statistics.
func (p *Pipeline) Stats() *PipelineStats {
	return p.stats
}

// ComputeCaliber is the narrow entry point: arteriole and venule widths in
// micrometers plus the skeleton. A nil image yields (0, 0, nil, nil).
func (p *Pipeline) ComputeCaliber(img *RawImage) (float64, float64, *Mask, error) {
	res, err := p.Compute(img)
	if err != nil {
		return 0, 0, nil, err
	}
	return res.ArterioleWidth, res.VenuleWidth, res.Skeleton, nil
}

// Compute runs the full pipeline on img. A nil img is not an error and yields
// a zero Result without a skeleton. Malformed geometry fails with an error
// wrapping ErrInvalidImageFormat. An image without measurable vessels yields
// a zero estimate with the skeleton still populated.
func (p *Pipeline) Compute(img *RawImage) (*Result, error) {
	start := time.Now()
	res, err := p.compute(img, start)
	if img != nil {
		p.stats.recordRun(time.Since(start), err == nil && res.Measurable(), err)
	}
	return res, err
}

func (p *Pipeline) compute(img *RawImage, start time.Time) (*Result, error) {
	runID := uuid.NewString()
	log := p.logger.WithField("run_id", runID)

	if img == nil {
		log.Info("PIPELINE: No image supplied, returning empty result")
		return &Result{RunID: runID}, nil
	}

	log.WithFields(logrus.Fields{
		"width":    img.Width,
		"height":   img.Height,
		"channels": img.Channels,
	}).Debug("PIPELINE: Starting run")

	normalized, err := p.normalizer.Normalize(img)
	if err != nil {
		log.WithError(err).Warn("PIPELINE: Normalization failed")
		return nil, err
	}
	defer normalized.Close()

	enhanced, err := p.apply(log, p.enhancer, normalized)
	if err != nil {
		return nil, err
	}
	defer enhanced.Close()

	maskMat, err := p.apply(log, p.segmenter, enhanced)
	if err != nil {
		return nil, err
	}
	defer maskMat.Close()

	skeletonMat, err := p.apply(log, p.skeleton, maskMat)
	if err != nil {
		return nil, err
	}
	defer skeletonMat.Close()

	distMat, err := p.apply(log, p.distance, maskMat)
	if err != nil {
		return nil, err
	}
	defer distMat.Close()

	mask, err := maskFromMat(maskMat)
	if err != nil {
		return nil, fmt.Errorf("vessel mask: %w", err)
	}
	skeleton, err := maskFromMat(skeletonMat)
	if err != nil {
		return nil, fmt.Errorf("skeleton: %w", err)
	}
	dist, err := algorithms.Float32Values(distMat)
	if err != nil {
		return nil, fmt.Errorf("distance field: %w", err)
	}

	samples, err := p.estimator.Samples(dist, skeleton.Pix)
	if err != nil {
		return nil, fmt.Errorf("width sampling: %w", err)
	}
	estimate := p.estimator.Estimate(samples)

	diagnostics, err := p.evaluator.Evaluate(metrics.Grid{
		Width:    mask.Width,
		Height:   mask.Height,
		Mask:     mask.Pix,
		Skeleton: skeleton.Pix,
	})
	if err != nil {
		return nil, fmt.Errorf("diagnostics: %w", err)
	}

	res := &Result{
		Estimate:    estimate,
		Skeleton:    skeleton,
		VesselMask:  mask,
		Samples:     samples,
		Diagnostics: diagnostics,
		RunID:       runID,
		Duration:    time.Since(start),
	}

	fields := logrus.Fields{
		"arteriole_um":    res.ArterioleWidth,
		"venule_um":       res.VenuleWidth,
		"samples":         res.SampleCount,
		"skeleton_pixels": diagnostics.SkeletonPixels,
		"duration_ms":     res.Duration.Milliseconds(),
	}
	if !estimate.Measurable() {
		log.WithFields(fields).Info("PIPELINE: No measurable vessels")
	} else {
		log.WithFields(fields).Info("PIPELINE: Caliber estimated")
	}

	return res, nil
}

func (p *Pipeline) apply(log logrus.FieldLogger, stage algorithms.Stage, input gocv.Mat) (gocv.Mat, error) {
	start := time.Now()
	out, err := stage.Apply(input)
	if err != nil {
		log.WithError(err).WithField("stage", stage.GetName()).Error("PIPELINE: Stage failed")
		return gocv.NewMat(), fmt.Errorf("%s: %w", stage.GetName(), err)
	}
	elapsed := time.Since(start)
	p.stats.recordStage(stage.GetName(), elapsed)
	log.WithFields(logrus.Fields{
		"stage":       stage.GetName(),
		"duration_ms": elapsed.Milliseconds(),
	}).Debug("PIPELINE: Stage complete")
	return out, nil
}
