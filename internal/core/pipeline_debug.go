// Pipeline run and stage timing statistics
package core

import (
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// PipelineStats accumulates run outcomes and per-stage durations across
// Compute calls. It never influences a result.
type PipelineStats struct {
	mu sync.Mutex

	runs         int
	failures     int
	unmeasurable int
	runTimes     []time.Duration
	stageTimes   map[string][]time.Duration
}

// StatsSnapshot is a point-in-time copy of PipelineStats.
type StatsSnapshot struct {
	Runs          int                      `json:"runs"`
	Failures      int                      `json:"failures"`
	Unmeasurable  int                      `json:"unmeasurable"`
	AvgRunTime    time.Duration            `json:"avg_run_time"`
	AvgStageTimes map[string]time.Duration `json:"avg_stage_times"`
}

func NewPipelineStats() *PipelineStats {
	return &PipelineStats{
		stageTimes: make(map[string][]time.Duration),
	}
}

func (ps *PipelineStats) recordStage(name string, d time.Duration) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.stageTimes[name] = append(ps.stageTimes[name], d)
}

func (ps *PipelineStats) recordRun(d time.Duration, measurable bool, err error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.runs++
	if err != nil {
		ps.failures++
		return
	}
	if !measurable {
		ps.unmeasurable++
	}
	ps.runTimes = append(ps.runTimes, d)
}

// Snapshot returns the current counters and averages.
func (ps *PipelineStats) Snapshot() StatsSnapshot {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	snap := StatsSnapshot{
		Runs:          ps.runs,
		Failures:      ps.failures,
		Unmeasurable:  ps.unmeasurable,
		AvgRunTime:    averageDuration(ps.runTimes),
		AvgStageTimes: make(map[string]time.Duration, len(ps.stageTimes)),
	}
	for name, times := range ps.stageTimes {
		snap.AvgStageTimes[name] = averageDuration(times)
	}
	return snap
}

// Log writes the snapshot at Debug level.
func (ps *PipelineStats) Log(logger logrus.FieldLogger) {
	snap := ps.Snapshot()
	fields := logrus.Fields{
		"runs":         snap.Runs,
		"failures":     snap.Failures,
		"unmeasurable": snap.Unmeasurable,
		"avg_run_ms":   snap.AvgRunTime.Milliseconds(),
	}
	for name, d := range snap.AvgStageTimes {
		fields["avg_ms_"+strings.ReplaceAll(strings.ToLower(name), " ", "_")] = d.Milliseconds()
	}
	logger.WithFields(fields).Debug("PIPELINE: Statistics")
}

func averageDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var total time.Duration
	for _, d := range durations {
		total += d
	}

	return total / time.Duration(len(durations))
}
