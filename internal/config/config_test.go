package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_MatchesPipelineConstants(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 800, cfg.Pipeline.TargetWidth)
	assert.Equal(t, 2.0, cfg.Pipeline.ClipLimit)
	assert.Equal(t, 8, cfg.Pipeline.TileGrid)
	assert.Equal(t, 3, cfg.Pipeline.OpeningKernel)
	assert.Equal(t, 11, cfg.Pipeline.ThresholdBlockSize)
	assert.Equal(t, 2.0, cfg.Pipeline.ThresholdOffset)
	assert.Equal(t, 1.5, cfg.Pipeline.MinWidthPx)
	assert.Equal(t, 30, cfg.Pipeline.NarrowPercent)
	assert.Equal(t, 30, cfg.Pipeline.WidePercent)
	assert.Equal(t, 45.0, cfg.Pipeline.CalibrationFactor)
	assert.Equal(t, 60*time.Second, cfg.Report.Timeout.Std())
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	data := []byte(`
pipeline:
  calibrationFactor: 50
report:
  model: llama3
  timeout: 5s
logging:
  format: text
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 50.0, cfg.Pipeline.CalibrationFactor)
	assert.Equal(t, 800, cfg.Pipeline.TargetWidth, "unset fields keep defaults")
	assert.Equal(t, "llama3", cfg.Report.Model)
	assert.Equal(t, 5*time.Second, cfg.Report.Timeout.Std())
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed yaml", "pipeline: [unclosed"},
		{"bad duration", "report:\n  timeout: soon\n"},
		{"even block size", "pipeline:\n  thresholdBlockSize: 10\n"},
		{"zero width", "pipeline:\n  targetWidth: 0\n"},
		{"percent too large", "pipeline:\n  narrowPercent: 70\n"},
		{"unknown log format", "logging:\n  format: xml\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cfg.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))

			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveConfig_RoundTripsThroughLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cfg.yaml")
	cfg := DefaultConfig()
	cfg.Report.Enabled = false
	cfg.Report.Timeout = Duration(90 * time.Second)

	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate_ReportDisabledSkipsReportChecks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Report.Enabled = false
	cfg.Report.Endpoint = ""
	cfg.Report.Timeout = 0

	assert.NoError(t, cfg.Validate())
}
