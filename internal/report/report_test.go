package report

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

type failingHTTPClient struct {
	err   error
	calls int
}

func (f *failingHTTPClient) Do(req *http.Request) (*http.Response, error) {
	f.calls++
	return nil, f.err
}

func TestBuildPrompt_EmbedsValuesAndRanges(t *testing.T) {
	prompt, err := BuildPrompt(176.4, 240)
	require.NoError(t, err)

	assert.Contains(t, prompt, "- CRAE: 176.4 µm")
	assert.Contains(t, prompt, "- CRVE: 240 µm")
	assert.Contains(t, prompt, "Normal CRAE: 196 ± 13 µm (Normal range: 183–209 µm)")
	assert.Contains(t, prompt, "Normal CRVE: 220 ± 15 µm (Normal range: 205–235 µm)")
	assert.Contains(t, prompt, "If CRAE < 183 µm")
	assert.Contains(t, prompt, "If CRVE > 235 µm")
	assert.Contains(t, prompt, MandatoryStatement)
}

func TestClient_FetchSuccess(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{Role: "assistant", Content: "  **Biometric Audit** ...  "},
			Done:    true,
		})
	}))
	defer srv.Close()

	c := NewClient(Options{Endpoint: srv.URL + "/", Model: "medllama2:latest", Timeout: time.Second}, nil, quietLogger())
	res := c.Fetch(context.Background(), 190.12, 221.5)

	require.True(t, res.OK(), "reason: %s", res.Reason)
	assert.Equal(t, "**Biometric Audit** ...", res.Text)
	assert.Equal(t, res.Text, res.Display())

	assert.Equal(t, "medllama2:latest", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "- CRAE: 190.12 µm")
}

func TestClient_FetchDegraded(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model not found", http.StatusNotFound)
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, "{not json")
			},
		},
		{
			name: "empty content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(chatResponse{Done: true})
			},
		},
		{
			name: "error field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(chatResponse{Error: "model 'medllama2' not found"})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(Options{Endpoint: srv.URL, Model: "medllama2:latest", Timeout: time.Second}, nil, quietLogger())
			res := c.Fetch(context.Background(), 190, 220)

			assert.Equal(t, StatusDegraded, res.Status)
			assert.NotEmpty(t, res.Reason)
			assert.Contains(t, res.Display(), "Report service unavailable")
			assert.Contains(t, res.Display(), "medllama2:latest")
		})
	}
}

func TestClient_FetchTransportFailureNeverPanicsOrErrors(t *testing.T) {
	httpClient := &failingHTTPClient{err: errors.New("connection refused")}
	c := NewClient(Options{Endpoint: "http://127.0.0.1:1", Model: "medllama2:latest", Timeout: time.Second}, httpClient, quietLogger())

	res := c.Fetch(context.Background(), 0, 0)

	assert.Equal(t, 1, httpClient.calls)
	assert.Equal(t, StatusDegraded, res.Status)
	assert.Contains(t, res.Reason, "connection refused")
	assert.Equal(t,
		"Report service unavailable: ensure the Ollama service is running and the 'medllama2:latest' model is pulled.",
		res.Display())
}

func TestClient_FetchTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(Options{Endpoint: srv.URL, Model: "m", Timeout: 50 * time.Millisecond}, nil, quietLogger())

	start := time.Now()
	res := c.Fetch(context.Background(), 190, 220)

	assert.Equal(t, StatusDegraded, res.Status)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestResult_Display(t *testing.T) {
	assert.Equal(t, "text", Success("text").Display())
	assert.Equal(t, "Clinical report not requested: no image supplied.", Skipped("no image supplied").Display())
	assert.Equal(t, "Clinical report not requested.", Skipped("").Display())
	assert.True(t, strings.HasPrefix(Degraded("", "x").Display(), "Report service unavailable"))
	assert.Equal(t, "degraded", StatusDegraded.String())
}

func TestAssess(t *testing.T) {
	tests := []struct {
		name       string
		arteriole  float64
		venule     float64
		wantA      RangeStatus
		wantV      RangeStatus
		wantRisk   bool
		indication string
	}{
		{"normal", 196, 220, RangeNormal, RangeNormal, false, "No abnormal vascular indications detected."},
		{"range edges are normal", 183, 235, RangeNormal, RangeNormal, false, "No abnormal vascular indications detected."},
		{"narrow arterioles", 170, 220, RangeLow, RangeNormal, true, "Arterial narrowing: hypertension risk"},
		{"dilated venules", 196, 250, RangeNormal, RangeHigh, true, "Venular dilation: stroke or ischemia risk"},
		{"wide arterioles", 215, 220, RangeHigh, RangeNormal, true, "Caliber outside the reference range without a specific indication rule."},
		{"no vessels", 0, 0, RangeLow, RangeLow, true, "Arterial narrowing: hypertension risk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Assess(tt.arteriole, tt.venule)
			assert.Equal(t, tt.wantA, a.Arteriole)
			assert.Equal(t, tt.wantV, a.Venule)
			assert.Equal(t, tt.wantRisk, a.AtRisk)
			assert.Contains(t, a.Indications, tt.indication)
		})
	}
}

func TestMetricsMarkdown(t *testing.T) {
	want := "### Vessel Measurements\n" +
		"| Metric | Value |\n" +
		"| :--- | :--- |\n" +
		"| **CRAE** | 190.5 µm |\n" +
		"| **CRVE** | 221.25 µm |"
	assert.Equal(t, want, MetricsMarkdown(190.5, 221.25))
}

func TestAssessmentMarkdown(t *testing.T) {
	md := AssessmentMarkdown(Assess(170, 250))
	assert.Contains(t, md, "**Risk Assessment**\n\nAT RISK")
	assert.Contains(t, md, "- CRAE is below normal.")
	assert.Contains(t, md, "- CRVE is above normal.")
	assert.True(t, strings.HasSuffix(md, MandatoryStatement))
}
