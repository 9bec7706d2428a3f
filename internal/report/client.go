package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// HTTPClient abstracts HTTP operations for testability.
// *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Client.
type Options struct {
	Endpoint string
	Model    string
	Timeout  time.Duration
}

// Client requests clinical reports from an Ollama chat endpoint.
type Client struct {
	endpoint string
	model    string
	timeout  time.Duration
	http     HTTPClient
	logger   logrus.FieldLogger
}

// NewClient creates a report client. A nil httpClient uses a dedicated
// *http.Client; the per-request timeout comes from opts.Timeout.
func NewClient(opts Options, httpClient HTTPClient, logger logrus.FieldLogger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &Client{
		endpoint: strings.TrimRight(opts.Endpoint, "/"),
		model:    opts.Model,
		timeout:  opts.Timeout,
		http:     httpClient,
		logger:   logger,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

// Fetch asks the service for a report on the two widths. It never returns an
// error: transport failures, timeouts, bad status codes and empty answers all
// produce a degraded Result.
func (c *Client) Fetch(ctx context.Context, arteriole, venule float64) Result {
	start := time.Now()
	log := c.logger.WithFields(logrus.Fields{
		"model":    c.model,
		"endpoint": c.endpoint,
	})

	text, err := c.chat(ctx, arteriole, venule)
	if err != nil {
		log.WithError(err).WithField("duration_ms", time.Since(start).Milliseconds()).
			Warn("REPORT: Service unavailable, returning degraded result")
		return Degraded(c.model, err.Error())
	}

	log.WithField("duration_ms", time.Since(start).Milliseconds()).Info("REPORT: Report generated")
	return Success(text)
}

func (c *Client) chat(ctx context.Context, arteriole, venule float64) (string, error) {
	prompt, err := BuildPrompt(arteriole, venule)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   false,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("service error: %s", parsed.Error)
	}

	text := strings.TrimSpace(parsed.Message.Content)
	if text == "" {
		return "", fmt.Errorf("empty report text")
	}
	return text, nil
}
