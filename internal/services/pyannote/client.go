package pyannote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"transvox/internal/timecode"
	"transvox/internal/transcript"
)

// Config holds connection settings for the pyannote HTTP sidecar.
type Config struct {
	// BaseURL is the sidecar address.
	BaseURL string
	// Token is the Hugging Face token the sidecar needs to load the
	// pretrained pipeline.
	Token string
	// Model is the pretrained pipeline identifier.
	Model string
	// Timeout bounds one diarization call.
	Timeout time.Duration
}

// Client talks to the pyannote diarization sidecar.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a diarization client.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, errors.New("pyannote base url required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// HasCredential reports whether a Hugging Face token is configured. The
// transcription stage checks this before any model work so a missing token
// fails fast instead of after an expensive model load.
func (c *Client) HasCredential() bool {
	return strings.TrimSpace(c.cfg.Token) != ""
}

// Healthy reports whether the sidecar is reachable.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

type diarizeSegment struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

type diarizeResponse struct {
	Segments []diarizeSegment `json:"segments"`
}

// Diarize uploads the audio file and returns the speaker turns in the
// sidecar's emission order. Turn order matters: the merge engine's boundary
// tie-break follows it.
func (c *Client) Diarize(ctx context.Context, audioPath string) ([]transcript.Turn, error) {
	audio, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer audio.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("audio", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, fmt.Errorf("copy audio: %w", err)
	}
	if c.cfg.Model != "" {
		_ = writer.WriteField("model", c.cfg.Model)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/diarize", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token := strings.TrimSpace(c.cfg.Token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("diarize request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("diarize: sidecar returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload diarizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode diarize response: %w", err)
	}

	turns := make([]transcript.Turn, 0, len(payload.Segments))
	for _, segment := range payload.Segments {
		turns = append(turns, transcript.Turn{
			Speaker:  segment.Speaker,
			Interval: timecode.Interval{Start: segment.Start, End: segment.End},
		})
	}
	return turns, nil
}
