package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// AutoSource asks the service to detect the source language itself.
const AutoSource = "auto"

// Config holds connection settings for a LibreTranslate-compatible service.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client calls the external translation/detection service.
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

// New creates a translation client.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, errors.New("translation base url required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
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

// Translate converts text between languages. Source may be AutoSource.
func (c *Client) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("text required")
	}
	if strings.TrimSpace(target) == "" {
		return "", errors.New("target language required")
	}
	if strings.TrimSpace(source) == "" {
		source = AutoSource
	}

	payload := map[string]string{
		"q":      text,
		"source": source,
		"target": target,
		"format": "text",
	}
	if c.cfg.APIKey != "" {
		payload["api_key"] = c.cfg.APIKey
	}

	var response struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := c.post(ctx, "/translate", payload, &response); err != nil {
		return "", err
	}
	if response.TranslatedText == "" {
		return "", errors.New("service returned empty translation")
	}
	return response.TranslatedText, nil
}

// Detect identifies the language of the given text. It returns an empty code,
// without error, when the service reports nothing.
func (c *Client) Detect(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("text required")
	}
	payload := map[string]string{"q": text}
	if c.cfg.APIKey != "" {
		payload["api_key"] = c.cfg.APIKey
	}

	var response []struct {
		Language   string  `json:"language"`
		Confidence float64 `json:"confidence"`
	}
	if err := c.post(ctx, "/detect", payload, &response); err != nil {
		return "", err
	}
	if len(response) == 0 {
		return "", nil
	}
	return strings.ToLower(strings.TrimSpace(response[0].Language)), nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s: service returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
