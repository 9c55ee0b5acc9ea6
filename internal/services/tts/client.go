package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// maxChunkRunes is the longest text fragment the endpoint accepts per call.
const maxChunkRunes = 200

// Config holds connection settings for the speech endpoint.
type Config struct {
	BaseURL string
	// Language is the default synthesis language code.
	Language string
	Timeout  time.Duration
}

// Client synthesizes speech through a Google-Translate-style TTS endpoint.
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

// New creates a TTS client.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, errors.New("tts base url required")
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

// DefaultLanguage returns the configured synthesis language.
func (c *Client) DefaultLanguage() string { return c.cfg.Language }

// Synthesize converts text to speech audio and writes the mp3 to dest. Long
// text is split into word-boundary chunks and the audio responses are
// concatenated, which mp3 framing tolerates.
func (c *Client) Synthesize(ctx context.Context, text, language, dest string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("text required")
	}
	if strings.TrimSpace(language) == "" {
		language = c.cfg.Language
	}
	if strings.TrimSpace(dest) == "" {
		return errors.New("destination path required")
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	for _, chunk := range SplitChunks(text, maxChunkRunes) {
		audio, err := c.fetchChunk(ctx, chunk, language)
		if err != nil {
			_ = os.Remove(dest)
			return err
		}
		if _, err := out.Write(audio); err != nil {
			_ = os.Remove(dest)
			return fmt.Errorf("write audio: %w", err)
		}
	}
	return out.Close()
}

func (c *Client) fetchChunk(ctx context.Context, chunk, language string) ([]byte, error) {
	query := url.Values{}
	query.Set("ie", "UTF-8")
	query.Set("client", "tw-ob")
	query.Set("tl", language)
	query.Set("q", chunk)

	endpoint := c.cfg.BaseURL + "/translate_tts?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("tts: service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return io.ReadAll(resp.Body)
}

// SplitChunks breaks text into fragments of at most limit runes, preferring
// word boundaries. A single word longer than the limit is split mid-word.
func SplitChunks(text string, limit int) []string {
	words := strings.Fields(text)
	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, word := range words {
		runes := []rune(word)
		for len(runes) > limit {
			flush()
			chunks = append(chunks, string(runes[:limit]))
			runes = runes[limit:]
		}
		wordLen := len(runes)
		if wordLen == 0 {
			continue
		}
		needed := wordLen
		if currentLen > 0 {
			needed++ // joining space
		}
		if currentLen+needed > limit {
			flush()
		}
		if currentLen > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(string(runes))
		currentLen += wordLen
	}
	flush()
	return chunks
}
