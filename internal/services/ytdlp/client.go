package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// DefaultFormat requests a single mp4 container so no re-encoding pass is
// needed downstream.
const DefaultFormat = "b[ext=mp4]/b"

// Executor abstracts command execution for testability.
type Executor interface {
	// Run executes the binary and returns its combined stdout/stderr text.
	// A non-zero exit is returned as err alongside whatever output was
	// captured.
	Run(ctx context.Context, binary string, args []string) (string, error)
}

// Request describes one download invocation.
type Request struct {
	URL        string
	OutputPath string
	// Format is the yt-dlp format selector; DefaultFormat when empty.
	Format string
	// Section, when set, is a "*START-END" download-sections directive.
	Section string
	// ForceKeyframes aligns section cuts to keyframe boundaries so the trim
	// stays playable without a full re-encode.
	ForceKeyframes bool
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps yt-dlp CLI interactions.
type Client struct {
	binary string
	exec   Executor
}

// New constructs a yt-dlp client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	client := &Client{binary: binary, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Title probes the source for its title metadata without downloading.
func (c *Client) Title(ctx context.Context, url string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", errors.New("url required")
	}
	args := []string{"--print", "title", "--no-playlist", "--skip-download", url}
	output, err := c.exec.Run(ctx, c.binary, args)
	if err != nil {
		return "", fmt.Errorf("probe title: %w: %s", err, strings.TrimSpace(output))
	}
	title := strings.TrimSpace(output)
	if title == "" {
		return "", errors.New("probe title: empty response")
	}
	// Only the last line matters; warnings may precede it.
	lines := strings.Split(title, "\n")
	return strings.TrimSpace(lines[len(lines)-1]), nil
}

// Download invokes yt-dlp constrained to the request's exact output path and
// returns the combined output text. The caller decides how to treat a
// non-zero exit, since yt-dlp exit codes are not fully trustworthy.
func (c *Client) Download(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.URL) == "" {
		return "", errors.New("url required")
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return "", errors.New("output path required")
	}
	return c.exec.Run(ctx, c.binary, buildDownloadArgs(req))
}

func buildDownloadArgs(req Request) []string {
	format := req.Format
	if format == "" {
		format = DefaultFormat
	}
	args := []string{
		"-f", format,
		"--no-playlist",
		"-o", req.OutputPath,
	}
	if req.Section != "" {
		args = append(args, "--download-sections", req.Section)
		if req.ForceKeyframes {
			args = append(args, "--force-keyframes-at-cuts")
		}
	}
	return append(args, req.URL)
}

// MentionsFFmpeg reports whether the captured output blames the transcoder,
// used to classify downloader failures more specifically.
func MentionsFFmpeg(output string) bool {
	return strings.Contains(strings.ToLower(output), "ffmpeg")
}

var unsafeNamePattern = regexp.MustCompile(`[^A-Za-z0-9 _-]+`)

// SanitizeTitle reduces a media title to a filesystem-safe basename: letters,
// digits, space, underscore, and hyphen only.
func SanitizeTitle(title string) string {
	cleaned := unsafeNamePattern.ReplaceAllString(title, "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	return strings.TrimSpace(cleaned)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.String(), err
}
