package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (string, error)
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

// Client wraps ffmpeg/ffprobe invocations.
type Client struct {
	ffmpegBinary  string
	ffprobeBinary string
	exec          Executor
}

// New constructs an ffmpeg client.
func New(ffmpegBinary, ffprobeBinary string, opts ...Option) (*Client, error) {
	ffmpegBinary = strings.TrimSpace(ffmpegBinary)
	if ffmpegBinary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	ffprobeBinary = strings.TrimSpace(ffprobeBinary)
	if ffprobeBinary == "" {
		ffprobeBinary = "ffprobe"
	}
	client := &Client{
		ffmpegBinary:  ffmpegBinary,
		ffprobeBinary: ffprobeBinary,
		exec:          commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ExtractAudio demuxes the best audio stream of a video container into an
// mp3 file at dest, overwriting any prior output.
func (c *Client) ExtractAudio(ctx context.Context, source, dest string) error {
	if strings.TrimSpace(source) == "" {
		return errors.New("source path required")
	}
	if strings.TrimSpace(dest) == "" {
		return errors.New("destination path required")
	}
	args := []string{"-i", source, "-q:a", "0", "-map", "a", "-y", dest}
	if output, err := c.exec.Run(ctx, c.ffmpegBinary, args); err != nil {
		return fmt.Errorf("ffmpeg extract: %w: %s", err, strings.TrimSpace(output))
	}
	return nil
}

// Duration probes a media file's duration in seconds via ffprobe.
func (c *Client) Duration(ctx context.Context, path string) (float64, error) {
	if strings.TrimSpace(path) == "" {
		return 0, errors.New("path required")
	}
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	output, err := c.exec.Run(ctx, c.ffprobeBinary, args)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w: %s", err, strings.TrimSpace(output))
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(output), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: parse %q: %w", strings.TrimSpace(output), err)
	}
	return seconds, nil
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
