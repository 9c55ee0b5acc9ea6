package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"transvox/internal/transcript"
)

// Config captures runtime settings for whisper invocations.
type Config struct {
	// Model selects the size/accuracy tradeoff (tiny..large).
	Model string
	// Device is the compute device flag passed to whisper.
	Device Device
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (string, error)
}

// Option configures the service.
type Option func(*Service)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(s *Service) {
		if exec != nil {
			s.exec = exec
		}
	}
}

// Service provides speech-to-text via the whisper command line tool.
type Service struct {
	cfg    Config
	binary string
	exec   Executor
}

// New constructs a whisper service.
func New(binary string, cfg Config, opts ...Option) (*Service, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("whisper binary required")
	}
	if cfg.Device == "" {
		cfg.Device = DeviceCPU
	}
	svc := &Service{cfg: cfg, binary: binary, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Model returns the configured model name for logging.
func (s *Service) Model() string { return s.cfg.Model }

// Device returns the configured compute device for logging.
func (s *Service) Device() Device { return s.cfg.Device }

// Result contains the parsed output of a transcription.
type Result struct {
	// Text is the flat transcription.
	Text string `json:"text"`
	// Segments carry word-level timestamps in emission order.
	Segments []Segment `json:"segments"`
	// Language is the detected source language code.
	Language string `json:"language"`
}

// Segment is one transcribed span with its word timings.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words"`
}

// Word is a single timestamped word from whisper output.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Transcribe runs whisper over the audio file, writing its JSON output into
// outputDir, and returns the parsed result.
func (s *Service) Transcribe(ctx context.Context, source, outputDir string) (Result, error) {
	var result Result
	if strings.TrimSpace(source) == "" {
		return result, errors.New("transcribe: source path required")
	}
	if outputDir == "" {
		outputDir = filepath.Dir(source)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return result, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	args := s.buildArgs(source, outputDir)
	if output, err := s.exec.Run(ctx, s.binary, args); err != nil {
		return result, fmt.Errorf("whisper: %w: %s", err, strings.TrimSpace(output))
	}

	baseName := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	jsonPath := filepath.Join(outputDir, baseName+".json")
	return LoadResult(jsonPath)
}

func (s *Service) buildArgs(source, outputDir string) []string {
	model := s.cfg.Model
	if model == "" {
		model = "medium"
	}
	return []string{
		source,
		"--model", model,
		"--device", string(s.cfg.Device),
		"--output_format", "json",
		"--output_dir", outputDir,
		"--word_timestamps", "True",
		"--verbose", "False",
	}
}

// LoadResult parses a whisper JSON output file.
func LoadResult(jsonPath string) (Result, error) {
	var result Result
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return result, fmt.Errorf("read whisper output: %w", err)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("parse whisper json: %w", err)
	}
	return result, nil
}

// Words flattens the result's segments into the chronological word list the
// diarization merge consumes, preserving emission order.
func (r Result) Words() []transcript.Word {
	var words []transcript.Word
	for _, segment := range r.Segments {
		for _, word := range segment.Words {
			words = append(words, transcript.Word{
				Text:  word.Word,
				Start: word.Start,
				End:   word.End,
			})
		}
	}
	return words
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
