package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"murmur/internal/services"
)

// Transcoder converts an audio payload into a model-compatible format.
type Transcoder interface {
	Transform(ctx context.Context, input []byte, srcFormat string) ([]byte, string, error)
}

// FFmpegTranscoder shells out to ffmpeg to produce mono 16kHz WAV, the most
// broadly accepted transcription input.
type FFmpegTranscoder struct {
	binary        string
	commandRunner func(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error)
}

// NewFFmpegTranscoder builds a transcoder around the given ffmpeg binary name.
func NewFFmpegTranscoder(binary string) *FFmpegTranscoder {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &FFmpegTranscoder{binary: binary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (t *FFmpegTranscoder) WithCommandRunner(runner func(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error)) {
	t.commandRunner = runner
}

// Transform converts input to WAV. Failures wrap ErrExternalTool so the error
// mapper can distinguish a broken transcoder from bad audio content.
func (t *FFmpegTranscoder) Transform(ctx context.Context, input []byte, srcFormat string) ([]byte, string, error) {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", "pipe:0",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		"pipe:1",
	}

	output, err := t.run(ctx, t.binary, args, input)
	if err != nil {
		return nil, "", services.Wrap(services.ErrExternalTool, "transcoder", "ffmpeg", "audio conversion failed", err)
	}
	if len(output) == 0 {
		return nil, "", services.Wrap(services.ErrExternalTool, "transcoder", "ffmpeg", "empty output", nil)
	}
	return output, "wav", nil
}

func (t *FFmpegTranscoder) run(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error) {
	if t.commandRunner != nil {
		return t.commandRunner(ctx, name, args, stdin)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Stdin = bytes.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
