package pipeline

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"murmur/internal/api"
	"murmur/internal/config"
	"murmur/internal/logging"
	"murmur/internal/services"
	"murmur/internal/services/openai"
)

// MaxDecodedBytes is the hard cap on a decoded audio payload.
const MaxDecodedBytes = 25 * 1024 * 1024

// Transcriber is the transcription capability consumed by the pipeline.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, format string, candidates []string, logger *slog.Logger) (string, error)
	HasCredentials() bool
}

// Structurer is the generative-structuring capability consumed by the pipeline.
type Structurer interface {
	Structure(ctx context.Context, systemPrompt, transcript string, candidates []string, logger *slog.Logger) (string, error)
}

// Service turns a base64 audio payload into a structured processing result.
// It is state-free: each request runs independently against read-only
// configuration and the candidate model lists.
type Service struct {
	transcriber             Transcriber
	structurer              Structurer
	transcoder              Transcoder
	transcriptionCandidates []string
	structuringCandidates   []string
	logger                  *slog.Logger
}

// NewService wires the pipeline from configuration.
func NewService(cfg *config.Config, logger *slog.Logger) *Service {
	client := openai.NewClient(openai.Config{
		APIKey:         cfg.OpenAI.APIKey,
		BaseURL:        cfg.OpenAI.BaseURL,
		TimeoutSeconds: cfg.OpenAI.TimeoutSeconds,
	})
	return &Service{
		transcriber:             client,
		structurer:              client,
		transcoder:              NewFFmpegTranscoder(cfg.FFmpegBinary()),
		transcriptionCandidates: cfg.TranscriptionCandidates(),
		structuringCandidates:   cfg.StructuringCandidates(),
		logger:                  logging.WithComponent(logger, "pipeline"),
	}
}

// NewServiceWith wires the pipeline from explicit collaborators (for tests).
func NewServiceWith(transcriber Transcriber, structurer Structurer, transcoder Transcoder, transcriptionCandidates, structuringCandidates []string, logger *slog.Logger) *Service {
	return &Service{
		transcriber:             transcriber,
		structurer:              structurer,
		transcoder:              transcoder,
		transcriptionCandidates: transcriptionCandidates,
		structuringCandidates:   structuringCandidates,
		logger:                  logging.WithComponent(logger, "pipeline"),
	}
}

// Process runs the four pipeline stages: decode and validate, normalize
// format, transcribe, structure. Any failure comes back as *Error carrying
// the client-facing status and message.
func (s *Service) Process(ctx context.Context, audioBase64 string) (api.ProcessMemoryResponse, *Error) {
	var empty api.ProcessMemoryResponse

	if !s.transcriber.HasCredentials() {
		return empty, classifiedError(services.ErrConfiguration, http.StatusInternalServerError, msgMissingCredentials)
	}

	if audioBase64 == "" {
		return empty, classifiedError(services.ErrValidation, http.StatusBadRequest, "Audio data (base64) is required")
	}
	raw, err := base64.StdEncoding.DecodeString(audioBase64)
	if err != nil || len(raw) == 0 {
		return empty, classifiedError(services.ErrValidation, http.StatusBadRequest, "Invalid audio data. Could not decode base64 payload.")
	}
	if len(raw) > MaxDecodedBytes {
		return empty, classifiedError(services.ErrTooLarge, http.StatusRequestEntityTooLarge, "Recording is too large. Please keep recordings under 60 seconds.")
	}

	format := DetectFormat(raw)
	s.logger.Info("received audio",
		logging.Int("size_kb", len(raw)/1024),
		logging.String("format", format))

	audio := raw
	if !FormatCompatible(format) {
		converted, convertedFormat, convErr := s.transcoder.Transform(ctx, raw, format)
		if convErr != nil {
			return empty, MapError(convErr)
		}
		audio = converted
		format = convertedFormat
		s.logger.Info("audio normalized",
			logging.Int("size_kb", len(audio)/1024),
			logging.String("format", format))
	}

	transcript, err := s.transcriber.Transcribe(ctx, audio, format, s.transcriptionCandidates, s.logger)
	if err != nil {
		return empty, MapError(err)
	}
	if strings.TrimSpace(transcript) == "" {
		return empty, classifiedError(services.ErrValidation, http.StatusBadRequest, msgCannotTranscribe)
	}

	content, err := s.structurer.Structure(ctx, structuringPrompt, transcript, s.structuringCandidates, s.logger)
	if err != nil {
		return empty, MapError(err)
	}
	structured := parseStructured(content)

	return api.ProcessMemoryResponse{
		Transcript:  transcript,
		Title:       structured.Title,
		Category:    structured.Category,
		ActionItems: structured.ActionItems,
		Mood:        structured.Mood,
	}, nil
}
