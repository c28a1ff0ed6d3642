package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"orderverifier/internal/codec"
	"orderverifier/internal/domain"
	"orderverifier/internal/gateway"
	"orderverifier/pkg/logger"
)

const unrecognizedSpeech = "Could not understand audio"

type VoiceToTextService struct {
	transcriber gateway.Transcriber
	minBytes    int
	beamSize    int
	tempDir     string
}

type VoiceOptions struct {
	MinBytes int
	BeamSize int
	// пусто = os.TempDir()
	TempDir string
}

func NewVoiceToTextService(transcriber gateway.Transcriber, opts VoiceOptions) *VoiceToTextService {
	if opts.MinBytes <= 0 {
		opts.MinBytes = codec.DefaultMinAudioBytes
	}
	if opts.BeamSize <= 0 {
		opts.BeamSize = gateway.DefaultBeamSize
	}

	return &VoiceToTextService{
		transcriber: transcriber,
		minBytes:    opts.MinBytes,
		beamSize:    opts.BeamSize,
		tempDir:     opts.TempDir,
	}
}

// ProcessVoice decodes base64 audio and transcribes it. Silence yields an
// empty text, not an error.
func (v *VoiceToTextService) ProcessVoice(ctx context.Context, encoded string) (domain.TranscriptionResult, error) {
	log := logger.FromCtx(ctx)

	data, err := codec.DecodeAudio(encoded, v.minBytes)
	if err != nil {
		return domain.TranscriptionResult{}, err
	}

	ext := codec.AudioExt(data)
	log.Info("audio received",
		slog.Int("bytes", len(data)),
		slog.String("ext", ext),
		slog.String("backend", v.transcriber.Name()),
	)

	var segments []domain.Segment
	err = codec.WithStaged(ctx, v.tempDir, data, ext, func(path string) error {
		segments, err = v.transcriber.Transcribe(ctx, path, v.beamSize)
		return err
	})
	if err != nil {
		return domain.TranscriptionResult{}, fmt.Errorf("transcribe audio: %w", err)
	}

	result := domain.NewTranscription(segments)
	log.Info("transcription created",
		slog.Int("segments", len(segments)),
		slog.Int("text_len", len(result.Text)),
	)

	return result, nil
}

// Recognize is ProcessVoice for callers that need words: blank speech is
// reported as domain.KindUnrecognizedSpeech.
func (v *VoiceToTextService) Recognize(ctx context.Context, encoded string) (string, error) {
	result, err := v.ProcessVoice(ctx, encoded)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(result.Text) == "" {
		return "", domain.NewError(domain.KindUnrecognizedSpeech, unrecognizedSpeech, nil)
	}

	return result.Text, nil
}
