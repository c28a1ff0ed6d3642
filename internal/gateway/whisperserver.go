package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"

	"orderverifier/internal/domain"
	"orderverifier/pkg/logger"
)

type WhisperServerConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Language    string
	Concurrency int64
	Timeout     time.Duration
}

// WhisperServer transcribes through a local OpenAI-compatible server such as
// faster-whisper-server. The staged file is streamed from disk.
type WhisperServer struct {
	client   *openai.Client
	model    string
	language string
	slots    modelSlots
}

func NewWhisperServer(cfg WhisperServerConfig) *WhisperServer {
	return &WhisperServer{
		client:   NewOpenAIClient(cfg.APIKey, cfg.BaseURL),
		model:    cfg.Model,
		language: cfg.Language,
		slots:    newModelSlots(cfg.Concurrency, cfg.Timeout),
	}
}

func (w *WhisperServer) Name() string { return "whisper-server" }

func (w *WhisperServer) Transcribe(ctx context.Context, path string, beamSize int) ([]domain.Segment, error) {
	return w.slots.run(ctx, "transcribe", func(ctx context.Context) ([]domain.Segment, error) {
		// the transcription API has no beam width parameter, the server's own setting applies
		logger.FromCtx(ctx).Debug("beam size not forwarded to transcription server", slog.Int("beam_size", beamSize))

		resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
			Model:    w.model,
			FilePath: path,
			Language: w.language,
			Format:   openai.AudioResponseFormatVerboseJSON,
		})
		if err != nil {
			return nil, err
		}

		if len(resp.Segments) == 0 {
			if resp.Text == "" {
				return nil, nil
			}
			return []domain.Segment{{Start: 0, End: resp.Duration, Text: resp.Text}}, nil
		}

		segments := make([]domain.Segment, 0, len(resp.Segments))
		for _, seg := range resp.Segments {
			segments = append(segments, domain.Segment{
				Start: seg.Start,
				End:   seg.End,
				Text:  seg.Text,
			})
		}

		return segments, nil
	})
}
