package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"orderverifier/internal/domain"
	"orderverifier/pkg/logger"
)

type WhisperCLIConfig struct {
	// Binary is the whisper.cpp executable, looked up in PATH.
	Binary    string
	ModelPath string
	// Language is an ISO-639-1 code, empty for auto-detection.
	Language    string
	Concurrency int64
	Timeout     time.Duration
}

// WhisperCLI transcribes with a whisper.cpp binary. Every call runs its own
// process and writes its output next to the staged file, so calls share
// nothing but the read-only model file.
type WhisperCLI struct {
	binary    string
	modelPath string
	language  string
	slots     modelSlots
}

// NewWhisperCLI resolves the binary and checks the model file once, so a
// broken installation fails at startup.
func NewWhisperCLI(cfg WhisperCLIConfig) (*WhisperCLI, error) {
	binary, err := exec.LookPath(cfg.Binary)
	if err != nil {
		return nil, fmt.Errorf("whisper binary: %w", err)
	}

	info, err := os.Stat(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper model: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("whisper model %s is a directory", cfg.ModelPath)
	}

	return &WhisperCLI{
		binary:    binary,
		modelPath: cfg.ModelPath,
		language:  cfg.Language,
		slots:     newModelSlots(cfg.Concurrency, cfg.Timeout),
	}, nil
}

func (w *WhisperCLI) Name() string { return "whisper.cpp" }

func (w *WhisperCLI) Transcribe(ctx context.Context, path string, beamSize int) ([]domain.Segment, error) {
	return w.slots.run(ctx, "transcribe", func(ctx context.Context) ([]domain.Segment, error) {
		return w.transcribe(ctx, path, beamSize)
	})
}

func (w *WhisperCLI) transcribe(ctx context.Context, path string, beamSize int) ([]domain.Segment, error) {
	log := logger.FromCtx(ctx)
	if beamSize < 1 {
		beamSize = DefaultBeamSize
	}

	outBase := strings.TrimSuffix(path, filepath.Ext(path))
	args := []string{
		"-m", w.modelPath,
		"-f", path,
		"-bs", strconv.Itoa(beamSize),
		"-oj",
		"-of", outBase,
		"-np",
	}
	if w.language != "" {
		args = append(args, "-l", w.language)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, w.binary, args...)
	cmd.Stderr = &stderr

	log.Debug("running whisper", slog.String("binary", w.binary), slog.Int("beam_size", beamSize))
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// stderr может содержать пути хоста, в ответ клиенту не попадает
		log.Error("whisper exited with error", slog.String("stderr", tail(stderr.String(), 512)), logger.Error(err))
		return nil, domain.GatewayError("transcription model failed", err)
	}

	raw, err := os.ReadFile(outBase + ".json")
	if err != nil {
		return nil, domain.GatewayError("transcription output missing", err)
	}

	return parseWhisperJSON(raw)
}

// whisperOutput is the part of whisper.cpp's -oj file we read.
type whisperOutput struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

func parseWhisperJSON(raw []byte) ([]domain.Segment, error) {
	var out whisperOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, domain.GatewayError("transcription output unreadable", err)
	}

	segments := make([]domain.Segment, 0, len(out.Transcription))
	for _, seg := range out.Transcription {
		segments = append(segments, domain.Segment{
			Start: float64(seg.Offsets.From) / 1000,
			End:   float64(seg.Offsets.To) / 1000,
			Text:  seg.Text,
		})
	}

	return segments, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}

	return "..." + s[len(s)-n:]
}
