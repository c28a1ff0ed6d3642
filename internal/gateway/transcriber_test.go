package gateway_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderverifier/internal/domain"
	"orderverifier/internal/gateway"
	"orderverifier/pkg/logger"
)

// Тесты со скриптами не параллельные: exec только что записанного файла
// ловит ETXTBSY, если рядом форкается другой тест.

// fakeWhisper пишет JSON в формате whisper.cpp -oj и сохраняет аргументы рядом.
const fakeWhisper = `#!/bin/sh
echo "$@" > "$(dirname "$0")/args.txt"
while [ $# -gt 0 ]; do
  case "$1" in
    -of) out="$2"; shift ;;
  esac
  shift
done
cat > "$out.json" <<'JSON'
{"result":{"language":"en"},"transcription":[
 {"timestamps":{"from":"00:00:00,000","to":"00:00:01,500"},"offsets":{"from":0,"to":1500},"text":" two cheeseburgers"},
 {"timestamps":{"from":"00:00:01,500","to":"00:00:03,000"},"offsets":{"from":1500,"to":3000},"text":" and one large fries"}
]}
JSON
`

const failingWhisper = `#!/bin/sh
echo "failed to read audio" >&2
exit 3
`

func writeScript(t *testing.T, body string) (binary, model string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	dir := t.TempDir()
	binary = filepath.Join(dir, "whisper-cli")
	require.NoError(t, os.WriteFile(binary, []byte(body), 0o700))
	model = filepath.Join(dir, "ggml-base.bin")
	require.NoError(t, os.WriteFile(model, []byte("model"), 0o600))
	return binary, model
}

func stageAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recording.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF....WAVE"), 0o600))
	return path
}

func TestWhisperCLITranscribe(t *testing.T) {
	binary, model := writeScript(t, fakeWhisper)
	whisper, err := gateway.NewWhisperCLI(gateway.WhisperCLIConfig{
		Binary:    binary,
		ModelPath: model,
		Language:  "en",
		Timeout:   10 * time.Second,
	})
	require.NoError(t, err)

	segments, err := whisper.Transcribe(context.Background(), stageAudio(t), 5)

	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, domain.Segment{Start: 0, End: 1.5, Text: " two cheeseburgers"}, segments[0])
	assert.InDelta(t, 3.0, segments[1].End, 0.001)
	assert.Equal(t, "two cheeseburgers and one large fries", domain.NewTranscription(segments).Text)

	args, err := os.ReadFile(filepath.Join(filepath.Dir(binary), "args.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(args), "-bs 5")
	assert.Contains(t, string(args), "-m "+model)
	assert.Contains(t, string(args), "-l en")
}

func TestWhisperCLIFailure(t *testing.T) {
	binary, model := writeScript(t, failingWhisper)
	whisper, err := gateway.NewWhisperCLI(gateway.WhisperCLIConfig{Binary: binary, ModelPath: model, Timeout: 10 * time.Second})
	require.NoError(t, err)

	var logs bytes.Buffer
	lg, err := logger.NewWithWriter(&logs, "DEBUG", "json")
	require.NoError(t, err)

	_, err = whisper.Transcribe(logger.ToCtx(context.Background(), lg), stageAudio(t), 5)

	require.Error(t, err)
	assert.Equal(t, domain.KindGateway, domain.KindOf(err))
	// stderr только в логе, клиент видит код выхода
	assert.Equal(t, "transcription model failed: exit status 3", domain.PublicMessage(err))
	assert.NotContains(t, domain.PublicMessage(err), "failed to read audio")
	assert.Contains(t, logs.String(), "failed to read audio")
}

func TestNewWhisperCLIFailsFast(t *testing.T) {
	binary, _ := writeScript(t, fakeWhisper)

	_, err := gateway.NewWhisperCLI(gateway.WhisperCLIConfig{Binary: binary, ModelPath: filepath.Join(t.TempDir(), "missing.bin")})
	require.Error(t, err)

	_, err = gateway.NewWhisperCLI(gateway.WhisperCLIConfig{Binary: "definitely-not-a-whisper-binary", ModelPath: binary})
	require.Error(t, err)
}

func TestWhisperServerTranscribe(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "base", r.FormValue("model"))
		assert.Equal(t, "verbose_json", r.FormValue("response_format"))
		_, header, err := r.FormFile("file")
		if assert.NoError(t, err) {
			assert.Equal(t, "recording.wav", header.Filename)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"task":     "transcribe",
			"language": "en",
			"duration": 3.0,
			"text":     "two cheeseburgers and one large fries",
			"segments": []map[string]any{
				{"id": 0, "start": 0.0, "end": 1.5, "text": " two cheeseburgers"},
				{"id": 1, "start": 1.5, "end": 3.0, "text": " and one large fries"},
			},
		})
	}))
	t.Cleanup(srv.Close)

	whisper := gateway.NewWhisperServer(gateway.WhisperServerConfig{
		BaseURL: srv.URL + "/v1",
		Model:   "base",
		Timeout: 5 * time.Second,
	})

	segments, err := whisper.Transcribe(context.Background(), stageAudio(t), 5)

	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, "two cheeseburgers and one large fries", domain.NewTranscription(segments).Text)
}

func TestWhisperServerUnavailable(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"model not loaded"}}`, http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	whisper := gateway.NewWhisperServer(gateway.WhisperServerConfig{BaseURL: srv.URL + "/v1", Model: "base", Timeout: 5 * time.Second})

	_, err := whisper.Transcribe(context.Background(), stageAudio(t), 5)

	require.Error(t, err)
	assert.Equal(t, domain.KindGateway, domain.KindOf(err))
}

// TestWhisperServerSerializes проверяет, что при concurrency=1 запросы не пересекаются.
func TestWhisperServerSerializes(t *testing.T) {
	t.Parallel()
	var (
		mu      sync.Mutex
		running int
		maxSeen int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		running++
		if running > maxSeen {
			maxSeen = running
		}
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		running--
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"text": "burger"})
	}))
	t.Cleanup(srv.Close)

	whisper := gateway.NewWhisperServer(gateway.WhisperServerConfig{
		BaseURL:     srv.URL + "/v1",
		Model:       "base",
		Concurrency: 1,
		Timeout:     10 * time.Second,
	})

	path := stageAudio(t)
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			segments, err := whisper.Transcribe(context.Background(), path, 5)
			assert.NoError(t, err)
			assert.Equal(t, "burger", domain.NewTranscription(segments).Text)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
}
