package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

//go:generate go run github.com/g4s8/envdoc@v0.0.10 --output ./../../env.md -field-names
type Config struct {
	// Порт приложения
	Port string `env:"PORT" envDefault:"5000"`
	// Хост, пустой - все интерфейсы
	Host string `env:"HOST"`
	// Максимальный размер тела запроса
	MaxBodyBytes int64 `env:"MAX_BODY_BYTES" envDefault:"26214400"`
	// Таймаут записи ответа, должен покрывать два вызова LLM
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3m"`

	Log     Log     `envPrefix:"LOG_"`
	OpenAI  OpenAI  `envPrefix:"OPENAI_"`
	Whisper Whisper `envPrefix:"WHISPER_"`
	Audio   Audio   `envPrefix:"AUDIO_"`
}

type Log struct {
	// DEBUG, INFO, WARN, ERROR
	Level string `env:"LEVEL" envDefault:"INFO"`
	// json, text, color
	Format string `env:"FORMAT" envDefault:"json"`
}

type OpenAI struct {
	// API ключ
	APIKey string `env:"API_KEY,required,notEmpty"`
	// Базовый URL OpenAI-совместимого API
	BaseURL string `env:"BASE_URL" envDefault:"https://api.openai.com/v1"`
	// Модель для извлечения блюд из текста
	TextModel string `env:"TEXT_MODEL" envDefault:"gpt-4"`
	// Модель для чтения чека
	VisionModel string `env:"VISION_MODEL" envDefault:"gpt-4o-mini"`
	// Модель для сравнения заказа и чека
	CompareModel string `env:"COMPARE_MODEL" envDefault:"gpt-4"`
	// Таймаут одного запроса к модели
	Timeout time.Duration `env:"TIMEOUT" envDefault:"60s"`
}

type Whisper struct {
	// cli (whisper.cpp) или server (OpenAI-совместимый сервер faster-whisper)
	Backend string `env:"BACKEND" envDefault:"cli"`
	// Бинарник whisper.cpp
	Binary string `env:"BINARY" envDefault:"whisper-cli"`
	// Путь к ggml модели
	ModelPath string `env:"MODEL_PATH" envDefault:"models/ggml-base.bin"`
	// URL сервера транскрибации
	ServerURL string `env:"SERVER_URL" envDefault:"http://localhost:8000/v1"`
	// API ключ сервера транскрибации, обычно не нужен
	ServerAPIKey string `env:"SERVER_API_KEY"`
	// Имя модели на сервере
	Model string `env:"MODEL" envDefault:"base"`
	// Ширина beam search
	BeamSize int `env:"BEAM_SIZE" envDefault:"5"`
	// ISO-639-1, пустой - автоопределение
	Language string `env:"LANGUAGE"`
	// Сколько транскрибаций может идти одновременно
	Concurrency int64 `env:"CONCURRENCY" envDefault:"1"`
	// Таймаут одной транскрибации, включая ожидание очереди
	Timeout time.Duration `env:"TIMEOUT" envDefault:"2m"`
}

type Audio struct {
	// Минимальный размер аудио в байтах
	MinBytes int `env:"MIN_BYTES" envDefault:"100"`
	// Каталог для временных файлов, пустой - системный
	TempDir string `env:"TEMP_DIR"`
}

func New() (*Config, error) {
	cfg := &Config{}
	opts := env.Options{
		UseFieldNameByDefault: true,
	}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, err
	}

	return cfg, nil
}
