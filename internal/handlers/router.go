package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

type Deps struct {
	Extractor    TextExtractor
	Voice        SpeechRecognizer
	Verifier     BillVerifier
	Log          *slog.Logger
	MaxBodyBytes int64
}

func NewRouter(deps Deps) http.Handler {
	router := mux.NewRouter()
	router.Use(RequestLogger(deps.Log), Recover, LimitBody(deps.MaxBodyBytes))

	router.HandleFunc("/process_text", ProcessText(deps.Extractor)).Methods(http.MethodPost)
	router.HandleFunc("/process_audio", ProcessAudio(deps.Voice, deps.Extractor)).Methods(http.MethodPost)
	router.HandleFunc("/transcribe_audio_chunk", TranscribeAudioChunk(deps.Voice)).Methods(http.MethodPost)
	router.HandleFunc("/verify_bill", VerifyBill(deps.Verifier)).Methods(http.MethodPost)

	router.HandleFunc("/health", Health()).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)
}
