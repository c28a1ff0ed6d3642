package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"orderverifier/internal/codec"
	"orderverifier/internal/domain"
	"orderverifier/internal/services"
	"orderverifier/pkg/logger"
)

type TextExtractor interface {
	ExtractFromText(ctx context.Context, text string) []domain.FoodItem
}

type SpeechRecognizer interface {
	ProcessVoice(ctx context.Context, encoded string) (domain.TranscriptionResult, error)
	Recognize(ctx context.Context, encoded string) (string, error)
}

type BillVerifier interface {
	Verify(ctx context.Context, ordered []domain.FoodItem, receipt []byte) (domain.ComparisonResult, error)
}

type textRequest struct {
	Text string `json:"text"`
}

type audioRequest struct {
	AudioData string `json:"audio_data"`
}

type verifyRequest struct {
	OrderedItems json.RawMessage `json:"ordered_items"`
	ReceiptImage string          `json:"receipt_image"`
}

type foodItemsResponse struct {
	Success   bool              `json:"success"`
	Text      string            `json:"text"`
	FoodItems []domain.FoodItem `json:"food_items"`
}

type transcriptResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
}

func ProcessText(extractor TextExtractor) http.HandlerFunc {
	return func(writer http.ResponseWriter, req *http.Request) {
		ctx := req.Context()

		var body textRequest
		if err := decodeBody(req, &body); err != nil {
			fail(writer, req, err, "decode_request")
			return
		}
		if strings.TrimSpace(body.Text) == "" {
			fail(writer, req, domain.ValidationError("No text provided"), "validate")
			return
		}

		ctx = logger.With(ctx, slog.Int("text_len", len(body.Text)))
		items := extractor.ExtractFromText(ctx, body.Text)

		writeJSON(ctx, writer, http.StatusOK, foodItemsResponse{
			Success:   true,
			Text:      body.Text,
			FoodItems: items,
		})
	}
}

func ProcessAudio(voice SpeechRecognizer, extractor TextExtractor) http.HandlerFunc {
	return func(writer http.ResponseWriter, req *http.Request) {
		ctx := req.Context()

		var body audioRequest
		if err := decodeBody(req, &body); err != nil {
			fail(writer, req, err, "decode_request")
			return
		}
		if body.AudioData == "" {
			fail(writer, req, domain.ValidationError("No audio data provided"), "validate")
			return
		}

		ctx = logger.With(ctx, slog.Int("audio_b64_len", len(body.AudioData)))
		text, err := voice.Recognize(ctx, body.AudioData)
		if err != nil {
			fail(writer, req.WithContext(ctx), err, "transcribe")
			return
		}

		items := extractor.ExtractFromText(ctx, text)

		writeJSON(ctx, writer, http.StatusOK, foodItemsResponse{
			Success:   true,
			Text:      text,
			FoodItems: items,
		})
	}
}

func TranscribeAudioChunk(voice SpeechRecognizer) http.HandlerFunc {
	return func(writer http.ResponseWriter, req *http.Request) {
		ctx := req.Context()

		var body audioRequest
		if err := decodeBody(req, &body); err != nil {
			fail(writer, req, err, "decode_request")
			return
		}
		if body.AudioData == "" {
			fail(writer, req, domain.ValidationError("No audio data provided"), "validate")
			return
		}

		ctx = logger.With(ctx, slog.Int("audio_b64_len", len(body.AudioData)))
		result, err := voice.ProcessVoice(ctx, body.AudioData)
		if err != nil {
			fail(writer, req.WithContext(ctx), err, "transcribe")
			return
		}

		writeJSON(ctx, writer, http.StatusOK, transcriptResponse{
			Success: true,
			Text:    result.Text,
		})
	}
}

// VerifyBill answers with a bare ComparisonResult on success and {"error"}
// on failure, without the success flag the other endpoints carry.
func VerifyBill(verifier BillVerifier) http.HandlerFunc {
	return func(writer http.ResponseWriter, req *http.Request) {
		ctx := req.Context()

		var body verifyRequest
		if err := decodeBody(req, &body); err != nil {
			failBare(writer, req, err, "decode_request")
			return
		}
		if body.ReceiptImage == "" {
			failBare(writer, req, domain.ValidationError("Receipt image is required"), "validate")
			return
		}
		if isEmptyList(body.OrderedItems) {
			failBare(writer, req, domain.ValidationError("Ordered items are required"), "validate")
			return
		}

		ordered, err := services.ParseFoodItems(body.OrderedItems)
		if err != nil {
			failBare(writer, req, domain.NewError(domain.KindValidation, "Invalid ordered items", err), "validate")
			return
		}

		receipt, err := codec.DecodeBase64(body.ReceiptImage)
		if err != nil {
			failBare(writer, req, err, "decode_receipt")
			return
		}
		if len(receipt) == 0 {
			failBare(writer, req, domain.ValidationError("Receipt image is required"), "decode_receipt")
			return
		}

		ctx = logger.With(ctx, slog.Int("ordered", len(ordered)), slog.Int("receipt_bytes", len(receipt)))
		result, err := verifier.Verify(ctx, ordered, receipt)
		if err != nil {
			failBare(writer, req.WithContext(ctx), err, "verify")
			return
		}

		writeJSON(ctx, writer, http.StatusOK, result)
	}
}

func Health() http.HandlerFunc {
	return func(writer http.ResponseWriter, req *http.Request) {
		writeJSON(req.Context(), writer, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// isEmptyList reports a missing, null or [] ordered_items field.
func isEmptyList(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return true
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil && len(list) == 0 {
		return true
	}

	return false
}
