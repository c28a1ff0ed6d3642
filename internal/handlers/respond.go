package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"orderverifier/internal/domain"
	"orderverifier/pkg/logger"
)

type failureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type bareFailureResponse struct {
	Error string `json:"error"`
}

func decodeBody(req *http.Request, dst any) error {
	if err := json.NewDecoder(req.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return domain.NewError(domain.KindValidation, "Request body too large", err)
		}

		return domain.NewError(domain.KindValidation, "Invalid JSON body", err)
	}

	return nil
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}

	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindDecode, domain.KindTooSmall:
		return http.StatusBadRequest
	case domain.KindUnrecognizedSpeech:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

func fail(writer http.ResponseWriter, req *http.Request, err error, stage string) {
	status := logFailure(req, err, stage)
	writeJSON(req.Context(), writer, status, failureResponse{
		Success: false,
		Error:   domain.PublicMessage(err),
	})
}

func failBare(writer http.ResponseWriter, req *http.Request, err error, stage string) {
	status := logFailure(req, err, stage)
	writeJSON(req.Context(), writer, status, bareFailureResponse{
		Error: domain.PublicMessage(err),
	})
}

func logFailure(req *http.Request, err error, stage string) int {
	status := statusFor(err)

	level := slog.LevelError
	switch {
	case domain.KindOf(err) == domain.KindUnrecognizedSpeech:
		level = slog.LevelInfo
	case status < http.StatusInternalServerError:
		level = slog.LevelWarn
	}

	logger.FromCtx(req.Context()).LogAttrs(req.Context(), level, "request failed",
		slog.String("stage", stage),
		slog.String("kind", domain.KindOf(err).String()),
		slog.Int("status", status),
		logger.Error(err),
	)

	return status
}

func writeJSON(ctx context.Context, writer http.ResponseWriter, status int, body any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	if err := json.NewEncoder(writer).Encode(body); err != nil {
		logger.FromCtx(ctx).Error("encode response", logger.Error(err))
	}
}
