package handlers

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"orderverifier/internal/metrics"
	"orderverifier/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger puts a per-request logger into the context and logs the
// outcome of every request.
func RequestLogger(base *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
			requestID := req.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			writer.Header().Set(requestIDHeader, requestID)

			log := base.With(
				slog.String("request_id", requestID),
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
			)
			ctx := logger.ToCtx(req.Context(), log)

			rec := &statusRecorder{ResponseWriter: writer, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, req.WithContext(ctx))

			metrics.HTTPRequestsTotal.WithLabelValues(routeName(req), strconv.Itoa(rec.status)).Inc()
			log.Info("request served",
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// Recover turns a panic in a handler into a 500 JSON response.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.FromCtx(req.Context()).Error("panic in handler",
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)
				writeJSON(req.Context(), writer, http.StatusInternalServerError, failureResponse{
					Success: false,
					Error:   "internal server error",
				})
			}
		}()

		next.ServeHTTP(writer, req)
	})
}

// LimitBody caps request bodies at limit bytes.
func LimitBody(limit int64) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
			if limit > 0 {
				req.Body = http.MaxBytesReader(writer, req.Body, limit)
			}
			next.ServeHTTP(writer, req)
		})
	}
}

// routeName returns the route template so metric labels stay bounded.
func routeName(req *http.Request) string {
	if route := mux.CurrentRoute(req); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}

	return "unmatched"
}
