package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"orderverifier/internal/domain"
	"orderverifier/internal/metrics"
)

// DefaultBeamSize is the beam search width used for transcription.
const DefaultBeamSize = 5

// Transcriber runs the local speech-to-text model on a staged audio file.
// Implementations are built once at startup and shared by all requests.
type Transcriber interface {
	Transcribe(ctx context.Context, path string, beamSize int) ([]domain.Segment, error)
	Name() string
}

// modelSlots bounds how many transcriptions run on the model at once.
type modelSlots struct {
	sem     *semaphore.Weighted
	timeout time.Duration
}

func newModelSlots(concurrency int64, timeout time.Duration) modelSlots {
	if concurrency < 1 {
		concurrency = 1
	}

	return modelSlots{
		sem:     semaphore.NewWeighted(concurrency),
		timeout: timeout,
	}
}

// run waits for a free slot and calls fn. The wait and the call share one
// timeout and ignore the caller's cancellation.
func (s modelSlots) run(ctx context.Context, call string, fn func(ctx context.Context) ([]domain.Segment, error)) ([]domain.Segment, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, domain.GatewayError("transcription model busy", err)
	}
	defer s.sem.Release(1)

	metrics.TranscriptionsInFlight.Inc()
	defer metrics.TranscriptionsInFlight.Dec()

	start := time.Now()
	segments, err := fn(ctx)
	metrics.ObserveGateway(call, start, err)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.GatewayError(fmt.Sprintf("transcription timed out after %s", s.timeout), err)
		}
		var domainErr *domain.Error
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, domain.GatewayError("transcription failed", err)
	}

	return segments, nil
}
