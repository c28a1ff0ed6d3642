package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"orderverifier/internal/domain"
	"orderverifier/internal/gateway"
)

type completerMock struct {
	mock.Mock
}

func (m *completerMock) Complete(ctx context.Context, prompt gateway.Prompt) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func promptNamed(name string) any {
	return mock.MatchedBy(func(p gateway.Prompt) bool { return p.Name == name })
}

type transcriberMock struct {
	mock.Mock
}

func (m *transcriberMock) Name() string { return "mock" }

func (m *transcriberMock) Transcribe(ctx context.Context, path string, beamSize int) ([]domain.Segment, error) {
	args := m.Called(ctx, path, beamSize)
	segs, _ := args.Get(0).([]domain.Segment)
	return segs, args.Error(1)
}
