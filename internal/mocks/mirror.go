package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-api/internal/observability"
)

type EventMirrorMock struct {
	mock.Mock
}

func (m *EventMirrorMock) Mirror(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *EventMirrorMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ observability.EventMirror = (*EventMirrorMock)(nil)
