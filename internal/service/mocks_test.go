package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"parkease-backend/internal/domain"
)

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) DispatchApproval(ctx context.Context, rsv domain.Reservation, res domain.Resource) {
	m.Called(ctx, rsv, res)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyBookingApproved(ctx context.Context, contact domain.Contact, rsv domain.Reservation, res domain.Resource) error {
	args := m.Called(ctx, contact, rsv, res)
	return args.Error(0)
}
