package mocks

import (
	"context"

	"docgate/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, documentID string) (*model.Document, model.Coordinates, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Get(1).(model.Coordinates), args.Error(2)
	}
	return args.Get(0).(*model.Document), args.Get(1).(model.Coordinates), args.Error(2)
}
