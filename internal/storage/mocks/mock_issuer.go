package mocks

import (
	"context"

	"docgate/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockIssuer struct {
	mock.Mock
}

func (m *MockIssuer) IssueHandle(ctx context.Context, coords model.Coordinates, kind model.Operation, fileName string) (model.Handle, error) {
	args := m.Called(ctx, coords, kind, fileName)
	return args.Get(0).(model.Handle), args.Error(1)
}
