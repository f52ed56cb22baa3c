package mocks

import (
	"context"

	"docgate/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockAuthorizer struct {
	mock.Mock
}

func (m *MockAuthorizer) Authorize(ctx context.Context, subjectID, documentID string, op model.Operation) (model.Decision, error) {
	args := m.Called(ctx, subjectID, documentID, op)
	return args.Get(0).(model.Decision), args.Error(1)
}
