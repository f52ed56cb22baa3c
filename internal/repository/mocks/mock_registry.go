package mocks

import (
	"context"

	"docgate/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockRegistryRepository struct {
	mock.Mock
}

func (m *MockRegistryRepository) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockRegistryRepository) IsDocumentOwner(ctx context.Context, subjectID, documentID string) (bool, error) {
	args := m.Called(ctx, subjectID, documentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRegistryRepository) HasGrant(ctx context.Context, subjectID, documentID string, op model.Operation) (bool, error) {
	args := m.Called(ctx, subjectID, documentID, op)
	return args.Bool(0), args.Error(1)
}

func (m *MockRegistryRepository) HasRole(ctx context.Context, subjectID, role string) (bool, error) {
	args := m.Called(ctx, subjectID, role)
	return args.Bool(0), args.Error(1)
}
