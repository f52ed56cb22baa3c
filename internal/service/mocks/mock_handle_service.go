package mocks

import (
	"context"

	"docgate/internal/model"
	"docgate/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockHandleService struct {
	mock.Mock
}

func (m *MockHandleService) PreviewHandle(ctx context.Context, subjectID, documentID string) (*service.HandleResult, error) {
	args := m.Called(ctx, subjectID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.HandleResult), args.Error(1)
}

func (m *MockHandleService) DownloadHandle(ctx context.Context, subjectID, documentID string) (*service.HandleResult, error) {
	args := m.Called(ctx, subjectID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.HandleResult), args.Error(1)
}

func (m *MockHandleService) GetDocument(ctx context.Context, subjectID, documentID string) (*model.Document, error) {
	args := m.Called(ctx, subjectID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}
