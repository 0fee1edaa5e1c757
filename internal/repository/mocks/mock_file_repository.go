package mocks

import (
	"context"

	"vaultapi/internal/model"
	"vaultapi/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockFileRepository struct {
	mock.Mock
}

func (m *MockFileRepository) Create(ctx context.Context, rec *model.FileRecord) (*model.FileRecord, error) {
	args := m.Called(ctx, rec)
	if f, ok := args.Get(0).(func(context.Context, *model.FileRecord) *model.FileRecord); ok {
		return f(ctx, rec), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileRecord), args.Error(1)
}

func (m *MockFileRepository) FindByID(ctx context.Context, id string) (*model.FileRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileRecord), args.Error(1)
}

func (m *MockFileRepository) List(ctx context.Context, q repository.FileQuery) (*repository.PageResult[model.FileRecord], error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.FileRecord]), args.Error(1)
}

func (m *MockFileRepository) UpdateNameAndKey(ctx context.Context, id, displayName, storageKey string) error {
	args := m.Called(ctx, id, displayName, storageKey)
	return args.Error(0)
}

func (m *MockFileRepository) UpdateCurrent(ctx context.Context, id, storageKey string, sizeBytes int64) error {
	args := m.Called(ctx, id, storageKey, sizeBytes)
	return args.Error(0)
}

func (m *MockFileRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
