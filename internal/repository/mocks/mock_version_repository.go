package mocks

import (
	"context"

	"vaultapi/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockVersionRepository struct {
	mock.Mock
}

func (m *MockVersionRepository) CreateSnapshot(ctx context.Context, snap *model.VersionSnapshot) (*model.VersionSnapshot, error) {
	args := m.Called(ctx, snap)
	if f, ok := args.Get(0).(func(context.Context, *model.VersionSnapshot) *model.VersionSnapshot); ok {
		return f(ctx, snap), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VersionSnapshot), args.Error(1)
}

func (m *MockVersionRepository) NextVersionNumber(ctx context.Context, fileID string) (int, error) {
	args := m.Called(ctx, fileID)
	return args.Int(0), args.Error(1)
}

func (m *MockVersionRepository) LatestVersion(ctx context.Context, fileID string) (int, error) {
	args := m.Called(ctx, fileID)
	return args.Int(0), args.Error(1)
}

func (m *MockVersionRepository) ListByFile(ctx context.Context, fileID string) ([]model.VersionSnapshot, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.VersionSnapshot), args.Error(1)
}

func (m *MockVersionRepository) FindByNumber(ctx context.Context, fileID string, number int) (*model.VersionSnapshot, error) {
	args := m.Called(ctx, fileID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VersionSnapshot), args.Error(1)
}
