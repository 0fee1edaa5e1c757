package mocks

import (
	"context"
	"io"

	"vaultapi/internal/model"
	"vaultapi/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockVaultService struct {
	mock.Mock
}

func (m *MockVaultService) Upload(ctx context.Context, principal model.Principal, filename string, r io.Reader, size int64) (*model.FileRecord, error) {
	args := m.Called(ctx, principal, filename, r, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileRecord), args.Error(1)
}

func (m *MockVaultService) IngestArchive(ctx context.Context, principal model.Principal, archiveName string, r io.Reader, size int64) (*service.ArchiveResult, error) {
	args := m.Called(ctx, principal, archiveName, r, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ArchiveResult), args.Error(1)
}

func (m *MockVaultService) UploadVersion(ctx context.Context, principal model.Principal, fileID string, r io.Reader, size int64) (*model.FileRecord, error) {
	args := m.Called(ctx, principal, fileID, r, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileRecord), args.Error(1)
}

func (m *MockVaultService) Get(ctx context.Context, principal model.Principal, fileID string) (*model.FileRecord, error) {
	args := m.Called(ctx, principal, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileRecord), args.Error(1)
}

func (m *MockVaultService) List(ctx context.Context, principal model.Principal, f service.ListFilters) (*service.FileListResult, error) {
	args := m.Called(ctx, principal, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FileListResult), args.Error(1)
}

func (m *MockVaultService) Rename(ctx context.Context, principal model.Principal, fileID, newName string) (*model.FileRecord, error) {
	args := m.Called(ctx, principal, fileID, newName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileRecord), args.Error(1)
}

func (m *MockVaultService) Delete(ctx context.Context, principal model.Principal, fileID string) error {
	args := m.Called(ctx, principal, fileID)
	return args.Error(0)
}

func (m *MockVaultService) DownloadURL(ctx context.Context, principal model.Principal, fileID string) (*service.SignedLink, error) {
	args := m.Called(ctx, principal, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SignedLink), args.Error(1)
}

func (m *MockVaultService) ViewURL(ctx context.Context, principal model.Principal, fileID string) (*service.SignedLink, error) {
	args := m.Called(ctx, principal, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SignedLink), args.Error(1)
}

func (m *MockVaultService) ListVersions(ctx context.Context, principal model.Principal, fileID string) (*service.VersionListResult, error) {
	args := m.Called(ctx, principal, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.VersionListResult), args.Error(1)
}

func (m *MockVaultService) RestoreVersion(ctx context.Context, principal model.Principal, fileID string, number int) (*model.VersionSnapshot, error) {
	args := m.Called(ctx, principal, fileID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VersionSnapshot), args.Error(1)
}

func (m *MockVaultService) ListActivity(ctx context.Context, principal model.Principal, f service.ActivityFilters) (*service.ActivityListResult, error) {
	args := m.Called(ctx, principal, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ActivityListResult), args.Error(1)
}
