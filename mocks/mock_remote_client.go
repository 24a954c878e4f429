// Package mocks provides testify mock implementations of the service's
// core interfaces for use in unit tests.
package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"downloadqueue/internal/remote"
)

// MockRemoteClient is a mock implementation of remote.Client.
type MockRemoteClient struct {
	mock.Mock
}

func (m *MockRemoteClient) SubmitJob(ctx context.Context, req remote.SubmitRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockRemoteClient) FetchStatus(ctx context.Context, remoteID string) (*remote.StatusPayload, error) {
	args := m.Called(ctx, remoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*remote.StatusPayload), args.Error(1)
}

func (m *MockRemoteClient) FetchArtifact(ctx context.Context, filename string) (io.ReadCloser, error) {
	args := m.Called(ctx, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockRemoteClient) FetchMetadata(ctx context.Context, mediaURL string) (*remote.Metadata, error) {
	args := m.Called(ctx, mediaURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*remote.Metadata), args.Error(1)
}
