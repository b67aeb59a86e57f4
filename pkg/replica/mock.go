package replica

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient 是 Client 的 mock 实现
// 用于测试，不需要真实的副本进程
type MockClient struct {
	mock.Mock
}

// NewMockClient 创建新的 MockClient
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Info 实现 Client 接口
func (m *MockClient) Info(ctx context.Context, address string) (*Info, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Info), args.Error(1)
}

// Resize 实现 Client 接口
func (m *MockClient) Resize(ctx context.Context, address string, size int64) error {
	args := m.Called(ctx, address, size)
	return args.Error(0)
}

// Snapshot 实现 Client 接口
func (m *MockClient) Snapshot(ctx context.Context, address, name string, labels map[string]string) (int64, error) {
	args := m.Called(ctx, address, name, labels)
	return args.Get(0).(int64), args.Error(1)
}

// RemoveSnapshot 实现 Client 接口
func (m *MockClient) RemoveSnapshot(ctx context.Context, address, name string) error {
	args := m.Called(ctx, address, name)
	return args.Error(0)
}

// PurgeSnapshot 实现 Client 接口
func (m *MockClient) PurgeSnapshot(ctx context.Context, address, name string) error {
	args := m.Called(ctx, address, name)
	return args.Error(0)
}

// Revert 实现 Client 接口
func (m *MockClient) Revert(ctx context.Context, address, name string) error {
	args := m.Called(ctx, address, name)
	return args.Error(0)
}

// Stats 实现 Client 接口
func (m *MockClient) Stats(ctx context.Context, address string) (*Stats, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Stats), args.Error(1)
}
