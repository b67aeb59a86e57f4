package api

import (
	"context"

	"github.com/jimyag/jvc/internal/jvc/entity"
	"github.com/stretchr/testify/mock"
)

// MockVolumeService 是 VolumeService 的 mock 实现
type MockVolumeService struct {
	mock.Mock
}

func (m *MockVolumeService) volume(args mock.Arguments) (*entity.Volume, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Volume), args.Error(1)
}

func (m *MockVolumeService) Get(ctx context.Context) (*entity.Volume, error) {
	return m.volume(m.Called(ctx))
}

func (m *MockVolumeService) Start(ctx context.Context, req *entity.VolumeStartRequest) (*entity.Volume, error) {
	return m.volume(m.Called(ctx, req))
}

func (m *MockVolumeService) Shutdown(ctx context.Context) (*entity.Volume, error) {
	return m.volume(m.Called(ctx))
}

func (m *MockVolumeService) Expand(ctx context.Context, req *entity.VolumeExpandRequest) (*entity.Volume, error) {
	return m.volume(m.Called(ctx, req))
}

func (m *MockVolumeService) FrontendStart(ctx context.Context, req *entity.VolumeFrontendStartRequest) (*entity.Volume, error) {
	return m.volume(m.Called(ctx, req))
}

func (m *MockVolumeService) FrontendShutdown(ctx context.Context) (*entity.Volume, error) {
	return m.volume(m.Called(ctx))
}

func (m *MockVolumeService) UnmapMarkSnapChainRemovedSet(ctx context.Context, req *entity.VolumeUnmapMarkSnapChainRemovedSetRequest) (*entity.Volume, error) {
	return m.volume(m.Called(ctx, req))
}

func (m *MockVolumeService) SnapshotMaxCountSet(ctx context.Context, req *entity.VolumeSnapshotMaxCountSetRequest) (*entity.Volume, error) {
	return m.volume(m.Called(ctx, req))
}

func (m *MockVolumeService) SnapshotMaxSizeSet(ctx context.Context, req *entity.VolumeSnapshotMaxSizeSetRequest) (*entity.Volume, error) {
	return m.volume(m.Called(ctx, req))
}

func (m *MockVolumeService) PrepareRestore(ctx context.Context, req *entity.VolumePrepareRestoreRequest) (*entity.Volume, error) {
	return m.volume(m.Called(ctx, req))
}

func (m *MockVolumeService) FinishRestore(ctx context.Context, req *entity.VolumeFinishRestoreRequest) (*entity.Volume, error) {
	return m.volume(m.Called(ctx, req))
}

// MockSnapshotService 是 SnapshotService 的 mock 实现
type MockSnapshotService struct {
	mock.Mock
}

func (m *MockSnapshotService) Snapshot(ctx context.Context, req *entity.VolumeSnapshotRequest) (*entity.VolumeSnapshotReply, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.VolumeSnapshotReply), args.Error(1)
}

func (m *MockSnapshotService) Revert(ctx context.Context, req *entity.SnapshotNameRequest) (*entity.Volume, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Volume), args.Error(1)
}

func (m *MockSnapshotService) List(ctx context.Context) (*entity.SnapshotListReply, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.SnapshotListReply), args.Error(1)
}

func (m *MockSnapshotService) Remove(ctx context.Context, req *entity.SnapshotNameRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockSnapshotService) Purge(ctx context.Context, req *entity.SnapshotPurgeRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockSnapshotService) PurgeStatus(ctx context.Context) (*entity.SnapshotPurgeStatusReply, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.SnapshotPurgeStatusReply), args.Error(1)
}

// MockReplicaService 是 ReplicaService 的 mock 实现
type MockReplicaService struct {
	mock.Mock
}

func (m *MockReplicaService) List(ctx context.Context) (*entity.ReplicaListReply, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ReplicaListReply), args.Error(1)
}

func (m *MockReplicaService) Get(ctx context.Context, req *entity.ReplicaAddressRequest) (*entity.ControllerReplica, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ControllerReplica), args.Error(1)
}

func (m *MockReplicaService) Create(ctx context.Context, req *entity.ControllerReplicaCreateRequest) (*entity.ControllerReplica, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ControllerReplica), args.Error(1)
}

func (m *MockReplicaService) Delete(ctx context.Context, req *entity.ReplicaAddressRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockReplicaService) Update(ctx context.Context, req *entity.ControllerReplica) (*entity.ControllerReplica, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ControllerReplica), args.Error(1)
}

// MockRebuildService 是 RebuildService 的 mock 实现
type MockRebuildService struct {
	mock.Mock
}

func (m *MockRebuildService) Prepare(ctx context.Context, req *entity.ReplicaAddressRequest) (*entity.ReplicaPrepareRebuildReply, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ReplicaPrepareRebuildReply), args.Error(1)
}

func (m *MockRebuildService) Verify(ctx context.Context, req *entity.ReplicaAddressRequest) (*entity.ControllerReplica, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ControllerReplica), args.Error(1)
}

func (m *MockRebuildService) Status(ctx context.Context) (*entity.RebuildStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RebuildStatus), args.Error(1)
}

// MockJournalService 是 JournalService 的 mock 实现
type MockJournalService struct {
	mock.Mock
}

func (m *MockJournalService) List(ctx context.Context, req *entity.JournalListRequest) (*entity.JournalListReply, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.JournalListReply), args.Error(1)
}

// MockVersionService 是 VersionService 的 mock 实现
type MockVersionService struct {
	mock.Mock
}

func (m *MockVersionService) Get(ctx context.Context) (*entity.VersionDetailGetReply, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.VersionDetailGetReply), args.Error(1)
}

// MockMetricsService 是 MetricsService 的 mock 实现
type MockMetricsService struct {
	mock.Mock
}

func (m *MockMetricsService) Get(ctx context.Context) (*entity.MetricsGetReply, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.MetricsGetReply), args.Error(1)
}
