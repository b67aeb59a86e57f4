package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jimyag/jvc/internal/jvc/entity"
	"github.com/jimyag/jvc/internal/jvc/repository"
	"github.com/jimyag/jvc/internal/jvc/repository/model"
	"github.com/jimyag/jvc/pkg/apierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSnapshotService_Snapshot(t *testing.T) {
	t.Parallel()

	t.Run("creates snapshot chain", func(t *testing.T) {
		t.Parallel()
		ts := setupTestServices(t)
		ctx := context.Background()
		ts.startVolume(t, replicaA, replicaB)

		labels := map[string]string{"app": "db"}
		ts.MockReplicas.On("Snapshot", mock.Anything, replicaA, "s1", labels).Return(int64(4096), nil).Once()
		ts.MockReplicas.On("Snapshot", mock.Anything, replicaB, "s1", labels).Return(int64(8192), nil).Once()
		ts.MockReplicas.On("Snapshot", mock.Anything, mock.Anything, "s2", mock.Anything).Return(int64(0), nil).Twice()

		reply, err := ts.SnapshotService.Snapshot(ctx, &entity.VolumeSnapshotRequest{Name: "s1", Labels: labels})
		require.NoError(t, err)
		assert.Equal(t, "s1", reply.Name)

		_, err = ts.SnapshotService.Snapshot(ctx, &entity.VolumeSnapshotRequest{Name: "s2"})
		require.NoError(t, err)
		ts.MockReplicas.AssertExpectations(t)

		list, err := ts.SnapshotService.List(ctx)
		require.NoError(t, err)
		require.Len(t, list.Snapshots, 2)

		s1, s2 := list.Snapshots[0], list.Snapshots[1]
		assert.Equal(t, "s1", s1.Name)
		assert.Empty(t, s1.Parent)
		assert.Equal(t, []string{"s2"}, s1.Children)
		assert.Equal(t, int64(8192), s1.Size)
		assert.True(t, s1.UserCreated)
		assert.Equal(t, labels, s1.Labels)
		assert.NotEmpty(t, s1.Created)

		assert.Equal(t, "s1", s2.Parent)
		assert.Equal(t, []string{}, s2.Children)
		assert.Empty(t, s2.Labels)

		assert.Equal(t, entity.VolumeStateStarted, ts.Controller.State())
	})

	t.Run("duplicate name", func(t *testing.T) {
		t.Parallel()
		ts := setupTestServices(t)
		ctx := context.Background()
		ts.startVolume(t, replicaA)

		ts.MockReplicas.On("Snapshot", mock.Anything, replicaA, "s1", mock.Anything).Return(int64(0), nil).Once()
		_, err := ts.SnapshotService.Snapshot(ctx, &entity.VolumeSnapshotRequest{Name: "s1"})
		require.NoError(t, err)

		_, err = ts.SnapshotService.Snapshot(ctx, &entity.VolumeSnapshotRequest{Name: "s1"})
		assert.ErrorIs(t, err, apierror.ErrAlreadyExists)
		ts.MockReplicas.AssertExpectations(t)
	})

	t.Run("invalid name", func(t *testing.T) {
		t.Parallel()
		ts := setupTestServices(t)
		ts.startVolume(t, replicaA)

		_, err := ts.SnapshotService.Snapshot(context.Background(), &entity.VolumeSnapshotRequest{Name: "bad name"})
		assert.ErrorIs(t, err, apierror.ErrInvalidArgument)
	})

	t.Run("count limit", func(t *testing.T) {
		t.Parallel()
		ts := setupTestServices(t)
		ctx := context.Background()
		ts.startVolume(t, replicaA)

		_, err := ts.VolumeService.SnapshotMaxCountSet(ctx, &entity.VolumeSnapshotMaxCountSetRequest{Count: 1})
		require.NoError(t, err)

		ts.MockReplicas.On("Snapshot", mock.Anything, replicaA, "s1", mock.Anything).Return(int64(0), nil).Once()
		_, err = ts.SnapshotService.Snapshot(ctx, &entity.VolumeSnapshotRequest{Name: "s1"})
		require.NoError(t, err)

		_, err = ts.SnapshotService.Snapshot(ctx, &entity.VolumeSnapshotRequest{Name: "s2"})
		assert.ErrorIs(t, err, apierror.ErrSnapshotLimitExceeded)

		// 已删除的快照不计入限制
		ts.MockReplicas.On("RemoveSnapshot", mock.Anything, replicaA, "s1").Return(nil).Once()
		require.NoError(t, ts.SnapshotService.Remove(ctx, &entity.SnapshotNameRequest{Name: "s1"}))

		ts.MockReplicas.On("Snapshot", mock.Anything, replicaA, "s2", mock.Anything).Return(int64(0), nil).Once()
		_, err = ts.SnapshotService.Snapshot(ctx, &entity.VolumeSnapshotRequest{Name: "s2"})
		require.NoError(t, err)
		ts.MockReplicas.AssertExpectations(t)
	})

	t.Run("size limit", func(t *testing.T) {
		t.Parallel()
		ts := setupTestServices(t)
		ctx := context.Background()
		ts.startVolume(t, replicaA)

		_, err := ts.VolumeService.SnapshotMaxSizeSet(ctx, &entity.VolumeSnapshotMaxSizeSetRequest{Size: 100})
		require.NoError(t, err)

		ts.MockReplicas.On("Info", mock.Anything, replicaA).Return(replicaInfo(150), nil).Once()
		_, err = ts.SnapshotService.Snapshot(ctx, &entity.VolumeSnapshotRequest{Name: "s1"})
		assert.ErrorIs(t, err, apierror.ErrSnapshotLimitExceeded)
		ts.MockReplicas.AssertNotCalled(t, "Snapshot", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("partial failure rolls back", func(t *testing.T) {
		t.Parallel()
		ts := setupTestServices(t)
		ctx := context.Background()
		ts.startVolume(t, replicaA, replicaB)

		ts.MockReplicas.On("Snapshot", mock.Anything, replicaA, "s1", mock.Anything).Return(int64(0), nil).Once()
		ts.MockReplicas.On("Snapshot", mock.Anything, replicaB, "s1", mock.Anything).Return(int64(0), errors.New("io error")).Once()
		ts.MockReplicas.On("RemoveSnapshot", mock.Anything, replicaA, "s1").Return(nil).Once()

		_, err := ts.SnapshotService.Snapshot(ctx, &entity.VolumeSnapshotRequest{Name: "s1"})
		assert.ErrorIs(t, err, apierror.ErrInternal)
		ts.MockReplicas.AssertExpectations(t)

		list, err := ts.SnapshotService.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list.Snapshots)
		assert.Equal(t, entity.VolumeStateStarted, ts.Controller.State())
	})

	t.Run("persist failure rolls back replicas", func(t *testing.T) {
		t.Parallel()
		ts := setupTestServices(t)
		ctx := context.Background()
		ts.startVolume(t, replicaA, replicaB)

		// 卷记录表不可写时快照记录随事务一起回滚
		require.NoError(t, ts.Repo.DB().Migrator().DropTable(&model.VolumeRecord{}))

		ts.MockReplicas.On("Snapshot", mock.Anything, mock.Anything, "s1", mock.Anything).Return(int64(0), nil).Twice()
		ts.MockReplicas.On("RemoveSnapshot", mock.Anything, replicaA, "s1").Return(nil).Once()
		ts.MockReplicas.On("RemoveSnapshot", mock.Anything, replicaB, "s1").Return(nil).Once()

		_, err := ts.SnapshotService.Snapshot(ctx, &entity.VolumeSnapshotRequest{Name: "s1"})
		assert.ErrorIs(t, err, apierror.ErrInternal)
		ts.MockReplicas.AssertExpectations(t)

		list, err := ts.SnapshotService.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list.Snapshots)

		// 同名重试不会返回 AlreadyExists
		require.NoError(t, ts.Repo.DB().AutoMigrate(&model.VolumeRecord{}))
		ts.MockReplicas.On("Snapshot", mock.Anything, mock.Anything, "s1", mock.Anything).Return(int64(0), nil).Twice()
		_, err = ts.SnapshotService.Snapshot(ctx, &entity.VolumeSnapshotRequest{Name: "s1"})
		require.NoError(t, err)

		record, err := repository.NewVolumeRepository(ts.Repo.DB()).Get(ctx, testVolumeName)
		require.NoError(t, err)
		assert.Equal(t, "s1", record.HeadParent)
	})

	t.Run("not started", func(t *testing.T) {
		t.Parallel()
		ts := setupTestServices(t)
		_, err := ts.SnapshotService.Snapshot(context.Background(), &entity.VolumeSnapshotRequest{Name: "s1"})
		assert.ErrorIs(t, err, apierror.ErrNotStarted)
	})
}

func TestSnapshotService_Revert(t *testing.T) {
	t.Parallel()

	// setup 启动两个副本并创建快照 s1
	setup := func(t *testing.T) *TestServices {
		ts := setupTestServices(t)
		ts.startVolume(t, replicaA, replicaB)
		ts.MockReplicas.On("Snapshot", mock.Anything, mock.Anything, "s1", mock.Anything).Return(int64(0), nil).Twice()
		_, err := ts.SnapshotService.Snapshot(context.Background(), &entity.VolumeSnapshotRequest{Name: "s1"})
		require.NoError(t, err)
		return ts
	}

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		ts := setup(t)
		ctx := context.Background()

		ts.MockReplicas.On("Snapshot", mock.Anything, mock.Anything, "s2", mock.Anything).Return(int64(0), nil).Twice()
		_, err := ts.SnapshotService.Snapshot(ctx, &entity.VolumeSnapshotRequest{Name: "s2"})
		require.NoError(t, err)

		ts.MockReplicas.On("Info", mock.Anything, mock.Anything).Return(replicaInfo(0, "s1", "s2"), nil).Twice()
		ts.MockReplicas.On("Revert", mock.Anything, replicaA, "s1").Return(nil).Once()
		ts.MockReplicas.On("Revert", mock.Anything, replicaB, "s1").Return(nil).Once()

		_, err = ts.SnapshotService.Revert(ctx, &entity.SnapshotNameRequest{Name: "s1"})
		require.NoError(t, err)
		ts.MockReplicas.AssertExpectations(t)

		// 新快照以回滚目标为父
		ts.MockReplicas.On("Snapshot", mock.Anything, mock.Anything, "s3", mock.Anything).Return(int64(0), nil).Twice()
		_, err = ts.SnapshotService.Snapshot(ctx, &entity.VolumeSnapshotRequest{Name: "s3"})
		require.NoError(t, err)

		list, err := ts.SnapshotService.List(ctx)
		require.NoError(t, err)
		require.Len(t, list.Snapshots, 3)
		assert.Equal(t, "s1", list.Snapshots[2].Parent)
		assert.ElementsMatch(t, []string{"s2", "s3"}, list.Snapshots[0].Children)
	})

	t.Run("unknown snapshot", func(t *testing.T) {
		t.Parallel()
		ts := setup(t)
		_, err := ts.SnapshotService.Revert(context.Background(), &entity.SnapshotNameRequest{Name: "missing"})
		assert.ErrorIs(t, err, apierror.ErrNotFound)
	})

	t.Run("snapshot missing on a replica", func(t *testing.T) {
		t.Parallel()
		ts := setup(t)

		ts.MockReplicas.On("Info", mock.Anything, replicaA).Return(replicaInfo(0, "s1"), nil).Once()
		ts.MockReplicas.On("Info", mock.Anything, replicaB).Return(replicaInfo(0), nil).Once()

		_, err := ts.SnapshotService.Revert(context.Background(), &entity.SnapshotNameRequest{Name: "s1"})
		assert.ErrorIs(t, err, apierror.ErrNotFound)
		ts.MockReplicas.AssertNotCalled(t, "Revert", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("failed replica marked ERR", func(t *testing.T) {
		t.Parallel()
		ts := setup(t)

		ts.MockReplicas.On("Info", mock.Anything, mock.Anything).Return(replicaInfo(0, "s1"), nil).Twice()
		ts.MockReplicas.On("Revert", mock.Anything, replicaA, "s1").Return(nil).Once()
		ts.MockReplicas.On("Revert", mock.Anything, replicaB, "s1").Return(errors.New("io error")).Once()

		_, err := ts.SnapshotService.Revert(context.Background(), &entity.SnapshotNameRequest{Name: "s1"})
		require.NoError(t, err)

		b, _ := ts.Controller.registry.Get(replicaB)
		assert.Equal(t, entity.ReplicaModeERR, b.Mode)
	})

	t.Run("all replicas fail keeps head", func(t *testing.T) {
		t.Parallel()
		ts := setup(t)
		ctx := context.Background()

		ts.MockReplicas.On("Snapshot", mock.Anything, mock.Anything, "s2", mock.Anything).Return(int64(0), nil).Twice()
		_, err := ts.SnapshotService.Snapshot(ctx, &entity.VolumeSnapshotRequest{Name: "s2"})
		require.NoError(t, err)

		ts.MockReplicas.On("Info", mock.Anything, mock.Anything).Return(replicaInfo(0, "s1", "s2"), nil).Twice()
		ts.MockReplicas.On("Revert", mock.Anything, mock.Anything, "s1").Return(errors.New("io error")).Twice()

		_, err = ts.SnapshotService.Revert(ctx, &entity.SnapshotNameRequest{Name: "s1"})
		assert.ErrorIs(t, err, apierror.ErrInternal)
		ts.MockReplicas.AssertExpectations(t)

		record, err := repository.NewVolumeRepository(ts.Repo.DB()).Get(ctx, testVolumeName)
		require.NoError(t, err)
		assert.Equal(t, "s2", record.HeadParent)

		ts.Controller.mu.RLock()
		head := ts.Controller.headParent
		ts.Controller.mu.RUnlock()
		assert.Equal(t, "s2", head)
	})

	t.Run("rebuild in progress", func(t *testing.T) {
		t.Parallel()
		ts := setup(t)
		ctx := context.Background()

		_, err := ts.RebuildService.Prepare(ctx, &entity.ReplicaAddressRequest{Address: replicaA})
		require.NoError(t, err)

		_, err = ts.SnapshotService.Revert(ctx, &entity.SnapshotNameRequest{Name: "s1"})
		assert.ErrorIs(t, err, apierror.ErrRebuildInProgress)
	})

	t.Run("restore in progress", func(t *testing.T) {
		t.Parallel()
		ts := setup(t)
		ctx := context.Background()

		_, err := ts.VolumeService.PrepareRestore(ctx, &entity.VolumePrepareRestoreRequest{})
		require.NoError(t, err)

		_, err = ts.SnapshotService.Revert(ctx, &entity.SnapshotNameRequest{Name: "s1"})
		assert.ErrorIs(t, err, apierror.ErrRestoreInProgress)
	})
}

func TestSnapshotService_Remove(t *testing.T) {
	t.Parallel()

	ts := setupTestServices(t)
	ctx := context.Background()
	ts.startVolume(t, replicaA)

	err := ts.SnapshotService.Remove(ctx, &entity.SnapshotNameRequest{Name: "missing"})
	assert.ErrorIs(t, err, apierror.ErrNotFound)

	ts.MockReplicas.On("Snapshot", mock.Anything, replicaA, "s1", mock.Anything).Return(int64(0), nil).Once()
	_, err = ts.SnapshotService.Snapshot(ctx, &entity.VolumeSnapshotRequest{Name: "s1"})
	require.NoError(t, err)

	ts.MockReplicas.On("RemoveSnapshot", mock.Anything, replicaA, "s1").Return(nil).Once()
	require.NoError(t, ts.SnapshotService.Remove(ctx, &entity.SnapshotNameRequest{Name: "s1"}))

	// 重复删除为空操作
	require.NoError(t, ts.SnapshotService.Remove(ctx, &entity.SnapshotNameRequest{Name: "s1"}))
	ts.MockReplicas.AssertExpectations(t)

	list, err := ts.SnapshotService.List(ctx)
	require.NoError(t, err)
	require.Len(t, list.Snapshots, 1)
	assert.True(t, list.Snapshots[0].Removed)

	_, err = ts.SnapshotService.Revert(ctx, &entity.SnapshotNameRequest{Name: "s1"})
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}
