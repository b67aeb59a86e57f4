package service

import (
	"context"
	"testing"

	"github.com/jimyag/jvc/internal/jvc/entity"
	"github.com/jimyag/jvc/internal/jvc/repository"
	"github.com/jimyag/jvc/pkg/apierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolumeService_Restore(t *testing.T) {
	t.Parallel()

	ts := setupTestServices(t)
	ctx := context.Background()

	_, err := ts.VolumeService.PrepareRestore(ctx, &entity.VolumePrepareRestoreRequest{})
	assert.ErrorIs(t, err, apierror.ErrNotStarted)

	ts.startVolume(t, replicaA)

	_, err = ts.VolumeService.FinishRestore(ctx, &entity.VolumeFinishRestoreRequest{CurrentRestored: "backup-1"})
	assert.ErrorIs(t, err, apierror.ErrInvalidArgument)

	volume, err := ts.VolumeService.PrepareRestore(ctx, &entity.VolumePrepareRestoreRequest{})
	require.NoError(t, err)
	assert.Equal(t, entity.VolumeStateRestoring, volume.State)

	_, err = ts.VolumeService.PrepareRestore(ctx, &entity.VolumePrepareRestoreRequest{})
	assert.ErrorIs(t, err, apierror.ErrRestoreInProgress)

	_, err = ts.SnapshotService.Snapshot(ctx, &entity.VolumeSnapshotRequest{Name: "s1"})
	assert.ErrorIs(t, err, apierror.ErrRestoreInProgress)

	// 恢复期间仍可挂载前端
	_, err = ts.VolumeService.FrontendStart(ctx, &entity.VolumeFrontendStartRequest{Frontend: entity.FrontendBlockDev})
	require.NoError(t, err)

	_, err = ts.VolumeService.FinishRestore(ctx, &entity.VolumeFinishRestoreRequest{})
	assert.ErrorIs(t, err, apierror.ErrInvalidArgument)

	volume, err = ts.VolumeService.FinishRestore(ctx, &entity.VolumeFinishRestoreRequest{CurrentRestored: "backup-1"})
	require.NoError(t, err)
	assert.Equal(t, entity.VolumeStateStarted, volume.State)
	assert.Equal(t, "backup-1", volume.LastRestored)

	record, err := repository.NewVolumeRepository(ts.Repo.DB()).Get(ctx, testVolumeName)
	require.NoError(t, err)
	assert.Equal(t, "backup-1", record.LastRestored)

	// 增量恢复需要基于上一次恢复的备份
	_, err = ts.VolumeService.PrepareRestore(ctx, &entity.VolumePrepareRestoreRequest{LastRestored: "backup-0"})
	assert.ErrorIs(t, err, apierror.ErrInvalidArgument)

	volume, err = ts.VolumeService.PrepareRestore(ctx, &entity.VolumePrepareRestoreRequest{LastRestored: "backup-1"})
	require.NoError(t, err)
	assert.Equal(t, entity.VolumeStateRestoring, volume.State)
}
