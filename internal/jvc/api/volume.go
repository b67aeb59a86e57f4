package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/jvc/internal/jvc/entity"
	"github.com/jimyag/jvc/pkg/ginx"
	"github.com/rs/zerolog"
)

// VolumeServiceInterface 定义卷服务的接口
type VolumeServiceInterface interface {
	Get(ctx context.Context) (*entity.Volume, error)
	Start(ctx context.Context, req *entity.VolumeStartRequest) (*entity.Volume, error)
	Shutdown(ctx context.Context) (*entity.Volume, error)
	Expand(ctx context.Context, req *entity.VolumeExpandRequest) (*entity.Volume, error)
	FrontendStart(ctx context.Context, req *entity.VolumeFrontendStartRequest) (*entity.Volume, error)
	FrontendShutdown(ctx context.Context) (*entity.Volume, error)
	UnmapMarkSnapChainRemovedSet(ctx context.Context, req *entity.VolumeUnmapMarkSnapChainRemovedSetRequest) (*entity.Volume, error)
	SnapshotMaxCountSet(ctx context.Context, req *entity.VolumeSnapshotMaxCountSetRequest) (*entity.Volume, error)
	SnapshotMaxSizeSet(ctx context.Context, req *entity.VolumeSnapshotMaxSizeSetRequest) (*entity.Volume, error)
	PrepareRestore(ctx context.Context, req *entity.VolumePrepareRestoreRequest) (*entity.Volume, error)
	FinishRestore(ctx context.Context, req *entity.VolumeFinishRestoreRequest) (*entity.Volume, error)
}

type Volume struct {
	volumeService   VolumeServiceInterface
	snapshotService SnapshotServiceInterface
}

func NewVolume(volumeService VolumeServiceInterface, snapshotService SnapshotServiceInterface) *Volume {
	return &Volume{
		volumeService:   volumeService,
		snapshotService: snapshotService,
	}
}

func (v *Volume) RegisterRoutes(router *gin.RouterGroup) {
	volumeRouter := router.Group("/volume")
	volumeRouter.POST("/get", ginx.Adapt3(v.GetVolume))
	volumeRouter.POST("/start", ginx.Adapt5(v.StartVolume))
	volumeRouter.POST("/shutdown", ginx.Adapt3(v.ShutdownVolume))
	volumeRouter.POST("/snapshot", ginx.Adapt5(v.SnapshotVolume))
	volumeRouter.POST("/revert", ginx.Adapt5(v.RevertVolume))
	volumeRouter.POST("/expand", ginx.Adapt5(v.ExpandVolume))
	volumeRouter.POST("/frontend-start", ginx.Adapt5(v.StartFrontend))
	volumeRouter.POST("/frontend-shutdown", ginx.Adapt3(v.ShutdownFrontend))
	volumeRouter.POST("/unmap-mark-snap-chain-removed-set", ginx.Adapt5(v.SetUnmapMarkSnapChainRemoved))
	volumeRouter.POST("/snapshot-max-count-set", ginx.Adapt5(v.SetSnapshotMaxCount))
	volumeRouter.POST("/snapshot-max-size-set", ginx.Adapt5(v.SetSnapshotMaxSize))
	volumeRouter.POST("/prepare-restore", ginx.Adapt5(v.PrepareRestore))
	volumeRouter.POST("/finish-restore", ginx.Adapt5(v.FinishRestore))
}

func (v *Volume) GetVolume(ctx *gin.Context) (*entity.Volume, error) {
	return v.volumeService.Get(ctx)
}

func (v *Volume) StartVolume(ctx *gin.Context, req *entity.VolumeStartRequest) (*entity.Volume, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Int64("size", req.Size).
		Strs("replicas", req.ReplicaAddresses).
		Msg("VolumeStart called")

	volume, err := v.volumeService.Start(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to start volume")
		return nil, err
	}
	return volume, nil
}

func (v *Volume) ShutdownVolume(ctx *gin.Context) (*entity.Volume, error) {
	zerolog.Ctx(ctx).Info().Msg("VolumeShutdown called")
	return v.volumeService.Shutdown(ctx)
}

func (v *Volume) SnapshotVolume(ctx *gin.Context, req *entity.VolumeSnapshotRequest) (*entity.VolumeSnapshotReply, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("name", req.Name).
		Interface("labels", req.Labels).
		Msg("VolumeSnapshot called")

	reply, err := v.snapshotService.Snapshot(ctx, req)
	if err != nil {
		logger.Error().Err(err).Str("name", req.Name).Msg("Failed to create snapshot")
		return nil, err
	}
	return reply, nil
}

func (v *Volume) RevertVolume(ctx *gin.Context, req *entity.SnapshotNameRequest) (*entity.Volume, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().Str("name", req.Name).Msg("VolumeRevert called")

	volume, err := v.snapshotService.Revert(ctx, req)
	if err != nil {
		logger.Error().Err(err).Str("name", req.Name).Msg("Failed to revert volume")
		return nil, err
	}
	return volume, nil
}

func (v *Volume) ExpandVolume(ctx *gin.Context, req *entity.VolumeExpandRequest) (*entity.Volume, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().Int64("size", req.Size).Msg("VolumeExpand called")

	volume, err := v.volumeService.Expand(ctx, req)
	if err != nil {
		logger.Error().Err(err).Int64("size", req.Size).Msg("Failed to expand volume")
		return nil, err
	}
	return volume, nil
}

func (v *Volume) StartFrontend(ctx *gin.Context, req *entity.VolumeFrontendStartRequest) (*entity.Volume, error) {
	zerolog.Ctx(ctx).Info().Str("frontend", req.Frontend).Msg("VolumeFrontendStart called")
	return v.volumeService.FrontendStart(ctx, req)
}

func (v *Volume) ShutdownFrontend(ctx *gin.Context) (*entity.Volume, error) {
	zerolog.Ctx(ctx).Info().Msg("VolumeFrontendShutdown called")
	return v.volumeService.FrontendShutdown(ctx)
}

func (v *Volume) SetUnmapMarkSnapChainRemoved(ctx *gin.Context, req *entity.VolumeUnmapMarkSnapChainRemovedSetRequest) (*entity.Volume, error) {
	return v.volumeService.UnmapMarkSnapChainRemovedSet(ctx, req)
}

func (v *Volume) SetSnapshotMaxCount(ctx *gin.Context, req *entity.VolumeSnapshotMaxCountSetRequest) (*entity.Volume, error) {
	return v.volumeService.SnapshotMaxCountSet(ctx, req)
}

func (v *Volume) SetSnapshotMaxSize(ctx *gin.Context, req *entity.VolumeSnapshotMaxSizeSetRequest) (*entity.Volume, error) {
	return v.volumeService.SnapshotMaxSizeSet(ctx, req)
}

func (v *Volume) PrepareRestore(ctx *gin.Context, req *entity.VolumePrepareRestoreRequest) (*entity.Volume, error) {
	zerolog.Ctx(ctx).Info().Str("lastRestored", req.LastRestored).Msg("VolumePrepareRestore called")
	return v.volumeService.PrepareRestore(ctx, req)
}

func (v *Volume) FinishRestore(ctx *gin.Context, req *entity.VolumeFinishRestoreRequest) (*entity.Volume, error) {
	zerolog.Ctx(ctx).Info().Str("currentRestored", req.CurrentRestored).Msg("VolumeFinishRestore called")
	return v.volumeService.FinishRestore(ctx, req)
}
