package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/jvc/internal/jvc/entity"
	"github.com/jimyag/jvc/pkg/ginx"
	"github.com/rs/zerolog"
)

// SnapshotServiceInterface 定义快照服务的接口
type SnapshotServiceInterface interface {
	Snapshot(ctx context.Context, req *entity.VolumeSnapshotRequest) (*entity.VolumeSnapshotReply, error)
	Revert(ctx context.Context, req *entity.SnapshotNameRequest) (*entity.Volume, error)
	List(ctx context.Context) (*entity.SnapshotListReply, error)
	Remove(ctx context.Context, req *entity.SnapshotNameRequest) error
	Purge(ctx context.Context, req *entity.SnapshotPurgeRequest) error
	PurgeStatus(ctx context.Context) (*entity.SnapshotPurgeStatusReply, error)
}

type Snapshot struct {
	snapshotService SnapshotServiceInterface
}

func NewSnapshot(snapshotService SnapshotServiceInterface) *Snapshot {
	return &Snapshot{
		snapshotService: snapshotService,
	}
}

func (s *Snapshot) RegisterRoutes(router *gin.RouterGroup) {
	snapshotRouter := router.Group("/snapshot")
	snapshotRouter.POST("/list", ginx.Adapt3(s.ListSnapshots))
	snapshotRouter.POST("/remove", ginx.Adapt4(s.RemoveSnapshot))
	snapshotRouter.POST("/purge", ginx.Adapt4(s.PurgeSnapshots))
	snapshotRouter.POST("/purge-status", ginx.Adapt3(s.PurgeStatus))
}

func (s *Snapshot) ListSnapshots(ctx *gin.Context) (*entity.SnapshotListReply, error) {
	return s.snapshotService.List(ctx)
}

func (s *Snapshot) RemoveSnapshot(ctx *gin.Context, req *entity.SnapshotNameRequest) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().Str("name", req.Name).Msg("SnapshotRemove called")

	if err := s.snapshotService.Remove(ctx, req); err != nil {
		logger.Error().Err(err).Str("name", req.Name).Msg("Failed to remove snapshot")
		return err
	}
	return nil
}

func (s *Snapshot) PurgeSnapshots(ctx *gin.Context, req *entity.SnapshotPurgeRequest) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().Bool("skipIfInProgress", req.SkipIfInProgress).Msg("SnapshotPurge called")

	if err := s.snapshotService.Purge(ctx, req); err != nil {
		logger.Error().Err(err).Msg("Failed to purge snapshots")
		return err
	}
	return nil
}

func (s *Snapshot) PurgeStatus(ctx *gin.Context) (*entity.SnapshotPurgeStatusReply, error) {
	return s.snapshotService.PurgeStatus(ctx)
}
