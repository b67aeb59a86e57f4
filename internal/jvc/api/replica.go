package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/jvc/internal/jvc/entity"
	"github.com/jimyag/jvc/pkg/ginx"
	"github.com/rs/zerolog"
)

// ReplicaServiceInterface 定义副本成员管理的接口
type ReplicaServiceInterface interface {
	List(ctx context.Context) (*entity.ReplicaListReply, error)
	Get(ctx context.Context, req *entity.ReplicaAddressRequest) (*entity.ControllerReplica, error)
	Create(ctx context.Context, req *entity.ControllerReplicaCreateRequest) (*entity.ControllerReplica, error)
	Delete(ctx context.Context, req *entity.ReplicaAddressRequest) error
	Update(ctx context.Context, req *entity.ControllerReplica) (*entity.ControllerReplica, error)
}

// RebuildServiceInterface 定义副本重建的接口
type RebuildServiceInterface interface {
	Prepare(ctx context.Context, req *entity.ReplicaAddressRequest) (*entity.ReplicaPrepareRebuildReply, error)
	Verify(ctx context.Context, req *entity.ReplicaAddressRequest) (*entity.ControllerReplica, error)
	Status(ctx context.Context) (*entity.RebuildStatus, error)
}

type Replica struct {
	replicaService ReplicaServiceInterface
	rebuildService RebuildServiceInterface
}

func NewReplica(replicaService ReplicaServiceInterface, rebuildService RebuildServiceInterface) *Replica {
	return &Replica{
		replicaService: replicaService,
		rebuildService: rebuildService,
	}
}

func (r *Replica) RegisterRoutes(router *gin.RouterGroup) {
	replicaRouter := router.Group("/replica")
	replicaRouter.POST("/list", ginx.Adapt3(r.ListReplicas))
	replicaRouter.POST("/get", ginx.Adapt5(r.GetReplica))
	replicaRouter.POST("/create", ginx.Adapt5(r.CreateReplica))
	replicaRouter.POST("/delete", ginx.Adapt4(r.DeleteReplica))
	replicaRouter.POST("/update", ginx.Adapt5(r.UpdateReplica))
	replicaRouter.POST("/prepare-rebuild", ginx.Adapt5(r.PrepareRebuild))
	replicaRouter.POST("/verify-rebuild", ginx.Adapt5(r.VerifyRebuild))
	replicaRouter.POST("/rebuild-status", ginx.Adapt3(r.RebuildStatus))
}

func (r *Replica) ListReplicas(ctx *gin.Context) (*entity.ReplicaListReply, error) {
	return r.replicaService.List(ctx)
}

func (r *Replica) GetReplica(ctx *gin.Context, req *entity.ReplicaAddressRequest) (*entity.ControllerReplica, error) {
	return r.replicaService.Get(ctx, req)
}

func (r *Replica) CreateReplica(ctx *gin.Context, req *entity.ControllerReplicaCreateRequest) (*entity.ControllerReplica, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("address", req.Address).
		Str("instanceName", req.InstanceName).
		Bool("snapshotRequired", req.SnapshotRequired).
		Str("mode", string(req.Mode)).
		Msg("ControllerReplicaCreate called")

	replica, err := r.replicaService.Create(ctx, req)
	if err != nil {
		logger.Error().Err(err).Str("address", req.Address).Msg("Failed to create replica")
		return nil, err
	}
	return replica, nil
}

func (r *Replica) DeleteReplica(ctx *gin.Context, req *entity.ReplicaAddressRequest) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().Str("address", req.Address).Msg("ReplicaDelete called")

	if err := r.replicaService.Delete(ctx, req); err != nil {
		logger.Error().Err(err).Str("address", req.Address).Msg("Failed to delete replica")
		return err
	}
	return nil
}

func (r *Replica) UpdateReplica(ctx *gin.Context, req *entity.ControllerReplica) (*entity.ControllerReplica, error) {
	zerolog.Ctx(ctx).Info().
		Str("address", req.Address.Address).
		Str("mode", string(req.Mode)).
		Msg("ReplicaUpdate called")
	return r.replicaService.Update(ctx, req)
}

func (r *Replica) PrepareRebuild(ctx *gin.Context, req *entity.ReplicaAddressRequest) (*entity.ReplicaPrepareRebuildReply, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().Str("address", req.Address).Msg("ReplicaPrepareRebuild called")

	reply, err := r.rebuildService.Prepare(ctx, req)
	if err != nil {
		logger.Error().Err(err).Str("address", req.Address).Msg("Failed to prepare rebuild")
		return nil, err
	}
	return reply, nil
}

func (r *Replica) VerifyRebuild(ctx *gin.Context, req *entity.ReplicaAddressRequest) (*entity.ControllerReplica, error) {
	logger := zerolog.Ctx(ctx)
	logger.Info().Str("address", req.Address).Msg("ReplicaVerifyRebuild called")

	replica, err := r.rebuildService.Verify(ctx, req)
	if err != nil {
		logger.Error().Err(err).Str("address", req.Address).Msg("Failed to verify rebuild")
		return nil, err
	}
	return replica, nil
}

func (r *Replica) RebuildStatus(ctx *gin.Context) (*entity.RebuildStatus, error) {
	return r.rebuildService.Status(ctx)
}
