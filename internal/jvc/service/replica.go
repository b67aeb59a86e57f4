package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jimyag/jvc/internal/jvc/entity"
	"github.com/jimyag/jvc/internal/jvc/registry"
	"github.com/jimyag/jvc/pkg/apierror"
	"github.com/rs/zerolog"
)

// ReplicaService 副本成员管理
type ReplicaService struct {
	ctl       *Controller
	snapshots *SnapshotService
}

// NewReplicaService 创建 ReplicaService
func NewReplicaService(ctl *Controller, snapshots *SnapshotService) *ReplicaService {
	return &ReplicaService{
		ctl:       ctl,
		snapshots: snapshots,
	}
}

// List 按地址排序列出副本
func (s *ReplicaService) List(ctx context.Context) (*entity.ReplicaListReply, error) {
	return &entity.ReplicaListReply{Replicas: s.ctl.registry.List()}, nil
}

// Get 获取副本
func (s *ReplicaService) Get(ctx context.Context, req *entity.ReplicaAddressRequest) (*entity.ControllerReplica, error) {
	replica, ok := s.ctl.registry.Get(req.Address)
	if !ok {
		return nil, apierror.Errorf(apierror.ErrNotFound, "replica %s not found", req.Address)
	}
	return &replica, nil
}

// Create 添加副本；snapshotRequired 时先在现有可写副本上创建系统快照
func (s *ReplicaService) Create(ctx context.Context, req *entity.ControllerReplicaCreateRequest) (*entity.ControllerReplica, error) {
	logger := zerolog.Ctx(ctx)
	if err := req.IsValid(); err != nil {
		return nil, apierror.WrapError(apierror.ErrInvalidArgument, err.Error(), err)
	}
	if err := registry.ValidateAddress(req.Address); err != nil {
		return nil, apierror.WrapError(apierror.ErrInvalidArgument, err.Error(), err)
	}

	c := s.ctl
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.requireStarted(); err != nil {
		return nil, err
	}
	if _, ok := c.registry.Get(req.Address); ok {
		return nil, apierror.Errorf(apierror.ErrAlreadyExists, "replica %s already exists", req.Address)
	}

	mode := req.Mode
	if mode == "" {
		mode = entity.ReplicaModeWO
	}

	var snapshot string
	if req.SnapshotRequired {
		name, err := s.snapshots.takeSystemSnapshot(ctx)
		if err != nil {
			logger.Error().Err(err).Str("replica", req.Address).Msg("Failed to take snapshot before adding replica")
			return nil, err
		}
		snapshot = name
	}

	replica := entity.ControllerReplica{
		Address: entity.ReplicaAddress{
			Address:      req.Address,
			InstanceName: req.InstanceName,
		},
		Mode: mode,
	}
	if err := c.registry.Add(replica); err != nil {
		return nil, apierror.WrapError(apierror.ErrAlreadyExists, err.Error(), err)
	}

	logger.Info().
		Str("replica", req.Address).
		Str("mode", string(mode)).
		Str("snapshot", snapshot).
		Msg("Replica created")
	c.journal.Append(ctx, "ControllerReplicaCreate", fmt.Sprintf("added replica %s at %s", req.Address, mode))

	return &replica, nil
}

// Delete 删除副本，同时取消以它为目标的重建；不会自动提升其他副本
func (s *ReplicaService) Delete(ctx context.Context, req *entity.ReplicaAddressRequest) error {
	logger := zerolog.Ctx(ctx)
	c := s.ctl

	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.registry.Remove(req.Address); err != nil {
		return apierror.WrapError(apierror.ErrNotFound, fmt.Sprintf("replica %s not found", req.Address), err)
	}

	cancelled := c.endRebuild(ctx, req.Address)

	if len(c.registry.ByMode(entity.ReplicaModeRW)) == 0 {
		logger.Warn().Str("volume", c.name).Msg("Volume has no RW replica left")
	}
	logger.Info().Str("replica", req.Address).Bool("rebuildCancelled", cancelled).Msg("Replica deleted")
	c.journal.Append(ctx, "ReplicaDelete", fmt.Sprintf("deleted replica %s", req.Address))
	return nil
}

// Update 修改副本模式，RW 只能通过重建到达
func (s *ReplicaService) Update(ctx context.Context, req *entity.ControllerReplica) (*entity.ControllerReplica, error) {
	logger := zerolog.Ctx(ctx)
	if err := req.IsValid(); err != nil {
		return nil, apierror.WrapError(apierror.ErrInvalidArgument, err.Error(), err)
	}

	c := s.ctl
	c.opMu.Lock()
	defer c.opMu.Unlock()

	updated, err := c.registry.Update(*req)
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return nil, apierror.WrapError(apierror.ErrNotFound, fmt.Sprintf("replica %s not found", req.Address.Address), err)
	case errors.Is(err, registry.ErrInvalidTransition):
		return nil, apierror.WrapError(apierror.ErrInvalidArgument, err.Error(), err)
	case err != nil:
		return nil, apierror.WrapError(apierror.ErrInternal, "Failed to update replica", err)
	}

	if updated.Mode == entity.ReplicaModeERR {
		c.endRebuild(ctx, updated.Address.Address)
	}

	logger.Info().Str("replica", updated.Address.Address).Str("mode", string(updated.Mode)).Msg("Replica updated")
	c.journal.Append(ctx, "ReplicaUpdate", fmt.Sprintf("updated replica %s to %s", updated.Address.Address, updated.Mode))

	return &updated, nil
}
