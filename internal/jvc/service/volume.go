package service

import (
	"context"
	"fmt"

	"github.com/jimyag/jvc/internal/jvc/entity"
	"github.com/jimyag/jvc/internal/jvc/registry"
	"github.com/jimyag/jvc/internal/jvc/repository/model"
	"github.com/jimyag/jvc/pkg/apierror"
	"github.com/rs/zerolog"
)

// VolumeService 卷生命周期：启动、关闭、扩容、前端和配置项
type VolumeService struct {
	ctl *Controller
}

// NewVolumeService 创建 VolumeService
func NewVolumeService(ctl *Controller) *VolumeService {
	return &VolumeService{ctl: ctl}
}

// Get 返回当前卷信息
func (s *VolumeService) Get(ctx context.Context) (*entity.Volume, error) {
	return s.ctl.Volume(), nil
}

// Start 以 WO 模式注册所有副本并启动卷
func (s *VolumeService) Start(ctx context.Context, req *entity.VolumeStartRequest) (*entity.Volume, error) {
	logger := zerolog.Ctx(ctx)
	c := s.ctl

	if err := req.IsValid(); err != nil {
		return nil, apierror.WrapError(apierror.ErrInvalidArgument, err.Error(), err)
	}
	seen := make(map[string]struct{}, len(req.ReplicaAddresses))
	for _, addr := range req.ReplicaAddresses {
		if err := registry.ValidateAddress(addr); err != nil {
			return nil, apierror.WrapError(apierror.ErrInvalidArgument, err.Error(), err)
		}
		if _, ok := seen[addr]; ok {
			return nil, apierror.Errorf(apierror.ErrInvalidArgument, "duplicate replica address %s", addr)
		}
		seen[addr] = struct{}{}
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.State().IsStarted() {
		return nil, apierror.Errorf(apierror.ErrAlreadyStarted, "volume %s is already started", c.name)
	}

	c.mu.RLock()
	persisted, size := c.persisted, c.size
	c.mu.RUnlock()
	if persisted && size != req.Size {
		return nil, apierror.Errorf(apierror.ErrInvalidArgument,
			"volume %s was initialized with size %d, got %d", c.name, size, req.Size)
	}

	if !persisted {
		if err := c.saveRecord(ctx, func(r *model.VolumeRecord) {
			r.Size = req.Size
		}); err != nil {
			logger.Error().Err(err).Msg("Failed to persist volume record")
			return nil, err
		}
	}

	c.mu.Lock()
	c.registry.Reset()
	for _, addr := range req.ReplicaAddresses {
		_ = c.registry.Add(entity.ControllerReplica{
			Address: entity.ReplicaAddress{Address: addr},
			Mode:    entity.ReplicaModeWO,
		})
	}
	c.persisted = true
	c.size = req.Size
	c.frontend = ""
	c.endpoint = ""
	c.rebuild = nil
	c.state = entity.VolumeStateStarted
	volume := c.volumeLocked()
	c.mu.Unlock()

	logger.Info().
		Str("volume", c.name).
		Int64("size", req.Size).
		Strs("replicas", req.ReplicaAddresses).
		Msg("Volume started")
	c.journal.Append(ctx, "VolumeStart", fmt.Sprintf("started volume %s size %d with %d replicas", c.name, req.Size, len(req.ReplicaAddresses)))

	return volume, nil
}

// Shutdown 关闭卷：断开前端、结束恢复和重建、清空副本注册表，不触碰副本数据
func (s *VolumeService) Shutdown(ctx context.Context) (*entity.Volume, error) {
	logger := zerolog.Ctx(ctx)
	c := s.ctl

	c.opMu.Lock()
	defer c.opMu.Unlock()

	switch c.State() {
	case entity.VolumeStateUninitialized:
		return nil, apierror.Errorf(apierror.ErrNotStarted, "volume %s is not started", c.name)
	case entity.VolumeStateShutdown:
		return c.Volume(), nil
	}

	c.mu.Lock()
	c.frontend = ""
	c.endpoint = ""
	c.rebuild = nil
	c.registry.Reset()
	c.state = entity.VolumeStateShutdown
	volume := c.volumeLocked()
	c.mu.Unlock()

	logger.Info().Str("volume", c.name).Msg("Volume shut down")
	c.journal.Append(ctx, "VolumeShutdown", fmt.Sprintf("shut down volume %s", c.name))

	return volume, nil
}

// Expand 并行扩容所有可写副本，任一失败则回滚已扩容的副本
func (s *VolumeService) Expand(ctx context.Context, req *entity.VolumeExpandRequest) (*entity.Volume, error) {
	logger := zerolog.Ctx(ctx)
	c := s.ctl

	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.requireStarted(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	oldSize := c.size
	if req.Size <= oldSize {
		c.mu.Unlock()
		return nil, apierror.Errorf(apierror.ErrInvalidArgument,
			"new size %d must be larger than current size %d", req.Size, oldSize)
	}
	addrs, err := c.writableAddresses()
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.state = entity.VolumeStateExpanding
	c.mu.Unlock()

	logger.Info().
		Str("volume", c.name).
		Int64("from", oldSize).
		Int64("to", req.Size).
		Strs("replicas", addrs).
		Msg("Expanding volume")

	resized, failed := fanOut(ctx, addrs, func(ctx context.Context, addr string) error {
		return c.replicas.Resize(ctx, addr, req.Size)
	})

	if len(failed) == 0 {
		err = c.saveRecord(ctx, func(r *model.VolumeRecord) {
			r.Size = req.Size
		})
		if err == nil {
			c.mu.Lock()
			c.size = req.Size
			c.lastExpansionError = ""
			c.lastExpansionFailedAt = ""
			c.state = entity.VolumeStateStarted
			volume := c.volumeLocked()
			c.mu.Unlock()

			c.journal.Append(ctx, "VolumeExpand", fmt.Sprintf("expanded volume %s from %d to %d", c.name, oldSize, req.Size))
			return volume, nil
		}
	} else {
		addr, replicaErr := firstError(addrs, failed)
		err = apierror.WrapError(apierror.ErrInternal,
			fmt.Sprintf("Failed to expand replica %s", addr), replicaErr)
	}

	// 回滚不受调用方取消影响
	rollbackCtx := context.WithoutCancel(ctx)
	_, rollbackFailed := fanOut(rollbackCtx, resized, func(ctx context.Context, addr string) error {
		return c.replicas.Resize(ctx, addr, oldSize)
	})
	for addr, rbErr := range rollbackFailed {
		logger.Error().Err(rbErr).Str("replica", addr).Msg("Failed to roll back replica size")
		c.markERR(ctx, addr)
	}

	c.mu.Lock()
	c.lastExpansionError = err.Error()
	c.lastExpansionFailedAt = c.timestamp()
	c.state = entity.VolumeStateStarted
	c.mu.Unlock()

	logger.Error().Err(err).Str("volume", c.name).Msg("Failed to expand volume")
	c.journal.Append(ctx, "VolumeExpand", fmt.Sprintf("failed to expand volume %s to %d: %v", c.name, req.Size, err))
	return nil, err
}

// FrontendStart 挂载前端，同类型已挂载时为空操作
func (s *VolumeService) FrontendStart(ctx context.Context, req *entity.VolumeFrontendStartRequest) (*entity.Volume, error) {
	logger := zerolog.Ctx(ctx)
	c := s.ctl

	if err := req.IsValid(); err != nil {
		return nil, apierror.WrapError(apierror.ErrInvalidArgument, err.Error(), err)
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.requireStartedFamily(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	switch c.frontend {
	case req.Frontend:
		volume := c.volumeLocked()
		c.mu.Unlock()
		return volume, nil
	case "":
	default:
		current := c.frontend
		c.mu.Unlock()
		return nil, apierror.Errorf(apierror.ErrInvalidArgument,
			"frontend %s is up, shut it down before starting %s", current, req.Frontend)
	}
	c.frontend = req.Frontend
	c.endpoint = frontendEndpoint(req.Frontend, c.name)
	volume := c.volumeLocked()
	c.mu.Unlock()

	logger.Info().
		Str("volume", c.name).
		Str("frontend", req.Frontend).
		Str("endpoint", volume.Endpoint).
		Msg("Frontend started")
	c.journal.Append(ctx, "VolumeFrontendStart", fmt.Sprintf("started frontend %s at %s", req.Frontend, volume.Endpoint))

	return volume, nil
}

// FrontendShutdown 断开前端，未挂载时为空操作
func (s *VolumeService) FrontendShutdown(ctx context.Context) (*entity.Volume, error) {
	logger := zerolog.Ctx(ctx)
	c := s.ctl

	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.frontend == "" {
		volume := c.volumeLocked()
		c.mu.Unlock()
		return volume, nil
	}
	frontend := c.frontend
	c.frontend = ""
	c.endpoint = ""
	volume := c.volumeLocked()
	c.mu.Unlock()

	logger.Info().Str("volume", c.name).Str("frontend", frontend).Msg("Frontend shut down")
	c.journal.Append(ctx, "VolumeFrontendShutdown", fmt.Sprintf("shut down frontend %s", frontend))

	return volume, nil
}

// UnmapMarkSnapChainRemovedSet 设置 unmap 时是否标记快照链为已删除
func (s *VolumeService) UnmapMarkSnapChainRemovedSet(ctx context.Context, req *entity.VolumeUnmapMarkSnapChainRemovedSetRequest) (*entity.Volume, error) {
	return s.set(ctx, "VolumeUnmapMarkSnapChainRemovedSet", fmt.Sprintf("unmapMarkSnapChainRemoved=%t", req.Enabled),
		func(r *model.VolumeRecord) { r.UnmapMarkSnapChainRemoved = req.Enabled },
		func(c *Controller) { c.unmapMarkSnapChainRemoved = req.Enabled })
}

// SnapshotMaxCountSet 设置快照数量上限，0 表示不限制
func (s *VolumeService) SnapshotMaxCountSet(ctx context.Context, req *entity.VolumeSnapshotMaxCountSetRequest) (*entity.Volume, error) {
	if err := req.IsValid(); err != nil {
		return nil, apierror.WrapError(apierror.ErrInvalidArgument, err.Error(), err)
	}
	return s.set(ctx, "VolumeSnapshotMaxCountSet", fmt.Sprintf("snapshotMaxCount=%d", req.Count),
		func(r *model.VolumeRecord) { r.SnapshotMaxCount = req.Count },
		func(c *Controller) { c.snapshotMaxCount = req.Count })
}

// SnapshotMaxSizeSet 设置快照总大小上限，0 表示不限制
func (s *VolumeService) SnapshotMaxSizeSet(ctx context.Context, req *entity.VolumeSnapshotMaxSizeSetRequest) (*entity.Volume, error) {
	if err := req.IsValid(); err != nil {
		return nil, apierror.WrapError(apierror.ErrInvalidArgument, err.Error(), err)
	}
	return s.set(ctx, "VolumeSnapshotMaxSizeSet", fmt.Sprintf("snapshotMaxSize=%d", req.Size),
		func(r *model.VolumeRecord) { r.SnapshotMaxSize = req.Size },
		func(c *Controller) { c.snapshotMaxSize = req.Size })
}

// set 先持久化再修改内存中的配置项
func (s *VolumeService) set(ctx context.Context, op, desc string, persist func(*model.VolumeRecord), apply func(*Controller)) (*entity.Volume, error) {
	logger := zerolog.Ctx(ctx)
	c := s.ctl

	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.saveRecord(ctx, persist); err != nil {
		logger.Error().Err(err).Str("operation", op).Msg("Failed to persist volume setting")
		return nil, err
	}

	c.mu.Lock()
	apply(c)
	volume := c.volumeLocked()
	c.mu.Unlock()

	logger.Info().Str("volume", c.name).Str("setting", desc).Msg("Volume setting updated")
	c.journal.Append(ctx, op, desc)

	return volume, nil
}

// frontendEndpoint 前端对应的访问端点
func frontendEndpoint(frontend, name string) string {
	switch frontend {
	case entity.FrontendISCSI:
		return "iqn.2024-01.io.jvc:" + name
	default:
		return "/dev/jvc/" + name
	}
}
