package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jimyag/jvc/internal/jvc/entity"
	"github.com/jimyag/jvc/internal/jvc/repository"
	"github.com/jimyag/jvc/internal/jvc/repository/model"
	"github.com/jimyag/jvc/pkg/apierror"
	"github.com/jimyag/jvc/pkg/idgen"
	"github.com/jimyag/jvc/pkg/replica"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// SnapshotService 快照的创建、回滚、列举、删除和合并
type SnapshotService struct {
	ctl          *Controller
	snapshotRepo repository.SnapshotRepository
	idGen        *idgen.Generator

	// purgeMu 保护合并状态，查询状态不需要 opMu
	purgeMu     sync.Mutex
	purging     bool
	purgeStatus map[string]entity.SnapshotPurgeStatus
}

// NewSnapshotService 创建 SnapshotService
func NewSnapshotService(ctl *Controller, snapshotRepo repository.SnapshotRepository) *SnapshotService {
	return &SnapshotService{
		ctl:          ctl,
		snapshotRepo: snapshotRepo,
		idGen:        idgen.DefaultGenerator(),
		purgeStatus:  make(map[string]entity.SnapshotPurgeStatus),
	}
}

// Snapshot 在所有可写副本上创建用户快照
func (s *SnapshotService) Snapshot(ctx context.Context, req *entity.VolumeSnapshotRequest) (*entity.VolumeSnapshotReply, error) {
	if err := req.IsValid(); err != nil {
		return nil, apierror.WrapError(apierror.ErrInvalidArgument, err.Error(), err)
	}

	c := s.ctl
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.requireStarted(); err != nil {
		return nil, err
	}

	if err := s.take(ctx, req.Name, req.Labels, true); err != nil {
		return nil, err
	}
	return &entity.VolumeSnapshotReply{Name: req.Name}, nil
}

// takeSystemSnapshot 创建不受数量和大小限制的系统快照，调用方需持有 opMu
// 没有可写副本时跳过并返回空名称
func (s *SnapshotService) takeSystemSnapshot(ctx context.Context) (string, error) {
	if len(s.ctl.registry.Writable()) == 0 {
		zerolog.Ctx(ctx).Info().Msg("No writable replica, skip system snapshot")
		return "", nil
	}

	name, err := s.idGen.GenerateSnapshotID()
	if err != nil {
		return "", apierror.WrapError(apierror.ErrInternal, "Failed to generate snapshot name", err)
	}
	if err := s.take(ctx, name, nil, false); err != nil {
		return "", err
	}
	return name, nil
}

// take 在所有可写副本上创建快照，部分失败时从已创建的副本上删除
// 调用方需持有 opMu 且卷处于 started
func (s *SnapshotService) take(ctx context.Context, name string, labels map[string]string, userCreated bool) error {
	logger := zerolog.Ctx(ctx)
	c := s.ctl

	_, err := s.snapshotRepo.GetByName(ctx, c.name, name)
	switch {
	case err == nil:
		return apierror.Errorf(apierror.ErrAlreadyExists, "snapshot %s already exists", name)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return apierror.WrapError(apierror.ErrInternal, "Failed to look up snapshot", err)
	}

	addrs, err := c.writableAddresses()
	if err != nil {
		return err
	}

	if userCreated {
		if err := s.checkLimits(ctx, addrs); err != nil {
			return err
		}
	}

	c.setState(entity.VolumeStateSnapshotting)
	defer c.setState(entity.VolumeStateStarted)

	var (
		mu    sync.Mutex
		sizes = make([]int64, 0, len(addrs))
	)
	created, failed := fanOut(ctx, addrs, func(ctx context.Context, addr string) error {
		size, err := c.replicas.Snapshot(ctx, addr, name, labels)
		if err != nil {
			return err
		}
		mu.Lock()
		sizes = append(sizes, size)
		mu.Unlock()
		return nil
	})

	if len(failed) > 0 {
		s.rollbackSnapshot(ctx, created, name)
		addr, replicaErr := firstError(addrs, failed)
		logger.Error().Err(replicaErr).Str("replica", addr).Str("snapshot", name).Msg("Failed to create snapshot")
		c.journal.Append(ctx, "VolumeSnapshot", fmt.Sprintf("failed to create snapshot %s: %v", name, replicaErr))
		return apierror.WrapError(apierror.ErrInternal, fmt.Sprintf("Failed to create snapshot %s on replica %s", name, addr), replicaErr)
	}

	var size int64
	for _, v := range sizes {
		size = max(size, v)
	}

	c.mu.RLock()
	parent := c.headParent
	c.mu.RUnlock()

	record := &model.Snapshot{
		VolumeName:  c.name,
		Name:        name,
		Parent:      parent,
		Size:        size,
		UserCreated: userCreated,
		Labels:      labelsToModel(labels),
	}
	// 快照记录和 head 在同一事务内写入
	if err := s.snapshotRepo.Create(ctx, record); err != nil {
		s.rollbackSnapshot(ctx, created, name)
		c.journal.Append(ctx, "VolumeSnapshot", fmt.Sprintf("failed to persist snapshot %s: %v", name, err))
		return apierror.WrapError(apierror.ErrInternal, "Failed to persist snapshot", err)
	}

	c.mu.Lock()
	c.headParent = name
	c.mu.Unlock()

	logger.Info().
		Str("snapshot", name).
		Str("parent", parent).
		Bool("userCreated", userCreated).
		Int64("size", size).
		Strs("replicas", addrs).
		Msg("Snapshot created")
	c.journal.Append(ctx, "VolumeSnapshot", fmt.Sprintf("created snapshot %s on %d replicas", name, len(addrs)))
	return nil
}

// checkLimits 检查新快照是否会超过数量或大小上限
func (s *SnapshotService) checkLimits(ctx context.Context, addrs []string) error {
	c := s.ctl

	c.mu.RLock()
	maxCount, maxSize := c.snapshotMaxCount, c.snapshotMaxSize
	c.mu.RUnlock()

	if maxCount == 0 && maxSize == 0 {
		return nil
	}

	live, err := s.snapshotRepo.List(ctx, c.name, map[string]interface{}{"removed": false})
	if err != nil {
		return apierror.WrapError(apierror.ErrInternal, "Failed to list snapshots", err)
	}

	if maxCount > 0 && len(live)+1 > maxCount {
		return apierror.Errorf(apierror.ErrSnapshotLimitExceeded,
			"snapshot count %d would exceed limit %d", len(live)+1, maxCount)
	}

	if maxSize > 0 {
		infos, err := collectInfo(ctx, c.replicas, addrs)
		if err != nil {
			return err
		}
		var headSize int64
		for _, info := range infos {
			headSize = max(headSize, info.HeadSize)
		}
		total := headSize
		for _, snap := range live {
			total += snap.Size
		}
		if total > maxSize {
			return apierror.Errorf(apierror.ErrSnapshotLimitExceeded,
				"snapshot size %d would exceed limit %d", total, maxSize)
		}
	}
	return nil
}

// rollbackSnapshot 从已创建快照的副本上删除快照，不受调用方取消影响
func (s *SnapshotService) rollbackSnapshot(ctx context.Context, addrs []string, name string) {
	logger := zerolog.Ctx(ctx)
	c := s.ctl

	_, failed := fanOut(context.WithoutCancel(ctx), addrs, func(ctx context.Context, addr string) error {
		return c.replicas.RemoveSnapshot(ctx, addr, name)
	})
	for addr, err := range failed {
		logger.Error().Err(err).Str("replica", addr).Str("snapshot", name).Msg("Failed to roll back snapshot, marking replica ERR")
		c.markERR(ctx, addr)
	}
}

// Revert 将所有可写副本回滚到指定快照
func (s *SnapshotService) Revert(ctx context.Context, req *entity.SnapshotNameRequest) (*entity.Volume, error) {
	logger := zerolog.Ctx(ctx)
	if err := req.IsValid(); err != nil {
		return nil, apierror.WrapError(apierror.ErrInvalidArgument, err.Error(), err)
	}

	c := s.ctl
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.requireStarted(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	rebuilding := c.rebuild
	c.mu.RUnlock()
	if rebuilding != nil {
		return nil, apierror.Errorf(apierror.ErrRebuildInProgress,
			"replica %s is rebuilding", rebuilding.address)
	}

	if _, err := s.liveSnapshot(ctx, req.Name); err != nil {
		return nil, err
	}

	addrs, err := c.writableAddresses()
	if err != nil {
		return nil, err
	}

	// 所有副本都持有该快照后才开始回滚
	infos, err := collectInfo(ctx, c.replicas, addrs)
	if err != nil {
		return nil, err
	}
	for _, addr := range addrs {
		disk, ok := infos[addr].Disk(req.Name)
		if !ok || disk.Removed {
			return nil, apierror.Errorf(apierror.ErrNotFound, "snapshot %s not found on replica %s", req.Name, addr)
		}
	}

	c.mu.RLock()
	oldHead := c.headParent
	c.mu.RUnlock()

	// 先持久化新的 head，写库失败时副本保持不变
	if err := c.saveRecord(ctx, func(r *model.VolumeRecord) {
		r.HeadParent = req.Name
	}); err != nil {
		return nil, err
	}

	reverted, failed := fanOut(ctx, addrs, func(ctx context.Context, addr string) error {
		return c.replicas.Revert(ctx, addr, req.Name)
	})
	for addr, revertErr := range failed {
		logger.Error().Err(revertErr).Str("replica", addr).Str("snapshot", req.Name).Msg("Failed to revert replica, marking ERR")
		c.markERR(ctx, addr)
	}
	if len(reverted) == 0 {
		if err := c.saveRecord(context.WithoutCancel(ctx), func(r *model.VolumeRecord) {
			r.HeadParent = oldHead
		}); err != nil {
			logger.Error().Err(err).Str("head", oldHead).Msg("Failed to restore volume head")
		}
		addr, revertErr := firstError(addrs, failed)
		c.journal.Append(ctx, "VolumeRevert", fmt.Sprintf("failed to revert to %s: %v", req.Name, revertErr))
		return nil, apierror.WrapError(apierror.ErrInternal,
			fmt.Sprintf("Failed to revert replica %s to snapshot %s", addr, req.Name), revertErr)
	}

	c.mu.Lock()
	c.headParent = req.Name
	volume := c.volumeLocked()
	c.mu.Unlock()

	logger.Info().Str("snapshot", req.Name).Strs("replicas", reverted).Msg("Volume reverted")
	c.journal.Append(ctx, "VolumeRevert", fmt.Sprintf("reverted %d replicas to %s", len(reverted), req.Name))

	return volume, nil
}

// List 列出快照链，children 由 parent 推导
func (s *SnapshotService) List(ctx context.Context) (*entity.SnapshotListReply, error) {
	records, err := s.snapshotRepo.List(ctx, s.ctl.name, nil)
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrInternal, "Failed to list snapshots", err)
	}

	children := make(map[string][]string)
	for _, r := range records {
		if r.Parent != "" {
			children[r.Parent] = append(children[r.Parent], r.Name)
		}
	}

	out := make([]entity.SnapshotInfo, 0, len(records))
	for _, r := range records {
		info, err := snapshotModelToEntity(r)
		if err != nil {
			return nil, apierror.WrapError(apierror.ErrInternal, "Failed to convert snapshot", err)
		}
		info.Children = children[r.Name]
		if info.Children == nil {
			info.Children = []string{}
		}
		out = append(out, *info)
	}
	return &entity.SnapshotListReply{Snapshots: out}, nil
}

// Remove 将快照标记为已删除，已删除的快照不计入限制
func (s *SnapshotService) Remove(ctx context.Context, req *entity.SnapshotNameRequest) error {
	logger := zerolog.Ctx(ctx)
	if err := req.IsValid(); err != nil {
		return apierror.WrapError(apierror.ErrInvalidArgument, err.Error(), err)
	}

	c := s.ctl
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.requireStarted(); err != nil {
		return err
	}

	snap, err := s.snapshot(ctx, req.Name)
	if err != nil {
		return err
	}
	if snap.Removed {
		return nil
	}

	addrs, err := c.writableAddresses()
	if err != nil {
		return err
	}

	_, failed := fanOut(ctx, addrs, func(ctx context.Context, addr string) error {
		return c.replicas.RemoveSnapshot(ctx, addr, req.Name)
	})
	if len(failed) > 0 {
		addr, removeErr := firstError(addrs, failed)
		return apierror.WrapError(apierror.ErrInternal,
			fmt.Sprintf("Failed to remove snapshot %s on replica %s", req.Name, addr), removeErr)
	}

	if err := s.snapshotRepo.MarkRemoved(ctx, c.name, req.Name); err != nil {
		return apierror.WrapError(apierror.ErrInternal, "Failed to mark snapshot removed", err)
	}

	logger.Info().Str("snapshot", req.Name).Msg("Snapshot removed")
	c.journal.Append(ctx, "SnapshotRemove", fmt.Sprintf("removed snapshot %s", req.Name))
	return nil
}

// snapshot 获取快照记录，不存在时返回 NotFound
func (s *SnapshotService) snapshot(ctx context.Context, name string) (*model.Snapshot, error) {
	snap, err := s.snapshotRepo.GetByName(ctx, s.ctl.name, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.Errorf(apierror.ErrNotFound, "snapshot %s not found", name)
	}
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrInternal, "Failed to look up snapshot", err)
	}
	return snap, nil
}

// liveSnapshot 获取未删除的快照
func (s *SnapshotService) liveSnapshot(ctx context.Context, name string) (*model.Snapshot, error) {
	snap, err := s.snapshot(ctx, name)
	if err != nil {
		return nil, err
	}
	if snap.Removed {
		return nil, apierror.Errorf(apierror.ErrNotFound, "snapshot %s has been removed", name)
	}
	return snap, nil
}

// collectInfo 并行获取副本信息，任一失败时取消其余请求并返回 Internal
func collectInfo(ctx context.Context, client replica.Client, addrs []string) (map[string]*replica.Info, error) {
	var (
		mu    sync.Mutex
		infos = make(map[string]*replica.Info, len(addrs))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxFanOut)

	for _, addr := range addrs {
		g.Go(func() error {
			info, err := client.Info(gctx, addr)
			if err != nil {
				return apierror.WrapError(apierror.ErrInternal, fmt.Sprintf("Failed to get info of replica %s", addr), err)
			}
			mu.Lock()
			infos[addr] = info
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return infos, nil
}
