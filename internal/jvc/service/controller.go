// Package service 提供卷控制器的业务逻辑
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jimyag/jvc/internal/jvc/entity"
	"github.com/jimyag/jvc/internal/jvc/registry"
	"github.com/jimyag/jvc/internal/jvc/repository"
	"github.com/jimyag/jvc/internal/jvc/repository/model"
	"github.com/jimyag/jvc/pkg/apierror"
	"github.com/jimyag/jvc/pkg/replica"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Controller 一个卷的全部控制面状态，由各 Service 共享
//
// opMu 串行化所有变更操作（包括扩容、快照等耗时操作）；
// mu 只保护字段读写，读操作持有 mu.RLock 即可看到一致的副本。
// 加锁顺序固定为 opMu -> mu。
type Controller struct {
	opMu sync.Mutex
	mu   sync.RWMutex

	name     string
	state    entity.VolumeState
	size     int64
	frontend string
	endpoint string

	lastExpansionError    string
	lastExpansionFailedAt string

	unmapMarkSnapChainRemoved bool
	snapshotMaxCount          int
	snapshotMaxSize           int64
	lastRestored              string
	headParent                string
	// persisted 数据库中已有卷记录
	persisted bool

	registry *registry.Registry
	rebuild  *rebuildSession

	replicas   replica.Client
	volumeRepo repository.VolumeRepository
	journal    *JournalService
	now        func() time.Time
}

// NewController 创建控制器，并从数据库恢复卷配置
func NewController(
	ctx context.Context,
	name string,
	replicas replica.Client,
	volumeRepo repository.VolumeRepository,
	journal *JournalService,
) (*Controller, error) {
	c := &Controller{
		name:       name,
		state:      entity.VolumeStateUninitialized,
		registry:   registry.New(),
		replicas:   replicas,
		volumeRepo: volumeRepo,
		journal:    journal,
		now:        time.Now,
	}

	record, err := volumeRepo.Get(ctx, name)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return nil, apierror.WrapError(apierror.ErrInternal, "Failed to load volume record", err)
	default:
		c.persisted = true
		c.size = record.Size
		c.headParent = record.HeadParent
		c.lastRestored = record.LastRestored
		c.snapshotMaxCount = record.SnapshotMaxCount
		c.snapshotMaxSize = record.SnapshotMaxSize
		c.unmapMarkSnapChainRemoved = record.UnmapMarkSnapChainRemoved
	}
	return c, nil
}

// Name 卷名
func (c *Controller) Name() string {
	return c.name
}

// volumeLocked 生成 Volume 快照，调用方需持有 mu
func (c *Controller) volumeLocked() *entity.Volume {
	frontendState := entity.FrontendStateDown
	if c.frontend != "" {
		frontendState = entity.FrontendStateUp
	}
	return &entity.Volume{
		Name:                      c.name,
		Size:                      c.size,
		ReplicaCount:              c.registry.Len(),
		Endpoint:                  c.endpoint,
		Frontend:                  c.frontend,
		FrontendState:             frontendState,
		IsExpanding:               c.state == entity.VolumeStateExpanding,
		LastExpansionError:        c.lastExpansionError,
		LastExpansionFailedAt:     c.lastExpansionFailedAt,
		UnmapMarkSnapChainRemoved: c.unmapMarkSnapChainRemoved,
		SnapshotMaxCount:          c.snapshotMaxCount,
		SnapshotMaxSize:           c.snapshotMaxSize,
		State:                     c.state,
		LastRestored:              c.lastRestored,
	}
}

// Volume 返回卷的一致性快照
func (c *Controller) Volume() *entity.Volume {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.volumeLocked()
}

// State 当前状态
func (c *Controller) State() entity.VolumeState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// setState 修改状态
func (c *Controller) setState(state entity.VolumeState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

// requireStarted 要求卷处于 started；restoring 时返回 RestoreInProgress
// 调用方需持有 opMu，此时不会观察到 expanding/snapshotting 等临时状态
func (c *Controller) requireStarted() error {
	switch c.State() {
	case entity.VolumeStateStarted:
		return nil
	case entity.VolumeStateRestoring:
		return apierror.Errorf(apierror.ErrRestoreInProgress, "volume %s is restoring", c.name)
	default:
		return apierror.Errorf(apierror.ErrNotStarted, "volume %s is not started", c.name)
	}
}

// requireStartedFamily 要求卷处于已启动的状态族（允许 restoring）
func (c *Controller) requireStartedFamily() error {
	if !c.State().IsStarted() {
		return apierror.Errorf(apierror.ErrNotStarted, "volume %s is not started", c.name)
	}
	return nil
}

// saveRecord 在当前持久化记录上应用 mutate 并保存
func (c *Controller) saveRecord(ctx context.Context, mutate func(*model.VolumeRecord)) error {
	record, err := c.volumeRepo.Get(ctx, c.name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = &model.VolumeRecord{Name: c.name}
	} else if err != nil {
		return apierror.WrapError(apierror.ErrInternal, "Failed to load volume record", err)
	}

	mutate(record)
	if err := c.volumeRepo.Save(ctx, record); err != nil {
		return apierror.WrapError(apierror.ErrInternal, "Failed to save volume record", err)
	}
	return nil
}

// markERR 将副本置为 ERR，并结束以它为目标的重建会话
func (c *Controller) markERR(ctx context.Context, address string) {
	if err := c.registry.SetMode(address, entity.ReplicaModeERR); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("replica", address).Msg("Failed to mark replica ERR")
	}
	c.endRebuild(ctx, address)
}

// endRebuild 结束以 address 为目标的重建会话，没有这样的会话时返回 false
func (c *Controller) endRebuild(ctx context.Context, address string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rebuild == nil || c.rebuild.address != address {
		return false
	}
	zerolog.Ctx(ctx).Info().
		Str("rebuildID", c.rebuild.id).
		Str("replica", address).
		Msg("Rebuild session ended")
	c.rebuild = nil
	return true
}

// writableAddresses 可写副本地址，没有可写副本时返回 NoHealthyReplica
func (c *Controller) writableAddresses() ([]string, error) {
	addrs := registry.Addresses(c.registry.Writable())
	if len(addrs) == 0 {
		return nil, apierror.Errorf(apierror.ErrNoHealthyReplica, "volume %s has no writable replica", c.name)
	}
	return addrs, nil
}

// timestamp RFC3339 格式的当前时间
func (c *Controller) timestamp() string {
	return c.now().UTC().Format(time.RFC3339)
}
