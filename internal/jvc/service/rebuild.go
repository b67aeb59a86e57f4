package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jimyag/jvc/internal/jvc/entity"
	"github.com/jimyag/jvc/pkg/apierror"
	"github.com/jimyag/jvc/pkg/idgen"
	"github.com/jimyag/jvc/pkg/replica"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/blake2b"
)

// rebuildSession 一个卷同时只有一个重建会话，受 Controller.mu 保护
type rebuildSession struct {
	id        string
	address   string
	source    string
	phase     entity.RebuildPhase
	startedAt time.Time
}

// RebuildService 协调 WO 副本加入：prepare -> 外部同步 -> verify -> RW
type RebuildService struct {
	ctl   *Controller
	idGen *idgen.Generator
}

// NewRebuildService 创建 RebuildService
func NewRebuildService(ctl *Controller) *RebuildService {
	return &RebuildService{
		ctl:   ctl,
		idGen: idgen.DefaultGenerator(),
	}
}

// Prepare 选择源副本并计算需要同步的快照文件
// 同一地址重复调用会重新计算；其他地址已有会话时返回 RebuildInProgress
func (s *RebuildService) Prepare(ctx context.Context, req *entity.ReplicaAddressRequest) (*entity.ReplicaPrepareRebuildReply, error) {
	logger := zerolog.Ctx(ctx)
	c := s.ctl

	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.requireStartedFamily(); err != nil {
		return nil, err
	}

	target, ok := c.registry.Get(req.Address)
	if !ok {
		return nil, apierror.Errorf(apierror.ErrNotFound, "replica %s not found", req.Address)
	}
	if target.Mode != entity.ReplicaModeWO {
		return nil, apierror.Errorf(apierror.ErrInvalidArgument,
			"replica %s is %s, only WO replicas can be rebuilt", req.Address, target.Mode)
	}

	c.mu.RLock()
	current := c.rebuild
	c.mu.RUnlock()
	if current != nil && current.address != req.Address {
		return nil, apierror.Errorf(apierror.ErrRebuildInProgress,
			"replica %s is already rebuilding", current.address)
	}

	session := &rebuildSession{
		address:   req.Address,
		phase:     entity.RebuildPhasePreparing,
		startedAt: c.now(),
	}
	if current != nil {
		session.id = current.id
		session.startedAt = current.startedAt
	} else {
		id, err := s.idGen.GenerateRebuildID()
		if err != nil {
			return nil, apierror.WrapError(apierror.ErrInternal, "Failed to generate rebuild ID", err)
		}
		session.id = id
	}

	syncList := []entity.SyncFileInfo{}
	if source, ok := s.source(req.Address); ok {
		infos, err := collectInfo(ctx, c.replicas, []string{source, req.Address})
		if err != nil {
			return nil, err
		}
		session.source = source
		syncList = syncFileList(infos[source], infos[req.Address])
	} else {
		logger.Info().Str("replica", req.Address).Msg("No RW replica, rebuilding as seed")
	}
	session.phase = entity.RebuildPhaseSyncing

	c.mu.Lock()
	c.rebuild = session
	c.mu.Unlock()

	logger.Info().
		Str("rebuildID", session.id).
		Str("replica", req.Address).
		Str("source", session.source).
		Int("files", len(syncList)).
		Msg("Rebuild prepared")
	c.journal.Append(ctx, "ReplicaPrepareRebuild",
		fmt.Sprintf("prepared rebuild %s of %s from %q with %d files", session.id, req.Address, session.source, len(syncList)))

	return &entity.ReplicaPrepareRebuildReply{
		Replica:          target,
		SyncFileInfoList: syncList,
	}, nil
}

// Verify 校验同步结果，持有 opMu 期间不接受其他变更操作
// 成功提升为 RW，失败置为 ERR；会话在两种情况下都结束
func (s *RebuildService) Verify(ctx context.Context, req *entity.ReplicaAddressRequest) (*entity.ControllerReplica, error) {
	logger := zerolog.Ctx(ctx)
	c := s.ctl

	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	session := c.rebuild
	if session == nil || session.address != req.Address {
		c.mu.Unlock()
		return nil, apierror.Errorf(apierror.ErrNotFound, "no rebuild in progress for replica %s", req.Address)
	}
	session.phase = entity.RebuildPhaseVerifying
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.rebuild = nil
		c.mu.Unlock()
	}()

	target, ok := c.registry.Get(req.Address)
	if !ok {
		return nil, apierror.Errorf(apierror.ErrNotFound, "replica %s not found", req.Address)
	}
	if target.Mode != entity.ReplicaModeWO {
		c.journal.Append(ctx, "ReplicaVerifyRebuild", fmt.Sprintf("rebuild %s of %s aborted, replica is %s", session.id, req.Address, target.Mode))
		return nil, apierror.Errorf(apierror.ErrRebuildVerificationFailed,
			"replica %s is %s, only WO replicas can be promoted", req.Address, target.Mode)
	}

	verifyErr := s.verify(ctx, session)
	if verifyErr != nil {
		c.markERR(ctx, req.Address)
		logger.Error().Err(verifyErr).Str("replica", req.Address).Msg("Rebuild verification failed")
		c.journal.Append(ctx, "ReplicaVerifyRebuild", fmt.Sprintf("rebuild %s of %s failed: %v", session.id, req.Address, verifyErr))
		return nil, verifyErr
	}

	if err := c.registry.Promote(req.Address); err != nil {
		return nil, apierror.WrapError(apierror.ErrRebuildVerificationFailed, "Failed to promote replica", err)
	}
	promoted, _ := c.registry.Get(req.Address)

	logger.Info().Str("rebuildID", session.id).Str("replica", req.Address).Msg("Replica promoted to RW")
	c.journal.Append(ctx, "ReplicaVerifyRebuild", fmt.Sprintf("rebuild %s of %s verified, replica is RW", session.id, req.Address))

	return &promoted, nil
}

// verify 比较目标与源副本快照链的一致性标记
func (s *RebuildService) verify(ctx context.Context, session *rebuildSession) error {
	c := s.ctl

	source, ok := s.source(session.address)
	if !ok {
		if session.source == "" {
			// 种子副本，没有可以比较的源
			return nil
		}
		return apierror.Errorf(apierror.ErrRebuildVerificationFailed,
			"source replica %s is no longer RW", session.source)
	}

	infos, err := collectInfo(ctx, c.replicas, []string{source, session.address})
	if err != nil {
		return err
	}

	want, got := chainMarker(infos[source]), chainMarker(infos[session.address])
	if want != got {
		return apierror.Errorf(apierror.ErrRebuildVerificationFailed,
			"replica %s chain marker %s does not match source %s marker %s",
			session.address, got, source, want)
	}
	return nil
}

// Status 当前重建会话
func (s *RebuildService) Status(ctx context.Context) (*entity.RebuildStatus, error) {
	c := s.ctl
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.rebuild == nil {
		return &entity.RebuildStatus{Active: false}, nil
	}
	return &entity.RebuildStatus{
		Active:    true,
		ID:        c.rebuild.id,
		Address:   c.rebuild.address,
		Source:    c.rebuild.source,
		Phase:     c.rebuild.phase,
		StartedAt: c.rebuild.startedAt.UTC().Format(time.RFC3339),
	}, nil
}

// source 按地址顺序选择第一个 RW 副本作为重建源
func (s *RebuildService) source(target string) (string, bool) {
	for _, r := range s.ctl.registry.ByMode(entity.ReplicaModeRW) {
		if r.Address.Address != target {
			return r.Address.Address, true
		}
	}
	return "", false
}

// syncFileList 源副本上目标缺失或大小不同的快照磁盘
func syncFileList(source, target *replica.Info) []entity.SyncFileInfo {
	out := []entity.SyncFileInfo{}
	for _, disk := range source.Disks {
		if disk.Removed {
			continue
		}
		if have, ok := target.Disk(disk.Name); ok && !have.Removed && have.Size == disk.Size {
			continue
		}
		file := diskFileName(disk.Name)
		out = append(out, entity.SyncFileInfo{
			FromFileName: file,
			ToFileName:   file,
			ActualSize:   disk.Size,
		})
	}
	return out
}

// chainMarker 快照链的一致性标记：按链顺序对未删除磁盘的名称和大小做 blake2b
func chainMarker(info *replica.Info) string {
	h, _ := blake2b.New256(nil)
	for _, name := range info.Chain {
		disk, ok := info.Disk(name)
		if !ok || disk.Removed {
			continue
		}
		fmt.Fprintf(h, "%s:%d\n", disk.Name, disk.Size)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// diskFileName 快照名对应的磁盘文件名
func diskFileName(snapshot string) string {
	return "volume-snap-" + snapshot + ".img"
}
