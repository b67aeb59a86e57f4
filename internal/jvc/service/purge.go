package service

import (
	"context"
	"fmt"

	"github.com/jimyag/jvc/internal/jvc/entity"
	"github.com/jimyag/jvc/internal/jvc/repository/model"
	"github.com/jimyag/jvc/pkg/apierror"
	"github.com/rs/zerolog"
)

// Purge 将已删除的快照合并进子快照，并从副本和快照链中移除
// head 指向的快照以及有多个子快照的快照保留
func (s *SnapshotService) Purge(ctx context.Context, req *entity.SnapshotPurgeRequest) error {
	logger := zerolog.Ctx(ctx)

	s.purgeMu.Lock()
	busy := s.purging
	s.purgeMu.Unlock()
	if busy && req.SkipIfInProgress {
		logger.Info().Msg("Snapshot purge in progress, skip")
		return nil
	}

	c := s.ctl
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.requireStarted(); err != nil {
		return err
	}

	c.mu.RLock()
	rebuilding := c.rebuild
	c.mu.RUnlock()
	if rebuilding != nil {
		return apierror.Errorf(apierror.ErrRebuildInProgress,
			"replica %s is rebuilding", rebuilding.address)
	}

	addrs, err := c.writableAddresses()
	if err != nil {
		return err
	}

	s.startPurge(addrs)
	purged, failed, err := s.purge(ctx, addrs)
	s.finishPurge(addrs, failed, err)

	if err != nil {
		logger.Error().Err(err).Strs("purged", purged).Msg("Failed to purge snapshots")
		c.journal.Append(ctx, "SnapshotPurge", fmt.Sprintf("purged %d snapshots before failure: %v", len(purged), err))
		return err
	}

	logger.Info().Strs("purged", purged).Strs("replicas", addrs).Msg("Snapshots purged")
	c.journal.Append(ctx, "SnapshotPurge", fmt.Sprintf("purged %d snapshots", len(purged)))
	return nil
}

// purge 逐个合并可合并的快照，每次合并后重新计算候选
func (s *SnapshotService) purge(ctx context.Context, addrs []string) ([]string, map[string]error, error) {
	c := s.ctl
	purged := make([]string, 0)

	for {
		records, err := s.snapshotRepo.List(ctx, c.name, nil)
		if err != nil {
			return purged, nil, apierror.WrapError(apierror.ErrInternal, "Failed to list snapshots", err)
		}

		c.mu.RLock()
		head := c.headParent
		c.mu.RUnlock()

		candidates := purgeCandidates(records, head)
		if len(candidates) == 0 {
			return purged, nil, nil
		}
		name := candidates[0]

		_, failed := fanOut(ctx, addrs, func(ctx context.Context, addr string) error {
			return c.replicas.PurgeSnapshot(ctx, addr, name)
		})
		if len(failed) > 0 {
			addr, purgeErr := firstError(addrs, failed)
			return purged, failed, apierror.WrapError(apierror.ErrInternal,
				fmt.Sprintf("Failed to purge snapshot %s on replica %s", name, addr), purgeErr)
		}

		if err := s.snapshotRepo.Purge(ctx, c.name, name); err != nil {
			return purged, nil, apierror.WrapError(apierror.ErrInternal, "Failed to delete purged snapshot", err)
		}
		purged = append(purged, name)
		s.setPurgeProgress(addrs, len(purged)*100/(len(purged)+len(candidates)-1))
	}
}

// purgeCandidates 按创建顺序返回可以合并的快照
func purgeCandidates(records []*model.Snapshot, head string) []string {
	children := make(map[string]int, len(records))
	for _, r := range records {
		if r.Parent != "" {
			children[r.Parent]++
		}
	}

	out := make([]string, 0)
	for _, r := range records {
		if !r.Removed || r.Name == head || children[r.Name] > 1 {
			continue
		}
		out = append(out, r.Name)
	}
	return out
}

// PurgeStatus 各副本最近一次合并的状态
func (s *SnapshotService) PurgeStatus(ctx context.Context) (*entity.SnapshotPurgeStatusReply, error) {
	s.purgeMu.Lock()
	defer s.purgeMu.Unlock()

	status := make(map[string]entity.SnapshotPurgeStatus, len(s.purgeStatus))
	for addr, st := range s.purgeStatus {
		status[addr] = st
	}
	return &entity.SnapshotPurgeStatusReply{Status: status}, nil
}

func (s *SnapshotService) startPurge(addrs []string) {
	s.purgeMu.Lock()
	defer s.purgeMu.Unlock()

	s.purging = true
	s.purgeStatus = make(map[string]entity.SnapshotPurgeStatus, len(addrs))
	for _, addr := range addrs {
		s.purgeStatus[addr] = entity.SnapshotPurgeStatus{
			IsPurging: true,
			State:     entity.PurgeStateInProgress,
		}
	}
}

func (s *SnapshotService) setPurgeProgress(addrs []string, progress int) {
	s.purgeMu.Lock()
	defer s.purgeMu.Unlock()

	for _, addr := range addrs {
		st := s.purgeStatus[addr]
		st.Progress = progress
		s.purgeStatus[addr] = st
	}
}

// finishPurge 结束合并；failed 中的副本记录各自的错误，其他副本记录整体错误
func (s *SnapshotService) finishPurge(addrs []string, failed map[string]error, err error) {
	s.purgeMu.Lock()
	defer s.purgeMu.Unlock()

	s.purging = false
	for _, addr := range addrs {
		st := s.purgeStatus[addr]
		st.IsPurging = false
		switch {
		case failed[addr] != nil:
			st.State = entity.PurgeStateError
			st.Error = failed[addr].Error()
		case err != nil && len(failed) == 0:
			st.State = entity.PurgeStateError
			st.Error = err.Error()
		default:
			st.State = entity.PurgeStateComplete
			if err == nil {
				st.Progress = 100
			}
		}
		s.purgeStatus[addr] = st
	}
}
