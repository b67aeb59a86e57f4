package service

import (
	"context"
	"fmt"

	"github.com/jimyag/jvc/internal/jvc/entity"
	"github.com/jimyag/jvc/internal/jvc/repository/model"
	"github.com/jimyag/jvc/pkg/apierror"
	"github.com/rs/zerolog"
)

// PrepareRestore 开始外部备份恢复，恢复期间拒绝快照和回滚
func (s *VolumeService) PrepareRestore(ctx context.Context, req *entity.VolumePrepareRestoreRequest) (*entity.Volume, error) {
	logger := zerolog.Ctx(ctx)
	c := s.ctl

	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.requireStarted(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.lastRestored != "" && c.lastRestored != req.LastRestored {
		recorded := c.lastRestored
		c.mu.Unlock()
		return nil, apierror.Errorf(apierror.ErrInvalidArgument,
			"lastRestored %q does not match recorded %q", req.LastRestored, recorded)
	}
	c.state = entity.VolumeStateRestoring
	volume := c.volumeLocked()
	c.mu.Unlock()

	logger.Info().Str("volume", c.name).Str("lastRestored", req.LastRestored).Msg("Restore prepared")
	c.journal.Append(ctx, "VolumePrepareRestore", fmt.Sprintf("prepare restore after %q", req.LastRestored))

	return volume, nil
}

// FinishRestore 结束备份恢复并记录本次恢复的备份
func (s *VolumeService) FinishRestore(ctx context.Context, req *entity.VolumeFinishRestoreRequest) (*entity.Volume, error) {
	logger := zerolog.Ctx(ctx)
	c := s.ctl

	if err := req.IsValid(); err != nil {
		return nil, apierror.WrapError(apierror.ErrInvalidArgument, err.Error(), err)
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.State() != entity.VolumeStateRestoring {
		return nil, apierror.Errorf(apierror.ErrInvalidArgument, "volume %s is not restoring", c.name)
	}

	if err := c.saveRecord(ctx, func(r *model.VolumeRecord) {
		r.LastRestored = req.CurrentRestored
	}); err != nil {
		logger.Error().Err(err).Msg("Failed to persist lastRestored")
		return nil, err
	}

	c.mu.Lock()
	c.lastRestored = req.CurrentRestored
	c.state = entity.VolumeStateStarted
	volume := c.volumeLocked()
	c.mu.Unlock()

	logger.Info().Str("volume", c.name).Str("currentRestored", req.CurrentRestored).Msg("Restore finished")
	c.journal.Append(ctx, "VolumeFinishRestore", fmt.Sprintf("finished restore of %q", req.CurrentRestored))

	return volume, nil
}
