package repository

import (
	"context"
	"time"

	"github.com/jimyag/jvc/internal/jvc/repository/model"
	"gorm.io/gorm"
)

// SnapshotRepository 快照仓库接口
type SnapshotRepository interface {
	Create(ctx context.Context, snapshot *model.Snapshot) error
	GetByName(ctx context.Context, volumeName, name string) (*model.Snapshot, error)
	List(ctx context.Context, volumeName string, filters map[string]interface{}) ([]*model.Snapshot, error)
	MarkRemoved(ctx context.Context, volumeName, name string) error
	Purge(ctx context.Context, volumeName, name string) error
}

type snapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository 创建快照仓库
func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

// Create 在同一事务内创建快照及其标签，并把卷的 head 指向新快照
func (r *snapshotRepository) Create(ctx context.Context, snapshot *model.Snapshot) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		labels := snapshot.Labels
		snapshot.Labels = nil
		if err := tx.Create(snapshot).Error; err != nil {
			return err
		}
		for i := range labels {
			labels[i].SnapshotID = snapshot.ID
			if labels[i].CreatedAt.IsZero() {
				labels[i].CreatedAt = time.Now()
			}
		}
		if len(labels) > 0 {
			if err := tx.Create(&labels).Error; err != nil {
				return err
			}
		}
		snapshot.Labels = labels

		var record model.VolumeRecord
		return tx.Where(model.VolumeRecord{Name: snapshot.VolumeName}).
			Assign(model.VolumeRecord{HeadParent: snapshot.Name}).
			FirstOrCreate(&record).Error
	})
}

// GetByName 根据卷名和快照名获取快照（含标签）
func (r *snapshotRepository) GetByName(ctx context.Context, volumeName, name string) (*model.Snapshot, error) {
	var snapshot model.Snapshot
	if err := r.db.WithContext(ctx).
		Preload("Labels").
		Where("volume_name = ? AND name = ?", volumeName, name).
		First(&snapshot).Error; err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// List 按创建顺序列出快照（含标签）
func (r *snapshotRepository) List(ctx context.Context, volumeName string, filters map[string]interface{}) ([]*model.Snapshot, error) {
	var snapshots []*model.Snapshot
	query := r.db.WithContext(ctx).
		Model(&model.Snapshot{}).
		Preload("Labels").
		Where("volume_name = ?", volumeName)

	// 应用过滤器
	if removed, ok := filters["removed"]; ok {
		query = query.Where("removed = ?", removed)
	}
	if userCreated, ok := filters["user_created"]; ok {
		query = query.Where("user_created = ?", userCreated)
	}

	if err := query.Order("id ASC").Find(&snapshots).Error; err != nil {
		return nil, err
	}

	return snapshots, nil
}

// MarkRemoved 将快照标记为已删除
func (r *snapshotRepository) MarkRemoved(ctx context.Context, volumeName, name string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Snapshot{}).
		Where("volume_name = ? AND name = ?", volumeName, name).
		Updates(map[string]interface{}{"removed": true, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Purge 删除快照及其标签，子快照的 parent 改为被删除快照的 parent
func (r *snapshotRepository) Purge(ctx context.Context, volumeName, name string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var snapshot model.Snapshot
		if err := tx.Where("volume_name = ? AND name = ?", volumeName, name).First(&snapshot).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.Snapshot{}).
			Where("volume_name = ? AND parent = ?", volumeName, name).
			Updates(map[string]interface{}{"parent": snapshot.Parent, "updated_at": time.Now()}).Error; err != nil {
			return err
		}
		if err := tx.Where("snapshot_id = ?", snapshot.ID).Delete(&model.SnapshotLabel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&snapshot).Error
	})
}
