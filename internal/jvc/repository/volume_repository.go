package repository

import (
	"context"

	"github.com/jimyag/jvc/internal/jvc/repository/model"
	"gorm.io/gorm"
)

// VolumeRepository 卷配置仓库接口
type VolumeRepository interface {
	Get(ctx context.Context, name string) (*model.VolumeRecord, error)
	Save(ctx context.Context, record *model.VolumeRecord) error
}

type volumeRepository struct {
	db *gorm.DB
}

// NewVolumeRepository 创建卷配置仓库
func NewVolumeRepository(db *gorm.DB) VolumeRepository {
	return &volumeRepository{db: db}
}

// Get 根据卷名获取配置，不存在时返回 gorm.ErrRecordNotFound
func (r *volumeRepository) Get(ctx context.Context, name string) (*model.VolumeRecord, error) {
	var record model.VolumeRecord
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// Save 创建或更新卷配置
func (r *volumeRepository) Save(ctx context.Context, record *model.VolumeRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}
