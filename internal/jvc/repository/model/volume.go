package model

import "time"

// VolumeRecord 卷的持久化配置
type VolumeRecord struct {
	Name                      string    `gorm:"primaryKey;type:text;column:name" json:"name"`
	Size                      int64     `gorm:"type:integer;not null;column:size" json:"size"`
	HeadParent                string    `gorm:"type:text;column:head_parent" json:"headParent"`
	LastRestored              string    `gorm:"type:text;column:last_restored" json:"lastRestored"`
	SnapshotMaxCount          int       `gorm:"type:integer;not null;default:0;column:snapshot_max_count" json:"snapshotMaxCount"`
	SnapshotMaxSize           int64     `gorm:"type:integer;not null;default:0;column:snapshot_max_size" json:"snapshotMaxSize"`
	UnmapMarkSnapChainRemoved bool      `gorm:"type:boolean;default:0;column:unmap_mark_snap_chain_removed" json:"unmapMarkSnapChainRemoved"`
	CreatedAt                 time.Time `gorm:"type:datetime;not null;column:created_at" json:"created_at"`
	UpdatedAt                 time.Time `gorm:"type:datetime;not null;column:updated_at" json:"updated_at"`
}

// TableName 指定表名
func (VolumeRecord) TableName() string {
	return "volumes"
}
