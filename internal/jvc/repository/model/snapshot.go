package model

import "time"

// Snapshot 快照表
type Snapshot struct {
	ID          uint      `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	VolumeName  string    `gorm:"type:text;not null;index:idx_snapshots_volume_name;column:volume_name" json:"volumeName"`
	Name        string    `gorm:"type:text;not null;column:name" json:"name"`
	Parent      string    `gorm:"type:text;column:parent" json:"parent"`
	Size        int64     `gorm:"type:integer;not null;default:0;column:size" json:"size"`
	UserCreated bool      `gorm:"type:boolean;default:0;column:user_created" json:"userCreated"`
	Removed     bool      `gorm:"type:boolean;default:0;index:idx_snapshots_removed;column:removed" json:"removed"`
	CreatedAt   time.Time `gorm:"type:datetime;not null;column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"type:datetime;not null;column:updated_at" json:"updated_at"`

	Labels []SnapshotLabel `gorm:"foreignKey:SnapshotID" json:"labels,omitempty"`
}

// TableName 指定表名
func (Snapshot) TableName() string {
	return "snapshots"
}

// SnapshotLabel 快照标签表
type SnapshotLabel struct {
	ID         uint      `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	SnapshotID uint      `gorm:"not null;index:idx_snapshot_labels_snapshot_id;column:snapshot_id" json:"snapshotID"`
	LabelKey   string    `gorm:"type:text;not null;column:label_key" json:"labelKey"`
	LabelValue string    `gorm:"type:text;not null;column:label_value" json:"labelValue"`
	CreatedAt  time.Time `gorm:"type:datetime;not null;column:created_at" json:"created_at"`
}

// TableName 指定表名
func (SnapshotLabel) TableName() string {
	return "snapshot_labels"
}
