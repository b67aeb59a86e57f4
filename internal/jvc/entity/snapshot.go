package entity

import (
	"errors"
	"fmt"
	"regexp"
)

// MaxSnapshotNameLength 快照名最大长度
const MaxSnapshotNameLength = 63

var snapshotNameRegexp = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidateSnapshotName 校验快照名
func ValidateSnapshotName(name string) error {
	if name == "" {
		return errors.New("snapshot name is required")
	}
	if len(name) > MaxSnapshotNameLength {
		return fmt.Errorf("snapshot name must be at most %d characters", MaxSnapshotNameLength)
	}
	if !snapshotNameRegexp.MatchString(name) {
		return fmt.Errorf("snapshot name %q contains invalid characters", name)
	}
	return nil
}

// SnapshotInfo 快照链中的一个快照
type SnapshotInfo struct {
	Name        string            `json:"name"`
	Parent      string            `json:"parent"`
	Children    []string          `json:"children" copier:"-"`
	Removed     bool              `json:"removed"`
	UserCreated bool              `json:"userCreated"`
	Created     string            `json:"created"`
	Size        int64             `json:"size"`
	Labels      map[string]string `json:"labels" copier:"-"`
}

// VolumeSnapshotRequest 创建快照请求
type VolumeSnapshotRequest struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels"`
}

func (r *VolumeSnapshotRequest) IsValid() error {
	if err := ValidateSnapshotName(r.Name); err != nil {
		return err
	}
	for k := range r.Labels {
		if k == "" {
			return errors.New("label key must not be empty")
		}
	}
	return nil
}

type VolumeSnapshotReply struct {
	Name string `json:"name"`
}

// SnapshotNameRequest 以快照名为参数的请求（revert、remove）
type SnapshotNameRequest struct {
	Name string `json:"name"`
}

func (r *SnapshotNameRequest) IsValid() error {
	if r.Name == "" {
		return errors.New("snapshot name is required")
	}
	return nil
}

type SnapshotListReply struct {
	Snapshots []SnapshotInfo `json:"snapshots"`
}

// 快照合并状态
const (
	PurgeStateInProgress = "in_progress"
	PurgeStateComplete   = "complete"
	PurgeStateError      = "error"
)

// SnapshotPurgeRequest 合并已删除快照的请求
type SnapshotPurgeRequest struct {
	// SkipIfInProgress 已有合并在进行时直接返回
	SkipIfInProgress bool `json:"skipIfInProgress"`
}

// SnapshotPurgeStatus 单个副本上最近一次合并的状态
type SnapshotPurgeStatus struct {
	IsPurging bool   `json:"isPurging"`
	Error     string `json:"error"`
	Progress  int    `json:"progress"`
	State     string `json:"state"`
}

// SnapshotPurgeStatusReply 按副本地址给出合并状态
type SnapshotPurgeStatusReply struct {
	Status map[string]SnapshotPurgeStatus `json:"status"`
}
