package entity

import "errors"

// VolumeState 卷状态机的状态
type VolumeState string

const (
	VolumeStateUninitialized VolumeState = "uninitialized"
	VolumeStateStarted       VolumeState = "started"
	VolumeStateExpanding     VolumeState = "expanding"
	VolumeStateSnapshotting  VolumeState = "snapshotting"
	VolumeStateRestoring     VolumeState = "restoring"
	VolumeStateShutdown      VolumeState = "shutdown"
)

// IsStarted 是否处于已启动的状态族（started 及其临时子状态）
func (s VolumeState) IsStarted() bool {
	switch s {
	case VolumeStateStarted, VolumeStateExpanding, VolumeStateSnapshotting, VolumeStateRestoring:
		return true
	}
	return false
}

// 前端状态
const (
	FrontendStateUp   = "up"
	FrontendStateDown = "down"
)

// 支持的前端类型
const (
	FrontendBlockDev = "tgt-blockdev"
	FrontendISCSI    = "tgt-iscsi"
)

// Volume 描述卷信息
type Volume struct {
	Name                      string      `json:"name"`
	Size                      int64       `json:"size"`
	ReplicaCount              int         `json:"replicaCount"`
	Endpoint                  string      `json:"endpoint"`
	Frontend                  string      `json:"frontend"`
	FrontendState             string      `json:"frontendState"`
	IsExpanding               bool        `json:"isExpanding"`
	LastExpansionError        string      `json:"lastExpansionError"`
	LastExpansionFailedAt     string      `json:"lastExpansionFailedAt"`
	UnmapMarkSnapChainRemoved bool        `json:"unmapMarkSnapChainRemoved"`
	SnapshotMaxCount          int         `json:"snapshotMaxCount"`
	SnapshotMaxSize           int64       `json:"snapshotMaxSize"`
	State                     VolumeState `json:"state"`
	LastRestored              string      `json:"lastRestored"`
}

// VolumeStartRequest 启动卷请求
type VolumeStartRequest struct {
	ReplicaAddresses []string `json:"replicaAddresses"`
	Size             int64    `json:"size"`
	CurrentSize      int64    `json:"currentSize"`
}

func (r *VolumeStartRequest) IsValid() error {
	if len(r.ReplicaAddresses) == 0 {
		return errors.New("replicaAddresses must not be empty")
	}
	if r.CurrentSize < 0 {
		return errors.New("currentSize must not be negative")
	}
	if r.Size < r.CurrentSize {
		return errors.New("size must not be smaller than currentSize")
	}
	return nil
}

// VolumeExpandRequest 扩容请求
type VolumeExpandRequest struct {
	Size int64 `json:"size"`
}

func (r *VolumeExpandRequest) IsValid() error {
	if r.Size <= 0 {
		return errors.New("size must be positive")
	}
	return nil
}

// VolumeFrontendStartRequest 启动前端请求
type VolumeFrontendStartRequest struct {
	Frontend string `json:"frontend"`
}

func (r *VolumeFrontendStartRequest) IsValid() error {
	switch r.Frontend {
	case FrontendBlockDev, FrontendISCSI:
		return nil
	case "":
		return errors.New("frontend is required")
	}
	return errors.New("unsupported frontend " + r.Frontend)
}

type VolumeUnmapMarkSnapChainRemovedSetRequest struct {
	Enabled bool `json:"enabled"`
}

type VolumeSnapshotMaxCountSetRequest struct {
	Count int `json:"count"`
}

func (r *VolumeSnapshotMaxCountSetRequest) IsValid() error {
	if r.Count < 0 {
		return errors.New("count must not be negative")
	}
	return nil
}

type VolumeSnapshotMaxSizeSetRequest struct {
	Size int64 `json:"size"`
}

func (r *VolumeSnapshotMaxSizeSetRequest) IsValid() error {
	if r.Size < 0 {
		return errors.New("size must not be negative")
	}
	return nil
}

// VolumePrepareRestoreRequest 备份恢复开始
type VolumePrepareRestoreRequest struct {
	LastRestored string `json:"lastRestored"`
}

// VolumeFinishRestoreRequest 备份恢复结束
type VolumeFinishRestoreRequest struct {
	CurrentRestored string `json:"currentRestored"`
}

func (r *VolumeFinishRestoreRequest) IsValid() error {
	if r.CurrentRestored == "" {
		return errors.New("currentRestored is required")
	}
	return nil
}
