package entity

import (
	"errors"
	"fmt"
)

// ReplicaMode 副本模式
type ReplicaMode string

const (
	// ReplicaModeWO 只写，正在追数据
	ReplicaModeWO ReplicaMode = "WO"
	// ReplicaModeRW 读写，数据已同步
	ReplicaModeRW ReplicaMode = "RW"
	// ReplicaModeERR 故障
	ReplicaModeERR ReplicaMode = "ERR"
)

// Valid 是否为已知模式
func (m ReplicaMode) Valid() bool {
	switch m {
	case ReplicaModeWO, ReplicaModeRW, ReplicaModeERR:
		return true
	}
	return false
}

// Writable 写请求是否会下发到该模式的副本
func (m ReplicaMode) Writable() bool {
	return m == ReplicaModeWO || m == ReplicaModeRW
}

// ReplicaAddress 副本地址
type ReplicaAddress struct {
	Address      string `json:"address"`
	InstanceName string `json:"instanceName"`
}

// ControllerReplica 控制器视角的副本
type ControllerReplica struct {
	Address ReplicaAddress `json:"address"`
	Mode    ReplicaMode    `json:"mode"`
}

func (r *ControllerReplica) IsValid() error {
	if r.Address.Address == "" {
		return errors.New("address is required")
	}
	if !r.Mode.Valid() {
		return fmt.Errorf("invalid replica mode %q", r.Mode)
	}
	return nil
}

type ReplicaListReply struct {
	Replicas []ControllerReplica `json:"replicas"`
}

// ReplicaAddressRequest 以地址为参数的请求
type ReplicaAddressRequest struct {
	Address string `json:"address"`
}

func (r *ReplicaAddressRequest) IsValid() error {
	if r.Address == "" {
		return errors.New("address is required")
	}
	return nil
}

// ControllerReplicaCreateRequest 添加副本请求，Mode 为空时默认为 WO
type ControllerReplicaCreateRequest struct {
	Address          string      `json:"address"`
	InstanceName     string      `json:"instanceName"`
	SnapshotRequired bool        `json:"snapshotRequired"`
	Mode             ReplicaMode `json:"mode"`
}

func (r *ControllerReplicaCreateRequest) IsValid() error {
	if r.Address == "" {
		return errors.New("address is required")
	}
	if r.Mode != "" && !r.Mode.Valid() {
		return fmt.Errorf("invalid replica mode %q", r.Mode)
	}
	return nil
}

// SyncFileInfo 重建时需要从源副本传输的快照磁盘文件
type SyncFileInfo struct {
	FromFileName string `json:"fromFileName"`
	ToFileName   string `json:"toFileName"`
	ActualSize   int64  `json:"actualSize"`
}

type ReplicaPrepareRebuildReply struct {
	Replica          ControllerReplica `json:"replica"`
	SyncFileInfoList []SyncFileInfo    `json:"syncFileInfoList"`
}

// RebuildPhase 重建阶段
type RebuildPhase string

const (
	RebuildPhasePreparing RebuildPhase = "preparing"
	RebuildPhaseSyncing   RebuildPhase = "syncing"
	RebuildPhaseVerifying RebuildPhase = "verifying"
)

// RebuildStatus 当前重建会话
type RebuildStatus struct {
	Active    bool         `json:"active"`
	ID        string       `json:"id,omitempty"`
	Address   string       `json:"address,omitempty"`
	Source    string       `json:"source,omitempty"`
	Phase     RebuildPhase `json:"phase,omitempty"`
	StartedAt string       `json:"startedAt,omitempty"`
}
