package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jimyag/jvc/internal/jvc/entity"
	"github.com/jimyag/jvc/internal/jvc/repository"
	"github.com/jimyag/jvc/pkg/replica"
	"github.com/stretchr/testify/require"
)

const (
	testVolumeName = "vol-test"
	testVolumeSize = int64(1073741824)
	replicaA       = "10.0.0.1:10000"
	replicaB       = "10.0.0.2:10000"
	replicaC       = "10.0.0.3:10000"
)

// TestServices 包含测试所需的所有服务和依赖
type TestServices struct {
	Repo            *repository.Repository
	MockReplicas    *replica.MockClient
	Journal         *JournalService
	Controller      *Controller
	VolumeService   *VolumeService
	SnapshotService *SnapshotService
	ReplicaService  *ReplicaService
	RebuildService  *RebuildService
	MetricsService  *MetricsService
}

// setupTestServices 为每个测试用例创建独立的数据库、mock 副本和 service 实例
func setupTestServices(t *testing.T) *TestServices {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	repo, err := repository.New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = repo.Close()
	})

	mockReplicas := replica.NewMockClient()
	journal := NewJournalService(64)

	ctl, err := NewController(context.Background(), testVolumeName, mockReplicas,
		repository.NewVolumeRepository(repo.DB()), journal)
	require.NoError(t, err)

	snapshotService := NewSnapshotService(ctl, repository.NewSnapshotRepository(repo.DB()))

	return &TestServices{
		Repo:            repo,
		MockReplicas:    mockReplicas,
		Journal:         journal,
		Controller:      ctl,
		VolumeService:   NewVolumeService(ctl),
		SnapshotService: snapshotService,
		ReplicaService:  NewReplicaService(ctl, snapshotService),
		RebuildService:  NewRebuildService(ctl),
		MetricsService:  NewMetricsService(ctl, 0),
	}
}

// startVolume 以给定副本启动卷，副本均为 WO
func (ts *TestServices) startVolume(t *testing.T, addrs ...string) {
	t.Helper()
	_, err := ts.VolumeService.Start(context.Background(), &entity.VolumeStartRequest{
		Size:             testVolumeSize,
		CurrentSize:      testVolumeSize,
		ReplicaAddresses: addrs,
	})
	require.NoError(t, err)
}

// setMode 直接修改注册表中的副本模式，跳过变更规则
func (ts *TestServices) setMode(t *testing.T, addr string, mode entity.ReplicaMode) {
	t.Helper()
	if mode == entity.ReplicaModeRW {
		require.NoError(t, ts.Controller.registry.Promote(addr))
		return
	}
	require.NoError(t, ts.Controller.registry.SetMode(addr, mode))
}

// replicaInfo 构造包含指定快照链的副本信息，链按从旧到新排列
func replicaInfo(headSize int64, snapshots ...string) *replica.Info {
	info := &replica.Info{
		Size:     testVolumeSize,
		HeadSize: headSize,
		Chain:    append([]string{}, snapshots...),
	}
	parent := ""
	for _, name := range snapshots {
		info.Disks = append(info.Disks, replica.Disk{
			Name:   name,
			Parent: parent,
			Size:   4096,
		})
		parent = name
	}
	return info
}
