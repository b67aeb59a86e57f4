package replica

import "context"

// Client 副本数据面客户端接口
// 每个方法都以副本地址（host:port）作为目标
type Client interface {
	// Info 获取副本的卷大小和快照磁盘链
	Info(ctx context.Context, address string) (*Info, error)
	// Resize 调整副本的卷大小
	Resize(ctx context.Context, address string, size int64) error
	// Snapshot 在副本上创建快照，返回快照磁盘大小
	Snapshot(ctx context.Context, address, name string, labels map[string]string) (int64, error)
	// RemoveSnapshot 将副本上的快照标记为已删除
	RemoveSnapshot(ctx context.Context, address, name string) error
	// PurgeSnapshot 将已标记删除的快照合并进子快照并删除其磁盘文件
	PurgeSnapshot(ctx context.Context, address, name string) error
	// Revert 将副本回滚到指定快照
	Revert(ctx context.Context, address, name string) error
	// Stats 获取副本的累计 I/O 计数
	Stats(ctx context.Context, address string) (*Stats, error)
}

var _ Client = (*HTTPClient)(nil)
var _ Client = (*MockClient)(nil)
