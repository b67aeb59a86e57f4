package replica

// Disk 副本上的一个快照磁盘文件
type Disk struct {
	Name    string `json:"name"`
	Parent  string `json:"parent"`
	Size    int64  `json:"size"`
	Removed bool   `json:"removed"`
}

// Info 副本状态，Chain 按从最旧到最新的顺序列出快照名
type Info struct {
	Size     int64    `json:"size"`
	HeadSize int64    `json:"headSize"`
	Disks    []Disk   `json:"disks"`
	Chain    []string `json:"chain"`
}

// Disk 按名称查找快照磁盘
func (i *Info) Disk(name string) (Disk, bool) {
	for _, d := range i.Disks {
		if d.Name == name {
			return d, true
		}
	}
	return Disk{}, false
}

// Stats 副本自启动以来的累计 I/O 计数，延迟单位为纳秒
type Stats struct {
	ReadBytes      uint64 `json:"readBytes"`
	WriteBytes     uint64 `json:"writeBytes"`
	ReadOps        uint64 `json:"readOps"`
	WriteOps       uint64 `json:"writeOps"`
	ReadLatencyNs  uint64 `json:"readLatencyNs"`
	WriteLatencyNs uint64 `json:"writeLatencyNs"`
}

type resizeRequest struct {
	Size int64 `json:"size"`
}

type snapshotRequest struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels,omitempty"`
}

type snapshotResponse struct {
	Size int64 `json:"size"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type errorResponse struct {
	Error string `json:"error"`
}
