package entity

// Metrics 卷的 I/O 指标，吞吐量单位 bytes/s，延迟单位 ns
type Metrics struct {
	ReadThroughput  uint64 `json:"readThroughput"`
	WriteThroughput uint64 `json:"writeThroughput"`
	ReadLatency     uint64 `json:"readLatency"`
	WriteLatency    uint64 `json:"writeLatency"`
	ReadIOPS        uint64 `json:"readIOPS"`
	WriteIOPS       uint64 `json:"writeIOPS"`
}

type MetricsGetReply struct {
	Metrics *Metrics `json:"metrics"`
}
