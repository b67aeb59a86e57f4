package service

import (
	"context"
	"sync"
	"time"

	"github.com/jimyag/jvc/internal/jvc/entity"
	"github.com/jimyag/jvc/pkg/replica"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// 卷 I/O 指标
var (
	volumeThroughput = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "jvc_volume_throughput_bytes",
			Help: "Volume throughput in bytes per second",
		},
		[]string{"volume", "op"},
	)

	volumeLatency = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "jvc_volume_latency_nanoseconds",
			Help: "Volume average latency per operation in nanoseconds",
		},
		[]string{"volume", "op"},
	)

	volumeIOPS = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "jvc_volume_iops",
			Help: "Volume operations per second",
		},
		[]string{"volume", "op"},
	)

	volumeReplicas = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "jvc_volume_replicas",
			Help: "Number of replicas by mode",
		},
		[]string{"volume", "mode"},
	)

	volumeSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "jvc_volume_size_bytes",
			Help: "Volume size in bytes",
		},
		[]string{"volume"},
	)
)

// MetricsService 周期采样副本 I/O 计数器，实现 grace.Grace
type MetricsService struct {
	ctl      *Controller
	interval time.Duration

	mu   sync.RWMutex
	last entity.Metrics
	// prev 上一次采样成功的各副本计数，采样失败的副本不在其中
	prev     map[string]replica.Stats
	prevTime time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// NewMetricsService 创建 MetricsService
func NewMetricsService(ctl *Controller, interval time.Duration) *MetricsService {
	if interval <= 0 {
		interval = time.Second
	}
	return &MetricsService{
		ctl:      ctl,
		interval: interval,
		prev:     make(map[string]replica.Stats),
		done:     make(chan struct{}),
	}
}

// Get 最近一次采样结果
func (s *MetricsService) Get(ctx context.Context) (*entity.MetricsGetReply, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	metrics := s.last
	return &entity.MetricsGetReply{Metrics: &metrics}, nil
}

// Run 按 interval 采样直到 Shutdown
func (s *MetricsService) Run(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().Dur("interval", s.interval).Msg("Metrics sampler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case <-ticker.C:
			s.sample(ctx)
		}
	}
}

// Shutdown 停止采样
func (s *MetricsService) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.done) })
	return nil
}

// Name 实现 grace.Grace 接口
func (s *MetricsService) Name() string {
	return "Metrics Sampler"
}

// sample 采集一次所有非 ERR 副本的计数器
func (s *MetricsService) sample(ctx context.Context) {
	logger := zerolog.Ctx(ctx)
	c := s.ctl
	now := c.now()

	s.exportVolume()

	addrs := make([]string, 0)
	for _, r := range c.registry.List() {
		if r.Mode != entity.ReplicaModeERR {
			addrs = append(addrs, r.Address.Address)
		}
	}

	var (
		mu      sync.Mutex
		current = make(map[string]replica.Stats, len(addrs))
	)
	_, failed := fanOut(ctx, addrs, func(ctx context.Context, addr string) error {
		stats, err := c.replicas.Stats(ctx, addr)
		if err != nil {
			return err
		}
		mu.Lock()
		current[addr] = *stats
		mu.Unlock()
		return nil
	})
	for addr, err := range failed {
		logger.Debug().Err(err).Str("replica", addr).Msg("Failed to get replica stats")
	}

	s.record(current, now)
}

// record 按副本计算两次采样的差值后汇总
// 读请求只落到一个副本上，差值取总和；写请求下发到所有副本，差值取最大值
// 上一次没有成功采样的副本只建立基线
func (s *MetricsService) record(current map[string]replica.Stats, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, prevTime := s.prev, s.prevTime
	s.prev, s.prevTime = current, now
	if prevTime.IsZero() {
		return
	}

	elapsed := now.Sub(prevTime).Seconds()
	if elapsed <= 0 {
		return
	}

	var d replica.Stats
	for addr, cur := range current {
		old, ok := prev[addr]
		if !ok {
			continue
		}
		d.ReadBytes += delta(cur.ReadBytes, old.ReadBytes)
		d.ReadOps += delta(cur.ReadOps, old.ReadOps)
		d.ReadLatencyNs += delta(cur.ReadLatencyNs, old.ReadLatencyNs)
		d.WriteBytes = max(d.WriteBytes, delta(cur.WriteBytes, old.WriteBytes))
		d.WriteOps = max(d.WriteOps, delta(cur.WriteOps, old.WriteOps))
		d.WriteLatencyNs = max(d.WriteLatencyNs, delta(cur.WriteLatencyNs, old.WriteLatencyNs))
	}

	s.last = entity.Metrics{
		ReadThroughput:  perSecond(d.ReadBytes, elapsed),
		WriteThroughput: perSecond(d.WriteBytes, elapsed),
		ReadLatency:     perOp(d.ReadLatencyNs, d.ReadOps),
		WriteLatency:    perOp(d.WriteLatencyNs, d.WriteOps),
		ReadIOPS:        perSecond(d.ReadOps, elapsed),
		WriteIOPS:       perSecond(d.WriteOps, elapsed),
	}

	name := s.ctl.name
	volumeThroughput.WithLabelValues(name, "read").Set(float64(s.last.ReadThroughput))
	volumeThroughput.WithLabelValues(name, "write").Set(float64(s.last.WriteThroughput))
	volumeLatency.WithLabelValues(name, "read").Set(float64(s.last.ReadLatency))
	volumeLatency.WithLabelValues(name, "write").Set(float64(s.last.WriteLatency))
	volumeIOPS.WithLabelValues(name, "read").Set(float64(s.last.ReadIOPS))
	volumeIOPS.WithLabelValues(name, "write").Set(float64(s.last.WriteIOPS))
}

// exportVolume 导出卷大小和各模式副本数
func (s *MetricsService) exportVolume() {
	c := s.ctl
	volume := c.Volume()
	volumeSize.WithLabelValues(c.name).Set(float64(volume.Size))

	counts := c.registry.CountByMode()
	for _, mode := range []entity.ReplicaMode{entity.ReplicaModeWO, entity.ReplicaModeRW, entity.ReplicaModeERR} {
		volumeReplicas.WithLabelValues(c.name, string(mode)).Set(float64(counts[mode]))
	}
}

// delta 计数器差值，计数器回退（副本重启）视为 0
func delta(current, prev uint64) uint64 {
	if current < prev {
		return 0
	}
	return current - prev
}

func perSecond(v uint64, seconds float64) uint64 {
	return uint64(float64(v) / seconds)
}

func perOp(latency, ops uint64) uint64 {
	if ops == 0 {
		return 0
	}
	return latency / ops
}
