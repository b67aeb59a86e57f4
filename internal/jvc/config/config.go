package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Address API 绑定地址
	// 可以通过环境变量 JVC_ADDRESS 配置，默认 0.0.0.0:9501
	Address string `yaml:"address"`

	// DataDir 控制器数据目录，存放 sqlite 数据库
	// 可以通过环境变量 JVC_DATA_DIR 配置，默认 ~/.local/share/jvc
	DataDir string `yaml:"dataDir"`

	// VolumeName 控制器管理的卷名，启动后不可变
	// 可以通过环境变量 JVC_VOLUME_NAME 配置
	VolumeName string `yaml:"volumeName"`

	// ReplicaTimeout 单次副本数据面请求的超时时间
	ReplicaTimeout time.Duration `yaml:"replicaTimeout"`

	// MetricsInterval 副本 I/O 指标的采样间隔
	MetricsInterval time.Duration `yaml:"metricsInterval"`

	// JournalCapacity 操作日志环形缓冲区容量
	JournalCapacity int `yaml:"journalCapacity"`

	// ShutdownTimeout 优雅退出超时时间
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

const (
	defaultVolumeName      = "volume"
	defaultReplicaTimeout  = 30 * time.Second
	defaultMetricsInterval = time.Second
	defaultJournalCapacity = 256
	defaultShutdownTimeout = 30 * time.Second
)

// New 读取配置：先加载 JVC_CONFIG 指定的 YAML 文件，再用环境变量覆盖
func New() (*Config, error) {
	cfg := &Config{
		Address:         "0.0.0.0:9501",
		DataDir:         defaultDataDir(),
		VolumeName:      defaultVolumeName,
		ReplicaTimeout:  defaultReplicaTimeout,
		MetricsInterval: defaultMetricsInterval,
		JournalCapacity: defaultJournalCapacity,
		ShutdownTimeout: defaultShutdownTimeout,
	}

	if path := os.Getenv("JVC_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DBPath sqlite 数据库文件路径
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "jvc.db")
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.VolumeName == "" {
		return fmt.Errorf("volume name is required")
	}
	if c.Address == "" {
		return fmt.Errorf("address is required")
	}
	if c.ReplicaTimeout <= 0 {
		return fmt.Errorf("replica timeout must be positive")
	}
	if c.MetricsInterval <= 0 {
		return fmt.Errorf("metrics interval must be positive")
	}
	if c.JournalCapacity <= 0 {
		return fmt.Errorf("journal capacity must be positive")
	}
	return nil
}

// loadFile 从 YAML 文件加载配置，文件中未出现的字段保持默认值
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// loadEnv 环境变量优先于配置文件
func (c *Config) loadEnv() error {
	if addr := os.Getenv("JVC_ADDRESS"); addr != "" {
		c.Address = addr
	}
	if dir := os.Getenv("JVC_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if name := os.Getenv("JVC_VOLUME_NAME"); name != "" {
		c.VolumeName = name
	}

	durations := map[string]*time.Duration{
		"JVC_REPLICA_TIMEOUT":  &c.ReplicaTimeout,
		"JVC_METRICS_INTERVAL": &c.MetricsInterval,
		"JVC_SHUTDOWN_TIMEOUT": &c.ShutdownTimeout,
	}
	for key, dst := range durations {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", key, err)
		}
		*dst = d
	}

	if v := os.Getenv("JVC_JOURNAL_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse JVC_JOURNAL_CAPACITY: %w", err)
		}
		c.JournalCapacity = n
	}
	return nil
}

// defaultDataDir 获取默认数据目录
func defaultDataDir() string {
	// 使用用户主目录下的 .local/share/jvc
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "jvc")
	}

	// 如果无法获取主目录，使用当前目录下的 data
	return filepath.Join(".", "data")
}
