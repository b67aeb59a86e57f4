// Package jvc 提供卷控制器的主入口和初始化逻辑
package jvc

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jimmicro/grace"
	"github.com/jimyag/jvc/internal/jvc/api"
	"github.com/jimyag/jvc/internal/jvc/config"
	"github.com/jimyag/jvc/internal/jvc/entity"
	"github.com/jimyag/jvc/internal/jvc/repository"
	"github.com/jimyag/jvc/internal/jvc/service"
	"github.com/jimyag/jvc/pkg/replica"
	"github.com/rs/zerolog"
)

type Server struct {
	cfg     *config.Config
	api     *api.API
	metrics *service.MetricsService
	repo    *repository.Repository
}

func New(cfg *config.Config, version *entity.VersionOutput) (*Server, error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("volume", cfg.VolumeName).Logger()
	zerolog.DefaultContextLogger = &logger
	gin.SetMode(gin.ReleaseMode)

	ctx := context.Background()

	// 1. 打开数据库，保存卷配置和快照链
	repo, err := repository.New(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("create repository: %w", err)
	}
	if err := repo.Ping(ctx); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("ping repository: %w", err)
	}
	logger.Info().Str("path", cfg.DBPath()).Msg("Repository initialized")

	// 2. 副本数据面客户端
	replicaClient := replica.NewHTTPClient(cfg.ReplicaTimeout)

	// 3. 从数据库恢复卷状态
	journal := service.NewJournalService(cfg.JournalCapacity)
	ctl, err := service.NewController(ctx, cfg.VolumeName, replicaClient,
		repository.NewVolumeRepository(repo.DB()), journal)
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("create controller: %w", err)
	}

	// 4. 业务服务
	snapshotService := service.NewSnapshotService(ctl, repository.NewSnapshotRepository(repo.DB()))
	metricsService := service.NewMetricsService(ctl, cfg.MetricsInterval)

	// 5. 创建 API
	apiInstance, err := api.New(cfg.Address, logger, api.Services{
		Volume:   service.NewVolumeService(ctl),
		Snapshot: snapshotService,
		Replica:  service.NewReplicaService(ctl, snapshotService),
		Rebuild:  service.NewRebuildService(ctl),
		Journal:  journal,
		Version:  service.NewVersionService(version),
		Metrics:  metricsService,
	})
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	logger.Info().
		Str("version", version.Version).
		Str("gitCommit", version.GitCommit).
		Msg("Controller initialized")

	return &Server{
		cfg:     cfg,
		api:     apiInstance,
		metrics: metricsService,
		repo:    repo,
	}, nil
}

func (s *Server) Run(ctx context.Context) error {
	// 使用 grace.Shepherd 管理服务生命周期
	services := []grace.Grace{
		s.api,
		s.metrics,
	}

	shepherd := grace.NewShepherd(
		services,
		grace.WithTimeout(s.cfg.ShutdownTimeout),
		grace.WithLogger(&zerologLogger{}),
	)

	shepherd.Start(ctx)
	return s.repo.Close()
}

// zerologLogger 实现 grace.Logger 接口
type zerologLogger struct{}

func (l *zerologLogger) Info(msg string, args ...interface{}) {
	logger := zerolog.DefaultContextLogger.Info()
	if len(args) > 0 {
		logger.Msgf(msg, args...)
	} else {
		logger.Msg(msg)
	}
}

func (l *zerologLogger) Error(msg string, args ...interface{}) {
	logger := zerolog.DefaultContextLogger.Error()
	if len(args) > 0 {
		logger.Msgf(msg, args...)
	} else {
		logger.Msg(msg)
	}
}
