// Package api 提供卷控制器的 HTTP 门面
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/jvc/pkg/ginx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Services API 依赖的业务服务
type Services struct {
	Volume   VolumeServiceInterface
	Snapshot SnapshotServiceInterface
	Replica  ReplicaServiceInterface
	Rebuild  RebuildServiceInterface
	Journal  JournalServiceInterface
	Version  VersionServiceInterface
	Metrics  MetricsServiceInterface
}

type API struct {
	engine *gin.Engine
	server *http.Server

	volume   *Volume
	replica  *Replica
	snapshot *Snapshot
	system   *System
}

func New(addr string, logger zerolog.Logger, services Services) (*API, error) {
	engine := gin.New()
	// handler 中直接把 *gin.Context 传给 zerolog.Ctx，需要回退到 Request.Context
	engine.ContextWithFallback = true
	engine.Use(gin.Recovery(), ginx.RequestID(logger), Metrics())

	api := &API{
		engine:   engine,
		volume:   NewVolume(services.Volume, services.Snapshot),
		replica:  NewReplica(services.Replica, services.Rebuild),
		snapshot: NewSnapshot(services.Snapshot),
		system:   NewSystem(services.Journal, services.Version, services.Metrics),
	}

	group := engine.Group("/api")
	api.volume.RegisterRoutes(group)
	api.replica.RegisterRoutes(group)
	api.snapshot.RegisterRoutes(group)
	api.system.RegisterRoutes(group)

	engine.GET("/healthz", ginx.Adapt2(api.system.Healthz))
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api.server = &http.Server{
		Addr:    addr,
		Handler: engine,
	}
	return api, nil
}

// Handler 返回 HTTP handler
func (a *API) Handler() http.Handler {
	return a.engine
}

func (a *API) Run(ctx context.Context) error {
	zerolog.Ctx(ctx).Info().Str("address", a.server.Addr).Msg("API server listening")
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *API) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// Name 实现 grace.Grace 接口
func (a *API) Name() string {
	return "API Server"
}
