package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/jvc/internal/jvc/entity"
	"github.com/jimyag/jvc/pkg/ginx"
)

// JournalServiceInterface 定义操作日志的接口
type JournalServiceInterface interface {
	List(ctx context.Context, req *entity.JournalListRequest) (*entity.JournalListReply, error)
}

// VersionServiceInterface 定义版本信息的接口
type VersionServiceInterface interface {
	Get(ctx context.Context) (*entity.VersionDetailGetReply, error)
}

// MetricsServiceInterface 定义 I/O 指标的接口
type MetricsServiceInterface interface {
	Get(ctx context.Context) (*entity.MetricsGetReply, error)
}

// System 操作日志、版本、指标和健康检查
type System struct {
	journalService JournalServiceInterface
	versionService VersionServiceInterface
	metricsService MetricsServiceInterface
}

func NewSystem(
	journalService JournalServiceInterface,
	versionService VersionServiceInterface,
	metricsService MetricsServiceInterface,
) *System {
	return &System{
		journalService: journalService,
		versionService: versionService,
		metricsService: metricsService,
	}
}

func (s *System) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/journal/list", ginx.Adapt5(s.ListJournal))
	router.POST("/version", ginx.Adapt3(s.GetVersion))
	router.POST("/metrics", ginx.Adapt3(s.GetMetrics))
}

func (s *System) ListJournal(ctx *gin.Context, req *entity.JournalListRequest) (*entity.JournalListReply, error) {
	return s.journalService.List(ctx, req)
}

func (s *System) GetVersion(ctx *gin.Context) (*entity.VersionDetailGetReply, error) {
	return s.versionService.Get(ctx)
}

func (s *System) GetMetrics(ctx *gin.Context) (*entity.MetricsGetReply, error) {
	return s.metricsService.Get(ctx)
}

// Healthz 存活探针
func (s *System) Healthz(ctx *gin.Context) gin.H {
	return gin.H{"status": "ok"}
}
