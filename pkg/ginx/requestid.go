package ginx

import (
	"github.com/gin-gonic/gin"
	"github.com/jimyag/jvc/pkg/idgen"
	"github.com/rs/zerolog"
)

// RequestIDHeader 请求 ID 的 HTTP 头
const RequestIDHeader = "X-Request-Id"

// requestIDKey 用于在 gin.Context 中存储请求 ID 的类型安全 key
type requestIDKey struct{}

// RequestID 为每个请求分配请求 ID，并把带 requestID 字段的 logger 放入请求 context
// 客户端传入的 X-Request-Id 会被沿用
func RequestID(base zerolog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		requestID := ctx.GetHeader(RequestIDHeader)
		if requestID == "" {
			id, err := idgen.GenerateRequestID()
			if err == nil {
				requestID = id
			}
		}

		ctx.Set(requestIDKey{}, requestID)
		ctx.Header(RequestIDHeader, requestID)

		logger := base.With().
			Str("requestID", requestID).
			Str("path", ctx.FullPath()).
			Logger()
		ctx.Request = ctx.Request.WithContext(logger.WithContext(ctx.Request.Context()))

		ctx.Next()
	}
}

// RequestIDFrom 返回当前请求的请求 ID，未经过 RequestID 中间件时返回空串
func RequestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get(requestIDKey{})
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
