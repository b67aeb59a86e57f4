package ginx

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/jvc/pkg/apierror"
)

// bindArgs 绑定请求参数到 args 结构体
// 请求体为空时视为所有字段取零值，只绑定 Query 参数
func bindArgs(ctx *gin.Context, args any) error {
	if ctx.Request.Body == nil || ctx.Request.ContentLength == 0 {
		return ctx.ShouldBindQuery(args)
	}

	if err := ctx.ShouldBindJSON(args); err != nil {
		// chunked 请求无法预知长度，读到 EOF 同样视为空请求体
		if errors.Is(err, io.EOF) {
			return ctx.ShouldBindQuery(args)
		}
		return err
	}
	_ = ctx.ShouldBindQuery(args)
	return nil
}

// invalidArgument 将绑定和校验错误统一为 InvalidArgument
func invalidArgument(err error) error {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return apierror.WrapError(apierror.ErrInvalidArgument, err.Error(), err)
}
