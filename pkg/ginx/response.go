package ginx

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/jvc/pkg/apierror"
)

// renderResponse 渲染 JSON 响应，nil 响应返回 204
func renderResponse(ctx *gin.Context, response any) {
	if isNil(response) {
		ctx.Status(http.StatusNoContent)
		return
	}

	switch v := response.(type) {
	case string:
		ctx.String(http.StatusOK, v)
		return
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, bool:
		ctx.JSON(http.StatusOK, gin.H{"value": v})
		return
	}

	ctx.JSON(http.StatusOK, response)
}

// renderError 渲染错误响应
// *apierror.Error 使用其自带的 HTTP 状态码，其余错误包装为 Internal
func renderError(ctx *gin.Context, statusCode int, err error) {
	requestID := RequestIDFrom(ctx)

	var errorResp *apierror.ErrorResponse
	if errors.As(err, &errorResp) {
		if len(errorResp.Errors) > 0 && errorResp.Errors[0].HTTPStatus > 0 {
			statusCode = errorResp.Errors[0].HTTPStatus
		}
		if errorResp.RequestID == "" {
			errorResp.RequestID = requestID
		}
		ctx.JSON(statusCode, errorResp)
		return
	}

	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) {
		apiErr = apierror.WrapError(apierror.ErrInternal, err.Error(), err)
	}
	if apiErr.HTTPStatus > 0 {
		statusCode = apiErr.HTTPStatus
	}
	ctx.JSON(statusCode, apierror.NewErrorResponse(requestID, apiErr))
}

// isNil 判断 any 是否为 nil 或 nil 指针
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
