// Package ginx 提供 gin 框架的 handler 适配器，支持自动参数绑定和响应处理
//
// 请求和响应统一使用 JSON：
//   - 请求体为空时参数取零值
//   - 绑定失败或 IsValid 返回错误时响应 400 InvalidArgument
//   - handler 返回 *apierror.Error 时使用其 HTTP 状态码，其余错误响应 500 Internal
//   - 错误响应带上 RequestID 中间件分配的请求 ID
//
// 支持的 handler 函数签名：
//
//	// 有参数，有返回值，有 error
//	func(c *gin.Context, args *Args) (resp, error)
//
//	// 有参数，只有 error，成功时响应 204
//	func(c *gin.Context, args *Args) error
//
//	// 无参数，有返回值，有 error
//	func(c *gin.Context) (resp, error)
//
//	// 无参数，只有返回值
//	func(c *gin.Context) resp
//
// 使用示例：
//
//	router := gin.New()
//	router.Use(ginx.RequestID(log.Logger))
//	router.POST("/api/replica/get", ginx.Adapt5(handler.ReplicaGet))
package ginx
