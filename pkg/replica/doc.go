// Package replica 提供副本数据面的客户端
//
// 控制器不直接读写磁盘，所有数据面操作（扩容、快照、回滚、I/O 统计）都通过
// Client 接口转发给副本进程。HTTPClient 是基于 gout 的实现：
//
//	client := replica.NewHTTPClient(10 * time.Second)
//	info, err := client.Info(ctx, "10.0.0.1:10000")
//
// 测试中使用 MockClient：
//
//	m := replica.NewMockClient()
//	m.On("Resize", mock.Anything, "10.0.0.1:10000", int64(2<<30)).Return(nil)
package replica
