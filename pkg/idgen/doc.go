// Package idgen 提供递增 ID 生成器
//
// 使用 Sonyflake 算法生成全局唯一且递增的 ID，生成的 ID 格式：
//   - 系统快照名: snap-{递增数字}
//   - 重建会话 ID: rb-{递增数字}
//   - 请求 ID: req-{递增数字}
//
// 日志条目 ID 直接使用 GenerateID 返回的 uint64。
//
// 使用方式：
//
//	// 包级别的便捷函数，使用默认生成器
//	name, err := idgen.GenerateSnapshotID()
//
//	// 创建独立的生成器
//	gen := idgen.New()
//	id, err := gen.GenerateID()
package idgen
