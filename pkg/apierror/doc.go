// Package apierror 提供控制器 RPC 的统一错误类型
//
// 错误响应格式（JSON）：
//
//	{
//	    "errors": [
//	        {
//	            "code": "NotFound",
//	            "message": "replica 10.0.0.1:10000 not found"
//	        }
//	    ],
//	    "requestID": "c0ffee"
//	}
//
// 预定义错误（可在代码中直接使用）：
//
//   - ErrInvalidArgument: 请求字段非法
//   - ErrNotFound: 副本或快照不存在
//   - ErrAlreadyExists: 副本地址重复
//   - ErrAlreadyStarted / ErrNotStarted: 卷生命周期错误
//   - ErrRebuildInProgress: 已有重建进行中
//   - ErrRebuildVerificationFailed: 重建校验失败
//   - ErrSnapshotLimitExceeded: 快照数量或容量超限
//   - ErrRestoreInProgress: 备份恢复进行中
//   - ErrNoHealthyReplica: 没有可写副本
//   - ErrInternal: 底层存储错误
//
// 使用示例：
//
//	return apierror.Errorf(apierror.ErrNotFound, "replica %s not found", address)
//
//	// 判断错误类型
//	if errors.Is(err, apierror.ErrNotFound) { ... }
package apierror
