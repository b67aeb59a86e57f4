package apierror

import "net/http"

// 控制器错误分类
var (
	// ErrInvalidArgument 请求字段格式错误或超出范围
	ErrInvalidArgument = &Error{
		Code:       "InvalidArgument",
		Message:    "The request contains a malformed or out-of-range field.",
		HTTPStatus: http.StatusBadRequest,
	}

	// ErrNotFound 副本地址或快照名不存在
	ErrNotFound = &Error{
		Code:       "NotFound",
		Message:    "The requested resource does not exist.",
		HTTPStatus: http.StatusNotFound,
	}

	// ErrAlreadyExists 副本地址重复
	ErrAlreadyExists = &Error{
		Code:       "AlreadyExists",
		Message:    "The resource already exists.",
		HTTPStatus: http.StatusConflict,
	}

	// ErrAlreadyStarted 卷已启动，需要先关闭
	ErrAlreadyStarted = &Error{
		Code:       "AlreadyStarted",
		Message:    "The volume is already started.",
		HTTPStatus: http.StatusConflict,
	}

	// ErrNotStarted 卷尚未启动
	ErrNotStarted = &Error{
		Code:       "NotStarted",
		Message:    "The volume is not started.",
		HTTPStatus: http.StatusConflict,
	}

	// ErrRebuildInProgress 同一卷上已有副本在重建
	ErrRebuildInProgress = &Error{
		Code:       "RebuildInProgress",
		Message:    "Another replica rebuild is in progress.",
		HTTPStatus: http.StatusConflict,
	}

	// ErrRebuildVerificationFailed 重建后的数据一致性校验失败
	ErrRebuildVerificationFailed = &Error{
		Code:       "RebuildVerificationFailed",
		Message:    "The rebuilt replica failed verification.",
		HTTPStatus: http.StatusUnprocessableEntity,
	}

	// ErrSnapshotLimitExceeded 新快照会超过数量或容量限制
	ErrSnapshotLimitExceeded = &Error{
		Code:       "SnapshotLimitExceeded",
		Message:    "The snapshot would exceed the configured limits.",
		HTTPStatus: http.StatusConflict,
	}

	// ErrRestoreInProgress 备份恢复进行中
	ErrRestoreInProgress = &Error{
		Code:       "RestoreInProgress",
		Message:    "A restore is in progress.",
		HTTPStatus: http.StatusConflict,
	}

	// ErrNoHealthyReplica 操作需要至少一个可写副本
	ErrNoHealthyReplica = &Error{
		Code:       "NoHealthyReplica",
		Message:    "No writable replica is available.",
		HTTPStatus: http.StatusConflict,
	}

	// ErrInternal 底层存储引擎错误
	ErrInternal = &Error{
		Code:       "Internal",
		Message:    "An internal error has occurred.",
		HTTPStatus: http.StatusInternalServerError,
	}
)
