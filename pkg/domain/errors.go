package domain

import "errors"

// 会话相关错误
var (
	ErrEmptySessionToken = errors.New("empty session token")
)

// 配置相关错误
var (
	ErrInvalidConfig      = errors.New("invalid config")
	ErrCredentialsMissing = errors.New("credentials missing")
	ErrUnknownStore       = errors.New("unknown session store")
)

// 数据库相关错误
var (
	ErrDatabaseNotInitialized = errors.New("database not initialized")
	ErrRecordNotFound         = errors.New("record not found")
)

// 浏览器相关错误
var (
	ErrDevToolsUnreachable = errors.New("devtools unreachable")
	ErrNoPageTarget        = errors.New("no page target")
)

// 历史记录相关错误
var (
	ErrHistoryDisabled = errors.New("history disabled")
)
