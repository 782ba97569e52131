package httpapi

import (
	"context"
	"errors"
	"net/http"

	"cpolarstatus/pkg/domain"
	"cpolarstatus/pkg/errx"
)

// 非 errx 错误使用的错误码
const (
	CodeInvalidParams   = "INVALID_PARAMS"
	CodeNotFound        = "NOT_FOUND"
	CodeHistoryDisabled = "HISTORY_DISABLED"
	CodeCanceled        = "CANCELED"
	CodeUnknown         = "UNKNOWN_ERROR"
)

// statusClientClosed 客户端在响应前断开连接
const statusClientClosed = 499

// 错误码对应的 HTTP 状态码
var codeStatus = map[errx.Code]int{
	errx.CodeConfigMissing:     http.StatusInternalServerError,
	errx.CodeNetwork:           http.StatusBadGateway,
	errx.CodeSessionExtraction: http.StatusBadGateway,
	errx.CodeAuthentication:    http.StatusUnauthorized,
	errx.CodeStatusFetch:       http.StatusBadGateway,
	errx.CodeTableNotFound:     http.StatusNotFound,
	errx.CodeStorage:           http.StatusInternalServerError,
}

// 领域错误映射表
var errorMappings = []struct {
	err    error
	code   string
	status int
}{
	{domain.ErrRecordNotFound, CodeNotFound, http.StatusNotFound},
	{domain.ErrHistoryDisabled, CodeHistoryDisabled, http.StatusNotFound},
}

// translateError 将错误转换为错误码和 HTTP 状态码
func translateError(err error) (string, int) {
	if errors.Is(err, context.Canceled) {
		return CodeCanceled, statusClientClosed
	}
	if code := errx.CodeOf(err); code != "" {
		if status, ok := codeStatus[code]; ok {
			return string(code), status
		}
		return string(code), http.StatusInternalServerError
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.code, m.status
		}
	}
	return CodeUnknown, http.StatusInternalServerError
}
