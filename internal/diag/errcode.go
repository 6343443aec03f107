package diag

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"t2nodes/pkg/contract"
	"t2nodes/pkg/seedindex"
)

// Code 是最小错误分类代码，用于日志、指标、退出码与 HTTP 状态。
type Code string

const (
	CodeUnknown    Code = "unknown"
	CodeCancel     Code = "cancel"
	CodeValidation Code = "validation"
	CodeInvariant  Code = "invariant"
	CodeIO         Code = "io"
	CodeConfig     Code = "config"
)

// 进程退出码。
const (
	ExitOK         = 0
	ExitRuntime    = 1
	ExitValidation = 2
	ExitConfig     = 3
)

// Classify 仅依赖哨兵错误与标准库错误类型，不做字符串匹配。
func Classify(err error) Code {
	switch {
	case err == nil:
		return CodeUnknown
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCancel
	case errors.Is(err, contract.ErrConfigInvalid):
		return CodeConfig
	case errors.Is(err, contract.ErrInvalidInput),
		errors.Is(err, contract.ErrUnknownNode),
		errors.Is(err, seedindex.ErrInvalidRequest):
		return CodeValidation
	case errors.Is(err, contract.ErrInvariantViolation), errors.Is(err, contract.ErrPathInvalid):
		return CodeInvariant
	}
	var perr *fs.PathError
	if errors.As(err, &perr) {
		return CodeIO
	}
	return CodeUnknown
}

// ExitCode 将错误映射为进程退出码。
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch Classify(err) {
	case CodeValidation:
		return ExitValidation
	case CodeConfig:
		return ExitConfig
	default:
		return ExitRuntime
	}
}

// HTTPStatus 将错误映射为 HTTP 状态码。
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, contract.ErrUnknownNode):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	if Classify(err) == CodeValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// NowUTC 返回 RFC3339 UTC 时间字符串（用于结构化日志字段 ts）。
func NowUTC() string { return time.Now().UTC().Format(time.RFC3339) }
