package errors

import (
	"errors"
	"fmt"
)

// AppError 分类码 + 机器可读的 reason。
// Cause 只进日志，不序列化
type AppError struct {
	Code   Code   `json:"code"`
	Reason string `json:"reason"`
	Cause  error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Cause)
	}
	return e.Reason
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is 按 code + reason 比较，包装过的哨兵错误仍然相等
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Reason == t.Reason
}

// 构造函数
func New(code Code, reason string) *AppError {
	return &AppError{Code: code, Reason: reason}
}

func Wrap(code Code, reason string, cause error) *AppError {
	return &AppError{Code: code, Reason: reason, Cause: cause}
}

func Validation(reason string) *AppError   { return New(CodeValidation, reason) }
func Unauthorized(reason string) *AppError { return New(CodeUnauthorized, reason) }
func Forbidden(reason string) *AppError    { return New(CodeForbidden, reason) }
func NotFound(reason string) *AppError     { return New(CodeNotFound, reason) }
func Conflict(reason string) *AppError     { return New(CodeConflict, reason) }

func Internal(cause error) *AppError {
	return Wrap(CodeInternal, "internal_error", cause)
}

// From 转成 AppError，无法识别的错误归为内部错误
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// CodeOf 返回 err 的分类码，未知错误为 CodeInternal
func CodeOf(err error) Code {
	if e := From(err); e != nil {
		return e.Code
	}
	return ""
}
