package apperr

import (
	"errors"
	"fmt"
)

// Code 错误码
type Code string

const (
	// CodeNotFound 订阅不存在
	CodeNotFound Code = "NOT_FOUND"
	// CodeSubscribeExists 订阅名称已存在
	CodeSubscribeExists Code = "SUBSCRIBE_EXISTS"
	// CodeLinkExists 订阅链接已被其他订阅使用
	CodeLinkExists Code = "LINK_EXISTS"
	// CodeInvalidConfig 配置内容无效
	CodeInvalidConfig Code = "INVALID_CONFIG"
	// CodeFetchFailed 获取远程配置失败
	CodeFetchFailed Code = "FETCH_FAILED"
	// CodePersistFailed 写入持久化存储失败
	CodePersistFailed Code = "PERSIST_FAILED"
	// CodeWriteFailed 写入内容存储失败
	CodeWriteFailed Code = "WRITE_FAILED"
)

// AppError 定义结构化应用错误
type AppError struct {
	Code Code   // 错误码
	Key  string // 相关的订阅名称（可选）
	Err  error  // 原始错误（可选）
}

var (
	ErrNotFound        = &AppError{Code: CodeNotFound}
	ErrSubscribeExists = &AppError{Code: CodeSubscribeExists}
	ErrLinkExists      = &AppError{Code: CodeLinkExists}
	ErrInvalidConfig   = &AppError{Code: CodeInvalidConfig}
	ErrFetchFailed     = &AppError{Code: CodeFetchFailed}
	ErrPersistFailed   = &AppError{Code: CodePersistFailed}
	ErrWriteFailed     = &AppError{Code: CodeWriteFailed}
)

// New 创建应用错误
func New(code Code, key string, err error) *AppError {
	return &AppError{Code: code, Key: key, Err: err}
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	msg := fmt.Sprintf("[%s]", e.Code)
	if e.Key != "" {
		msg += " " + e.Key
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap 实现 errors.Unwrap 接口
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，使 errors.Is(err, ErrNotFound) 这类判断成立。
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// CodeOf 提取错误链中的错误码，非应用错误返回空字符串。
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// KeyOf 提取错误链中的订阅名称
func KeyOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Key
	}
	return ""
}
