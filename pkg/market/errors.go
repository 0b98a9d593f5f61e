// pkg/market/errors.go
package market

import (
	"errors"
	"fmt"
)

// Code 对外暴露的稳定错误码
type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeNotFound           Code = "NOT_FOUND"
	CodeInsufficientFunds  Code = "INSUFFICIENT_FUNDS"
	CodeInsufficientShares Code = "INSUFFICIENT_SHARES"
	CodeForbidden          Code = "FORBIDDEN"
	CodeConflict           Code = "CONFLICT"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeMarketHalted       Code = "MARKET_HALTED"
	CodeInternal           Code = "INTERNAL_ERROR"
)

// Error 带稳定错误码的业务错误。
// 核心不做自动重试，是否重试由调用方决定。
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError 创建业务错误
func NewError(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsCode 判断错误是否携带指定错误码
func IsCode(err error, code Code) bool {
	var me *Error
	if errors.As(err, &me) {
		return me.Code == code
	}
	return false
}

// ErrCode 提取错误码，非业务错误一律视为内部错误
func ErrCode(err error) Code {
	var me *Error
	if errors.As(err, &me) {
		return me.Code
	}
	return CodeInternal
}

// Internal 包装底层存储错误为内部错误，调用方只看到稳定错误码
func Internal(err error) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf("内部错误: %v", err)}
}
