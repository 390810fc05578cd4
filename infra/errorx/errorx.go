// 带错误码的错误类型, 调用方用 HasCode / errors.As 区分错误种类
package errorx

import (
	"errors"
	"fmt"

	"svca/infra/errorx/errCode"
)

type Error struct {
	Code  errCode.Code
	Msg   string
	cause error
}

func New(code errCode.Code, msg string) error {
	return &Error{Code: code, Msg: msg}
}

func Newf(code errCode.Code, format string, args ...any) error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap 保留底层错误, 便于 errors.Is 继续向下匹配
func Wrap(code errCode.Code, msg string, cause error) error {
	return &Error{Code: code, Msg: msg, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Msg, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is 按错误码比较, errors.Is(err, errorx.New(code, "")) 即可判断种类
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// HasCode 沿错误链查找指定错误码
func HasCode(err error, code errCode.Code) bool {
	var e *Error
	for err != nil {
		if errors.As(err, &e) {
			if e.Code == code {
				return true
			}
			err = e.cause
			continue
		}
		return false
	}
	return false
}

func CodeOf(err error) errCode.Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return errCode.OK
}
