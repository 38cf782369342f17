package service

import (
	"errors"

	"gorm.io/gorm"
)

// 错误类别，调用方用 errors.Is 判断
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrUpstream         = errors.New("upstream failure")
)

// Error 带用户可读信息的业务错误
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}

func wrapError(kind error, message string, err error) error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// notFoundOr 记录不存在时返回 NotFound，其余错误原样返回
func notFoundOr(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newError(ErrNotFound, message)
	}
	return err
}
