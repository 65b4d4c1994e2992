package service

import (
	"errors"

	"gorm.io/gorm"
)

// 服务层哨兵错误，控制器通过 errors.Is 映射为 HTTP 状态码
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrGone              = errors.New("gone")
	ErrTooManyRequests   = errors.New("too many requests")
)

// notFoundOr 将 gorm 的记录不存在转换为 ErrNotFound
func notFoundOr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return wrap(ErrNotFound, what+" not found")
	}
	return err
}

type serviceError struct {
	kind error
	msg  string
}

func (e *serviceError) Error() string { return e.msg }
func (e *serviceError) Unwrap() error { return e.kind }

// wrap 保留面向调用方的消息，同时可以被 errors.Is 识别
func wrap(kind error, msg string) error {
	return &serviceError{kind: kind, msg: msg}
}
