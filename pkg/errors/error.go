package errors

import (
	"errors"
	"fmt"
)

// 표준 라이브러리 함수 재노출
var (
	New = errors.New
	Is  = errors.Is
	As  = errors.As
)

// AppError는 코드가 붙은 애플리케이션 에러입니다
type AppError struct {
	code    string
	message string
	err     error
}

func (e *AppError) Error() string {
	if e.err == nil {
		return e.message
	}
	return fmt.Sprintf("%s: %s", e.message, e.err.Error())
}

// Code는 에러 코드를 반환합니다
func (e *AppError) Code() string {
	return e.code
}

func (e *AppError) Unwrap() error {
	return e.err
}

// NewAppError는 새 애플리케이션 에러를 생성합니다
func NewAppError(code string, message string, err error) *AppError {
	return &AppError{
		code:    code,
		message: message,
		err:     err,
	}
}

// Config는 설정 누락/오류를 나타내는 에러를 생성합니다
func Config(message string, err error) *AppError {
	return NewAppError(ErrConfig, message, err)
}

// Unavailable은 외부 시스템 호출 실패를 나타내는 에러를 생성합니다
func Unavailable(message string, err error) *AppError {
	return NewAppError(ErrUnavailable, message, err)
}

// Unauthenticated는 자격 증명이 거부된 외부 호출을 나타내는 에러를 생성합니다
func Unauthenticated(message string, err error) *AppError {
	return NewAppError(ErrUnauthenticated, message, err)
}

// Wrap은 기존 에러에 문맥을 덧붙입니다. AppError의 코드는 유지되고, 그 외는 INTERNAL이 됩니다
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return NewAppError(CodeOf(err), message, err)
}
