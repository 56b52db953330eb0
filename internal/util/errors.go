package util

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied        = errors.New("permission denied")
	ErrAccessCodeNotFound      = errors.New("access code not found")
	ErrAccessCodeExpired       = errors.New("access code expired")
	ErrAttemptNotFound         = errors.New("attempt not found")
	ErrAttemptAlreadySubmitted = errors.New("attempt already submitted")
	ErrAttemptExpired          = errors.New("attempt deadline has passed")
	ErrSubmissionInProgress    = errors.New("submission already in progress")
	ErrSessionNotFound         = errors.New("session not found")
	ErrSessionClosed           = errors.New("session closed")
	ErrSessionExpired          = errors.New("session expired")
	ErrClassroomNotFound       = errors.New("classroom not found")
	ErrClassroomEmpty          = errors.New("classroom has no active enrollments")
	ErrTextNotFound            = errors.New("reading text not found")
	ErrQuizNotFound            = errors.New("quiz not found")
	ErrValidation              = errors.New("validation failed")
	ErrUpdateFailed            = errors.New("update failed")
)

// Validationf 包装 ErrValidation，附带具体字段信息
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// UpdateFailed 包装持久化错误，保留原始错误链
func UpdateFailed(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpdateFailed, op, err)
}
