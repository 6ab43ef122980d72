package util

import "errors"

var (
	// 参数校验
	ErrInvalidCount      = errors.New("number of questions must be between 1 and 50")
	ErrInvalidDifficulty = errors.New("difficulty must be 'easy', 'medium', or 'hard'")
	ErrInvalidSection    = errors.New("unknown section")
	ErrInvalidSubmission = errors.New("invalid test submission")

	// 资源不存在
	ErrUserNotFound       = errors.New("user not found")
	ErrDashboardNotFound  = errors.New("dashboard analytics not found")
	ErrGalleyNotFound     = errors.New("galley not found")
	ErrTestRecordNotFound = errors.New("test not found")

	// 同一用户并发提交，后写者被拒绝
	ErrConcurrentUpdate = errors.New("dashboard was updated concurrently, please resubmit")
	ErrLockTimeout      = errors.New("timed out waiting for dashboard lock")

	ErrPermissionDenied = errors.New("permission denied")
)

// IsValidationError 参数类错误，直接返回 400
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidCount) ||
		errors.Is(err, ErrInvalidDifficulty) ||
		errors.Is(err, ErrInvalidSection) ||
		errors.Is(err, ErrInvalidSubmission)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrDashboardNotFound) ||
		errors.Is(err, ErrGalleyNotFound) ||
		errors.Is(err, ErrTestRecordNotFound)
}
