package app

import "errors"

var (
	ErrInvalidConfigKey   = errors.New("invalid configuration key")
	ErrInvalidConfigValue = errors.New("invalid configuration value")
	ErrInvalidSalt        = errors.New("salt must be >= 0")
	ErrInvalidPort        = errors.New("port must be within 0-65535")
)

// CodeError ties an error to the process exit code main should use.
type CodeError struct {
	Code int
	Err  error
}

func (e CodeError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e CodeError) Unwrap() error {
	return e.Err
}

func NewCodeError(code int, err error) error {
	return CodeError{Code: code, Err: err}
}
