package usecases

import (
	"errors"

	"query-server/repositories"
)

// Error codes double as translation keys.
const (
	CodeFieldRequired       = "fieldRequired"
	CodeInvalidEmail        = "invalidEmail"
	CodePasswordTooShort    = "passwordTooShort"
	CodeUsernameTaken       = "usernameTaken"
	CodeEmailTaken          = "emailTaken"
	CodeUserNotFound        = "userNotFound"
	CodeLoginError          = "loginError"
	CodeEmailMismatch       = "emailMismatch"
	CodeModeUnavailable     = "modeUnavailable"
	CodeHistoryItemNotFound = "historyItemNotFound"
	CodeInvalidValue        = "invalidValue"
	CodeUnknownConfigKey    = "unknownConfigKey"
	CodeNoQRDetected        = "noQrDetected"
	CodeInvalidImage        = "invalidImage"
	CodeQRGenerationError   = "qrGenerationError"
	CodeRegisterError       = "registerError"
	CodeInternal            = "internalError"
)

// Error is a failure the client can be told about. Code is a translation key.
type Error struct {
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

func fail(code string) error {
	return &Error{Code: code}
}

func wrap(code string, err error) error {
	return &Error{Code: code, Err: err}
}

// internal wraps unexpected storage failures. Mode routing errors keep their
// own code so the client can fall back to guest mode.
func internal(err error) error {
	if err == nil {
		return nil
	}
	var ue *Error
	if errors.As(err, &ue) {
		return err
	}
	if errors.Is(err, repositories.ErrModeUnavailable) {
		return wrap(CodeModeUnavailable, err)
	}
	return wrap(CodeInternal, err)
}

// CodeOf returns the translation key for err.
func CodeOf(err error) string {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Code
	}
	if errors.Is(err, repositories.ErrModeUnavailable) {
		return CodeModeUnavailable
	}
	return CodeInternal
}
