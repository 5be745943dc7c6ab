package errs

import "errors"

var (
	ErrRequestValidate = errors.New("request validation")
	ErrNotFound        = errors.New("not found")
)

type ValidateError struct {
	err     error
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields"`
}

func NewValidateError(err error) *ValidateError {
	return &ValidateError{
		err:     err,
		Message: err.Error(),
		Fields:  make(map[string]interface{}),
	}
}

func NewValidateFieldsError(err error, fields map[string]interface{}) *ValidateError {
	return &ValidateError{
		err:     err,
		Message: err.Error(),
		Fields:  fields,
	}
}

func (e *ValidateError) Error() string {
	return e.err.Error()
}

func (e *ValidateError) Unwrap() error {
	return e.err
}
