package api

import (
	"errors"
	"fmt"
)

var ErrInvalidRequest = errors.New("invalid_request")

// invalidRequestError names the request parameter that was rejected.
type invalidRequestError struct {
	param string
	msg   string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(param, format string, args ...any) error {
	return invalidRequestError{param: param, msg: fmt.Sprintf(format, args...)}
}

// paramOf returns the parameter an invalid request error refers to.
func paramOf(err error) string {
	var ire invalidRequestError
	if errors.As(err, &ire) {
		return ire.param
	}
	return ""
}
