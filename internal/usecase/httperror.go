package usecase

import (
	"errors"
	"fmt"
)

// usecaseの失敗はstatus＋安定したメッセージで返す。
// handlerはこれをそのままJSONにする。SQLの生テキストは入れない。
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}
