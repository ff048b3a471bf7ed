package videolib

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aep/videolib/api"
)

type Error struct {
	Code    int
	Message string
	Details []api.FieldError
}

func (e Error) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%d: %s", e.Code, e.Message)
	}
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		if d.Field != "" {
			parts = append(parts, d.Field+": "+d.Message)
		} else {
			parts = append(parts, d.Message)
		}
	}
	return fmt.Sprintf("%d: %s (%s)", e.Code, e.Message, strings.Join(parts, "; "))
}

func IsNotFound(err error) bool {
	var ee Error
	return errors.As(err, &ee) && ee.Code == http.StatusNotFound
}

func IsValidationFailed(err error) bool {
	var ee Error
	return errors.As(err, &ee) && ee.Code == http.StatusBadRequest
}

func parseError(rsp *http.Response) error {
	var msg api.Response[json.RawMessage]
	json.NewDecoder(rsp.Body).Decode(&msg)

	switch {
	case msg.Error != "" && msg.Message != "":
		return Error{Code: rsp.StatusCode, Message: msg.Error + ": " + msg.Message, Details: msg.Details}
	case msg.Error != "":
		return Error{Code: rsp.StatusCode, Message: msg.Error, Details: msg.Details}
	}

	return Error{Code: rsp.StatusCode, Message: rsp.Status}
}
