package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aep/videolib/api"
	"github.com/labstack/echo/v4"
)

// apiError is returned by handlers and rendered by errorHandler.
type apiError struct {
	Code    int
	Kind    string
	Message string
	Details []api.FieldError
	Err     error
}

func (e *apiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	if e.Message != "" {
		return e.Kind + ": " + e.Message
	}
	return e.Kind
}

func (e *apiError) Unwrap() error {
	return e.Err
}

func errInvalidQuery(details []api.FieldError) *apiError {
	return &apiError{Code: http.StatusBadRequest, Kind: "Invalid query parameters", Details: details}
}

func errInvalidVideo(details []api.FieldError) *apiError {
	return &apiError{Code: http.StatusBadRequest, Kind: "Invalid video data", Details: details}
}

var errVideoNotFound = &apiError{Code: http.StatusNotFound, Kind: "Video not found"}

func errInternal(message string, err error) *apiError {
	return &apiError{Code: http.StatusInternalServerError, Kind: "Internal server error", Message: message, Err: err}
}

// errorHandler renders every error as the response envelope.
// Stacks are only included in development.
func errorHandler(development bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, rsp := render(err, c.Request())

		if code >= 500 {
			log.Error("request failed", "method", c.Request().Method, "path", c.Request().URL.Path, "err", err)
			if development {
				var ae *apiError
				if errors.As(err, &ae) && ae.Err != nil {
					rsp.Stack = fmt.Sprintf("%+v", ae.Err)
				} else {
					rsp.Stack = fmt.Sprintf("%+v", err)
				}
			}
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, rsp)
		}
		if err != nil {
			log.Error("failed to write error response", "err", err)
		}
	}
}

func render(err error, req *http.Request) (int, api.Response[any]) {
	rsp := api.Response[any]{Success: false}

	var ae *apiError
	if errors.As(err, &ae) {
		rsp.Error = ae.Kind
		rsp.Message = ae.Message
		rsp.Details = ae.Details
		return ae.Code, rsp
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			rsp.Error = "Route not found"
			rsp.Message = fmt.Sprintf("Cannot %s %s", req.Method, req.URL.Path)
			return http.StatusNotFound, rsp
		case http.StatusRequestEntityTooLarge:
			rsp.Error = "Request entity too large"
			return he.Code, rsp
		}
		rsp.Error = http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != rsp.Error {
			rsp.Message = m
		}
		return he.Code, rsp
	}

	rsp.Error = "Internal server error"
	return http.StatusInternalServerError, rsp
}
