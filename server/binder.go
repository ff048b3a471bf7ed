package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/aep/videolib/api"
	"github.com/labstack/echo/v4"
)

type Binder struct {
	defaultBinder *echo.DefaultBinder
	validator     *validator
}

func (cb *Binder) Bind(i interface{}, c echo.Context) error {
	// Video bodies go through the cue schema before they are decoded
	if c.Request().Method == http.MethodPost || c.Request().Method == http.MethodPut {
		var schema string
		switch i.(type) {
		case *api.CreateVideoRequest:
			schema = schemaCreate
		case *api.UpdateVideoRequest:
			schema = schemaUpdate
		}

		if schema != "" {
			raw, err := io.ReadAll(c.Request().Body)
			if err != nil {
				// e.g. 413 from the body limit
				var he *echo.HTTPError
				if errors.As(err, &he) {
					return err
				}
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}

			// non-JSON bodies validate as an empty object
			contentType := c.Request().Header.Get(echo.HeaderContentType)
			if !strings.HasPrefix(contentType, echo.MIMEApplicationJSON) || len(bytes.TrimSpace(raw)) == 0 {
				raw = []byte("{}")
			}

			if details := cb.validator.validate(schema, raw); len(details) > 0 {
				return errInvalidVideo(details)
			}

			if err := json.Unmarshal(raw, i); err != nil {
				return errInvalidVideo([]api.FieldError{{Message: err.Error()}})
			}
			return nil
		}
	}

	return cb.defaultBinder.Bind(i, c)
}
