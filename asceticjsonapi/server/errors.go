package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/jsonapi"
)

// HTTPError is one entry of a JSON:API error document.
type HTTPError struct {
	Status int    `json:"status,string"`
	Code   string `json:"code"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

func (e *HTTPError) Error() string {
	return e.Detail
}

func NewHTTPError(status int, detail string) *HTTPError {
	title := http.StatusText(status)
	return &HTTPError{
		Status: status,
		Code:   MakeUpperCaseWithUnderscores(title),
		Title:  title,
		Detail: detail,
	}
}

// MakeUpperCaseWithUnderscores turns "Bad Request" into "BAD_REQUEST".
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}

type errorDocument struct {
	Errors []*HTTPError `json:"errors"`
}

// toHTTPError maps engine error kinds onto statuses. Anything unrecognized is
// an internal error and its detail is not exposed.
func toHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		detail, _ := echoErr.Message.(string)
		return NewHTTPError(echoErr.Code, detail)
	}

	switch {
	case errors.Is(err, jsonapi.ErrUnknownRelationship), errors.Is(err, jsonapi.ErrInvalidID):
		return NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, jsonapi.ErrUnsupportedOperation):
		return NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return NewHTTPError(http.StatusInternalServerError, "")
	}
}

// HandleError renders err as an error document. It is installed as the echo
// HTTPErrorHandler.
func (h *Handler) HandleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	httpErr := toHTTPError(err)

	event := h.logger.Warn()
	if httpErr.Status >= http.StatusInternalServerError {
		event = h.logger.Error()
	}
	event.Err(err).
		Int("status", httpErr.Status).
		Str("method", c.Request().Method).
		Str("path", c.Request().URL.Path).
		Msg("request failed")

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(httpErr.Status)
	} else {
		err = writeDocument(c, httpErr.Status, errorDocument{Errors: []*HTTPError{httpErr}})
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("unable to write error response")
	}
}
