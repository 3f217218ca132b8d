// Package server exposes the engine over HTTP in the JSON:API shape.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/jsonapi"
	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/query"
)

// Operations is what the handler needs from the engine.
type Operations interface {
	FindAll(ctx context.Context, resourceType string, fields []string, filter jsonapi.Filter) (*jsonapi.Document, error)
	FindOne(ctx context.Context, resourceType string, fields []string, filter jsonapi.Filter) (*jsonapi.Document, error)
	Create(ctx context.Context, resourceType string, payload jsonapi.Payload) (query.Record, error)
	Update(ctx context.Context, resourceType, id string, payload jsonapi.Payload) (*jsonapi.Document, error)
	Delete(ctx context.Context, resourceType, id string) error
	UpdateRelationship(ctx context.Context, resourceType, id, relationship string, payload jsonapi.Payload) error
	SourceColumns(resourceType string, includes []string) ([]string, error)
}

type Handler struct {
	ops    Operations
	logger zerolog.Logger
}

func NewHandler(ops Operations, logger zerolog.Logger) *Handler {
	return &Handler{ops: ops, logger: logger}
}

func (h *Handler) Register(e *echo.Echo) {
	e.HTTPErrorHandler = h.HandleError

	e.GET("/:type", h.FindAll)
	e.POST("/:type", h.Create)
	e.GET("/:type/:id", h.FindOne)
	e.PATCH("/:type/:id", h.Update)
	e.DELETE("/:type/:id", h.Delete)

	rel := "/:type/:id/relationships/:relationship"
	e.POST(rel, h.UpdateRelationship)
	e.PATCH(rel, h.UpdateRelationship)
	e.DELETE(rel, h.UpdateRelationship)
}

func (h *Handler) FindAll(c echo.Context) error {
	resourceType := c.Param("type")
	fields, filter, err := h.parseQuery(resourceType, c.QueryParams())
	if err != nil {
		return err
	}
	doc, err := h.ops.FindAll(c.Request().Context(), resourceType, fields, filter)
	if err != nil {
		return err
	}
	return writeDocument(c, http.StatusOK, renderDocument(resourceType, doc))
}

func (h *Handler) FindOne(c echo.Context) error {
	resourceType, id := c.Param("type"), c.Param("id")
	fields, filter, err := h.parseQuery(resourceType, c.QueryParams())
	if err != nil {
		return err
	}
	filter.Params = map[string]any{idColumn: jsonapi.ParseID(id)}

	doc, err := h.ops.FindOne(c.Request().Context(), resourceType, fields, filter)
	if err != nil {
		return err
	}
	if doc.Data.Empty() {
		return NewHTTPError(http.StatusNotFound, resourceType+" "+id+" not found")
	}
	return writeDocument(c, http.StatusOK, renderDocument(resourceType, doc))
}

func (h *Handler) Create(c echo.Context) error {
	resourceType := c.Param("type")
	payload, err := bindPayload(c)
	if err != nil {
		return err
	}
	record, err := h.ops.Create(c.Request().Context(), resourceType, payload)
	if err != nil {
		return err
	}
	r := newResource(resourceType, record)
	return writeDocument(c, http.StatusCreated, document{Data: &r})
}

func (h *Handler) Update(c echo.Context) error {
	resourceType, id := c.Param("type"), c.Param("id")
	payload, err := bindPayload(c)
	if err != nil {
		return err
	}
	doc, err := h.ops.Update(c.Request().Context(), resourceType, id, payload)
	if err != nil {
		return err
	}
	if doc.Data.Empty() {
		return NewHTTPError(http.StatusNotFound, resourceType+" "+id+" not found")
	}
	return writeDocument(c, http.StatusOK, renderDocument(resourceType, doc))
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.ops.Delete(c.Request().Context(), c.Param("type"), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdateRelationship(c echo.Context) error {
	var payload jsonapi.Payload
	if c.Request().ContentLength != 0 {
		var err error
		if payload, err = bindPayload(c); err != nil {
			return err
		}
	}
	err := h.ops.UpdateRelationship(c.Request().Context(), c.Param("type"), c.Param("id"), c.Param("relationship"), payload)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func bindPayload(c echo.Context) (jsonapi.Payload, error) {
	var payload jsonapi.Payload
	if err := json.NewDecoder(c.Request().Body).Decode(&payload); err != nil {
		return payload, NewHTTPError(http.StatusBadRequest, "malformed request body: "+err.Error())
	}
	return payload, nil
}

// parseQuery reads include, fields[<type>] and filter[<column>]. Sparse
// fieldsets apply to the primary type only; included rows are always whole.
// Filter values that look like integers are compared as integers.
func (h *Handler) parseQuery(resourceType string, values url.Values) ([]string, jsonapi.Filter, error) {
	fields, filter, err := parseQuery(resourceType, values)
	if err != nil || len(fields) == 0 {
		return fields, filter, err
	}
	_, includes := jsonapi.ParseFilter(filter)
	required, err := h.ops.SourceColumns(resourceType, includes)
	if err != nil {
		return nil, filter, err
	}
	return withColumns(fields, append([]string{idColumn}, required...)), filter, nil
}

// withColumns appends each of required that fields does not select yet.
func withColumns(fields, required []string) []string {
	selected := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f == "*" {
			return fields
		}
		selected[f] = true
	}
	for _, column := range required {
		if !selected[column] {
			selected[column] = true
			fields = append(fields, column)
		}
	}
	return fields
}

func parseQuery(resourceType string, values url.Values) ([]string, jsonapi.Filter, error) {
	var fields []string
	filter := jsonapi.Filter{Query: map[string]any{}}

	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		switch {
		case key == "include":
			filter.Query["include"] = strings.Join(vals, ",")
		case strings.HasPrefix(key, "fields[") && strings.HasSuffix(key, "]"):
			if bracketed(key, "fields") != resourceType {
				continue
			}
			for _, f := range strings.Split(vals[len(vals)-1], ",") {
				if f = strings.TrimSpace(f); f != "" {
					fields = append(fields, f)
				}
			}
		case strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]"):
			column := bracketed(key, "filter")
			if column == "" || column == "include" {
				return nil, filter, NewHTTPError(http.StatusBadRequest, "invalid filter parameter "+key)
			}
			filter.Query[column] = jsonapi.ParseID(vals[len(vals)-1])
		}
	}
	return fields, filter, nil
}

func bracketed(key, family string) string {
	return strings.TrimSpace(key[len(family)+1 : len(key)-1])
}
