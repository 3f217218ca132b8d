package server

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/jsonapi"
	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/query"
)

const MediaType = "application/vnd.api+json"

const idColumn = "id"

type resource struct {
	Type       string         `json:"type"`
	ID         string         `json:"id,omitempty"`
	Attributes map[string]any `json:"attributes"`
}

type document struct {
	Data     any        `json:"data"`
	Included []resource `json:"included,omitempty"`
}

// newResource splits the id column off a row; every other column is an attribute.
func newResource(resourceType string, record query.Record) resource {
	r := resource{Type: resourceType, Attributes: make(map[string]any, len(record))}
	for column, value := range record {
		if column == idColumn {
			if value != nil {
				r.ID = fmt.Sprint(normalize(value))
			}
			continue
		}
		r.Attributes[column] = normalize(value)
	}
	return r
}

// normalize turns raw driver values into something JSON renders sensibly.
func normalize(value any) any {
	switch v := value.(type) {
	case [16]byte:
		return uuid.UUID(v).String()
	default:
		return value
	}
}

func renderDocument(resourceType string, doc *jsonapi.Document) document {
	out := document{}
	if doc.Data.IsSingle() {
		if record := doc.Data.Record(); record != nil {
			r := newResource(resourceType, record)
			out.Data = &r
		}
	} else {
		records := doc.Data.Records()
		data := make([]resource, 0, len(records))
		for _, record := range records {
			data = append(data, newResource(resourceType, record))
		}
		out.Data = data
	}

	types := make([]string, 0, len(doc.Included))
	for t := range doc.Included {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		for _, record := range doc.Included[t] {
			out.Included = append(out.Included, newResource(t, record))
		}
	}
	return out
}

func writeDocument(c echo.Context, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Blob(status, MediaType, body)
}
