package jsonapi

import (
	"strconv"

	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/query"
)

// Payload is the body of a create or update request.
type Payload struct {
	Data ResourceObject `json:"data"`
}

type ResourceObject struct {
	Type          string                        `json:"type"`
	ID            string                        `json:"id,omitempty"`
	Attributes    map[string]any                `json:"attributes,omitempty"`
	Relationships map[string]RelationshipObject `json:"relationships,omitempty"`
}

// RelationshipObject holds to-one linkage; a nil Data unsets the relationship.
type RelationshipObject struct {
	Data *ResourceIdentifier `json:"data"`
}

type ResourceIdentifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Attributes flattens the payload into a row: attributes as given, each
// relationship as "<name>_id" holding the linked id (or nil).
// A relationship overrides an attribute of the same column name.
func (p Payload) Attributes() query.Record {
	record := make(query.Record, len(p.Data.Attributes)+len(p.Data.Relationships))
	for k, v := range p.Data.Attributes {
		record[k] = v
	}
	for name, rel := range p.Data.Relationships {
		if rel.Data == nil {
			record[name+"_id"] = nil
			continue
		}
		record[name+"_id"] = ParseID(rel.Data.ID)
	}
	return record
}

// ParseID returns base 10 ids as int64 and anything else (uuids, slugs) unchanged.
func ParseID(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}
