package jsonapi

import (
	"fmt"

	"github.com/jinzhu/inflection"

	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/query"
	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/schema"
)

const defaultIDKey = "id"

// lookup is either a scalar or a sequence of lookups.
type lookup interface {
	missing() bool
	flatten(dst []any) []any
}

type scalar struct {
	value any
}

func (v scalar) missing() bool {
	return v.value == nil
}

func (v scalar) flatten(dst []any) []any {
	return append(dst, v.value)
}

type sequence []lookup

func (v sequence) missing() bool {
	for _, item := range v {
		if item.missing() {
			return true
		}
	}
	return false
}

func (v sequence) flatten(dst []any) []any {
	for _, item := range v {
		dst = item.flatten(dst)
	}
	return dst
}

// extract reads key from the primary result: a scalar for single-finds, one
// scalar per record for list-finds. Absent keys read as nil.
func extract(primary Result, key string) lookup {
	if primary.IsSingle() {
		return scalar{value: primary.Record()[key]}
	}
	records := primary.Records()
	values := make(sequence, len(records))
	for i, r := range records {
		values[i] = scalar{value: r[key]}
	}
	return values
}

// lookupKeys returns the column read from the source records and the column
// matched on the target table.
func lookupKeys(rel schema.Relationship, sourceType string) (sourceKey, targetKey string, err error) {
	switch rel.Kind {
	case schema.BelongsTo:
		sourceKey = rel.ForeignKey
		if sourceKey == "" {
			sourceKey = rel.Name + "_id"
		}
		targetKey = rel.IDKey
		if targetKey == "" {
			targetKey = defaultIDKey
		}
	case schema.HasMany:
		sourceKey = rel.IDKey
		if sourceKey == "" {
			sourceKey = defaultIDKey
		}
		targetKey = rel.ForeignKey
		if targetKey == "" {
			targetKey = inflection.Singular(sourceType) + "_id"
		}
	default:
		return "", "", fmt.Errorf("%w %q for relationship %q of %q",
			ErrUnsupportedRelationshipKind, rel.Kind, rel.Name, sourceType)
	}
	return sourceKey, targetKey, nil
}

// relationshipQuery builds the secondary query for rel. It fails, without
// building anything, when a lookup value is missing from the primary result.
func (e *Engine) relationshipQuery(rel schema.Relationship, sourceType string, primary Result) (*query.Builder, error) {
	sourceKey, targetKey, err := lookupKeys(rel, sourceType)
	if err != nil {
		return nil, err
	}
	values := extract(primary, sourceKey)
	if values.missing() {
		return nil, fmt.Errorf("%w: relationship %q of %q needs %q on every %s record",
			ErrMissingLookupKey, rel.Name, sourceType, sourceKey, sourceType)
	}
	return query.Table(e.tables.Resolve(rel.TargetType)).
		Select("*").
		WhereIn(targetKey, values.flatten(nil)), nil
}

// SourceColumns returns the columns of resourceType that includes read their
// lookup values from, in include order and without duplicates.
func (e *Engine) SourceColumns(resourceType string, includes []string) ([]string, error) {
	columns := make([]string, 0, len(includes))
	seen := make(map[string]bool, len(includes))
	for _, name := range includes {
		rel, ok := e.registry.Relationship(resourceType, name)
		if !ok {
			return nil, fmt.Errorf("%w %q on %q", ErrUnknownRelationship, name, resourceType)
		}
		sourceKey, _, err := lookupKeys(rel, resourceType)
		if err != nil {
			return nil, err
		}
		if !seen[sourceKey] {
			seen[sourceKey] = true
			columns = append(columns, sourceKey)
		}
	}
	return columns, nil
}
