package schema

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// Document is the on-disk shape of a schema file:
//
//	{
//	  "tables": {"people": "persons"},
//	  "resources": {
//	    "dogs": {"owner": {"type": "people", "kind": "belongsTo"}},
//	    "people": {"dogs": {"type": "dogs", "kind": "hasMany", "foreignKey": "owner_id"}}
//	  }
//	}
type Document struct {
	Tables    map[string]string                     `koanf:"tables"`
	Resources map[string]map[string]RelationshipDoc `koanf:"resources"`
}

type RelationshipDoc struct {
	Type       string `koanf:"type" validate:"required"`
	Kind       string `koanf:"kind" validate:"required,oneof=belongsTo hasMany"`
	ForeignKey string `koanf:"foreignKey"`
	IDKey      string `koanf:"idKey"`
}

// Load reads a JSON schema file and builds the registry and table map from it.
func Load(path string) (*Registry, TableMap, error) {
	// Keys are resource and relationship names; a dot inside one must not nest.
	k := koanf.New("\x00")
	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return nil, TableMap{}, errors.Wrapf(err, "unable to read schema file %s", path)
	}
	var doc Document
	if err := k.Unmarshal("", &doc); err != nil {
		return nil, TableMap{}, errors.Wrapf(err, "unable to decode schema file %s", path)
	}
	return Build(doc)
}

// Build validates every descriptor and reports all problems at once.
func Build(doc Document) (*Registry, TableMap, error) {
	validate := validator.New()
	var result error

	definitions := make(map[string]map[string]Relationship, len(doc.Resources))
	for _, resourceType := range sortedKeys(doc.Resources) {
		relationships := doc.Resources[resourceType]
		definitions[resourceType] = make(map[string]Relationship, len(relationships))
		for _, name := range sortedKeys(relationships) {
			rel := relationships[name]
			if err := validate.Struct(rel); err != nil {
				result = multierror.Append(result, fmt.Errorf("relationship %q of %q: %w", name, resourceType, err))
				continue
			}
			definitions[resourceType][name] = Relationship{
				Name:       name,
				TargetType: rel.Type,
				Kind:       Kind(rel.Kind),
				ForeignKey: rel.ForeignKey,
				IDKey:      rel.IDKey,
			}
		}
	}
	if result != nil {
		return nil, TableMap{}, result
	}
	return NewRegistry(definitions), NewTableMap(doc.Tables), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
