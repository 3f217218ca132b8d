package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSchema(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeSchema(t, `{
		"tables": {"people": "persons"},
		"resources": {
			"dogs": {"owner": {"type": "people", "kind": "belongsTo"}},
			"people": {"dogs": {"type": "dogs", "kind": "hasMany", "foreignKey": "owner_id", "idKey": "uid"}}
		}
	}`)

	registry, tables, err := Load(path)
	require.NoError(t, err)

	rel, ok := registry.Relationship("dogs", "owner")
	require.True(t, ok)
	assert.Equal(t, Relationship{Name: "owner", TargetType: "people", Kind: BelongsTo}, rel)

	rel, ok = registry.Relationship("people", "dogs")
	require.True(t, ok)
	assert.Equal(t, Relationship{
		Name: "dogs", TargetType: "dogs", Kind: HasMany, ForeignKey: "owner_id", IDKey: "uid",
	}, rel)

	assert.Equal(t, "persons", tables.Resolve("people"))
	assert.Equal(t, "dogs", tables.Resolve("dogs"))
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestBuildCollectsEveryInvalidDescriptor(t *testing.T) {
	_, _, err := Build(Document{
		Resources: map[string]map[string]RelationshipDoc{
			"dogs": {
				"owner": {Type: "people", Kind: "belongsTo"},
				"vet":   {Type: "vets", Kind: "manyToMany"},
			},
			"people": {"dogs": {Kind: "hasMany"}},
		},
	})
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)
	assert.Contains(t, err.Error(), `relationship "vet" of "dogs"`)
	assert.Contains(t, err.Error(), `relationship "dogs" of "people"`)
}
