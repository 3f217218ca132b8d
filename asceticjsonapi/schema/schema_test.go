package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryRelationship(t *testing.T) {
	r := NewRegistry(map[string]map[string]Relationship{
		"dogs": {"owner": {TargetType: "people", Kind: BelongsTo}},
	})

	rel, ok := r.Relationship("dogs", "owner")
	assert.True(t, ok)
	assert.Equal(t, Relationship{Name: "owner", TargetType: "people", Kind: BelongsTo}, rel)

	_, ok = r.Relationship("dogs", "vet")
	assert.False(t, ok)
	_, ok = r.Relationship("cats", "owner")
	assert.False(t, ok)
}

func TestRegistryIsDetachedFromInput(t *testing.T) {
	definitions := map[string]map[string]Relationship{
		"dogs": {"owner": {TargetType: "people", Kind: BelongsTo}},
	}
	r := NewRegistry(definitions)

	definitions["dogs"]["owner"] = Relationship{TargetType: "cats", Kind: HasMany}
	definitions["dogs"]["vet"] = Relationship{TargetType: "vets", Kind: BelongsTo}

	rel, _ := r.Relationship("dogs", "owner")
	assert.Equal(t, "people", rel.TargetType)
	_, ok := r.Relationship("dogs", "vet")
	assert.False(t, ok)
}

func TestNilRegistry(t *testing.T) {
	var r *Registry
	_, ok := r.Relationship("dogs", "owner")
	assert.False(t, ok)
}

func TestTableMapResolve(t *testing.T) {
	m := NewTableMap(map[string]string{"people": "persons"})
	assert.Equal(t, "persons", m.Resolve("people"))
	assert.Equal(t, "dogs", m.Resolve("dogs"))

	var zero TableMap
	assert.Equal(t, "dogs", zero.Resolve("dogs"))
}
