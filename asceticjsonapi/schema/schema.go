package schema

// Kind tells on which side of a relationship the foreign key lives.
type Kind string

const (
	// BelongsTo means the source record holds the foreign key.
	BelongsTo Kind = "belongsTo"
	// HasMany means every target record holds a foreign key back to the source.
	HasMany Kind = "hasMany"
)

// Relationship describes one named relationship of a resource type.
type Relationship struct {
	// Name is the relationship name as requested in an include list (e.g., "owner")
	Name string

	// TargetType is the resource type on the other side (e.g., "people")
	TargetType string

	Kind Kind

	// ForeignKey overrides the conventional foreign key column.
	// belongsTo: "<Name>_id" on the source, hasMany: "<singular source type>_id" on the target.
	ForeignKey string

	// IDKey overrides the "id" column on the side the foreign key points at.
	IDKey string
}

// Registry maps resource type -> relationship name -> descriptor.
// It is built once and never mutated, so it is shared between requests without locking.
type Registry struct {
	types map[string]map[string]Relationship
}

// NewRegistry copies definitions; later changes to the argument do not leak in.
// The map key always wins over Relationship.Name.
func NewRegistry(definitions map[string]map[string]Relationship) *Registry {
	types := make(map[string]map[string]Relationship, len(definitions))
	for resourceType, relationships := range definitions {
		copied := make(map[string]Relationship, len(relationships))
		for name, rel := range relationships {
			rel.Name = name
			copied[name] = rel
		}
		types[resourceType] = copied
	}
	return &Registry{types: types}
}

// Relationship returns the descriptor registered for resourceType under name
func (r *Registry) Relationship(resourceType, name string) (Relationship, bool) {
	if r == nil {
		return Relationship{}, false
	}
	rel, ok := r.types[resourceType][name]
	return rel, ok
}

// TableMap maps resource types to physical table names.
type TableMap struct {
	tables map[string]string
}

func NewTableMap(tables map[string]string) TableMap {
	copied := make(map[string]string, len(tables))
	for resourceType, table := range tables {
		copied[resourceType] = table
	}
	return TableMap{tables: copied}
}

// Resolve returns the physical table for resourceType, or resourceType itself when unmapped.
func (m TableMap) Resolve(resourceType string) string {
	if table, ok := m.tables[resourceType]; ok && table != "" {
		return table
	}
	return resourceType
}
