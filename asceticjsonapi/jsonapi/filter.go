package jsonapi

import (
	"fmt"
	"strings"
)

const includeKey = "include"

// Join selects Fields from the primary table left-outer-joined with Table on Left = Right.
type Join struct {
	Fields []string
	Table  string
	Left   string
	Right  string
}

// Filter narrows a find request. Params and Query both become equality
// predicates; Query may also carry the comma separated "include" list.
type Filter struct {
	Params map[string]any
	Query  map[string]any
	Join   *Join
}

// ParseFilter splits the include list off filter.Query. The returned filter
// holds a copy of Query without the include key; filter itself is left as is.
func ParseFilter(filter Filter) (Filter, []string) {
	raw, ok := filter.Query[includeKey]
	if !ok {
		return filter, nil
	}

	query := make(map[string]any, len(filter.Query)-1)
	for k, v := range filter.Query {
		if k != includeKey {
			query[k] = v
		}
	}
	core := filter
	core.Query = query
	return core, splitIncludes(raw)
}

func splitIncludes(raw any) []string {
	var parts []string
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		parts = strings.Split(v, ",")
	case []string:
		for _, s := range v {
			parts = append(parts, strings.Split(s, ",")...)
		}
	default:
		parts = strings.Split(fmt.Sprint(v), ",")
	}

	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			names = append(names, name)
		}
	}
	return names
}
