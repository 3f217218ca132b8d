package jsonapi

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/query"
	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/schema"
)

// aggregate runs the primary query once and then resolves every include
// concurrently. Every descriptor is looked up before the primary query and
// every secondary query is planned before any of them runs.
func (e *Engine) aggregate(ctx context.Context, primary *query.Builder, single bool, sourceType string, includes []string) (*Document, error) {
	relationships := make([]schema.Relationship, len(includes))
	for i, name := range includes {
		rel, ok := e.registry.Relationship(sourceType, name)
		if !ok {
			return nil, fmt.Errorf("%w %q on %q", ErrUnknownRelationship, name, sourceType)
		}
		relationships[i] = rel
	}

	records, err := e.fetch(ctx, primary)
	if err != nil {
		return nil, err
	}
	result := Many(records)
	if single {
		var record query.Record
		if len(records) > 0 {
			record = records[0]
		}
		result = One(record)
	}

	doc := &Document{Data: result}
	if len(relationships) == 0 || result.Empty() {
		return doc, nil
	}

	plans := make([]*query.Builder, len(relationships))
	for i, rel := range relationships {
		plans[i], err = e.relationshipQuery(rel, sourceType, result)
		if err != nil {
			return nil, err
		}
	}

	resolved := make([][]query.Record, len(plans))
	g, gctx := errgroup.WithContext(ctx)
	for i, plan := range plans {
		i, plan := i, plan
		g.Go(func() error {
			records, err := e.fetch(gctx, plan)
			if err != nil {
				return err
			}
			resolved[i] = records
			e.logger.Debug().
				Str("type", sourceType).
				Str("relationship", relationships[i].Name).
				Str("target", relationships[i].TargetType).
				Int("count", len(records)).
				Msg("include resolved")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Keyed by target type: two relationships sharing a target type collide
	// and the later one in include order wins.
	doc.Included = make(map[string][]query.Record, len(relationships))
	for i, rel := range relationships {
		doc.Included[rel.TargetType] = resolved[i]
	}
	return doc, nil
}
