package jsonapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/query"
	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/session"
)

// Create inserts the flattened payload and returns the stored row.
func (e *Engine) Create(ctx context.Context, resourceType string, payload Payload) (query.Record, error) {
	var record query.Record
	err := e.pool.Session(ctx, func(s session.Session) error {
		var err error
		record, err = query.Table(e.tables.Resolve(resourceType)).Insert(s.(session.DbSession), payload.Attributes())
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Update writes the flattened payload to the row with id and reads it back.
func (e *Engine) Update(ctx context.Context, resourceType, id string, payload Payload) (*Document, error) {
	key, err := identifier(resourceType, id)
	if err != nil {
		return nil, err
	}
	values := payload.Attributes()
	if len(values) > 0 {
		err = e.pool.Session(ctx, func(s session.Session) error {
			_, err := query.Table(e.tables.Resolve(resourceType)).
				Where(map[string]any{defaultIDKey: key}).
				Update(s.(session.DbSession), values)
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	return e.FindOne(ctx, resourceType, []string{"*"}, Filter{Params: map[string]any{defaultIDKey: key}})
}

// Delete removes the row with id. Deleting a missing row is not an error.
func (e *Engine) Delete(ctx context.Context, resourceType, id string) error {
	key, err := identifier(resourceType, id)
	if err != nil {
		return err
	}
	return e.pool.Session(ctx, func(s session.Session) error {
		_, err := query.Table(e.tables.Resolve(resourceType)).
			Where(map[string]any{defaultIDKey: key}).
			Delete(s.(session.DbSession))
		return err
	})
}

// UpdateRelationship is not supported; relationships are written through
// Create and Update only.
func (e *Engine) UpdateRelationship(_ context.Context, resourceType, id, relationship string, _ Payload) error {
	return fmt.Errorf("%w: updating relationship %q of %s %q", ErrUnsupportedOperation, relationship, resourceType, id)
}

func identifier(resourceType, id string) (any, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty id for %q", ErrInvalidID, resourceType)
	}
	return ParseID(id), nil
}
