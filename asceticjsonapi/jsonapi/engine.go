package jsonapi

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/query"
	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/schema"
	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/session"
)

// Config carries the schema the engine resolves against. Both parts are
// immutable and shared by every request.
type Config struct {
	Registry *schema.Registry
	Tables   schema.TableMap
}

type Option func(*Engine)

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine translates resource requests into table queries and stitches the
// results back into documents.
type Engine struct {
	pool     session.SessionPool
	registry *schema.Registry
	tables   schema.TableMap
	logger   zerolog.Logger
}

func New(pool session.SessionPool, cfg Config, opts ...Option) *Engine {
	registry := cfg.Registry
	if registry == nil {
		registry = schema.NewRegistry(nil)
	}
	e := &Engine{
		pool:     pool,
		registry: registry,
		tables:   cfg.Tables,
		logger:   zerolog.Nop(),
	}
	for i := range opts {
		opts[i](e)
	}
	return e
}

// FindAll returns every row of resourceType matching filter.
func (e *Engine) FindAll(ctx context.Context, resourceType string, fields []string, filter Filter) (*Document, error) {
	core, includes := ParseFilter(filter)
	return e.aggregate(ctx, e.compose(resourceType, fields, core), false, resourceType, includes)
}

// FindOne returns the first row of resourceType matching filter. The
// document's Data is empty when no row matches.
func (e *Engine) FindOne(ctx context.Context, resourceType string, fields []string, filter Filter) (*Document, error) {
	core, includes := ParseFilter(filter)
	return e.aggregate(ctx, e.compose(resourceType, fields, core).First(), true, resourceType, includes)
}

// compose builds the unexecuted primary query. Join mode ignores fields.
func (e *Engine) compose(resourceType string, fields []string, core Filter) *query.Builder {
	qb := query.Table(e.tables.Resolve(resourceType))
	if core.Join != nil {
		qb.Select(core.Join.Fields...).
			LeftOuterJoin(core.Join.Table, core.Join.Left, core.Join.Right)
	} else if len(fields) > 0 {
		qb.Select(fields...)
	}
	if len(core.Params) > 0 {
		qb.Where(core.Params)
	}
	if len(core.Query) > 0 {
		qb.Where(core.Query)
	}
	return qb
}

func (e *Engine) fetch(ctx context.Context, qb *query.Builder) ([]query.Record, error) {
	var records []query.Record
	err := e.pool.Session(ctx, func(s session.Session) error {
		var err error
		records, err = qb.Fetch(s.(session.DbSession))
		return err
	})
	return records, err
}
