package testutils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/session"
	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/session/result"
)

// ExecutedQuery is one statement seen by the stub.
type ExecutedQuery struct {
	SQL    string
	Params []any
}

type response struct {
	fragment     string
	columns      []string
	rows         [][]any
	rowsAffected int64
	err          error
}

// NewSessionPoolStub returns a pool whose sessions answer queries from
// registered responses. A response matches when its fragment occurs in the
// SQL text; the first registered match wins. Unmatched queries return no rows.
func NewSessionPoolStub() *SessionPoolStub {
	return &SessionPoolStub{}
}

type SessionPoolStub struct {
	mu        sync.Mutex
	responses []response
	executed  []ExecutedQuery
	sessions  int
}

func (p *SessionPoolStub) Returns(fragment string, columns []string, rows ...[]any) *SessionPoolStub {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses = append(p.responses, response{fragment: fragment, columns: columns, rows: rows})
	return p
}

func (p *SessionPoolStub) Affects(fragment string, rowsAffected int64) *SessionPoolStub {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses = append(p.responses, response{fragment: fragment, rowsAffected: rowsAffected})
	return p
}

func (p *SessionPoolStub) Fails(fragment string, err error) *SessionPoolStub {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses = append(p.responses, response{fragment: fragment, err: err})
	return p
}

// Queries returns the executed statements in execution order.
func (p *SessionPoolStub) Queries() []ExecutedQuery {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ExecutedQuery(nil), p.executed...)
}

// QueriesMatching returns the executed statements containing fragment.
func (p *SessionPoolStub) QueriesMatching(fragment string) []ExecutedQuery {
	var matching []ExecutedQuery
	for _, q := range p.Queries() {
		if strings.Contains(q.SQL, fragment) {
			matching = append(matching, q)
		}
	}
	return matching
}

// Sessions returns how many sessions were handed out.
func (p *SessionPoolStub) Sessions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessions
}

func (p *SessionPoolStub) Session(ctx context.Context, callback session.SessionPoolCallback) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.sessions++
	p.mu.Unlock()
	return callback(NewDbSessionStub(ctx, p))
}

func (p *SessionPoolStub) record(query string, args []any) response {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.executed = append(p.executed, ExecutedQuery{SQL: query, Params: args})
	for _, r := range p.responses {
		if strings.Contains(query, r.fragment) {
			return r
		}
	}
	return response{rowsAffected: 1}
}

func NewDbSessionStub(ctx context.Context, pool *SessionPoolStub) *DbSessionStub {
	stub := &DbSessionStub{ctx: ctx}
	stub.conn = &connectionStub{pool: pool}
	return stub
}

type DbSessionStub struct {
	ctx  context.Context
	conn *connectionStub
}

func (s *DbSessionStub) Context() context.Context {
	return s.ctx
}

func (s *DbSessionStub) Connection() session.DbConnection {
	return s.conn
}

type connectionStub struct {
	pool *SessionPoolStub
}

func (c *connectionStub) Exec(query string, args ...any) (session.Result, error) {
	r := c.pool.record(query, args)
	if r.err != nil {
		return nil, r.err
	}
	return result.NewResult(r.rowsAffected), nil
}

func (c *connectionStub) Query(query string, args ...any) (session.Rows, error) {
	r := c.pool.record(query, args)
	if r.err != nil {
		return nil, r.err
	}
	return NewRowsStub(r.columns, r.rows...), nil
}

func NewRowsStub(columns []string, rows ...[]any) *RowsStub {
	return &RowsStub{
		columns: columns,
		rows:    rows,
		idx:     -1,
		Closed:  false,
	}
}

type RowsStub struct {
	columns []string
	rows    [][]any
	idx     int
	Closed  bool
}

func (r *RowsStub) Close() error {
	r.Closed = true
	return nil
}

func (r *RowsStub) Err() error {
	return nil
}

func (r *RowsStub) Columns() []string {
	return r.columns
}

func (r *RowsStub) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}

func (r *RowsStub) Scan(dest ...any) error {
	if r.idx < 0 || r.idx >= len(r.rows) {
		return errors.New("no current row")
	}

	// Columns without a value in the row scan as NULL.
	row := r.rows[r.idx]
	for i := range dest {
		d, ok := dest[i].(*any)
		if !ok {
			return fmt.Errorf("unsupported scan destination %T", dest[i])
		}
		*d = nil
		if i < len(row) {
			*d = row[i]
		}
	}
	return nil
}
