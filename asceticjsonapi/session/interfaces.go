package session

import (
	"context"
)

type Session interface {
	Context() context.Context
}

type SessionPoolCallback func(Session) error

// SessionPool hands out request-scoped sessions. A session is never shared
// between goroutines, so concurrent work acquires one session each.
type SessionPool interface {
	Session(context.Context, SessionPoolCallback) error
}

// Db

type Result interface {
	RowsAffected() (int64, error)
}

type Rows interface {
	Close() error
	Err() error
	Next() bool
	Scan(dest ...any) error
	Columns() []string
}

type DbExecutor interface {
	Exec(query string, args ...any) (Result, error)
}

type DbQuerier interface {
	Query(query string, args ...any) (Rows, error)
}

type DbConnection interface {
	DbExecutor
	DbQuerier
}

type DbSession interface {
	Session
	Connection() DbConnection
}
