package dummydb

import (
	"context"
	"database/sql"
	"sync"

	"github.com/roboclub/backend/core"
	"github.com/roboclub/backend/core/feedback"
	"github.com/roboclub/backend/core/session"
	"github.com/roboclub/backend/core/user"
)

type (
	DB struct {
		user          *userTable
		session       *sessionTable
		participant   *participantTable
		participation *participationTable
		feedback      *feedbackTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	sessionTable struct {
		sync.RWMutex
		table map[string]*session.Session
	}

	participantTable struct {
		sync.RWMutex
		table map[string][]string // sessionID -> userIDs, join order
	}

	participationTable struct {
		sync.RWMutex
		table map[string]*session.Participation // sessionID + "/" + userID
		seq   int                                // insertion order, for stable ties
	}

	feedbackTable struct {
		sync.RWMutex
		table []feedback.Feedback // append order
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:          &userTable{table: make(map[string]*user.User)},
		session:       &sessionTable{table: make(map[string]*session.Session)},
		participant:   &participantTable{table: make(map[string][]string)},
		participation: &participationTable{table: make(map[string]*session.Participation)},
		feedback:      &feedbackTable{},
	}
	return db, nil
}

// core.DB compliance; the dummy repositories never touch SQL so the
// executor methods are inert and BeginTx hands out a no-op transactor.

var _ core.DB = (*DB)(nil)

func (db *DB) Exec(string, ...interface{}) (sql.Result, error) { return nil, nil }
func (db *DB) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (db *DB) Query(string, ...interface{}) (*sql.Rows, error) { return nil, nil }
func (db *DB) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (db *DB) QueryRow(string, ...interface{}) *sql.Row                         { return nil }
func (db *DB) QueryRowContext(context.Context, string, ...interface{}) *sql.Row { return nil }

func (db *DB) BeginTx(context.Context, *sql.TxOptions) (core.DBTransactor, error) {
	return noopTx{}, nil
}

type noopTx struct{}

var _ core.DBTransactor = noopTx{}

func (noopTx) Exec(string, ...interface{}) (sql.Result, error) { return nil, nil }
func (noopTx) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (noopTx) Query(string, ...interface{}) (*sql.Rows, error) { return nil, nil }
func (noopTx) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (noopTx) QueryRow(string, ...interface{}) *sql.Row                         { return nil }
func (noopTx) QueryRowContext(context.Context, string, ...interface{}) *sql.Row { return nil }
func (noopTx) Commit() error                                                    { return nil }
func (noopTx) Rollback() error                                                  { return nil }
