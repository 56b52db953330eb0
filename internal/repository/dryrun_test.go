package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

var errNoDatabase = errors.New("dry run connection does not execute statements")

// dryConn 满足 gorm.ConnPool，配合 DryRun 只生成 SQL，不连接数据库
type dryConn struct{}

func (*dryConn) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	return nil, errNoDatabase
}

func (*dryConn) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, errNoDatabase
}

func (*dryConn) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, errNoDatabase
}

func (*dryConn) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func (*dryConn) BeginTx(ctx context.Context, opts *sql.TxOptions) (gorm.ConnPool, error) {
	return &dryTx{}, nil
}

type dryTx struct{ dryConn }

func (*dryTx) Commit() error   { return nil }
func (*dryTx) Rollback() error { return nil }

// sqlRecorder 作为 gorm 日志记录每条语句展开参数后的 SQL
type sqlRecorder struct {
	mu         sync.Mutex
	statements []string
}

func (r *sqlRecorder) LogMode(logger.LogLevel) logger.Interface      { return r }
func (r *sqlRecorder) Info(context.Context, string, ...interface{})  {}
func (r *sqlRecorder) Warn(context.Context, string, ...interface{})  {}
func (r *sqlRecorder) Error(context.Context, string, ...interface{}) {}

func (r *sqlRecorder) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	stmt, _ := fc()
	r.mu.Lock()
	r.statements = append(r.statements, stmt)
	r.mu.Unlock()
}

func (r *sqlRecorder) All() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.statements...)
}

func (r *sqlRecorder) Last(t *testing.T) string {
	t.Helper()
	all := r.All()
	require.NotEmpty(t, all, "no statement was generated")
	return all[len(all)-1]
}

func newDryRunDB(t *testing.T) (*gorm.DB, *sqlRecorder) {
	t.Helper()
	rec := &sqlRecorder{}
	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      &dryConn{},
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DryRun:  true,
		Logger:  rec,
		NowFunc: func() time.Time { return testNow },
	})
	require.NoError(t, err)
	return db, rec
}
