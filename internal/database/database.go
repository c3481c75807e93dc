// Package database opens the PostgreSQL pool behind the recognition audit log.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/jackc/pgx/v5/stdlib"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/zap"

	"platereader/internal/config"
	"platereader/internal/database/migration"
)

// ApplicationName tags audit connections in pg_stat_activity.
const ApplicationName = "platereader"

// The audit log writes one small row per proxied call after the upstream answer,
// so a handful of connections covers the request rate the recognizer allows.
const (
	DefaultMaxOpenConns    = 4
	DefaultMaxIdleConns    = 2
	DefaultConnMaxLifetime = 30 * time.Minute
	DefaultConnMaxIdleTime = 5 * time.Minute

	connectTimeoutSec = 5
)

var ErrIncompleteConfig = errors.New("database config requires host, port, user and name")

var sqlOpen = sql.Open

// BuildAuditDSN returns the pgx URL for the audit database. Every connection
// identifies itself as ApplicationName and gives up connecting after a few seconds.
func BuildAuditDSN(c config.DatabaseConfig) (string, error) {
	if c.Host == "" || c.Port == "" || c.User == "" || c.Name == "" {
		return "", ErrIncompleteConfig
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   c.Name,
		User:   url.User(c.User),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}

	q := url.Values{}
	q.Set("application_name", ApplicationName)
	q.Set("connect_timeout", fmt.Sprint(connectTimeoutSec))
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Pool is the effective connection pool shape.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

// PoolFor fills unset values with the audit defaults. Idle connections never
// exceed open ones.
func PoolFor(c config.DatabaseConfig) Pool {
	p := Pool{
		MaxOpen:     DefaultMaxOpenConns,
		MaxIdle:     DefaultMaxIdleConns,
		MaxLifetime: DefaultConnMaxLifetime,
		MaxIdleTime: DefaultConnMaxIdleTime,
	}
	if c.MaxOpenConns > 0 {
		p.MaxOpen = c.MaxOpenConns
	}
	if c.MaxIdleConns > 0 {
		p.MaxIdle = c.MaxIdleConns
	}
	if c.ConnMaxLifetimeSec > 0 {
		p.MaxLifetime = time.Duration(c.ConnMaxLifetimeSec) * time.Second
	}
	if p.MaxIdle > p.MaxOpen {
		p.MaxIdle = p.MaxOpen
	}
	return p
}

func (p Pool) apply(db *sql.DB) {
	db.SetMaxOpenConns(p.MaxOpen)
	db.SetMaxIdleConns(p.MaxIdle)
	db.SetConnMaxLifetime(p.MaxLifetime)
	db.SetConnMaxIdleTime(p.MaxIdleTime)
}

// NewAuditDB opens the traced audit pool, checks it is reachable and makes sure
// the audit schema exists. The pool is closed again on any failure.
func NewAuditDB(ctx context.Context, c config.DatabaseConfig, log *zap.Logger) (*sql.DB, error) {
	dsn, err := BuildAuditDSN(c)
	if err != nil {
		return nil, err
	}

	driverName, err := otelsql.Register("pgx",
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL, semconv.DBName(c.Name)),
		otelsql.WithSQLCommenter(true),
	)
	if err != nil {
		return nil, fmt.Errorf("register otelsql: %w", err)
	}

	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	pool := PoolFor(c)
	pool.apply(db)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeoutSec*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	if err := migration.EnsureMigrated(ctx, db, log, c.Host); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Info("audit_db_ready",
		zap.String("db_host", c.Host),
		zap.String("db_name", c.Name),
		zap.Int("max_open_conns", pool.MaxOpen),
		zap.Int("max_idle_conns", pool.MaxIdle),
	)
	return db, nil
}
