package database

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"testing"
	"time"

	"platereader/internal/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const sentinelQuery = `SELECT to_regclass\('public.recognition_audit'\) IS NOT NULL`

var auditConf = config.DatabaseConfig{
	Host:     "db.internal",
	Port:     "5432",
	User:     "reader",
	Password: "p@ss word",
	Name:     "plates",
	SSLMode:  "require",
}

func TestBuildAuditDSN(t *testing.T) {
	dsn, err := BuildAuditDSN(auditConf)
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	pass, _ := u.User.Password()

	assert.Equal(t, "db.internal:5432", u.Host)
	assert.Equal(t, "/plates", u.Path)
	assert.Equal(t, "p@ss word", pass)
	assert.Equal(t, ApplicationName, u.Query().Get("application_name"))
	assert.Equal(t, "5", u.Query().Get("connect_timeout"))
	assert.Equal(t, "require", u.Query().Get("sslmode"))
}

func TestBuildAuditDSN_IPv6AndNoSSLMode(t *testing.T) {
	c := auditConf
	c.Host, c.SSLMode, c.Password = "::1", "", ""

	dsn, err := BuildAuditDSN(c)
	require.NoError(t, err)
	assert.Equal(t, "postgres://reader@[::1]:5432/plates?application_name=platereader&connect_timeout=5", dsn)
}

func TestBuildAuditDSN_Incomplete(t *testing.T) {
	for _, drop := range []func(*config.DatabaseConfig){
		func(c *config.DatabaseConfig) { c.Host = "" },
		func(c *config.DatabaseConfig) { c.Port = "" },
		func(c *config.DatabaseConfig) { c.User = "" },
		func(c *config.DatabaseConfig) { c.Name = "" },
	} {
		c := auditConf
		drop(&c)
		_, err := BuildAuditDSN(c)
		assert.ErrorIs(t, err, ErrIncompleteConfig)
	}
}

func TestPoolFor(t *testing.T) {
	tests := []struct {
		name string
		conf config.DatabaseConfig
		want Pool
	}{
		{
			name: "defaults",
			want: Pool{MaxOpen: DefaultMaxOpenConns, MaxIdle: DefaultMaxIdleConns, MaxLifetime: DefaultConnMaxLifetime, MaxIdleTime: DefaultConnMaxIdleTime},
		},
		{
			name: "overrides",
			conf: config.DatabaseConfig{MaxOpenConns: 8, MaxIdleConns: 3, ConnMaxLifetimeSec: 60},
			want: Pool{MaxOpen: 8, MaxIdle: 3, MaxLifetime: time.Minute, MaxIdleTime: DefaultConnMaxIdleTime},
		},
		{
			name: "idle capped by open",
			conf: config.DatabaseConfig{MaxOpenConns: 1, MaxIdleConns: 5},
			want: Pool{MaxOpen: 1, MaxIdle: 1, MaxLifetime: DefaultConnMaxLifetime, MaxIdleTime: DefaultConnMaxIdleTime},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PoolFor(tt.conf))
		})
	}
}

// stubOpen routes sqlOpen to a sqlmock pool and records the DSN it was given.
func stubOpen(t *testing.T, db *sql.DB, openErr error) *string {
	t.Helper()
	var gotDSN string
	orig := sqlOpen
	sqlOpen = func(driverName, dataSourceName string) (*sql.DB, error) {
		gotDSN = dataSourceName
		return db, openErr
	}
	t.Cleanup(func() { sqlOpen = orig })
	return &gotDSN
}

func TestNewAuditDB(t *testing.T) {
	ctx := context.Background()

	t.Run("ready with existing schema", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		gotDSN := stubOpen(t, db, nil)

		mock.ExpectPing()
		mock.ExpectQuery(sentinelQuery).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		core, logs := observer.New(zap.InfoLevel)
		gotDB, err := NewAuditDB(ctx, auditConf, zap.New(core))
		require.NoError(t, err)
		assert.Same(t, db, gotDB)
		assert.Contains(t, *gotDSN, "application_name=platereader")
		assert.Equal(t, DefaultMaxOpenConns, gotDB.Stats().MaxOpenConnections)
		assert.Equal(t, 1, logs.FilterMessage("audit_db_ready").Len())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("creates schema on first start", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		stubOpen(t, db, nil)

		mock.ExpectPing()
		mock.ExpectQuery(sentinelQuery).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS recognition_audit").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_recognition_audit_created_at").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_recognition_audit_status").WillReturnResult(sqlmock.NewResult(0, 0))

		_, err = NewAuditDB(ctx, auditConf, zap.NewNop())
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("migration failure closes the pool", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		stubOpen(t, db, nil)

		mock.ExpectPing()
		mock.ExpectQuery(sentinelQuery).WillReturnError(errors.New("permission denied"))
		mock.ExpectClose()

		gotDB, err := NewAuditDB(ctx, auditConf, zap.NewNop())
		assert.ErrorContains(t, err, "permission denied")
		assert.Nil(t, gotDB)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ping failure closes the pool", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		stubOpen(t, db, nil)

		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		mock.ExpectClose()

		gotDB, err := NewAuditDB(ctx, auditConf, zap.NewNop())
		assert.ErrorContains(t, err, "db ping: connection refused")
		assert.Nil(t, gotDB)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("open failure", func(t *testing.T) {
		stubOpen(t, nil, errors.New("open error"))

		gotDB, err := NewAuditDB(ctx, auditConf, zap.NewNop())
		assert.ErrorContains(t, err, "sql open: open error")
		assert.Nil(t, gotDB)
	})

	t.Run("incomplete config never opens", func(t *testing.T) {
		gotDSN := stubOpen(t, nil, errors.New("must not be called"))

		_, err := NewAuditDB(ctx, config.DatabaseConfig{Host: "db.internal"}, zap.NewNop())
		assert.ErrorIs(t, err, ErrIncompleteConfig)
		assert.Empty(t, *gotDSN)
	})
}
