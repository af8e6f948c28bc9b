package database

import (
	"database/sql"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// applicationName tags our sessions in pg_stat_activity
const applicationName = "bilingual"

// PostgresDialect implements Dialect for a shared PostgreSQL server
type PostgresDialect struct{}

// NewPostgresDialect creates a new PostgreSQL dialect
func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

// DSN adds application_name unless the URL already sets one. Both the URL and
// the key=value forms accepted by lib/pq are handled.
func (d *PostgresDialect) DSN(config DialectConfig) string {
	dsn := config.URL
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return dsn
		}
		q := u.Query()
		if q.Get("application_name") == "" {
			q.Set("application_name", applicationName)
			u.RawQuery = q.Encode()
		}
		return u.String()
	}
	if dsn == "" || strings.Contains(dsn, "application_name=") {
		return dsn
	}
	return dsn + " application_name=" + applicationName
}

func (d *PostgresDialect) RewriteQuery(query string) string {
	return rewritePlaceholdersToNumbered(query)
}

// ConfigureConnection keeps a small pool. Several learners may share one
// server, so idle connections are released quickly.
func (d *PostgresDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)
	return nil
}

func (d *PostgresDialect) MigrationsSubdir() string {
	return "postgres"
}

func (d *PostgresDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id BIGSERIAL PRIMARY KEY,
			filename TEXT UNIQUE NOT NULL,
			executed_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);
	`
}

// UpsertMasteryQuery skips the write when the stored row is already identical
func (d *PostgresDialect) UpsertMasteryQuery() string {
	return `
		INSERT INTO mastery (profile_id, category, lesson, question_id, language, success_rate, tries, last_success, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (profile_id, category, lesson, question_id, language) DO UPDATE SET
			success_rate = EXCLUDED.success_rate,
			tries = EXCLUDED.tries,
			last_success = EXCLUDED.last_success,
			updated_at = EXCLUDED.updated_at
		WHERE (mastery.success_rate, mastery.tries, mastery.last_success)
			IS DISTINCT FROM (EXCLUDED.success_rate, EXCLUDED.tries, EXCLUDED.last_success)
	`
}
