package database

import (
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"
)

// sentenceCollation compares accented sentences by their Unicode rules
const sentenceCollation = "utf8mb4_unicode_ci"

// MySQLDialect implements Dialect for a shared MySQL server
type MySQLDialect struct{}

// NewMySQLDialect creates a new MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

// DSN selects a Unicode collation unless the DSN names one. A DSN the driver
// cannot parse is returned as is so that opening it reports the error.
func (d *MySQLDialect) DSN(config DialectConfig) string {
	cfg, err := mysql.ParseDSN(config.URL)
	if err != nil {
		return config.URL
	}
	if cfg.Collation == "" {
		cfg.Collation = sentenceCollation
	}
	return cfg.FormatDSN()
}

func (d *MySQLDialect) RewriteQuery(query string) string {
	return query
}

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(2)
	// Below the server's default wait_timeout so the pool never hands out a dead connection
	db.SetConnMaxLifetime(4 * time.Minute)

	if _, err := db.Exec("SET FOREIGN_KEY_CHECKS = 1;"); err != nil {
		return err
	}
	return nil
}

func (d *MySQLDialect) MigrationsSubdir() string {
	return "mysql"
}

func (d *MySQLDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			executed_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
		);
	`
}

// UpsertMasteryQuery uses a row alias, which needs MySQL 8.0.19 or later
func (d *MySQLDialect) UpsertMasteryQuery() string {
	return `
		INSERT INTO mastery (profile_id, category, lesson, question_id, language, success_rate, tries, last_success, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) AS answered
		ON DUPLICATE KEY UPDATE
			success_rate = answered.success_rate,
			tries = answered.tries,
			last_success = answered.last_success,
			updated_at = answered.updated_at
	`
}
