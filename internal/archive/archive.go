// Package archive appends accepted frames to a ClickHouse table through
// sqlx. Grounded on gnssgo's app/rtkrcv/rtkrcv.go writeObs2ClickHouse,
// which opens sqlx.Open("clickhouse", tcpInfo) with a DSN built from
// host/user/password/database, then drives inserts through client.Begin/
// tx.Prepare/stmt.Exec; this package follows the same open-then-prepare
// shape for one "frame" table instead of observation records, and is the
// one storage backend the teacher's own code actually calls (see
// SPEC_FULL.md §2 for the four sibling clients left unwired).
package archive

import (
	"fmt"
	"time"

	_ "github.com/ClickHouse/clickhouse-go"
	"github.com/jmoiron/sqlx"
)

// DSNConfig names the ClickHouse connection parameters, mirroring the
// fields rtkrcv.go's writeObs2ClickHouse formats into its tcpInfo string.
type DSNConfig struct {
	Host     string
	Database string
	User     string
	Password string
}

func (c DSNConfig) dsn() string {
	return fmt.Sprintf(
		"http://%s/%s?username=%s&password=%s&database=%s&read_timeout=5&write_timeout=5",
		c.Host, c.Database, c.User, c.Password, c.Database,
	)
}

// Store appends accepted frames to a `frames` table.
type Store struct {
	db *sqlx.DB
}

// Open connects to ClickHouse and caps the connection pool, mirroring
// rtkrcv.go's client.SetMaxOpenConns(50)/SetMaxIdleConns(50).
func Open(cfg DSNConfig) (*Store, error) {
	db, err := sqlx.Open("clickhouse", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("archive: open: %w", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(50)
	return &Store{db: db}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// AppendFrame inserts one accepted or rescued frame record.
func (s *Store) AppendFrame(protocol string, frame []byte, badCRC bool, when time.Time) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("archive: begin: %w", err)
	}
	stmt, err := tx.Prepare("INSERT INTO frames (Time, Protocol, Frame, BadCRC) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("archive: prepare: %w", err)
	}
	defer stmt.Close()
	if _, err := stmt.Exec(when, protocol, frame, badCRC); err != nil {
		return fmt.Errorf("archive: exec: %w", err)
	}
	return tx.Commit()
}
