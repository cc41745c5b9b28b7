// Package store implements the local record store on MySQL. Each family has
// a repository with raw SQL queries over a shared *sql.DB pool.
package store

import (
	"context"
	"database/sql"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/cohabs/stripesync/pkg/constants"
	"github.com/cohabs/stripesync/pkg/errors"
)

// Config holds the MySQL connection settings.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// DSN returns the driver DSN for c. Times are parsed as UTC.
func (c Config) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, c.Port)
	cfg.DBName = c.Name
	if cfg.DBName == "" {
		cfg.DBName = constants.DefaultDatabase
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

// Open connects to MySQL and verifies the connection.
func Open(ctx context.Context, c Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", c.DSN())
	if err != nil {
		return nil, errors.WrapResource("open", "database", c.Name, err)
	}

	db.SetMaxOpenConns(constants.MaxOpenConns)
	db.SetMaxIdleConns(constants.MaxIdleConns)
	db.SetConnMaxLifetime(constants.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, constants.DatabasePingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.WrapResource("ping", "database", c.Name, err)
	}
	return db, nil
}

// Store groups the three family repositories over one pool.
type Store struct {
	db     *sql.DB
	Users  *UserRepo
	Rooms  *RoomRepo
	Leases *LeaseRepo
}

// New returns a Store over db. activeOnly restricts users to active rows.
func New(db *sql.DB, activeOnly bool) *Store {
	return &Store{
		db:     db,
		Users:  NewUserRepo(db, activeOnly),
		Rooms:  NewRoomRepo(db),
		Leases: NewLeaseRepo(db),
	}
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// str unwraps a nullable column; NULL reads as empty.
func str(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

// updateLink sets one link column of one row. Zero affected rows is not an
// error: the subsequent re-read reports the missing row.
func updateLink(ctx context.Context, db *sql.DB, query, table, id, remoteID string) error {
	if _, err := db.ExecContext(ctx, query, remoteID, id); err != nil {
		return errors.WrapResource("update", table, id, err)
	}
	return nil
}
