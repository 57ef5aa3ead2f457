package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"finance-tracker/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	// Register the pgx database/sql driver
	_ "github.com/jackc/pgx/v5/stdlib"
	// Import sqlite driver
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a record does not exist or belongs to another user.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique name is already taken.
	ErrDuplicate = errors.New("already exists")
	// ErrMismatch is returned when two referenced records do not belong together.
	ErrMismatch = errors.New("records do not match")
)

// DB wraps a sql.DB connection.
type DB struct {
	conn    *sql.DB
	dialect dialect
}

// NewDB opens a SQLite database at path and runs migrations.
func NewDB(path string) (*DB, error) {
	return Open("sqlite", path)
}

// Open opens a database with the given driver ("sqlite" or "pgx") and runs migrations.
func Open(driver, dsn string) (*DB, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	conn, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, err
	}

	if d.singleConn {
		// An in-memory SQLite database lives and dies with its connection.
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn, dialect: d}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

func (db *DB) migrate() error {
	for _, m := range db.dialect.migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Driver returns the name of the database driver in use.
func (db *DB) Driver() string {
	return db.dialect.driver
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// runner rebinds placeholders for the dialect before running a query.
type runner struct {
	q querier
	d dialect
}

func (r runner) exec(query string, args ...any) (sql.Result, error) {
	return r.q.Exec(r.d.rebind(query), args...)
}

func (r runner) query(query string, args ...any) (*sql.Rows, error) {
	return r.q.Query(r.d.rebind(query), args...)
}

func (r runner) queryRow(query string, args ...any) *sql.Row {
	return r.q.QueryRow(r.d.rebind(query), args...)
}

// insert runs an INSERT ... RETURNING id statement.
func (r runner) insert(query string, args ...any) (int64, error) {
	var id int64
	if err := r.queryRow(query+" RETURNING id", args...).Scan(&id); err != nil {
		return 0, translate(err)
	}
	return id, nil
}

func (db *DB) run() runner {
	return runner{q: db.conn, d: db.dialect}
}

// inTx runs fn inside a database transaction.
func (db *DB) inTx(fn func(r runner) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	if err := fn(runner{q: tx, d: db.dialect}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicate
	}
	return err
}

// utc normalizes times before they are written or compared.
func utc(t time.Time) time.Time {
	return t.UTC()
}

// CreateUser creates a new user with the given email and password hash.
func (db *DB) CreateUser(email, passwordHash string) (*models.User, error) {
	id, err := db.run().insert(
		"INSERT INTO users (email, password_hash, created_at) VALUES (?, ?, ?)",
		email, passwordHash, utc(time.Now()),
	)
	if err != nil {
		return nil, err
	}
	return db.GetUserByID(id)
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(id int64) (*models.User, error) {
	return db.scanUser(db.run().queryRow(
		"SELECT id, email, password_hash, created_at FROM users WHERE id = ?",
		id,
	))
}

// GetUserByEmail retrieves a user by email.
func (db *DB) GetUserByEmail(email string) (*models.User, error) {
	return db.scanUser(db.run().queryRow(
		"SELECT id, email, password_hash, created_at FROM users WHERE email = ?",
		email,
	))
}

func (db *DB) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, translate(err)
	}
	u.CreatedAt = u.CreatedAt.Local()
	return &u, nil
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount() (int, error) {
	var count int
	err := db.run().queryRow("SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// CreateSession creates a new session for a user.
func (db *DB) CreateSession(token string, userID int64, expiresAt time.Time) error {
	_, err := db.run().exec(
		"INSERT INTO sessions (token, user_id, expires_at, last_activity) VALUES (?, ?, ?, ?)",
		token, userID, utc(expiresAt), utc(time.Now()),
	)
	return err
}

// SessionInfo holds session validation data.
type SessionInfo struct {
	User         *models.User
	LastActivity time.Time
	ExpiresAt    time.Time
}

// ValidateSession checks if a session token is valid and returns the associated user.
func (db *DB) ValidateSession(token string) (*models.User, error) {
	info, err := db.ValidateSessionWithInfo(token)
	if err != nil {
		return nil, err
	}
	return info.User, nil
}

// ValidateSessionWithInfo checks if a session token is valid and returns session details.
func (db *DB) ValidateSessionWithInfo(token string) (*SessionInfo, error) {
	row := db.run().queryRow(`
		SELECT u.id, u.email, u.password_hash, u.created_at, s.last_activity, s.expires_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > ?
	`, token, utc(time.Now()))

	var u models.User
	var lastActivity, expiresAt time.Time
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &lastActivity, &expiresAt); err != nil {
		return nil, translate(err)
	}
	return &SessionInfo{
		User:         &u,
		LastActivity: lastActivity,
		ExpiresAt:    expiresAt,
	}, nil
}

// RenewSession updates the last_activity and expires_at for a session.
func (db *DB) RenewSession(token string, newExpiresAt time.Time) error {
	_, err := db.run().exec(
		"UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?",
		utc(time.Now()), utc(newExpiresAt), token,
	)
	return err
}

// DeleteSession removes a session by token.
func (db *DB) DeleteSession(token string) error {
	_, err := db.run().exec("DELETE FROM sessions WHERE token = ?", token)
	return err
}

// CleanExpiredSessions removes all expired sessions and reports how many were removed.
func (db *DB) CleanExpiredSessions() (int64, error) {
	res, err := db.run().exec("DELETE FROM sessions WHERE expires_at <= ?", utc(time.Now()))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
