// Package account implements the durable SquireAccount store: the
// officials and player accounts that persist across tournaments, backed
// by MySQL, with bcrypt-hashed credentials.
package account

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tournament-core/internal/ids"
)

// Account is a durable identity behind one or more player ids across
// tournaments: a SquireAccount.
type Account struct {
	ID           ids.AccountID
	DisplayName  string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// ErrNotFound is returned when an account id or email has no match.
var ErrNotFound = fmt.Errorf("account: not found")

// ErrEmailTaken is returned when registering an email already in use.
var ErrEmailTaken = fmt.Errorf("account: email already registered")

// ErrInvalidCredentials is returned when a login's password doesn't match.
var ErrInvalidCredentials = fmt.Errorf("account: invalid credentials")

// Store is the MySQL-backed account repository.
type Store struct {
	db   *sql.DB
	cost int
}

// NewStore builds a store against an existing database handle. cost is
// the bcrypt work factor; bcrypt.DefaultCost is used if cost <= 0.
func NewStore(db *sql.DB, cost int) *Store {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &Store{db: db, cost: cost}
}

// Register creates a new account with a freshly hashed password.
func (s *Store) Register(ctx context.Context, displayName, email, password string) (*Account, error) {
	exists, err := s.existsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("account: hash password: %w", err)
	}

	acc := &Account{
		ID:           ids.NewAccountID(),
		DisplayName:  displayName,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	const query = `
		INSERT INTO accounts (id, display_name, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, acc.ID.String(), acc.DisplayName, acc.Email, acc.PasswordHash, acc.CreatedAt); err != nil {
		return nil, fmt.Errorf("account: insert: %w", err)
	}
	return acc, nil
}

// Authenticate verifies an email/password pair and returns the account.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	acc, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return acc, nil
}

// GetByEmail retrieves an account by email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*Account, error) {
	const query = `
		SELECT id, display_name, email, password_hash, created_at
		FROM accounts WHERE email = ?
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, email))
}

// GetByID retrieves an account by id.
func (s *Store) GetByID(ctx context.Context, id ids.AccountID) (*Account, error) {
	const query = `
		SELECT id, display_name, email, password_hash, created_at
		FROM accounts WHERE id = ?
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id.String()))
}

func (s *Store) scanOne(row *sql.Row) (*Account, error) {
	var acc Account
	var idStr string
	err := row.Scan(&idStr, &acc.DisplayName, &acc.Email, &acc.PasswordHash, &acc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("account: scan: %w", err)
	}
	id, err := ids.ParseAccountID(idStr)
	if err != nil {
		return nil, err
	}
	acc.ID = id
	return &acc, nil
}

func (s *Store) existsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM accounts WHERE email = ?)`
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("account: exists check: %w", err)
	}
	return exists, nil
}
