package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// User is the row shape of the users table.
type User struct {
	ID            uuid.UUID
	Email         string
	Name          sql.NullString
	Image         sql.NullString
	PasswordHash  sql.NullString
	EmailVerified sql.NullTime
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const createUser = `
INSERT INTO users (email, name, image, password_hash)
VALUES ($1, $2, $3, $4)
RETURNING id, email, name, image, password_hash, email_verified, created_at, updated_at`

// CreateUserParams holds the inputs for CreateUser.
type CreateUserParams struct {
	Email        string
	Name         sql.NullString
	Image        sql.NullString
	PasswordHash sql.NullString
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser, arg.Email, arg.Name, arg.Image, arg.PasswordHash)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Image, &u.PasswordHash, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const getUserByID = `
SELECT id, email, name, image, password_hash, email_verified, created_at, updated_at
FROM users WHERE id = $1`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByID, id)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Image, &u.PasswordHash, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const getUserByEmail = `
SELECT id, email, name, image, password_hash, email_verified, created_at, updated_at
FROM users WHERE email = $1`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmail, email)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Image, &u.PasswordHash, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const deleteUser = `DELETE FROM users WHERE id = $1`

// DeleteUser removes a user; child rows cascade.
func (q *Queries) DeleteUser(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, deleteUser, id)
	return err
}
