package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Venus2Mice/e-commerce-website/internal/postgres"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("email or phone already exists")
)

type Repo struct{ DB *pgxpool.Pool }

const userColumns = `id, email, phone_number, password_hash, first_name, last_name, gender, address, group_id, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PhoneNumber, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Gender, &u.Address, &u.GroupID, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (r *Repo) Create(ctx context.Context, u User) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO users (email, phone_number, password_hash, first_name, last_name, gender, address, group_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id`,
		u.Email, u.PhoneNumber, u.PasswordHash, u.FirstName, u.LastName, u.Gender, u.Address, u.GroupID,
	).Scan(&id)
	if postgres.IsUniqueViolation(err) {
		return 0, ErrAlreadyExists
	}
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

// GetByLogin finds a user by email or phone number.
func (r *Repo) GetByLogin(ctx context.Context, login string) (User, error) {
	return scanUser(r.DB.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email=$1 OR phone_number=$1 LIMIT 1`, login))
}

func (r *Repo) GetByID(ctx context.Context, id int64) (User, error) {
	return scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *Repo) List(ctx context.Context) ([]User, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repo) Update(ctx context.Context, u Update) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE users
		SET phone_number = COALESCE($2, phone_number),
		    first_name   = COALESCE($3, first_name),
		    last_name    = COALESCE($4, last_name),
		    gender       = COALESCE($5, gender),
		    address      = COALESCE($6, address),
		    group_id     = COALESCE($7, group_id),
		    updated_at   = NOW()
		WHERE id = $1`,
		u.ID, u.PhoneNumber, u.FirstName, u.LastName, u.Gender, u.Address, u.GroupID)
	if postgres.IsUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
