package persistence

import (
	"context"
	"database/sql"
	"time"

	"my-publisher/domain/model"
	"my-publisher/domain/repository"
)

// UserRepository is the PostgreSQL implementation of IUser.
type UserRepository struct{ db *sql.DB }

func NewUserRepository(db *sql.DB) repository.IUser { return &UserRepository{db} }

func (r *UserRepository) GetById(ctx context.Context, id int64) (model.User, error) {
	var u model.User
	row := r.db.QueryRowContext(ctx, `SELECT u.id, u.name, u.user_name, u.password, u.created_at, u.updated_at
	FROM public.user AS u
	WHERE u.id = $1`, id)
	if err := row.Scan(&u.ID, &u.Name, &u.UserName, &u.Password, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return u, err
	}
	return u, nil
}

func (r *UserRepository) GetByUserName(ctx context.Context, userName string) (model.User, error) {
	var u model.User
	row := r.db.QueryRowContext(ctx, `SELECT u.id, u.name, u.user_name, u.password, u.created_at, u.updated_at
	FROM public.user AS u
	WHERE u.user_name = $1`, userName)
	if err := row.Scan(&u.ID, &u.Name, &u.UserName, &u.Password, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return u, err
	}
	return u, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user model.User) error {
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO public.user (name, user_name, password, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)`,
		user.Name, user.UserName, user.Password, createdAt)
	return err
}
