package persistence

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"my-publisher/domain/model"
)

func TestUserRepository_GetById(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)

	createdAt := time.Date(2026, 5, 10, 8, 30, 0, 0, time.UTC)
	updatedAt := createdAt.Add(2 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT u.id, u.name, u.user_name, u.password, u.created_at, u.updated_at
	FROM public.user AS u
	WHERE u.id = $1`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "user_name", "password", "created_at", "updated_at"}).
			AddRow(int64(7), "Maya Ortiz", "mortiz", "2fd4e1c67a2d28fced849ee1bb76e739", createdAt, updatedAt))

	res, err := repo.GetById(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, model.User{
		ID:        7,
		Name:      "Maya Ortiz",
		UserName:  "mortiz",
		Password:  "2fd4e1c67a2d28fced849ee1bb76e739",
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, res)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByUserName(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)

	createdAt := time.Date(2026, 5, 10, 8, 30, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT u.id, u.name, u.user_name, u.password, u.created_at, u.updated_at
	FROM public.user AS u
	WHERE u.user_name = $1`)).
		WithArgs("mortiz").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "user_name", "password", "created_at", "updated_at"}).
			AddRow(int64(7), "Maya Ortiz", "mortiz", "2fd4e1c67a2d28fced849ee1bb76e739", createdAt, createdAt))

	res, err := repo.GetByUserName(context.Background(), "mortiz")
	require.NoError(t, err)
	require.Equal(t, int64(7), res.ID)
	require.Equal(t, "mortiz", res.UserName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByUserName_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT u.id, u.name, u.user_name, u.password, u.created_at, u.updated_at
	FROM public.user AS u
	WHERE u.user_name = $1`)).
		WithArgs("nobody").
		WillReturnError(fmt.Errorf("query error"))

	res, err := repo.GetByUserName(context.Background(), "nobody")
	require.Error(t, err)
	require.Equal(t, model.User{}, res)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO public.user (name, user_name, password, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)`)).
		WithArgs("Maya Ortiz", "mortiz", "2fd4e1c67a2d28fced849ee1bb76e739", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.CreateUser(context.Background(), model.User{
		Name:     "Maya Ortiz",
		UserName: "mortiz",
		Password: "2fd4e1c67a2d28fced849ee1bb76e739",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
