package repository

import (
	"context"

	"my-publisher/domain/model"
)

// IUser defines the interface for user repository operations
type IUser interface {
	GetById(ctx context.Context, id int64) (model.User, error)
	GetByUserName(ctx context.Context, userName string) (model.User, error)
	CreateUser(ctx context.Context, user model.User) error
}
