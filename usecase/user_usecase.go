package usecase

import (
	"context"
	"crypto/md5"
	"fmt"

	"my-publisher/domain/dto"
	"my-publisher/domain/model"
	"my-publisher/domain/repository"
	"my-publisher/infrastructure/configuration"
	"my-publisher/infrastructure/logger"
	"my-publisher/infrastructure/utils"
)

type IUserUsecase interface {
	Login(ctx context.Context, req model.ReqLogin) dto.Res
	Register(ctx context.Context, req model.ReqRegister) dto.Res
}

type userUsecase struct {
	userRepo repository.IUser
}

func NewUserUsecase(userRepo repository.IUser) IUserUsecase {
	return &userUsecase{userRepo: userRepo}
}

func (u *userUsecase) Login(ctx context.Context, req model.ReqLogin) dto.Res {
	res := dto.Res{ResponseCode: "401", ResponseMessage: "Unauthorized"}

	user, err := u.userRepo.GetByUserName(ctx, req.UserName)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("login lookup failed")
		return res
	}

	hashed := fmt.Sprintf("%x", md5.Sum([]byte(req.Password)))
	if user.Password != hashed {
		return res
	}

	token, err := utils.GenerateToken(user.ID, user.UserName, configuration.C.App.SecretKey)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("token generation failed")
		return dto.Res{ResponseCode: "500", ResponseMessage: "Internal Server Error"}
	}

	return dto.Res{
		ResponseCode:    "200",
		ResponseMessage: "OK",
		Data:            map[string]interface{}{"token": token, "user": user},
	}
}

func (u *userUsecase) Register(ctx context.Context, req model.ReqRegister) dto.Res {
	if existing, err := u.userRepo.GetByUserName(ctx, req.UserName); err == nil && existing.ID != 0 {
		return dto.Res{ResponseCode: "409", ResponseMessage: "Username already taken"}
	}

	user := model.User{
		Name:     req.Name,
		UserName: req.UserName,
		Password: fmt.Sprintf("%x", md5.Sum([]byte(req.Password))),
	}
	if err := u.userRepo.CreateUser(ctx, user); err != nil {
		logger.GetLogger().WithField("error", err).Error("user creation failed")
		return dto.Res{ResponseCode: "500", ResponseMessage: "Internal Server Error"}
	}

	return dto.Res{ResponseCode: "201", ResponseMessage: "Created"}
}
