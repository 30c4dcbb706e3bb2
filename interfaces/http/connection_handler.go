package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"my-publisher/domain/dto"
	"my-publisher/domain/model"
	"my-publisher/infrastructure/logger"
	"my-publisher/usecase"
)

type IConnectionHandler interface {
	Connect(c *gin.Context)
	TestConnection(c *gin.Context)
	Disconnect(c *gin.Context)
	List(c *gin.Context)
}

type ConnectionHandler struct {
	connectionUsecase usecase.IConnectionUsecase
}

func NewConnectionHandler(connectionUsecase usecase.IConnectionUsecase) IConnectionHandler {
	return &ConnectionHandler{connectionUsecase: connectionUsecase}
}

func (connectionHandler *ConnectionHandler) Connect(c *gin.Context) {
	var req dto.ConnectionRequestBody

	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		c.JSON(http.StatusBadRequest, fmt.Sprintf("%s %v", ErrorUnmarshal, err.Error()))
		return
	}

	platform, err := model.ParsePlatform(req.Platform)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: err.Error()})
		return
	}

	profile, err := connectionHandler.connectionUsecase.Connect(c.Request.Context(), usecase.ConnectInput{
		UserID:            c.GetString("user_id"),
		Platform:          platform,
		ExternalAccountID: req.ExternalAccountID,
		DisplayName:       req.DisplayName,
		AccessSecret:      req.AccessSecret,
		RefreshSecret:     req.RefreshSecret,
		TokenExpiresAt:    req.ExpiresAt,
		PostsPerHour:      req.PostsPerHour,
		PostsPerDay:       req.PostsPerDay,
		Extra:             req.Extra,
	})
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed to connect platform")
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, dto.Res{ResponseCode: "201", ResponseMessage: "Created", Data: profile})
}

func (connectionHandler *ConnectionHandler) TestConnection(c *gin.Context) {
	platform, err := model.ParsePlatform(c.Param("platform"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: err.Error()})
		return
	}

	valid, err := connectionHandler.connectionUsecase.TestConnection(c.Request.Context(), c.GetString("user_id"), platform)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Connection test failed")
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: "Success", Data: gin.H{"valid": valid}})
}

func (connectionHandler *ConnectionHandler) Disconnect(c *gin.Context) {
	platform, err := model.ParsePlatform(c.Param("platform"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: err.Error()})
		return
	}

	if err := connectionHandler.connectionUsecase.Disconnect(c.Request.Context(), c.GetString("user_id"), platform); err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed to disconnect platform")
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: "Disconnected"})
}

func (connectionHandler *ConnectionHandler) List(c *gin.Context) {
	profiles, err := connectionHandler.connectionUsecase.List(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed to list connections")
		c.JSON(http.StatusInternalServerError, dto.Res{ResponseCode: "500", ResponseMessage: "General error"})
		return
	}

	c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: "Success", Data: profiles})
}
