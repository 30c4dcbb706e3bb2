package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"my-publisher/domain/dto"
	"my-publisher/infrastructure/logger"
	"my-publisher/usecase"
)

type IScheduleHandler interface {
	List(c *gin.Context)
	Cancel(c *gin.Context)
}

type ScheduleHandler struct {
	schedulerUsecase usecase.ISchedulerUsecase
}

func NewScheduleHandler(schedulerUsecase usecase.ISchedulerUsecase) IScheduleHandler {
	return &ScheduleHandler{schedulerUsecase: schedulerUsecase}
}

func (scheduleHandler *ScheduleHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	posts, err := scheduleHandler.schedulerUsecase.ListScheduled(c.Request.Context(), c.GetString("user_id"), limit)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed to list scheduled posts")
		c.JSON(http.StatusInternalServerError, dto.Res{ResponseCode: "500", ResponseMessage: "General error"})
		return
	}

	c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: "Success", Data: posts})
}

func (scheduleHandler *ScheduleHandler) Cancel(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: "Invalid id"})
		return
	}

	if err := scheduleHandler.schedulerUsecase.Cancel(c.Request.Context(), id, c.GetString("user_id")); err != nil {
		if errors.Is(err, usecase.ErrCancelNotPossible) {
			c.JSON(http.StatusConflict, dto.Res{ResponseCode: "409", ResponseMessage: err.Error()})
			return
		}
		logger.GetLogger().WithField("error", err).Error("Failed to cancel scheduled post")
		c.JSON(http.StatusInternalServerError, dto.Res{ResponseCode: "500", ResponseMessage: "General error"})
		return
	}

	c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: "Cancelled"})
}
