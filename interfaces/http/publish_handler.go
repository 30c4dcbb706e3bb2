package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"my-publisher/domain/dto"
	"my-publisher/domain/model"
	"my-publisher/infrastructure/logger"
	"my-publisher/usecase"
)

type IPublishHandler interface {
	Publish(c *gin.Context)
}

type PublishHandler struct {
	publishUsecase   usecase.IPublishUsecase
	schedulerUsecase usecase.ISchedulerUsecase
}

func NewPublishHandler(publishUsecase usecase.IPublishUsecase, schedulerUsecase usecase.ISchedulerUsecase) IPublishHandler {
	return &PublishHandler{publishUsecase: publishUsecase, schedulerUsecase: schedulerUsecase}
}

// Publish fans content out to the requested platforms. When scheduled_for
// is a future timestamp the request is persisted instead and picked up by
// the scheduler sweep.
func (publishHandler *PublishHandler) Publish(c *gin.Context) {
	var req dto.PublishRequestBody

	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		c.JSON(http.StatusBadRequest, fmt.Sprintf("%s %v", ErrorUnmarshal, err.Error()))
		return
	}

	publishReq, err := toPublishRequest(c.GetString("user_id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: err.Error()})
		return
	}

	if req.ScheduledFor != nil && req.ScheduledFor.After(time.Now()) {
		post, err := publishHandler.schedulerUsecase.Schedule(c.Request.Context(), publishReq, *req.ScheduledFor)
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Failed to schedule post")
			c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, dto.Res{ResponseCode: "202", ResponseMessage: "Scheduled", Data: post})
		return
	}

	report, err := publishHandler.publishUsecase.Publish(c.Request.Context(), publishReq)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Publish failed")
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: err.Error()})
		return
	}

	status := http.StatusOK
	if report.Outcome == model.OutcomeTotalFailure {
		status = http.StatusBadGateway
	}
	c.JSON(status, dto.Res{ResponseCode: fmt.Sprintf("%d", status), ResponseMessage: report.Outcome, Data: report})
}

func toPublishRequest(userID string, req dto.PublishRequestBody) (*model.PublishRequest, error) {
	platforms := make([]model.Platform, 0, len(req.Platforms))
	for _, p := range req.Platforms {
		platform, err := model.ParsePlatform(p)
		if err != nil {
			return nil, err
		}
		platforms = append(platforms, platform)
	}

	media := make([]model.MediaRef, 0, len(req.Media))
	for _, m := range req.Media {
		media = append(media, model.MediaRef{Type: m.Type, URL: m.URL, AltText: m.AltText})
	}

	return &model.PublishRequest{
		ContentID: req.ContentID,
		UserID:    userID,
		Text:      req.Text,
		Media:     media,
		Hashtags:  req.Hashtags,
		Mentions:  req.Mentions,
		Platforms: platforms,
	}, nil
}
