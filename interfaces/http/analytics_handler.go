package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"my-publisher/domain/dto"
	"my-publisher/domain/model"
	"my-publisher/domain/publisher"
	"my-publisher/infrastructure/filecsv"
	"my-publisher/infrastructure/logger"
	"my-publisher/usecase"
)

type IAnalyticsHandler interface {
	GetMetrics(c *gin.Context)
	ListReports(c *gin.Context)
	GetReport(c *gin.Context)
	ExportReports(c *gin.Context)
}

type AnalyticsHandler struct {
	analyticsUsecase usecase.IAnalyticsUsecase
}

func NewAnalyticsHandler(analyticsUsecase usecase.IAnalyticsUsecase) IAnalyticsHandler {
	return &AnalyticsHandler{analyticsUsecase: analyticsUsecase}
}

func (analyticsHandler *AnalyticsHandler) GetMetrics(c *gin.Context) {
	platform, err := model.ParsePlatform(c.Param("platform"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: err.Error()})
		return
	}

	metrics, err := analyticsHandler.analyticsUsecase.GetMetrics(c.Request.Context(), c.GetString("user_id"), c.Param("content_id"), platform)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrNotPublished):
			c.JSON(http.StatusNotFound, dto.Res{ResponseCode: "404", ResponseMessage: err.Error()})
		case errors.Is(err, publisher.ErrAnalyticsUnsupported):
			c.JSON(http.StatusNotImplemented, dto.Res{ResponseCode: "501", ResponseMessage: err.Error()})
		default:
			logger.GetLogger().WithField("error", err).Error("Failed to fetch metrics")
			c.JSON(http.StatusBadGateway, dto.Res{ResponseCode: "502", ResponseMessage: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: "Success", Data: metrics})
}

func (analyticsHandler *AnalyticsHandler) ListReports(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	reports, err := analyticsHandler.analyticsUsecase.ListReports(c.Request.Context(), c.GetString("user_id"), limit)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed to list publish reports")
		c.JSON(http.StatusInternalServerError, dto.Res{ResponseCode: "500", ResponseMessage: "General error"})
		return
	}

	c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: "Success", Data: reports})
}

// ExportReports streams the caller's recent publish reports as CSV,
// one row per platform attempt.
func (analyticsHandler *AnalyticsHandler) ExportReports(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	reports, err := analyticsHandler.analyticsUsecase.ListReports(c.Request.Context(), c.GetString("user_id"), limit)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed to export publish reports")
		c.JSON(http.StatusInternalServerError, dto.Res{ResponseCode: "500", ResponseMessage: "General error"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=publish_reports.csv")
	if err := filecsv.WriteReports(c.Writer, reports); err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed to write csv export")
	}
}

func (analyticsHandler *AnalyticsHandler) GetReport(c *gin.Context) {
	report, err := analyticsHandler.analyticsUsecase.GetReport(c.Request.Context(), c.Param("content_id"))
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed to fetch publish report")
		c.JSON(http.StatusInternalServerError, dto.Res{ResponseCode: "500", ResponseMessage: "General error"})
		return
	}
	if report == nil {
		c.JSON(http.StatusNotFound, dto.Res{ResponseCode: "404", ResponseMessage: "Report not found"})
		return
	}

	c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: "Success", Data: report})
}
