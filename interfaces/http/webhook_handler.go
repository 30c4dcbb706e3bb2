package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"my-publisher/domain/dto"
	"my-publisher/domain/model"
	"my-publisher/infrastructure/logger"
	"my-publisher/infrastructure/webhook"
)

type IWebhookHandler interface {
	Receive(c *gin.Context)
}

type WebhookHandler struct {
	verifier *webhook.Verifier
}

func NewWebhookHandler(verifier *webhook.Verifier) IWebhookHandler {
	return &WebhookHandler{verifier: verifier}
}

// Receive accepts platform callbacks on an unauthenticated route. The
// request is only acknowledged after its signature checks out against
// the shared secret registered for that platform.
func (webhookHandler *WebhookHandler) Receive(c *gin.Context) {
	platform, err := model.ParsePlatform(c.Param("platform"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: err.Error()})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: "Unreadable body"})
		return
	}

	signature := c.GetHeader(webhook.SignatureHeader(platform))
	if err := webhookHandler.verifier.Verify(platform, body, signature); err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"platform": platform,
			"error":    err,
		}).Warn("Rejected webhook delivery")
		c.JSON(http.StatusUnauthorized, dto.Res{ResponseCode: "401", ResponseMessage: "Invalid signature"})
		return
	}

	logger.GetLogger().WithField("platform", platform).Info("Accepted webhook delivery")
	c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: "Received"})
}
