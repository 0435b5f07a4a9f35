package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	obsmiddleware "github.com/smallbiznis/campusswap/internal/observability/logger"
	obstracing "github.com/smallbiznis/campusswap/internal/observability/tracing"
	paymentdomain "github.com/smallbiznis/campusswap/internal/payment/domain"
	"go.uber.org/zap"
)

const (
	maxWebhookBodyBytes = 1 << 20

	HeaderIdempotentReplayed = obstracing.HeaderReplayed

	messagePayloadTooLarge = "Payload too large"
	messageUnreadableBody  = "Unable to read request body"
)

func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	requestID := obsmiddleware.RequestID(c)

	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, webhookFailure(messagePayloadTooLarge, requestID))
			return
		}
		obsmiddleware.WithContext(c.Request.Context(), s.log).Warn("webhook body read failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, webhookFailure(messageUnreadableBody, requestID))
		return
	}

	result := s.webhookSvc.Handle(c.Request.Context(), requestID, payload)
	if result.Replayed {
		c.Header(HeaderIdempotentReplayed, "true")
	}
	c.JSON(result.StatusCode, result.Body)
}

// PaymentWebhookHealth lets the gateway probe the endpoint before sending deliveries.
func (s *Server) PaymentWebhookHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"endpoint":  PaymentWebhookPath,
		"timestamp": s.clock.Now().UTC().Format(time.RFC3339Nano),
	})
}

func webhookFailure(message, requestID string) paymentdomain.Response {
	return paymentdomain.Response{
		Success:   false,
		Error:     message,
		RequestID: requestID,
	}
}
