package public

import (
	"errors"
	"time"

	"github.com/truckmart-next/internal/constants"
	handlershared "github.com/truckmart-next/internal/http/handlers/shared"
	"github.com/truckmart-next/internal/http/response"
	"github.com/truckmart-next/internal/payment/stripe"
	"github.com/truckmart-next/internal/service"

	"github.com/gin-gonic/gin"
)

// StripeWebhook Stripe 支付回调入口。验签失败直接拒绝；
// 回调结果交由支付对账落库，重复事件幂等处理。
func (h *Handler) StripeWebhook(c *gin.Context) {
	if h.StripeConfig == nil {
		respondError(c, response.CodeBadRequest, "payment webhook is not configured", nil)
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid webhook body", err)
		return
	}

	headers := map[string]string{
		"Stripe-Signature": c.GetHeader("Stripe-Signature"),
	}
	result, err := stripe.VerifyAndParseWebhook(h.StripeConfig, headers, body, time.Now())
	if err != nil {
		respondError(c, response.CodeBadRequest, "webhook verification failed", err)
		return
	}

	outcome := ""
	switch result.Status {
	case constants.PaymentOutcomeSucceeded:
		outcome = constants.PaymentOutcomeSucceeded
	case constants.PaymentOutcomeFailed:
		outcome = constants.PaymentOutcomeFailed
	case constants.PaymentOutcomeCancelled:
		outcome = constants.PaymentOutcomeCancelled
	default:
		// 中间态事件只确认收到，不驱动订单状态。
		handlershared.RequestLog(c).Infow("payment_webhook_event_skipped",
			"event_id", result.EventID,
			"event_type", result.EventType,
			"intent_id", result.PaymentIntentID,
			"status", result.Status,
		)
		response.Success(c, gin.H{"received": true})
		return
	}

	_, err = h.PaymentService.Reconcile(service.ReconcileInput{
		IntentID:       result.PaymentIntentID,
		Outcome:        outcome,
		FailureMessage: result.FailureMessage,
		OccurredAt:     result.OccurredAt,
		Payload:        result.Raw,
	})
	if err != nil {
		// 未知 intent 仍确认收到，避免无意义重试。
		if errors.Is(err, service.ErrPaymentNotFound) {
			response.Success(c, gin.H{"received": true})
			return
		}
		if errors.Is(err, service.ErrPaymentOutcomeInvalid) {
			respondError(c, response.CodeBadRequest, "unsupported payment outcome", err)
			return
		}
		respondError(c, response.CodeInternal, "payment reconcile failed", err)
		return
	}

	response.Success(c, gin.H{"received": true})
}
