package service

import (
	"time"

	"github.com/truckmart-next/internal/constants"
	"github.com/truckmart-next/internal/logger"
	"github.com/truckmart-next/internal/models"

	"gorm.io/gorm"
)

// ReconcileInput 支付结果对账输入（webhook 或对账任务）
type ReconcileInput struct {
	IntentID       string
	Outcome        string
	FailureMessage string
	OccurredAt     *time.Time
	Payload        map[string]interface{}
}

// Reconcile 落账支付结果。以支付意向ID定位支付记录；同状态重放是幂等空操作，
// 已成功的支付不会被后到的失败/取消事件降级。
func (s *PaymentService) Reconcile(input ReconcileInput) (*models.Payment, error) {
	targetStatus, err := normalizePaymentOutcome(input.Outcome)
	if err != nil {
		return nil, err
	}

	payment, err := s.paymentRepo.GetLatestByIntentID(input.IntentID)
	if err != nil {
		return nil, ErrPaymentUpdateFailed
	}
	if payment == nil {
		logger.Warnw("payment_callback_unknown_intent",
			"intent_id", input.IntentID,
			"outcome", input.Outcome,
		)
		return nil, ErrPaymentNotFound
	}

	if payment.Status == targetStatus {
		logger.Infow("payment_callback_idempotent_same_status",
			"payment_id", payment.ID,
			"intent_id", payment.IntentID,
			"status", payment.Status,
		)
		return payment, nil
	}
	if payment.Status == constants.PaymentStatusSucceeded {
		logger.Warnw("payment_callback_after_success_ignored",
			"payment_id", payment.ID,
			"intent_id", payment.IntentID,
			"outcome", input.Outcome,
		)
		return payment, nil
	}

	now := time.Now()
	occurredAt := now
	if input.OccurredAt != nil && !input.OccurredAt.IsZero() {
		occurredAt = *input.OccurredAt
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		paymentRepo := s.paymentRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)

		payment.Status = targetStatus
		payment.CallbackAt = &now
		payment.UpdatedAt = now
		if len(input.Payload) > 0 {
			payment.ProviderPayload = models.JSON(input.Payload)
		}
		if targetStatus == constants.PaymentStatusSucceeded {
			payment.PaidAt = &occurredAt
		}
		if err := paymentRepo.Update(payment); err != nil {
			return err
		}

		switch targetStatus {
		case constants.PaymentStatusSucceeded:
			order, err := orderRepo.GetByID(payment.OrderID)
			if err != nil {
				return err
			}
			if order == nil {
				return ErrOrderNotFound
			}
			// 成功回调只落支付结果，订单状态保持原样交由后续履约推进；
			// 已取消/已完结的订单不回拉，库存早已回补。
			switch order.Status {
			case constants.OrderStatusPending, constants.OrderStatusProcessing:
				return orderRepo.UpdateStatus(order.ID, order.Status, map[string]interface{}{
					"paid_at":       occurredAt,
					"payment_error": "",
					"updated_at":    now,
				})
			default:
				logger.Warnw("payment_callback_success_on_closed_order",
					"payment_id", payment.ID,
					"order_id", order.ID,
					"order_status", order.Status,
				)
				return nil
			}
		case constants.PaymentStatusFailed:
			// 失败保留订单在 processing，等待重试或超时取消
			order, err := orderRepo.GetByID(payment.OrderID)
			if err != nil {
				return err
			}
			if order == nil {
				return ErrOrderNotFound
			}
			return orderRepo.UpdateStatus(order.ID, order.Status, map[string]interface{}{
				"payment_error": input.FailureMessage,
				"updated_at":    now,
			})
		default:
			return nil
		}
	})
	if err != nil {
		logger.Errorw("payment_callback_persist_failed",
			"payment_id", payment.ID,
			"intent_id", payment.IntentID,
			"outcome", input.Outcome,
			"error", err,
		)
		return nil, ErrPaymentUpdateFailed
	}

	// 取消走订单状态机，连带回补库存
	if targetStatus == constants.PaymentStatusCancelled {
		if _, err := s.orderService.UpdateOrderStatus(payment.OrderID, constants.OrderStatusCancelled); err != nil {
			logger.Warnw("payment_callback_order_cancel_failed",
				"payment_id", payment.ID,
				"order_id", payment.OrderID,
				"error", err,
			)
		}
	}

	logger.Infow("payment_callback_applied",
		"payment_id", payment.ID,
		"intent_id", payment.IntentID,
		"order_id", payment.OrderID,
		"status", targetStatus,
	)
	return payment, nil
}
