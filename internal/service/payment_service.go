package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/truckmart-next/internal/constants"
	"github.com/truckmart-next/internal/logger"
	"github.com/truckmart-next/internal/models"
	"github.com/truckmart-next/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentIntentDetail 发起支付返回给前端的信息
type PaymentIntentDetail struct {
	PaymentID    uint         `json:"payment_id"`
	OrderID      uint         `json:"order_id"`
	OrderNo      string       `json:"order_no"`
	IntentID     string       `json:"intent_id"`
	ClientSecret string       `json:"client_secret"`
	Amount       models.Money `json:"amount"`
	Currency     string       `json:"currency"`
	Status       string       `json:"status"`
}

// PaymentService 支付服务
type PaymentService struct {
	db           *gorm.DB
	orderRepo    repository.OrderRepository
	paymentRepo  repository.PaymentRepository
	orderService *OrderService
	provider     PaymentProvider
}

// NewPaymentService 创建支付服务
func NewPaymentService(db *gorm.DB, orderRepo repository.OrderRepository, paymentRepo repository.PaymentRepository, orderService *OrderService, provider PaymentProvider) *PaymentService {
	return &PaymentService{
		db:           db,
		orderRepo:    orderRepo,
		paymentRepo:  paymentRepo,
		orderService: orderService,
		provider:     provider,
	}
}

// InitiatePayment 发起支付。幂等键先落库后才发起渠道请求，
// 同一订单重试复用同一幂等键，渠道侧不会重复扣款。
func (s *PaymentService) InitiatePayment(ctx context.Context, userID, orderID uint) (*PaymentIntentDetail, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	if s.provider == nil {
		return nil, ErrPaymentInvalid
	}
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPending && order.Status != constants.OrderStatusProcessing {
		return nil, ErrPaymentInvalid
	}

	payment, err := s.paymentRepo.GetLatestByOrder(order.ID)
	if err != nil {
		return nil, ErrPaymentUpdateFailed
	}
	if payment != nil && payment.Status == constants.PaymentStatusSucceeded {
		return nil, ErrPaymentInvalid
	}

	now := time.Now()
	if payment == nil || payment.Status != constants.PaymentStatusInitiated {
		payment = &models.Payment{
			OrderID:        order.ID,
			IdempotencyKey: uuid.NewString(),
			Amount:         order.Amount,
			Currency:       order.Currency,
			Status:         constants.PaymentStatusInitiated,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.paymentRepo.Create(payment); err != nil {
			logger.Errorw("payment_record_create_failed", "order_id", order.ID, "error", err)
			return nil, ErrPaymentUpdateFailed
		}
	}

	result, err := s.provider.CreateIntent(ctx, ProviderIntentInput{
		Amount:         order.Amount.String(),
		Currency:       order.Currency,
		IdempotencyKey: payment.IdempotencyKey,
		Description:    fmt.Sprintf("TruckMart order %s", order.OrderNo),
		Metadata: map[string]string{
			"order_no": order.OrderNo,
		},
	})
	if err != nil {
		logger.Errorw("payment_intent_create_failed",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"error", err,
		)
		return nil, ErrPaymentProviderFailed
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		paymentRepo := s.paymentRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)
		payment.IntentID = result.IntentID
		payment.ClientSecret = result.ClientSecret
		payment.UpdatedAt = time.Now()
		if err := paymentRepo.Update(payment); err != nil {
			return err
		}
		return orderRepo.LinkPaymentIntent(order.ID, result.IntentID)
	})
	if err != nil {
		logger.Errorw("payment_intent_persist_failed",
			"order_id", order.ID,
			"intent_id", result.IntentID,
			"error", err,
		)
		return nil, ErrPaymentUpdateFailed
	}

	if order.Status == constants.OrderStatusPending {
		if _, err := s.orderService.UpdateOrderStatus(order.ID, constants.OrderStatusProcessing); err != nil {
			logger.Errorw("payment_order_transition_failed",
				"order_id", order.ID,
				"intent_id", result.IntentID,
				"error", err,
			)
			return nil, ErrOrderUpdateFailed
		}
	}

	logger.Infow("payment_intent_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"intent_id", result.IntentID,
	)
	return &PaymentIntentDetail{
		PaymentID:    payment.ID,
		OrderID:      order.ID,
		OrderNo:      order.OrderNo,
		IntentID:     result.IntentID,
		ClientSecret: result.ClientSecret,
		Amount:       order.Amount,
		Currency:     order.Currency,
		Status:       payment.Status,
	}, nil
}

// GetLatestPaymentByOrder 获取订单最新支付记录
func (s *PaymentService) GetLatestPaymentByOrder(userID, orderID uint) (*models.Payment, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	payment, err := s.paymentRepo.GetLatestByOrder(order.ID)
	if err != nil {
		return nil, ErrPaymentUpdateFailed
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

func normalizePaymentOutcome(outcome string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(outcome)) {
	case constants.PaymentOutcomeSucceeded:
		return constants.PaymentStatusSucceeded, nil
	case constants.PaymentOutcomeFailed:
		return constants.PaymentStatusFailed, nil
	case constants.PaymentOutcomeCancelled:
		return constants.PaymentStatusCancelled, nil
	default:
		return "", ErrPaymentOutcomeInvalid
	}
}
