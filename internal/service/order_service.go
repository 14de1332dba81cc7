package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/truckmart-next/internal/constants"
	"github.com/truckmart-next/internal/logger"
	"github.com/truckmart-next/internal/models"
	"github.com/truckmart-next/internal/queue"
	"github.com/truckmart-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultOrderExpireMinutes = 30

// OrderService 订单服务
type OrderService struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	cartService *CartService
	queueClient *queue.Client
	currency    string

	expireMinutes int
}

// NewOrderService 创建订单服务
func NewOrderService(db *gorm.DB, orderRepo repository.OrderRepository, productRepo repository.ProductRepository, cartService *CartService, queueClient *queue.Client, currency string, expireMinutes int) *OrderService {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = constants.SiteCurrencyDefault
	}
	return &OrderService{
		db:            db,
		orderRepo:     orderRepo,
		productRepo:   productRepo,
		cartService:   cartService,
		queueClient:   queueClient,
		currency:      currency,
		expireMinutes: expireMinutes,
	}
}

// CreateOrderInput 创建订单输入
type CreateOrderInput struct {
	UserID  uint
	Email   string
	Items   []CreateOrderItem
	Address AddressInput
}

// CreateOrderItem 创建订单项输入
type CreateOrderItem struct {
	ProductID uint
	Quantity  int
}

// CreateOrder 创建订单。库存检查与扣减、订单与订单项落库在同一事务内完成；
// 任一商品库存不足则整单回滚。提交后尽力清空购物车，失败只告警不回滚。
func (s *OrderService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	if input.UserID == 0 {
		return nil, ErrUnauthenticated
	}
	items, err := mergeCreateOrderItems(input.Items)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	address, err := normalizeAddressInput(input.Address)
	if err != nil {
		return nil, err
	}
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, ErrUserInvalid
		}
	}

	expireMinutes := s.resolveExpireMinutes()
	now := time.Now()
	expiresAt := now.Add(time.Duration(expireMinutes) * time.Minute)
	order := &models.Order{
		OrderNo:            generateOrderNo(),
		UserID:             input.UserID,
		Email:              email,
		Status:             constants.OrderStatusPending,
		Currency:           s.currency,
		ShippingStreet:     address.Street,
		ShippingCity:       address.City,
		ShippingState:      address.State,
		ShippingPostalCode: address.PostalCode,
		ShippingCountry:    address.Country,
		ExpiresAt:          &expiresAt,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)

		orderItems := make([]models.OrderItem, 0, len(items))
		total := decimal.Zero
		for _, item := range items {
			product, err := productRepo.GetByID(item.ProductID)
			if err != nil {
				return err
			}
			if product == nil || !product.IsActive {
				return ErrProductNotAvailable
			}

			// 单条条件 UPDATE 完成检查+扣减，避免并发超卖
			affected, err := productRepo.DecrementStock(product.ID, item.Quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				return &InsufficientStockError{ProductID: product.ID}
			}

			lineTotal := product.Price.Mul(lineQuantity(item.Quantity))
			total = total.Add(lineTotal)
			orderItems = append(orderItems, models.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				UnitPrice:   product.Price,
				Quantity:    item.Quantity,
				TotalPrice:  models.NewMoneyFromDecimal(lineTotal),
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		}

		// 金额只信任落库时的快照单价，忽略任何客户端报价
		order.Amount = models.NewMoneyFromDecimal(total)
		return orderRepo.Create(order, orderItems)
	})
	if err != nil {
		var stockErr *InsufficientStockError
		if errors.As(err, &stockErr) {
			return nil, stockErr
		}
		if errors.Is(err, ErrProductNotAvailable) {
			return nil, ErrProductNotAvailable
		}
		logger.Errorw("order_create_failed", "user_id", input.UserID, "error", err)
		return nil, ErrOrderCreateFailed
	}

	// 购物车清空尽力而为，失败不回滚订单
	if s.cartService != nil {
		if err := s.cartService.ClearCart(input.UserID); err != nil {
			logger.Warnw("order_cart_clear_failed",
				"order_id", order.ID,
				"order_no", order.OrderNo,
				"user_id", input.UserID,
				"error", err,
			)
		}
	}

	if s.queueClient != nil {
		if err := s.queueClient.EnqueueOrderTimeoutCancel(queue.OrderTimeoutCancelPayload{
			OrderID: order.ID,
		}, time.Duration(expireMinutes)*time.Minute); err != nil {
			logger.Errorw("order_enqueue_timeout_cancel_failed",
				"order_id", order.ID,
				"order_no", order.OrderNo,
				"error", err,
			)
		}
	}

	full, err := s.orderRepo.GetByID(order.ID)
	if err == nil && full != nil {
		return full, nil
	}
	return order, nil
}

// UpdateOrderStatus 更新订单状态。迁移表之外的跳转拒绝且不产生任何变更；
// 同状态迁移是幂等空操作。
func (s *OrderService) UpdateOrderStatus(orderID uint, targetStatus string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	target := normalizeOrderStatus(targetStatus)
	if !isOrderStatusValid(target) {
		return nil, ErrOrderStatusInvalid
	}
	if order.Status == target {
		return order, nil
	}
	if !isTransitionAllowed(order.Status, target) {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	updates := map[string]interface{}{
		"updated_at": now,
	}
	if target == constants.OrderStatusCancelled {
		updates["canceled_at"] = now
	}

	if target == constants.OrderStatusCancelled {
		err = s.db.Transaction(func(tx *gorm.DB) error {
			orderRepo := s.orderRepo.WithTx(tx)
			productRepo := s.productRepo.WithTx(tx)
			if err := orderRepo.UpdateStatus(order.ID, target, updates); err != nil {
				return err
			}
			return releaseStockByItems(productRepo, order.Items)
		})
	} else {
		err = s.orderRepo.UpdateStatus(order.ID, target, updates)
	}
	if err != nil {
		logger.Errorw("order_status_update_failed",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"from_status", order.Status,
			"target_status", target,
			"error", err,
		)
		return nil, ErrOrderUpdateFailed
	}

	previous := order.Status
	order.Status = target
	order.UpdatedAt = now
	if v, ok := updates["canceled_at"]; ok {
		if t, ok := v.(time.Time); ok {
			order.CanceledAt = &t
		}
	}
	logger.Infow("order_status_updated",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"from_status", previous,
		"target_status", target,
	)

	if s.queueClient != nil && order.Email != "" {
		if err := s.queueClient.EnqueueOrderStatusEmail(queue.OrderStatusEmailPayload{
			OrderID: order.ID,
			Status:  target,
		}); err != nil {
			logger.Warnw("order_enqueue_status_email_failed",
				"order_id", order.ID,
				"status", target,
				"error", err,
			)
		}
	}
	return order, nil
}

// CancelExpiredOrder 超时取消待支付订单并回补库存（队列任务入口）
func (s *OrderService) CancelExpiredOrder(orderID uint) (*models.Order, error) {
	if orderID == 0 {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPending {
		return order, nil
	}
	if order.ExpiresAt == nil || order.ExpiresAt.After(time.Now()) {
		return order, nil
	}
	return s.UpdateOrderStatus(order.ID, constants.OrderStatusCancelled)
}

// GetOrderByUser 获取用户订单详情
func (s *OrderService) GetOrderByUser(orderID uint, userID uint) (*models.Order, error) {
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
	return order, nil
}

// GetOrderByPaymentRef 按外部支付引用获取订单（物流查询入口）
func (s *OrderService) GetOrderByPaymentRef(paymentRef string) (*models.Order, error) {
	order, err := s.orderRepo.GetByPaymentIntentID(paymentRef)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrdersByUser 获取用户订单列表
func (s *OrderService) ListOrdersByUser(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if filter.UserID == 0 {
		return nil, 0, ErrUnauthenticated
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	return s.orderRepo.ListByUser(filter)
}

// ListOrdersForAdmin 管理端订单列表
func (s *OrderService) ListOrdersForAdmin(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	return s.orderRepo.ListAdmin(filter)
}

// GetOrderForAdmin 管理端订单详情
func (s *OrderService) GetOrderForAdmin(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func releaseStockByItems(productRepo repository.ProductRepository, items []models.OrderItem) error {
	for _, item := range items {
		if item.ProductID == 0 || item.Quantity <= 0 {
			continue
		}
		if _, err := productRepo.ReleaseStock(item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (s *OrderService) resolveExpireMinutes() int {
	if s.expireMinutes > 0 {
		return s.expireMinutes
	}
	return defaultOrderExpireMinutes
}

// mergeCreateOrderItems 合并重复商品的下单项
func mergeCreateOrderItems(items []CreateOrderItem) ([]CreateOrderItem, error) {
	if len(items) == 0 {
		return nil, nil
	}
	merged := make([]CreateOrderItem, 0, len(items))
	indexMap := make(map[uint]int)
	for _, item := range items {
		if item.ProductID == 0 {
			return nil, ErrProductNotFound
		}
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if idx, ok := indexMap[item.ProductID]; ok {
			merged[idx].Quantity += item.Quantity
			continue
		}
		indexMap[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	randPart := randNumeric(6)
	return fmt.Sprintf("TRK%s%s", now, randPart)
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
