package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/truckmart-next/internal/constants"
	"github.com/truckmart-next/internal/models"
	"github.com/truckmart-next/internal/provider"
	"github.com/truckmart-next/internal/queue"
	"github.com/truckmart-next/internal/repository"
	"github.com/truckmart-next/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func newWorkerTestConsumer(t *testing.T, name string) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	cartService := service.NewCartService(cartRepo, productRepo)
	orderService := service.NewOrderService(db, orderRepo, productRepo, cartService, nil, "USD", 30)

	container := &provider.Container{
		UserRepo:     repository.NewUserRepository(db),
		ProductRepo:  productRepo,
		CartRepo:     cartRepo,
		OrderRepo:    orderRepo,
		OrderService: orderService,
	}
	return NewConsumer(container), db
}

func TestHandleOrderTimeoutCancelCancelsExpiredOrder(t *testing.T) {
	consumer, db := newWorkerTestConsumer(t, "worker_timeout")

	product := models.Product{CategoryID: 1, Slug: "2021-peterbilt-579", Name: "2021 Peterbilt 579", Stock: 3, IsActive: true}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	expired := time.Now().Add(-time.Hour)
	order := models.Order{
		UserID:    1,
		OrderNo:   "TRK-TEST-1",
		Status:    constants.OrderStatusPending,
		ExpiresAt: &expired,
		Items: []models.OrderItem{
			{ProductID: product.ID, Quantity: 2},
		},
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	task, err := queue.NewOrderTimeoutCancelTask(queue.OrderTimeoutCancelPayload{OrderID: order.ID})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleOrderTimeoutCancel(context.Background(), task); err != nil {
		t.Fatalf("handle timeout cancel failed: %v", err)
	}

	var got models.Order
	if err := db.First(&got, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if got.Status != constants.OrderStatusCancelled {
		t.Fatalf("status want cancelled got %s", got.Status)
	}
	var gotProduct models.Product
	if err := db.First(&gotProduct, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if gotProduct.Stock != 5 {
		t.Fatalf("stock want 5 got %d", gotProduct.Stock)
	}
}

func TestHandleOrderTimeoutCancelSkipsMissingOrder(t *testing.T) {
	consumer, _ := newWorkerTestConsumer(t, "worker_timeout_missing")

	task, err := queue.NewOrderTimeoutCancelTask(queue.OrderTimeoutCancelPayload{OrderID: 9999})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	// 订单不存在视为终态，不触发重试
	if err := consumer.handleOrderTimeoutCancel(context.Background(), task); err != nil {
		t.Fatalf("missing order should not error, got %v", err)
	}
}

func TestHandleOrderStatusEmailSkipsEmptyReceiver(t *testing.T) {
	consumer, db := newWorkerTestConsumer(t, "worker_email")

	order := models.Order{UserID: 0, OrderNo: "TRK-TEST-2", Status: constants.OrderStatusProcessing}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	task, err := queue.NewOrderStatusEmailTask(queue.OrderStatusEmailPayload{OrderID: order.ID, Status: order.Status})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleOrderStatusEmail(context.Background(), task); err != nil {
		t.Fatalf("empty receiver should not error, got %v", err)
	}
}

func TestHandleOrderTimeoutCancelRejectsBadPayload(t *testing.T) {
	consumer, _ := newWorkerTestConsumer(t, "worker_bad_payload")

	task := asynq.NewTask(queue.TaskOrderTimeoutCancel, []byte("{not-json"))
	if err := consumer.handleOrderTimeoutCancel(context.Background(), task); err == nil {
		t.Fatalf("malformed payload should error")
	}
}
