package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/truckmart-next/internal/constants"
	"github.com/truckmart-next/internal/models"
)

func TestCreateOrderSnapshotsPrice(t *testing.T) {
	env := newTestEnv(t, "order_snapshot")
	user := env.createUser(t, "buyer@example.com")
	product := env.createProduct(t, "peterbilt-579", "85000.00", 5)

	order, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID:  user.ID,
		Email:   "buyer@example.com",
		Items:   []CreateOrderItem{{ProductID: product.ID, Quantity: 2}},
		Address: testShippingAddress(),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.Status != constants.OrderStatusPending {
		t.Fatalf("status want pending got %s", order.Status)
	}
	if got := order.Amount.String(); got != "170000.00" {
		t.Fatalf("amount want 170000.00 got %s", got)
	}

	// 下单后调价不影响已落库订单金额
	product.Price, _ = models.NewMoneyFromString("99000.00")
	if err := env.db.Save(product).Error; err != nil {
		t.Fatalf("update price failed: %v", err)
	}
	reloaded, err := env.orderService.GetOrderForAdmin(order.ID)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if got := reloaded.Amount.String(); got != "170000.00" {
		t.Fatalf("amount after price change want 170000.00 got %s", got)
	}
	if len(reloaded.Items) != 1 || reloaded.Items[0].UnitPrice.String() != "85000.00" {
		t.Fatalf("unit price snapshot mismatch: %+v", reloaded.Items)
	}
}

func TestCreateOrderInsufficientStockRollsBackWholeOrder(t *testing.T) {
	env := newTestEnv(t, "order_insufficient")
	user := env.createUser(t, "buyer@example.com")
	plenty := env.createProduct(t, "kenworth-t680", "92000.00", 10)
	scarce := env.createProduct(t, "volvo-vnl-860", "110000.00", 1)

	_, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID: user.ID,
		Items: []CreateOrderItem{
			{ProductID: plenty.ID, Quantity: 2},
			{ProductID: scarce.ID, Quantity: 3},
		},
		Address: testShippingAddress(),
	})
	if err == nil {
		t.Fatalf("expected insufficient stock error")
	}
	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("want InsufficientStockError got %v", err)
	}
	if stockErr.ProductID != scarce.ID {
		t.Fatalf("offending product want %d got %d", scarce.ID, stockErr.ProductID)
	}
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("want errors.Is ErrInsufficientStock")
	}

	// 整单回滚：先扣成功的商品库存也要恢复
	if got := env.reloadProduct(t, plenty.ID).Stock; got != 10 {
		t.Fatalf("plenty stock want 10 got %d", got)
	}
	if got := env.reloadProduct(t, scarce.ID).Stock; got != 1 {
		t.Fatalf("scarce stock want 1 got %d", got)
	}

	var count int64
	if err := env.db.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("no order row expected, got %d", count)
	}
}

func TestCreateOrderSequentialExhaustion(t *testing.T) {
	env := newTestEnv(t, "order_exhaustion")
	first := env.createUser(t, "first@example.com")
	second := env.createUser(t, "second@example.com")
	product := env.createProduct(t, "mack-anthem", "78000.00", 1)

	if _, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID:  first.ID,
		Items:   []CreateOrderItem{{ProductID: product.ID, Quantity: 1}},
		Address: testShippingAddress(),
	}); err != nil {
		t.Fatalf("first order failed: %v", err)
	}

	_, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID:  second.ID,
		Items:   []CreateOrderItem{{ProductID: product.ID, Quantity: 1}},
		Address: testShippingAddress(),
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("second order want insufficient stock got %v", err)
	}
	if got := env.reloadProduct(t, product.ID).Stock; got != 0 {
		t.Fatalf("stock want 0 got %d", got)
	}
}

func TestCreateOrderConcurrentLastUnit(t *testing.T) {
	env := newTestEnv(t, "order_concurrent")
	first := env.createUser(t, "first@example.com")
	second := env.createUser(t, "second@example.com")
	product := env.createProduct(t, "western-star-49x", "142000.00", 1)

	sqlDB, err := env.db.DB()
	if err != nil {
		t.Fatalf("unwrap sql db failed: %v", err)
	}
	// SQLite 写事务需要单连接，两次下单仍从各自 goroutine 并发进入
	sqlDB.SetMaxOpenConns(1)

	results := make([]error, 2)
	var wg sync.WaitGroup
	for slot, userID := range []uint{first.ID, second.ID} {
		wg.Add(1)
		go func(slot int, userID uint) {
			defer wg.Done()
			_, err := env.orderService.CreateOrder(CreateOrderInput{
				UserID:  userID,
				Items:   []CreateOrderItem{{ProductID: product.ID, Quantity: 1}},
				Address: testShippingAddress(),
			})
			results[slot] = err
		}(slot, userID)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrInsufficientStock):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || rejected != 1 {
		t.Fatalf("want exactly one success and one stock rejection, got success=%d rejected=%d", succeeded, rejected)
	}
	if got := env.reloadProduct(t, product.ID).Stock; got != 0 {
		t.Fatalf("stock want 0 got %d", got)
	}
}

func TestCreateOrderMergesDuplicateItems(t *testing.T) {
	env := newTestEnv(t, "order_merge")
	user := env.createUser(t, "buyer@example.com")
	product := env.createProduct(t, "international-lt", "69500.00", 5)

	order, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID: user.ID,
		Items: []CreateOrderItem{
			{ProductID: product.ID, Quantity: 1},
			{ProductID: product.ID, Quantity: 2},
		},
		Address: testShippingAddress(),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 3 {
		t.Fatalf("merged item want quantity 3 got %+v", order.Items)
	}
	if got := env.reloadProduct(t, product.ID).Stock; got != 2 {
		t.Fatalf("stock want 2 got %d", got)
	}
}

func TestCreateOrderRejectsEmptyAndInvalidInput(t *testing.T) {
	env := newTestEnv(t, "order_invalid")
	user := env.createUser(t, "buyer@example.com")
	product := env.createProduct(t, "freightliner-m2", "54000.00", 3)

	if _, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID:  user.ID,
		Address: testShippingAddress(),
	}); !errors.Is(err, ErrEmptyOrder) {
		t.Fatalf("want ErrEmptyOrder got %v", err)
	}

	if _, err := env.orderService.CreateOrder(CreateOrderInput{
		Items:   []CreateOrderItem{{ProductID: product.ID, Quantity: 1}},
		Address: testShippingAddress(),
	}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("want ErrUnauthenticated got %v", err)
	}

	if _, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID:  user.ID,
		Items:   []CreateOrderItem{{ProductID: product.ID, Quantity: 0}},
		Address: testShippingAddress(),
	}); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("want ErrInvalidQuantity got %v", err)
	}

	if _, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID:  user.ID,
		Items:   []CreateOrderItem{{ProductID: product.ID, Quantity: 1}},
		Address: AddressInput{Street: "somewhere"},
	}); !errors.Is(err, ErrAddressInvalid) {
		t.Fatalf("want ErrAddressInvalid got %v", err)
	}

	// 全部拒绝路径都不得动库存
	if got := env.reloadProduct(t, product.ID).Stock; got != 3 {
		t.Fatalf("stock want 3 got %d", got)
	}
}

func TestCreateOrderClearsCartBestEffort(t *testing.T) {
	env := newTestEnv(t, "order_cart_clear")
	user := env.createUser(t, "buyer@example.com")
	product := env.createProduct(t, "western-star-49x", "135000.00", 4)

	if err := env.cartService.AddItem(user.ID, product.ID, 2); err != nil {
		t.Fatalf("add to cart failed: %v", err)
	}
	if _, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID:  user.ID,
		Items:   []CreateOrderItem{{ProductID: product.ID, Quantity: 2}},
		Address: testShippingAddress(),
	}); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	cart, err := env.cartRepo.GetByUser(user.ID)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if cart == nil {
		t.Fatalf("cart row should survive order creation")
	}
	if len(cart.Items) != 0 {
		t.Fatalf("cart items want 0 got %d", len(cart.Items))
	}
}

func TestUpdateOrderStatusEnumeratesAllPairs(t *testing.T) {
	env := newTestEnv(t, "order_transitions")
	user := env.createUser(t, "buyer@example.com")
	statuses := []string{
		constants.OrderStatusPending,
		constants.OrderStatusProcessing,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
		constants.OrderStatusCancelled,
	}

	accepted := 0
	rejected := 0
	for _, from := range statuses {
		for _, to := range statuses {
			product := env.createProduct(t, "truck-"+from+"-"+to, "50000.00", 5)
			order, err := env.orderService.CreateOrder(CreateOrderInput{
				UserID:  user.ID,
				Items:   []CreateOrderItem{{ProductID: product.ID, Quantity: 1}},
				Address: testShippingAddress(),
			})
			if err != nil {
				t.Fatalf("create order failed: %v", err)
			}
			if from != constants.OrderStatusPending {
				if err := env.db.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", from).Error; err != nil {
					t.Fatalf("seed status failed: %v", err)
				}
			}

			updated, err := env.orderService.UpdateOrderStatus(order.ID, to)
			allowed := from == to || isTransitionAllowed(from, to)
			if allowed {
				if err != nil {
					t.Fatalf("transition %s->%s should succeed: %v", from, to, err)
				}
				if updated.Status != to {
					t.Fatalf("transition %s->%s status got %s", from, to, updated.Status)
				}
				accepted++
				continue
			}
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("transition %s->%s want ErrInvalidTransition got %v", from, to, err)
			}
			// 拒绝的迁移不得改动状态
			persisted, gerr := env.orderService.GetOrderForAdmin(order.ID)
			if gerr != nil {
				t.Fatalf("reload order failed: %v", gerr)
			}
			if persisted.Status != from {
				t.Fatalf("rejected transition %s->%s mutated status to %s", from, to, persisted.Status)
			}
			rejected++
		}
	}
	if accepted != 11 || rejected != 14 {
		t.Fatalf("accepted/rejected want 11/14 got %d/%d", accepted, rejected)
	}
}

func TestUpdateOrderStatusCancelReleasesStock(t *testing.T) {
	env := newTestEnv(t, "order_cancel_release")
	user := env.createUser(t, "buyer@example.com")
	product := env.createProduct(t, "volvo-vnr", "88000.00", 3)

	order, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID:  user.ID,
		Items:   []CreateOrderItem{{ProductID: product.ID, Quantity: 2}},
		Address: testShippingAddress(),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if got := env.reloadProduct(t, product.ID).Stock; got != 1 {
		t.Fatalf("stock after order want 1 got %d", got)
	}

	cancelled, err := env.orderService.UpdateOrderStatus(order.ID, constants.OrderStatusCancelled)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled {
		t.Fatalf("status want cancelled got %s", cancelled.Status)
	}
	if cancelled.CanceledAt == nil {
		t.Fatalf("canceled_at should be stamped")
	}
	if got := env.reloadProduct(t, product.ID).Stock; got != 3 {
		t.Fatalf("stock after cancel want 3 got %d", got)
	}
}

func TestCancelExpiredOrder(t *testing.T) {
	env := newTestEnv(t, "order_expire")
	user := env.createUser(t, "buyer@example.com")
	product := env.createProduct(t, "kenworth-w990", "165000.00", 2)

	order, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID:  user.ID,
		Items:   []CreateOrderItem{{ProductID: product.ID, Quantity: 1}},
		Address: testShippingAddress(),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	// 未到期：保持 pending
	untouched, err := env.orderService.CancelExpiredOrder(order.ID)
	if err != nil {
		t.Fatalf("cancel expired failed: %v", err)
	}
	if untouched.Status != constants.OrderStatusPending {
		t.Fatalf("not yet expired order should stay pending, got %s", untouched.Status)
	}

	expired := time.Now().Add(-time.Hour)
	if err := env.db.Model(&models.Order{}).Where("id = ?", order.ID).Update("expires_at", expired).Error; err != nil {
		t.Fatalf("backdate expiry failed: %v", err)
	}
	cancelled, err := env.orderService.CancelExpiredOrder(order.ID)
	if err != nil {
		t.Fatalf("cancel expired failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled {
		t.Fatalf("status want cancelled got %s", cancelled.Status)
	}
	if got := env.reloadProduct(t, product.ID).Stock; got != 2 {
		t.Fatalf("stock want 2 got %d", got)
	}

	// 已处于终态的订单重复执行是空操作
	again, err := env.orderService.CancelExpiredOrder(order.ID)
	if err != nil {
		t.Fatalf("second cancel expired failed: %v", err)
	}
	if again.Status != constants.OrderStatusCancelled {
		t.Fatalf("status want cancelled got %s", again.Status)
	}
}

func TestGetOrderByUserScopesOwnership(t *testing.T) {
	env := newTestEnv(t, "order_ownership")
	owner := env.createUser(t, "owner@example.com")
	other := env.createUser(t, "other@example.com")
	product := env.createProduct(t, "mack-pinnacle", "97000.00", 2)

	order, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID:  owner.ID,
		Items:   []CreateOrderItem{{ProductID: product.ID, Quantity: 1}},
		Address: testShippingAddress(),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if _, err := env.orderService.GetOrderByUser(order.ID, owner.ID); err != nil {
		t.Fatalf("owner fetch failed: %v", err)
	}
	if _, err := env.orderService.GetOrderByUser(order.ID, other.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("other user fetch want ErrOrderNotFound got %v", err)
	}
}
