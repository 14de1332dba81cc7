package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/truckmart-next/internal/constants"
	"github.com/truckmart-next/internal/models"
)

type fakeProvider struct {
	calls  int
	keys   []string
	failed bool
}

func (p *fakeProvider) CreateIntent(ctx context.Context, input ProviderIntentInput) (*ProviderIntentResult, error) {
	p.calls++
	p.keys = append(p.keys, input.IdempotencyKey)
	if p.failed {
		return nil, errors.New("provider unreachable")
	}
	return &ProviderIntentResult{
		IntentID:     fmt.Sprintf("pi_fake_%s", input.IdempotencyKey),
		ClientSecret: fmt.Sprintf("pi_fake_%s_secret", input.IdempotencyKey),
		Status:       "pending",
	}, nil
}

func newPaymentTestEnv(t *testing.T, name string) (*testEnv, *PaymentService, *fakeProvider) {
	t.Helper()
	env := newTestEnv(t, name)
	provider := &fakeProvider{}
	paymentService := NewPaymentService(env.db, env.orderRepo, env.paymentRepo, env.orderService, provider)
	return env, paymentService, provider
}

func placeOrder(t *testing.T, env *testEnv, userID uint, slug string) *models.Order {
	t.Helper()
	product := env.createProduct(t, slug, "85000.00", 5)
	order, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID:  userID,
		Email:   "buyer@example.com",
		Items:   []CreateOrderItem{{ProductID: product.ID, Quantity: 1}},
		Address: testShippingAddress(),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestInitiatePaymentReusesIdempotencyKey(t *testing.T) {
	env, paymentService, provider := newPaymentTestEnv(t, "payment_idempotency")
	user := env.createUser(t, "buyer@example.com")
	order := placeOrder(t, env, user.ID, "cascadia-evolution")

	first, err := paymentService.InitiatePayment(context.Background(), user.ID, order.ID)
	if err != nil {
		t.Fatalf("first initiate failed: %v", err)
	}
	second, err := paymentService.InitiatePayment(context.Background(), user.ID, order.ID)
	if err != nil {
		t.Fatalf("second initiate failed: %v", err)
	}

	if provider.calls != 2 {
		t.Fatalf("provider calls want 2 got %d", provider.calls)
	}
	// 重试必须复用落库的幂等键，渠道侧才不会重复扣款
	if provider.keys[0] != provider.keys[1] {
		t.Fatalf("idempotency key should be reused: %v", provider.keys)
	}
	if first.IntentID != second.IntentID {
		t.Fatalf("intent id want stable got %s / %s", first.IntentID, second.IntentID)
	}

	updated, err := env.orderService.GetOrderForAdmin(order.ID)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if updated.Status != constants.OrderStatusProcessing {
		t.Fatalf("order status want processing got %s", updated.Status)
	}
	if updated.PaymentIntentID == nil || *updated.PaymentIntentID != first.IntentID {
		t.Fatalf("payment intent not linked: %+v", updated.PaymentIntentID)
	}
}

func TestInitiatePaymentKeyPersistedBeforeProviderCall(t *testing.T) {
	env, paymentService, provider := newPaymentTestEnv(t, "payment_key_first")
	user := env.createUser(t, "buyer@example.com")
	order := placeOrder(t, env, user.ID, "anthem-64t")

	provider.failed = true
	if _, err := paymentService.InitiatePayment(context.Background(), user.ID, order.ID); !errors.Is(err, ErrPaymentProviderFailed) {
		t.Fatalf("want ErrPaymentProviderFailed got %v", err)
	}

	// 渠道失败后重试仍用同一个键
	provider.failed = false
	if _, err := paymentService.InitiatePayment(context.Background(), user.ID, order.ID); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if provider.keys[0] != provider.keys[1] {
		t.Fatalf("key should survive provider failure: %v", provider.keys)
	}
}

func TestInitiatePaymentChecksOwnership(t *testing.T) {
	env, paymentService, _ := newPaymentTestEnv(t, "payment_ownership")
	owner := env.createUser(t, "owner@example.com")
	intruder := env.createUser(t, "intruder@example.com")
	order := placeOrder(t, env, owner.ID, "vnl-760")

	if _, err := paymentService.InitiatePayment(context.Background(), intruder.ID, order.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("want ErrOrderNotFound got %v", err)
	}
}

func TestReconcileSucceededIsIdempotent(t *testing.T) {
	env, paymentService, _ := newPaymentTestEnv(t, "payment_reconcile")
	user := env.createUser(t, "buyer@example.com")
	order := placeOrder(t, env, user.ID, "t680-next-gen")

	detail, err := paymentService.InitiatePayment(context.Background(), user.ID, order.ID)
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}

	first, err := paymentService.Reconcile(ReconcileInput{
		IntentID: detail.IntentID,
		Outcome:  constants.PaymentOutcomeSucceeded,
	})
	if err != nil {
		t.Fatalf("first reconcile failed: %v", err)
	}
	if first.Status != constants.PaymentStatusSucceeded {
		t.Fatalf("payment status want succeeded got %s", first.Status)
	}
	if first.PaidAt == nil {
		t.Fatalf("paid_at should be stamped")
	}

	// 重放同一结果：幂等短路，不再改动任何记录
	second, err := paymentService.Reconcile(ReconcileInput{
		IntentID: detail.IntentID,
		Outcome:  constants.PaymentOutcomeSucceeded,
	})
	if err != nil {
		t.Fatalf("second reconcile failed: %v", err)
	}
	if second.Status != constants.PaymentStatusSucceeded {
		t.Fatalf("replay status want succeeded got %s", second.Status)
	}

	reloaded, err := env.orderService.GetOrderForAdmin(order.ID)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusProcessing {
		t.Fatalf("order status want processing got %s", reloaded.Status)
	}
	if reloaded.PaidAt == nil {
		t.Fatalf("order paid_at should be stamped")
	}
}

func TestReconcileFailedKeepsOrderProcessing(t *testing.T) {
	env, paymentService, _ := newPaymentTestEnv(t, "payment_failed")
	user := env.createUser(t, "buyer@example.com")
	order := placeOrder(t, env, user.ID, "lt625")

	detail, err := paymentService.InitiatePayment(context.Background(), user.ID, order.ID)
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}

	payment, err := paymentService.Reconcile(ReconcileInput{
		IntentID:       detail.IntentID,
		Outcome:        constants.PaymentOutcomeFailed,
		FailureMessage: "card_declined",
	})
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if payment.Status != constants.PaymentStatusFailed {
		t.Fatalf("payment status want failed got %s", payment.Status)
	}

	reloaded, err := env.orderService.GetOrderForAdmin(order.ID)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusProcessing {
		t.Fatalf("failed payment should leave order processing, got %s", reloaded.Status)
	}
	if reloaded.PaymentError != "card_declined" {
		t.Fatalf("payment_error want card_declined got %q", reloaded.PaymentError)
	}
}

func TestReconcileCancelledCancelsOrderAndReleasesStock(t *testing.T) {
	env, paymentService, _ := newPaymentTestEnv(t, "payment_cancelled")
	user := env.createUser(t, "buyer@example.com")
	product := env.createProduct(t, "w990-icon", "165000.00", 2)
	order, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID:  user.ID,
		Items:   []CreateOrderItem{{ProductID: product.ID, Quantity: 1}},
		Address: testShippingAddress(),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	detail, err := paymentService.InitiatePayment(context.Background(), user.ID, order.ID)
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	if _, err := paymentService.Reconcile(ReconcileInput{
		IntentID: detail.IntentID,
		Outcome:  constants.PaymentOutcomeCancelled,
	}); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	reloaded, err := env.orderService.GetOrderForAdmin(order.ID)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusCancelled {
		t.Fatalf("order status want cancelled got %s", reloaded.Status)
	}
	if got := env.reloadProduct(t, product.ID).Stock; got != 2 {
		t.Fatalf("stock want 2 got %d", got)
	}
}

func TestReconcileSucceededDoesNotReviveCancelledOrder(t *testing.T) {
	env, paymentService, _ := newPaymentTestEnv(t, "payment_late_success")
	user := env.createUser(t, "buyer@example.com")
	product := env.createProduct(t, "cascadia-126", "118000.00", 2)
	order, err := env.orderService.CreateOrder(CreateOrderInput{
		UserID:  user.ID,
		Items:   []CreateOrderItem{{ProductID: product.ID, Quantity: 1}},
		Address: testShippingAddress(),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	detail, err := paymentService.InitiatePayment(context.Background(), user.ID, order.ID)
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	// 买家在成功回调落地前取消了订单，库存已回补
	if _, err := env.orderService.UpdateOrderStatus(order.ID, constants.OrderStatusCancelled); err != nil {
		t.Fatalf("cancel order failed: %v", err)
	}
	if got := env.reloadProduct(t, product.ID).Stock; got != 2 {
		t.Fatalf("stock after cancel want 2 got %d", got)
	}

	payment, err := paymentService.Reconcile(ReconcileInput{
		IntentID: detail.IntentID,
		Outcome:  constants.PaymentOutcomeSucceeded,
	})
	if err != nil {
		t.Fatalf("late success reconcile failed: %v", err)
	}
	// 支付记录照常落账，便于人工退款对账
	if payment.Status != constants.PaymentStatusSucceeded {
		t.Fatalf("payment status want succeeded got %s", payment.Status)
	}

	reloaded, err := env.orderService.GetOrderForAdmin(order.ID)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusCancelled {
		t.Fatalf("cancelled order must stay cancelled, got %s", reloaded.Status)
	}
	if reloaded.PaidAt != nil {
		t.Fatalf("cancelled order must not get paid_at stamped")
	}
	if got := env.reloadProduct(t, product.ID).Stock; got != 2 {
		t.Fatalf("stock must stay released, want 2 got %d", got)
	}
}

func TestReconcileUnknownIntent(t *testing.T) {
	_, paymentService, _ := newPaymentTestEnv(t, "payment_unknown")

	if _, err := paymentService.Reconcile(ReconcileInput{
		IntentID: "pi_never_seen",
		Outcome:  constants.PaymentOutcomeSucceeded,
	}); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("want ErrPaymentNotFound got %v", err)
	}

	if _, err := paymentService.Reconcile(ReconcileInput{
		IntentID: "pi_whatever",
		Outcome:  "refunded",
	}); !errors.Is(err, ErrPaymentOutcomeInvalid) {
		t.Fatalf("want ErrPaymentOutcomeInvalid got %v", err)
	}
}

func TestReconcileDoesNotDowngradeSucceededPayment(t *testing.T) {
	env, paymentService, _ := newPaymentTestEnv(t, "payment_no_downgrade")
	user := env.createUser(t, "buyer@example.com")
	order := placeOrder(t, env, user.ID, "pinnacle-he")

	detail, err := paymentService.InitiatePayment(context.Background(), user.ID, order.ID)
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	if _, err := paymentService.Reconcile(ReconcileInput{
		IntentID: detail.IntentID,
		Outcome:  constants.PaymentOutcomeSucceeded,
	}); err != nil {
		t.Fatalf("succeed reconcile failed: %v", err)
	}

	payment, err := paymentService.Reconcile(ReconcileInput{
		IntentID: detail.IntentID,
		Outcome:  constants.PaymentOutcomeFailed,
	})
	if err != nil {
		t.Fatalf("late failed event should be ignored, got %v", err)
	}
	if payment.Status != constants.PaymentStatusSucceeded {
		t.Fatalf("late event must not downgrade, got %s", payment.Status)
	}
}
