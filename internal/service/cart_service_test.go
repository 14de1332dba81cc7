package service

import (
	"errors"
	"testing"
)

func TestCartAddItemAccumulates(t *testing.T) {
	env := newTestEnv(t, "cart_accumulate")
	user := env.createUser(t, "buyer@example.com")
	product := env.createProduct(t, "freightliner-cascadia", "85000.00", 10)

	if err := env.cartService.AddItem(user.ID, product.ID, 1); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if err := env.cartService.AddItem(user.ID, product.ID, 2); err != nil {
		t.Fatalf("second add failed: %v", err)
	}

	detail, err := env.cartService.GetCart(user.ID)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if len(detail.Items) != 1 {
		t.Fatalf("items want 1 got %d", len(detail.Items))
	}
	if detail.Items[0].Quantity != 3 {
		t.Fatalf("quantity want 3 got %d", detail.Items[0].Quantity)
	}
	if got := detail.Total.String(); got != "255000.00" {
		t.Fatalf("total want 255000.00 got %s", got)
	}
}

func TestCartRejectsInvalidQuantityUnchanged(t *testing.T) {
	env := newTestEnv(t, "cart_invalid_qty")
	user := env.createUser(t, "buyer@example.com")
	product := env.createProduct(t, "kenworth-t880", "105000.00", 5)

	if err := env.cartService.AddItem(user.ID, product.ID, 2); err != nil {
		t.Fatalf("seed add failed: %v", err)
	}
	if err := env.cartService.AddItem(user.ID, product.ID, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("add qty 0 want ErrInvalidQuantity got %v", err)
	}
	if err := env.cartService.UpdateItemQuantity(user.ID, product.ID, -1); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("update qty -1 want ErrInvalidQuantity got %v", err)
	}

	detail, err := env.cartService.GetCart(user.ID)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if detail.Items[0].Quantity != 2 {
		t.Fatalf("quantity should be unchanged, got %d", detail.Items[0].Quantity)
	}
}

func TestCartGetCartNotFoundForNewUser(t *testing.T) {
	env := newTestEnv(t, "cart_not_found")
	user := env.createUser(t, "fresh@example.com")

	if _, err := env.cartService.GetCart(user.ID); !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("want ErrCartNotFound got %v", err)
	}
}

func TestCartUpdateMissingLine(t *testing.T) {
	env := newTestEnv(t, "cart_missing_line")
	user := env.createUser(t, "buyer@example.com")
	inCart := env.createProduct(t, "volvo-vnl", "91000.00", 5)
	other := env.createProduct(t, "mack-granite", "87000.00", 5)

	if err := env.cartService.AddItem(user.ID, inCart.ID, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := env.cartService.UpdateItemQuantity(user.ID, other.ID, 2); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("want ErrCartItemNotFound got %v", err)
	}
}

func TestCartRemoveItemIdempotent(t *testing.T) {
	env := newTestEnv(t, "cart_remove")
	user := env.createUser(t, "buyer@example.com")
	product := env.createProduct(t, "international-hx", "124000.00", 5)

	if err := env.cartService.AddItem(user.ID, product.ID, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := env.cartService.RemoveItem(user.ID, product.ID); err != nil {
		t.Fatalf("first remove failed: %v", err)
	}
	if err := env.cartService.RemoveItem(user.ID, product.ID); err != nil {
		t.Fatalf("second remove should be a no-op: %v", err)
	}
}

func TestCartDropsInactiveProductFromView(t *testing.T) {
	env := newTestEnv(t, "cart_inactive")
	user := env.createUser(t, "buyer@example.com")
	active := env.createProduct(t, "peterbilt-389", "148000.00", 3)
	retired := env.createProduct(t, "peterbilt-379", "60000.00", 3)

	if err := env.cartService.AddItem(user.ID, active.ID, 1); err != nil {
		t.Fatalf("add active failed: %v", err)
	}
	if err := env.cartService.AddItem(user.ID, retired.ID, 1); err != nil {
		t.Fatalf("add retired failed: %v", err)
	}
	if err := env.db.Model(retired).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	detail, err := env.cartService.GetCart(user.ID)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if len(detail.Items) != 1 || detail.Items[0].ProductID != active.ID {
		t.Fatalf("inactive product should be dropped, got %+v", detail.Items)
	}
	if got := detail.Total.String(); got != "148000.00" {
		t.Fatalf("total want 148000.00 got %s", got)
	}
}

func TestCartRequiresAuthenticatedUser(t *testing.T) {
	env := newTestEnv(t, "cart_auth")
	product := env.createProduct(t, "western-star-57x", "139000.00", 2)

	if err := env.cartService.AddItem(0, product.ID, 1); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("want ErrUnauthenticated got %v", err)
	}
	if _, err := env.cartService.GetCart(0); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("want ErrUnauthenticated got %v", err)
	}
}
