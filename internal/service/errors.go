package service

import (
	"errors"
	"fmt"
)

// 业务错误定义
var (
	ErrUnauthenticated = errors.New("unauthenticated")

	ErrAddressInvalid  = errors.New("address invalid")
	ErrAddressNotFound = errors.New("address not found")

	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrInvalidQuantity  = errors.New("invalid quantity")

	ErrProductNotFound     = errors.New("product not found")
	ErrProductNotAvailable = errors.New("product not available")
	ErrProductInvalid      = errors.New("product invalid")
	ErrProductSlugTaken    = errors.New("product slug already exists")

	ErrEmptyOrder         = errors.New("order has no items")
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderCreateFailed  = errors.New("order create failed")
	ErrOrderFetchFailed   = errors.New("order fetch failed")
	ErrOrderUpdateFailed  = errors.New("order update failed")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrOrderStatusInvalid = errors.New("order status invalid")

	ErrInsufficientStock = errors.New("insufficient stock")

	ErrPaymentNotFound       = errors.New("payment not found")
	ErrPaymentInvalid        = errors.New("payment invalid")
	ErrPaymentOutcomeInvalid = errors.New("payment outcome invalid")
	ErrPaymentUpdateFailed   = errors.New("payment update failed")
	ErrPaymentProviderFailed = errors.New("payment provider failed")

	ErrUserNotFound     = errors.New("user not found")
	ErrUserInvalid      = errors.New("user invalid")
	ErrEmailTaken       = errors.New("email already registered")
	ErrRoleInvalid      = errors.New("role invalid")
	ErrUserCreateFailed = errors.New("user create failed")
	ErrUserDeleteFailed = errors.New("user delete failed")
)

// InsufficientStockError 库存不足错误，携带缺货商品ID。
// errors.Is(err, ErrInsufficientStock) 为真。
type InsufficientStockError struct {
	ProductID uint
}

// Error 实现 error 接口
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d", e.ProductID)
}

// Is 支持哨兵错误匹配
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
