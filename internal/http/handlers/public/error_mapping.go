package public

import (
	"errors"

	"github.com/truckmart-next/internal/http/response"
	"github.com/truckmart-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var productErrorRules = []mappedHandlerError{
	{target: service.ErrProductNotFound, code: response.CodeNotFound, msg: "product not found"},
}

var cartErrorRules = []mappedHandlerError{
	{target: service.ErrUnauthenticated, code: response.CodeUnauthorized, msg: "unauthorized"},
	{target: service.ErrCartNotFound, code: response.CodeNotFound, msg: "cart not found"},
	{target: service.ErrCartItemNotFound, code: response.CodeNotFound, msg: "cart item not found"},
	{target: service.ErrInvalidQuantity, code: response.CodeBadRequest, msg: "quantity must be at least 1"},
	{target: service.ErrProductNotFound, code: response.CodeNotFound, msg: "product not found"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, msg: "product not available"},
}

var addressErrorRules = []mappedHandlerError{
	{target: service.ErrUnauthenticated, code: response.CodeUnauthorized, msg: "unauthorized"},
	{target: service.ErrAddressInvalid, code: response.CodeBadRequest, msg: "address is incomplete"},
	{target: service.ErrAddressNotFound, code: response.CodeNotFound, msg: "address not found"},
}

var orderCreateErrorRules = []mappedHandlerError{
	{target: service.ErrUnauthenticated, code: response.CodeUnauthorized, msg: "unauthorized"},
	{target: service.ErrEmptyOrder, code: response.CodeBadRequest, msg: "order has no items"},
	{target: service.ErrInvalidQuantity, code: response.CodeBadRequest, msg: "quantity must be at least 1"},
	{target: service.ErrAddressInvalid, code: response.CodeBadRequest, msg: "shipping address is incomplete"},
	{target: service.ErrProductNotFound, code: response.CodeNotFound, msg: "product not found"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, msg: "product not available"},
	{target: service.ErrUserInvalid, code: response.CodeBadRequest, msg: "email is invalid"},
}

var orderReadErrorRules = []mappedHandlerError{
	{target: service.ErrUnauthenticated, code: response.CodeUnauthorized, msg: "unauthorized"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
}

var paymentCreateErrorRules = []mappedHandlerError{
	{target: service.ErrUnauthenticated, code: response.CodeUnauthorized, msg: "unauthorized"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrPaymentInvalid, code: response.CodeBadRequest, msg: "order is not payable"},
	{target: service.ErrPaymentProviderFailed, code: response.CodeBadRequest, msg: "payment gateway request failed"},
	{target: service.ErrOrderUpdateFailed, code: response.CodeInternal, msg: "order update failed"},
}

func respondOrderCreateError(c *gin.Context, err error) {
	var stockErr *service.InsufficientStockError
	if errors.As(err, &stockErr) {
		respondErrorWithData(c, response.CodeBadRequest, "insufficient stock", gin.H{
			"product_id": stockErr.ProductID,
		}, nil)
		return
	}
	respondWithMappedError(c, err, orderCreateErrorRules, response.CodeInternal, "order create failed")
}
