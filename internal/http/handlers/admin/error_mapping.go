package admin

import (
	"errors"

	"github.com/truckmart-next/internal/http/response"
	"github.com/truckmart-next/internal/service"

	"github.com/gin-gonic/gin"
)

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

var orderStatusErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrOrderStatusInvalid, code: response.CodeBadRequest, msg: "unknown order status"},
	{target: service.ErrInvalidTransition, code: response.CodeBadRequest, msg: "status transition not allowed"},
	{target: service.ErrOrderUpdateFailed, code: response.CodeInternal, msg: "order update failed"},
}

var productAdminErrorRules = []mappedHandlerError{
	{target: service.ErrProductNotFound, code: response.CodeNotFound, msg: "product not found"},
	{target: service.ErrProductSlugTaken, code: response.CodeBadRequest, msg: "slug already exists"},
	{target: service.ErrProductInvalid, code: response.CodeBadRequest, msg: "invalid product payload"},
}

var userAdminErrorRules = []mappedHandlerError{
	{target: service.ErrUserNotFound, code: response.CodeNotFound, msg: "user not found"},
	{target: service.ErrRoleInvalid, code: response.CodeBadRequest, msg: "unknown role"},
	{target: service.ErrUserDeleteFailed, code: response.CodeInternal, msg: "user delete failed"},
}
