package public

import (
	"strconv"

	"github.com/truckmart-next/internal/http/response"
	"github.com/truckmart-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListAddresses 获取当前用户地址簿（默认地址在前，新的在前）
func (h *Handler) ListAddresses(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	addresses, err := h.AddressService.ListAddresses(userID)
	if err != nil {
		respondWithMappedError(c, err, addressErrorRules, response.CodeInternal, "address list failed")
		return
	}
	response.Success(c, addresses)
}

// CreateAddress 新增收货地址
func (h *Handler) CreateAddress(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var input service.AddressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request payload", err)
		return
	}

	address, err := h.AddressService.AddAddress(userID, input)
	if err != nil {
		respondWithMappedError(c, err, addressErrorRules, response.CodeInternal, "address create failed")
		return
	}
	response.Success(c, address)
}

// DeleteAddress 删除收货地址（只能删除本人地址）
func (h *Handler) DeleteAddress(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	addressID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || addressID == 0 {
		respondError(c, response.CodeBadRequest, "invalid address id", nil)
		return
	}

	if err := h.AddressService.DeleteAddress(userID, uint(addressID)); err != nil {
		respondWithMappedError(c, err, addressErrorRules, response.CodeInternal, "address delete failed")
		return
	}
	response.Success(c, gin.H{"id": uint(addressID)})
}
