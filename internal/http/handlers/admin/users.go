package admin

import (
	"strconv"

	handlershared "github.com/truckmart-next/internal/http/handlers/shared"
	"github.com/truckmart-next/internal/http/response"
	"github.com/truckmart-next/internal/repository"

	"github.com/gin-gonic/gin"
)

type updateUserRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// GetAdminUsers 后台用户列表
func (h *Handler) GetAdminUsers(c *gin.Context) {
	if _, ok := getAdminID(c); !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.UserListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  c.Query("keyword"),
		Role:     c.Query("role"),
	}

	users, total, err := h.UserService.ListUsers(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "user list failed", err)
		return
	}
	response.SuccessWithPage(c, users, response.BuildPagination(page, pageSize, total))
}

// UpdateUserRole 调整用户角色
func (h *Handler) UpdateUserRole(c *gin.Context) {
	if _, ok := getAdminID(c); !ok {
		return
	}

	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || userID == 0 {
		respondError(c, response.CodeBadRequest, "invalid user id", nil)
		return
	}

	var req updateUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request payload", err)
		return
	}

	user, err := h.UserService.UpdateRole(uint(userID), req.Role)
	if err != nil {
		respondWithMappedError(c, err, userAdminErrorRules, response.CodeInternal, "user update failed")
		return
	}
	response.Success(c, user)
}

// DeleteUser 删除用户及其购物车、地址、订单与支付记录
func (h *Handler) DeleteUser(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || userID == 0 {
		respondError(c, response.CodeBadRequest, "invalid user id", nil)
		return
	}
	if uint(userID) == adminID {
		respondError(c, response.CodeBadRequest, "cannot delete current account", nil)
		return
	}

	if err := h.UserService.DeleteUser(uint(userID)); err != nil {
		respondWithMappedError(c, err, userAdminErrorRules, response.CodeInternal, "user delete failed")
		return
	}
	response.Success(c, gin.H{"id": uint(userID)})
}
