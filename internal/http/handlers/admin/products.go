package admin

import (
	"strconv"

	handlershared "github.com/truckmart-next/internal/http/handlers/shared"
	"github.com/truckmart-next/internal/http/response"
	"github.com/truckmart-next/internal/repository"
	"github.com/truckmart-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAdminProducts 后台商品列表（含已下架商品）
func (h *Handler) GetAdminProducts(c *gin.Context) {
	if _, ok := getAdminID(c); !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.ProductListFilter{
		Page:         page,
		PageSize:     pageSize,
		CategoryID:   c.Query("category_id"),
		Search:       c.Query("search"),
		WithCategory: true,
	}

	products, total, err := h.ProductAdminService.ListProductsForAdmin(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "product list failed", err)
		return
	}
	response.SuccessWithPage(c, products, response.BuildPagination(page, pageSize, total))
}

// GetAdminProduct 后台商品详情
func (h *Handler) GetAdminProduct(c *gin.Context) {
	if _, ok := getAdminID(c); !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid product id", nil)
		return
	}

	product, err := h.ProductRepo.GetByID(uint(id))
	if err != nil {
		respondError(c, response.CodeInternal, "product fetch failed", err)
		return
	}
	if product == nil {
		respondError(c, response.CodeNotFound, "product not found", nil)
		return
	}
	response.Success(c, product)
}

// CreateProduct 新建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	if _, ok := getAdminID(c); !ok {
		return
	}

	var input service.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request payload", err)
		return
	}

	product, err := h.ProductAdminService.CreateProduct(input)
	if err != nil {
		respondWithMappedError(c, err, productAdminErrorRules, response.CodeInternal, "product create failed")
		return
	}
	response.Success(c, product)
}

// UpdateProduct 更新商品（部分字段），并失效目录缓存
func (h *Handler) UpdateProduct(c *gin.Context) {
	if _, ok := getAdminID(c); !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid product id", nil)
		return
	}

	var input service.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request payload", err)
		return
	}

	product, err := h.ProductAdminService.UpdateProduct(c.Request.Context(), uint(id), input)
	if err != nil {
		respondWithMappedError(c, err, productAdminErrorRules, response.CodeInternal, "product update failed")
		return
	}
	response.Success(c, product)
}

// DeleteProduct 下架并软删除商品
func (h *Handler) DeleteProduct(c *gin.Context) {
	if _, ok := getAdminID(c); !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid product id", nil)
		return
	}

	if err := h.ProductAdminService.DeleteProduct(c.Request.Context(), uint(id)); err != nil {
		respondWithMappedError(c, err, productAdminErrorRules, response.CodeInternal, "product delete failed")
		return
	}
	response.Success(c, gin.H{"id": uint(id)})
}
