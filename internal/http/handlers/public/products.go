package public

import (
	"strconv"

	handlershared "github.com/truckmart-next/internal/http/handlers/shared"
	"github.com/truckmart-next/internal/http/response"
	"github.com/truckmart-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetProducts 店面商品列表（只含上架商品）
func (h *Handler) GetProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.ProductListFilter{
		Page:         page,
		PageSize:     pageSize,
		CategoryID:   c.Query("category_id"),
		Search:       c.Query("search"),
		OnlyActive:   true,
		WithCategory: true,
	}

	products, total, err := h.CatalogService.ListProducts(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "product list failed", err)
		return
	}
	response.SuccessWithPage(c, products, response.BuildPagination(page, pageSize, total))
}

// GetProduct 店面商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid product id", nil)
		return
	}

	product, err := h.CatalogService.GetProduct(c.Request.Context(), uint(id))
	if err != nil {
		respondWithMappedError(c, err, productErrorRules, response.CodeInternal, "product fetch failed")
		return
	}
	if !product.IsActive {
		respondError(c, response.CodeNotFound, "product not found", nil)
		return
	}
	response.Success(c, product)
}
