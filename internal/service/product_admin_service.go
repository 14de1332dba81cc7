package service

import (
	"context"
	"strings"
	"time"

	"github.com/truckmart-next/internal/logger"
	"github.com/truckmart-next/internal/models"
	"github.com/truckmart-next/internal/repository"
)

// ProductInput 商品创建/更新输入
type ProductInput struct {
	CategoryID  uint               `json:"category_id"`
	Slug        string             `json:"slug"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Price       string             `json:"price"`
	Stock       int64              `json:"stock"`
	Mileage     int64              `json:"mileage"`
	Location    string             `json:"location"`
	Images      models.StringArray `json:"images"`
	Specs       models.JSON        `json:"specs"`
	IsActive    *bool              `json:"is_active"`
	SortOrder   int                `json:"sort_order"`
}

// ProductAdminService 商品管理服务（管理端）
type ProductAdminService struct {
	productRepo repository.ProductRepository
	catalog     *CatalogService
}

// NewProductAdminService 创建商品管理服务
func NewProductAdminService(productRepo repository.ProductRepository, catalog *CatalogService) *ProductAdminService {
	return &ProductAdminService{
		productRepo: productRepo,
		catalog:     catalog,
	}
}

// CreateProduct 创建商品。slug 全局唯一。
func (s *ProductAdminService) CreateProduct(input ProductInput) (*models.Product, error) {
	slug := strings.TrimSpace(strings.ToLower(input.Slug))
	name := strings.TrimSpace(input.Name)
	if slug == "" || name == "" || input.CategoryID == 0 {
		return nil, ErrProductInvalid
	}
	price, err := models.NewMoneyFromString(input.Price)
	if err != nil || price.Decimal.IsNegative() {
		return nil, ErrProductInvalid
	}
	if input.Stock < 0 {
		return nil, ErrProductInvalid
	}

	count, err := s.productRepo.CountBySlug(slug, nil)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrProductSlugTaken
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	now := time.Now()
	product := &models.Product{
		CategoryID:  input.CategoryID,
		Slug:        slug,
		Name:        name,
		Description: input.Description,
		Price:       price,
		Stock:       input.Stock,
		Mileage:     input.Mileage,
		Location:    strings.TrimSpace(input.Location),
		Images:      input.Images,
		Specs:       input.Specs,
		IsActive:    isActive,
		SortOrder:   input.SortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.productRepo.Create(product); err != nil {
		logger.Errorw("product_create_failed", "slug", slug, "error", err)
		return nil, err
	}
	return product, nil
}

// UpdateProduct 更新商品并失效缓存
func (s *ProductAdminService) UpdateProduct(ctx context.Context, id uint, input ProductInput) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if slug := strings.TrimSpace(strings.ToLower(input.Slug)); slug != "" && slug != product.Slug {
		count, err := s.productRepo.CountBySlug(slug, &product.ID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrProductSlugTaken
		}
		product.Slug = slug
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		product.Name = name
	}
	if input.CategoryID != 0 {
		product.CategoryID = input.CategoryID
	}
	if strings.TrimSpace(input.Price) != "" {
		price, err := models.NewMoneyFromString(input.Price)
		if err != nil || price.Decimal.IsNegative() {
			return nil, ErrProductInvalid
		}
		product.Price = price
	}
	if input.Stock >= 0 {
		product.Stock = input.Stock
	}
	if input.Mileage >= 0 {
		product.Mileage = input.Mileage
	}
	if location := strings.TrimSpace(input.Location); location != "" {
		product.Location = location
	}
	if input.Images != nil {
		product.Images = input.Images
	}
	if input.Specs != nil {
		product.Specs = input.Specs
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	product.SortOrder = input.SortOrder
	product.Description = input.Description
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(product); err != nil {
		logger.Errorw("product_update_failed", "product_id", id, "error", err)
		return nil, err
	}
	if s.catalog != nil {
		s.catalog.InvalidateProduct(ctx, product.ID)
	}
	return product, nil
}

// DeleteProduct 删除商品（软删除）并失效缓存
func (s *ProductAdminService) DeleteProduct(ctx context.Context, id uint) error {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	if err := s.productRepo.Delete(product.ID); err != nil {
		logger.Errorw("product_delete_failed", "product_id", id, "error", err)
		return err
	}
	if s.catalog != nil {
		s.catalog.InvalidateProduct(ctx, product.ID)
	}
	return nil
}

// ListProductsForAdmin 管理端商品列表（含下架商品）
func (s *ProductAdminService) ListProductsForAdmin(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	filter.OnlyActive = false
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	return s.productRepo.List(filter)
}
