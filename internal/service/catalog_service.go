package service

import (
	"context"
	"fmt"
	"time"

	"github.com/truckmart-next/internal/cache"
	"github.com/truckmart-next/internal/logger"
	"github.com/truckmart-next/internal/models"
	"github.com/truckmart-next/internal/repository"
)

const defaultProductCacheTTL = 5 * time.Minute

// CatalogService 商品目录读服务
type CatalogService struct {
	productRepo repository.ProductRepository
	cacheTTL    time.Duration
}

// NewCatalogService 创建目录服务
func NewCatalogService(productRepo repository.ProductRepository, cacheTTLSeconds int) *CatalogService {
	ttl := defaultProductCacheTTL
	if cacheTTLSeconds > 0 {
		ttl = time.Duration(cacheTTLSeconds) * time.Second
	}
	return &CatalogService{
		productRepo: productRepo,
		cacheTTL:    ttl,
	}
}

// GetProduct 获取商品详情（经过 Redis 缓存）
func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	if id == 0 {
		return nil, ErrProductNotFound
	}

	cacheKey := productCacheKey(id)
	if cache.Enabled() {
		var cached models.Product
		hit, err := cache.GetJSON(ctx, cacheKey, &cached)
		if err != nil {
			logger.Warnw("catalog_cache_read_failed", "product_id", id, "error", err)
		} else if hit {
			return &cached, nil
		}
	}

	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if cache.Enabled() {
		if err := cache.SetJSON(ctx, cacheKey, product, s.cacheTTL); err != nil {
			logger.Warnw("catalog_cache_write_failed", "product_id", id, "error", err)
		}
	}
	return product, nil
}

// ListProducts 商品列表（店面浏览）
func (s *CatalogService) ListProducts(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	return s.productRepo.List(filter)
}

// InvalidateProduct 失效商品缓存（商品变更、库存变动后调用）
func (s *CatalogService) InvalidateProduct(ctx context.Context, id uint) {
	if id == 0 || !cache.Enabled() {
		return
	}
	if err := cache.Del(ctx, productCacheKey(id)); err != nil {
		logger.Warnw("catalog_cache_invalidate_failed", "product_id", id, "error", err)
	}
}

func productCacheKey(id uint) string {
	return fmt.Sprintf("catalog:product:%d", id)
}
