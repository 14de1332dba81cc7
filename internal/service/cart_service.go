package service

import (
	"time"

	"github.com/truckmart-next/internal/logger"
	"github.com/truckmart-next/internal/models"
	"github.com/truckmart-next/internal/repository"

	"github.com/shopspring/decimal"
)

// CartItemDetail 购物车项详情（用于响应）
type CartItemDetail struct {
	ProductID uint            `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice models.Money    `json:"unit_price"`
	Product   *models.Product `json:"product"`
}

// CartDetail 购物车详情
type CartDetail struct {
	CartID uint             `json:"cart_id"`
	Items  []CartItemDetail `json:"items"`
	Total  models.Money     `json:"total"`
}

// CartService 购物车服务
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetCart 获取用户购物车。从未加购过的用户返回 ErrCartNotFound；
// 已下架商品从视图中剔除。
func (s *CartService) GetCart(userID uint) (*CartDetail, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	cart, err := s.cartRepo.GetByUser(userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}

	detail := &CartDetail{
		CartID: cart.ID,
		Items:  make([]CartItemDetail, 0, len(cart.Items)),
	}
	total := models.Money{}
	for _, item := range cart.Items {
		product := item.Product
		if product == nil || product.ID == 0 {
			p, err := s.productRepo.GetByID(item.ProductID)
			if err != nil {
				return nil, err
			}
			product = p
		}
		if product == nil || !product.IsActive {
			// 视图里先剔除；物理清理失败留给下次读取重试
			if err := s.cartRepo.DeleteItem(cart.ID, item.ProductID); err != nil {
				logger.Warnw("cart_inactive_item_cleanup_failed",
					"cart_id", cart.ID,
					"product_id", item.ProductID,
					"error", err,
				)
			}
			continue
		}
		line := product.Price.Mul(lineQuantity(item.Quantity))
		total.Decimal = total.Decimal.Add(line)
		detail.Items = append(detail.Items, CartItemDetail{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
			Product:   product,
		})
	}
	detail.Total = models.NewMoneyFromDecimal(total.Decimal)
	return detail, nil
}

func lineQuantity(quantity int) decimal.Decimal {
	return decimal.NewFromInt(int64(quantity))
}

// AddItem 加购。购物车懒创建；同商品重复加购累加数量。
func (s *CartService) AddItem(userID, productID uint, quantity int) error {
	if userID == 0 {
		return ErrUnauthenticated
	}
	if productID == 0 {
		return ErrProductNotFound
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return err
	}
	if product == nil || !product.IsActive {
		return ErrProductNotAvailable
	}

	cart, err := s.cartRepo.GetOrCreateByUser(userID)
	if err != nil {
		return err
	}
	existing, err := s.cartRepo.GetItem(cart.ID, productID)
	if err != nil {
		return err
	}
	if existing != nil {
		return s.cartRepo.UpdateItemQuantity(existing.ID, existing.Quantity+quantity)
	}

	now := time.Now()
	item := &models.CartItem{
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.cartRepo.CreateItem(item)
}

// UpdateItemQuantity 覆盖购物车项数量
func (s *CartService) UpdateItemQuantity(userID, productID uint, quantity int) error {
	if userID == 0 {
		return ErrUnauthenticated
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	cart, err := s.cartRepo.GetByUser(userID)
	if err != nil {
		return err
	}
	if cart == nil {
		return ErrCartNotFound
	}
	item, err := s.cartRepo.GetItem(cart.ID, productID)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrCartItemNotFound
	}
	return s.cartRepo.UpdateItemQuantity(item.ID, quantity)
}

// RemoveItem 删除购物车项（幂等，不存在时视为成功）
func (s *CartService) RemoveItem(userID, productID uint) error {
	if userID == 0 {
		return ErrUnauthenticated
	}
	cart, err := s.cartRepo.GetByUser(userID)
	if err != nil {
		return err
	}
	if cart == nil {
		return nil
	}
	return s.cartRepo.DeleteItem(cart.ID, productID)
}

// ClearCart 清空购物车项（下单成功后调用，购物车本身保留）
func (s *CartService) ClearCart(userID uint) error {
	if userID == 0 {
		return ErrUnauthenticated
	}
	cart, err := s.cartRepo.GetByUser(userID)
	if err != nil {
		return err
	}
	if cart == nil {
		return nil
	}
	return s.cartRepo.ClearItems(cart.ID)
}
