package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/truckmart-next/internal/models"
	"github.com/truckmart-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	db *gorm.DB

	userRepo    repository.UserRepository
	addressRepo repository.AddressRepository
	productRepo repository.ProductRepository
	cartRepo    repository.CartRepository
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository

	addressService *AddressService
	cartService    *CartService
	catalogService *CatalogService
	orderService   *OrderService
	userService    *UserService
}

func newTestEnv(t *testing.T, name string) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	env := &testEnv{
		db:          db,
		userRepo:    repository.NewUserRepository(db),
		addressRepo: repository.NewAddressRepository(db),
		productRepo: repository.NewProductRepository(db),
		cartRepo:    repository.NewCartRepository(db),
		orderRepo:   repository.NewOrderRepository(db),
		paymentRepo: repository.NewPaymentRepository(db),
	}
	env.addressService = NewAddressService(db, env.addressRepo)
	env.cartService = NewCartService(env.cartRepo, env.productRepo)
	env.catalogService = NewCatalogService(env.productRepo, 0)
	env.orderService = NewOrderService(db, env.orderRepo, env.productRepo, env.cartService, nil, "USD", 30)
	env.userService = NewUserService(db, env.userRepo, env.cartRepo, env.addressRepo, env.orderRepo, env.paymentRepo)
	return env
}

func (e *testEnv) createProduct(t *testing.T, slug string, price string, stock int64) *models.Product {
	t.Helper()
	money, err := models.NewMoneyFromString(price)
	if err != nil {
		t.Fatalf("parse price failed: %v", err)
	}
	product := models.Product{
		CategoryID: 1,
		Slug:       slug,
		Name:       "Peterbilt 579",
		Price:      money,
		Stock:      stock,
		IsActive:   true,
	}
	if err := e.db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return &product
}

func (e *testEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	user := models.User{
		Email:        email,
		PasswordHash: "x",
		Role:         "user",
	}
	if err := e.db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return &user
}

func (e *testEnv) reloadProduct(t *testing.T, id uint) *models.Product {
	t.Helper()
	var product models.Product
	if err := e.db.First(&product, id).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	return &product
}

func testShippingAddress() AddressInput {
	return AddressInput{
		Street:     "4500 Interstate Loop",
		City:       "Dallas",
		State:      "TX",
		PostalCode: "75201",
		Country:    "US",
	}
}
