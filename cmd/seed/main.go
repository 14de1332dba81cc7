package main

import (
	"os"
	"strings"

	"github.com/truckmart-next/internal/config"
	"github.com/truckmart-next/internal/constants"
	"github.com/truckmart-next/internal/logger"
	"github.com/truckmart-next/internal/models"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(models.DB); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加分类
	categories := []models.Category{
		{Slug: "sleeper-trucks", Name: "Sleeper Trucks", SortOrder: 10},
		{Slug: "day-cab-trucks", Name: "Day Cab Trucks", SortOrder: 20},
		{Slug: "dump-trucks", Name: "Dump Trucks", SortOrder: 30},
	}
	for _, cat := range categories {
		var existing models.Category
		if err := models.DB.Where("slug = ?", cat.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&cat).Error; err != nil {
				stdLog.Printf("Failed to create category %s: %v", cat.Slug, err)
			} else {
				stdLog.Printf("Created category: %s", cat.Slug)
			}
		} else {
			stdLog.Printf("Category already exists: %s", cat.Slug)
		}
	}

	// 获取分类ID
	categoryIDs := map[string]uint{}
	var categoryList []models.Category
	if err := models.DB.Where("slug IN ?", []string{"sleeper-trucks", "day-cab-trucks", "dump-trucks"}).Find(&categoryList).Error; err != nil {
		stdLog.Printf("Failed to load categories: %v", err)
	}
	for _, cat := range categoryList {
		categoryIDs[cat.Slug] = cat.ID
	}

	// 添加车源
	products := []models.Product{
		{
			CategoryID:  categoryIDs["sleeper-trucks"],
			Slug:        "2021-peterbilt-579",
			Name:        "2021 Peterbilt 579",
			Description: "Well maintained single owner sleeper, fleet serviced with full records.",
			Price:       mustMoney("118500.00"),
			Stock:       2,
			Mileage:     412000,
			Location:    "Dallas, TX",
			Images:      models.StringArray{"https://images.truckmart.example/peterbilt-579.jpg"},
			Specs: models.JSON{
				"engine":       "PACCAR MX-13",
				"transmission": "Automated 12-speed",
				"sleeper":      "72in high roof",
			},
			IsActive:  true,
			SortOrder: 10,
		},
		{
			CategoryID:  categoryIDs["sleeper-trucks"],
			Slug:        "2020-freightliner-cascadia",
			Name:        "2020 Freightliner Cascadia 126",
			Description: "Detroit powertrain, new steer tires, DOT ready.",
			Price:       mustMoney("96500.00"),
			Stock:       4,
			Mileage:     489000,
			Location:    "Atlanta, GA",
			Images:      models.StringArray{"https://images.truckmart.example/cascadia-126.jpg"},
			Specs: models.JSON{
				"engine":       "Detroit DD15",
				"transmission": "DT12",
				"sleeper":      "72in raised roof",
			},
			IsActive:  true,
			SortOrder: 20,
		},
		{
			CategoryID:  categoryIDs["day-cab-trucks"],
			Slug:        "2022-kenworth-t680-daycab",
			Name:        "2022 Kenworth T680 Day Cab",
			Description: "Low mileage day cab, ideal for regional hauls.",
			Price:       mustMoney("132000.00"),
			Stock:       1,
			Mileage:     198000,
			Location:    "Phoenix, AZ",
			Images:      models.StringArray{"https://images.truckmart.example/t680-daycab.jpg"},
			Specs: models.JSON{
				"engine":       "PACCAR MX-13",
				"transmission": "Automated 12-speed",
				"axles":        "6x4",
			},
			IsActive:  true,
			SortOrder: 10,
		},
		{
			CategoryID:  categoryIDs["dump-trucks"],
			Slug:        "2019-mack-granite-64fr",
			Name:        "2019 Mack Granite 64FR",
			Description: "Tri-axle dump, 16ft steel body, work ready.",
			Price:       mustMoney("148000.00"),
			Stock:       1,
			Mileage:     156000,
			Location:    "Columbus, OH",
			Images:      models.StringArray{"https://images.truckmart.example/granite-64fr.jpg"},
			Specs: models.JSON{
				"engine":       "Mack MP8",
				"transmission": "mDRIVE HD",
				"body":         "16ft steel dump",
			},
			IsActive:  true,
			SortOrder: 10,
		},
	}
	for _, product := range products {
		if product.CategoryID == 0 {
			stdLog.Printf("Skip product %s: category missing", product.Slug)
			continue
		}
		var existing models.Product
		if err := models.DB.Where("slug = ?", product.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&product).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", product.Slug, err)
			} else {
				stdLog.Printf("Created product: %s", product.Slug)
			}
		} else {
			stdLog.Printf("Product already exists: %s", product.Slug)
		}
	}

	// 初始化管理员账号
	adminEmail := strings.ToLower(strings.TrimSpace(os.Getenv("TM_ADMIN_EMAIL")))
	adminPassword := os.Getenv("TM_ADMIN_PASSWORD")
	if adminEmail == "" {
		adminEmail = "admin@truckmart.local"
	}
	if adminPassword == "" {
		if cfg.Server.Mode == "release" {
			stdLog.Printf("TM_ADMIN_PASSWORD not set, skip admin seeding")
			return
		}
		adminPassword = "admin123456"
	}

	var existingAdmin models.User
	if err := models.DB.Where("email = ?", adminEmail).First(&existingAdmin).Error; err == nil {
		stdLog.Printf("Admin already exists: %s", adminEmail)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("Failed to hash admin password: %v", err)
	}
	admin := models.User{
		Email:        adminEmail,
		PasswordHash: string(hash),
		FirstName:    "Site",
		LastName:     "Admin",
		Role:         constants.UserRoleAdmin,
	}
	if err := models.DB.Create(&admin).Error; err != nil {
		stdLog.Fatalf("Failed to create admin: %v", err)
	}
	stdLog.Printf("Created admin: %s", adminEmail)
}

func mustMoney(value string) models.Money {
	money, err := models.NewMoneyFromString(value)
	if err != nil {
		panic(err)
	}
	return money
}
