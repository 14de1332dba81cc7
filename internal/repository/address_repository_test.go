package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/truckmart-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAddressRepositoryTest(t *testing.T) (*GormAddressRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:address_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Address{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewAddressRepository(db), db
}

func TestAddressRepositoryDemoteDefaults(t *testing.T) {
	repo, db := setupAddressRepositoryTest(t)

	existing := models.Address{
		UserID:     7,
		Street:     "100 Main St",
		City:       "Dallas",
		State:      "TX",
		PostalCode: "75201",
		Country:    "US",
		IsDefault:  true,
	}
	if err := db.Create(&existing).Error; err != nil {
		t.Fatalf("create address failed: %v", err)
	}
	other := models.Address{
		UserID:     8,
		Street:     "200 Side St",
		City:       "Austin",
		State:      "TX",
		PostalCode: "78701",
		Country:    "US",
		IsDefault:  true,
	}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("create other user address failed: %v", err)
	}

	if err := repo.DemoteDefaults(7); err != nil {
		t.Fatalf("demote defaults failed: %v", err)
	}

	var reloaded models.Address
	if err := db.First(&reloaded, existing.ID).Error; err != nil {
		t.Fatalf("reload address failed: %v", err)
	}
	if reloaded.IsDefault {
		t.Fatalf("expected existing default to be demoted")
	}

	// 其他用户的默认地址不受影响
	var otherReloaded models.Address
	if err := db.First(&otherReloaded, other.ID).Error; err != nil {
		t.Fatalf("reload other address failed: %v", err)
	}
	if !otherReloaded.IsDefault {
		t.Fatalf("other user's default should be untouched")
	}
}

func TestAddressRepositoryListByUserOrdersDefaultFirst(t *testing.T) {
	repo, db := setupAddressRepositoryTest(t)
	now := time.Now().UTC()

	older := models.Address{
		UserID:     9,
		Street:     "1 Old Rd",
		City:       "Houston",
		State:      "TX",
		PostalCode: "77001",
		Country:    "US",
		IsDefault:  true,
		CreatedAt:  now.Add(-2 * time.Hour),
	}
	newer := models.Address{
		UserID:     9,
		Street:     "2 New Rd",
		City:       "Houston",
		State:      "TX",
		PostalCode: "77002",
		Country:    "US",
		CreatedAt:  now,
	}
	if err := db.Create(&older).Error; err != nil {
		t.Fatalf("create older failed: %v", err)
	}
	if err := db.Create(&newer).Error; err != nil {
		t.Fatalf("create newer failed: %v", err)
	}

	addresses, err := repo.ListByUser(9)
	if err != nil {
		t.Fatalf("list addresses failed: %v", err)
	}
	if len(addresses) != 2 {
		t.Fatalf("len want 2 got %d", len(addresses))
	}
	if addresses[0].ID != older.ID {
		t.Fatalf("default address should come first")
	}
}
