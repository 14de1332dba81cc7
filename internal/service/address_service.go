package service

import (
	"strings"
	"time"

	"github.com/truckmart-next/internal/models"
	"github.com/truckmart-next/internal/repository"

	"gorm.io/gorm"
)

// AddressInput 地址输入
type AddressInput struct {
	Label      string `json:"label"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"is_default"`
}

// AddressService 收货地址服务
type AddressService struct {
	db          *gorm.DB
	addressRepo repository.AddressRepository
}

// NewAddressService 创建地址服务
func NewAddressService(db *gorm.DB, addressRepo repository.AddressRepository) *AddressService {
	return &AddressService{
		db:          db,
		addressRepo: addressRepo,
	}
}

// AddAddress 新增地址。设为默认时在同一事务内先取消旧默认再创建，
// 保证任一时刻每用户至多一个默认地址。
func (s *AddressService) AddAddress(userID uint, input AddressInput) (*models.Address, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	normalized, err := normalizeAddressInput(input)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	address := &models.Address{
		UserID:     userID,
		Label:      normalized.Label,
		Street:     normalized.Street,
		City:       normalized.City,
		State:      normalized.State,
		PostalCode: normalized.PostalCode,
		Country:    normalized.Country,
		IsDefault:  normalized.IsDefault,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		addressRepo := s.addressRepo.WithTx(tx)
		if address.IsDefault {
			if err := addressRepo.DemoteDefaults(userID); err != nil {
				return err
			}
		}
		return addressRepo.Create(address)
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

// ListAddresses 获取用户地址列表（默认地址优先）
func (s *AddressService) ListAddresses(userID uint) ([]models.Address, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	return s.addressRepo.ListByUser(userID)
}

// DeleteAddress 删除用户地址。删除默认地址不会自动提升其他地址。
func (s *AddressService) DeleteAddress(userID, addressID uint) error {
	if userID == 0 {
		return ErrUnauthenticated
	}
	address, err := s.addressRepo.GetByIDAndUser(addressID, userID)
	if err != nil {
		return err
	}
	if address == nil {
		return ErrAddressNotFound
	}
	return s.addressRepo.Delete(address.ID)
}

func normalizeAddressInput(input AddressInput) (AddressInput, error) {
	normalized := AddressInput{
		Label:      strings.TrimSpace(input.Label),
		Street:     strings.TrimSpace(input.Street),
		City:       strings.TrimSpace(input.City),
		State:      strings.TrimSpace(input.State),
		PostalCode: strings.TrimSpace(input.PostalCode),
		Country:    strings.TrimSpace(input.Country),
		IsDefault:  input.IsDefault,
	}
	if normalized.Street == "" || normalized.City == "" || normalized.State == "" ||
		normalized.PostalCode == "" || normalized.Country == "" {
		return AddressInput{}, ErrAddressInvalid
	}
	return normalized, nil
}
