package service

import (
	"net/mail"
	"strings"
	"time"

	"github.com/truckmart-next/internal/constants"
	"github.com/truckmart-next/internal/logger"
	"github.com/truckmart-next/internal/models"
	"github.com/truckmart-next/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CreateUserInput 创建用户输入
type CreateUserInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// UserService 用户管理服务
type UserService struct {
	db          *gorm.DB
	userRepo    repository.UserRepository
	cartRepo    repository.CartRepository
	addressRepo repository.AddressRepository
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
}

// NewUserService 创建用户服务
func NewUserService(db *gorm.DB, userRepo repository.UserRepository, cartRepo repository.CartRepository, addressRepo repository.AddressRepository, orderRepo repository.OrderRepository, paymentRepo repository.PaymentRepository) *UserService {
	return &UserService{
		db:          db,
		userRepo:    userRepo,
		cartRepo:    cartRepo,
		addressRepo: addressRepo,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
	}
}

// CreateUser 创建用户。邮箱小写归一化后唯一；密码只存 bcrypt 哈希。
func (s *UserService) CreateUser(input CreateUserInput) (*models.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || len(input.Password) < 6 {
		return nil, ErrUserInvalid
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrUserInvalid
	}
	role := strings.TrimSpace(strings.ToLower(input.Role))
	if role == "" {
		role = constants.UserRoleUser
	}
	if !isRoleValid(role) {
		return nil, ErrRoleInvalid
	}

	existing, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, ErrUserCreateFailed
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrUserCreateFailed
	}

	now := time.Now()
	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(user); err != nil {
		logger.Errorw("user_create_failed", "email", email, "error", err)
		return nil, ErrUserCreateFailed
	}
	return user, nil
}

// Authenticate 校验邮箱密码，成功返回用户
func (s *UserService) Authenticate(email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, ErrUserInvalid
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrUserInvalid
	}
	return user, nil
}

// GetUser 获取用户
func (s *UserService) GetUser(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ListUsers 用户列表（管理端）
func (s *UserService) ListUsers(filter repository.UserListFilter) ([]models.User, int64, error) {
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	return s.userRepo.List(filter)
}

// UpdateRole 更新用户角色（仅 user/admin）
func (s *UserService) UpdateRole(userID uint, role string) (*models.User, error) {
	role = strings.TrimSpace(strings.ToLower(role))
	if !isRoleValid(role) {
		return nil, ErrRoleInvalid
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Role == role {
		return user, nil
	}
	if err := s.userRepo.UpdateRole(user.ID, role); err != nil {
		return nil, err
	}
	user.Role = role
	logger.Infow("user_role_updated", "user_id", user.ID, "role", role)
	return user, nil
}

// DeleteUser 删除用户及其全部关联数据。
// 级联顺序：购物车、地址、支付记录、订单及订单项、用户本身，单事务完成。
func (s *UserService) DeleteUser(userID uint) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return ErrUserDeleteFailed
	}
	if user == nil {
		return ErrUserNotFound
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		addressRepo := s.addressRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)
		paymentRepo := s.paymentRepo.WithTx(tx)
		userRepo := s.userRepo.WithTx(tx)

		if err := cartRepo.DeleteByUser(user.ID); err != nil {
			return err
		}
		if err := addressRepo.DeleteByUser(user.ID); err != nil {
			return err
		}
		orderIDs, err := orderRepo.ListIDsByUser(user.ID)
		if err != nil {
			return err
		}
		if err := paymentRepo.DeleteByOrderIDs(orderIDs); err != nil {
			return err
		}
		if err := orderRepo.DeleteByUser(user.ID); err != nil {
			return err
		}
		return userRepo.Delete(user.ID)
	})
	if err != nil {
		logger.Errorw("user_delete_failed", "user_id", userID, "error", err)
		return ErrUserDeleteFailed
	}
	logger.Infow("user_deleted", "user_id", userID)
	return nil
}

func isRoleValid(role string) bool {
	return role == constants.UserRoleUser || role == constants.UserRoleAdmin
}
