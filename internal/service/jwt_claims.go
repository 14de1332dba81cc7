package service

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims 外部签发令牌的声明。身份由外部身份系统签发，
// 本服务只验签并读取 user_id / role。
type TokenClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
