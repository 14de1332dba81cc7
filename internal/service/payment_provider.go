package service

import (
	"context"

	"github.com/truckmart-next/internal/payment/stripe"
)

// ProviderIntentInput 支付渠道创建意向输入
type ProviderIntentInput struct {
	Amount         string
	Currency       string
	IdempotencyKey string
	Description    string
	Metadata       map[string]string
}

// ProviderIntentResult 支付渠道创建意向结果
type ProviderIntentResult struct {
	IntentID     string
	ClientSecret string
	Status       string
}

// PaymentProvider 支付渠道端口。实现方负责与第三方交互，
// 幂等键透传给渠道以保证重试不重复扣款。
type PaymentProvider interface {
	CreateIntent(ctx context.Context, input ProviderIntentInput) (*ProviderIntentResult, error)
}

// StripePaymentProvider Stripe 渠道实现
type StripePaymentProvider struct {
	cfg *stripe.Config
}

// NewStripePaymentProvider 创建 Stripe 渠道
func NewStripePaymentProvider(cfg *stripe.Config) *StripePaymentProvider {
	return &StripePaymentProvider{cfg: cfg}
}

// CreateIntent 创建 Stripe PaymentIntent
func (p *StripePaymentProvider) CreateIntent(ctx context.Context, input ProviderIntentInput) (*ProviderIntentResult, error) {
	result, err := stripe.CreateIntent(ctx, p.cfg, stripe.CreateIntentInput{
		Amount:         input.Amount,
		Currency:       input.Currency,
		IdempotencyKey: input.IdempotencyKey,
		Description:    input.Description,
		Metadata:       input.Metadata,
	})
	if err != nil {
		return nil, err
	}
	return &ProviderIntentResult{
		IntentID:     result.IntentID,
		ClientSecret: result.ClientSecret,
		Status:       result.Status,
	}, nil
}
