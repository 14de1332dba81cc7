package public

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/truckmart-next/internal/payment/stripe"
	"github.com/truckmart-next/internal/provider"

	"github.com/gin-gonic/gin"
)

func decodeStatusCode(t *testing.T, body []byte) int {
	t.Helper()
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp.StatusCode
}

func TestStripeWebhookRejectsUnsignedRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := New(&provider.Container{
		StripeConfig: stripe.NewConfig("sk_test_key", "whsec_test", "", 0),
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/public/payments/webhook", strings.NewReader(`{"type":"payment_intent.succeeded"}`))

	h.StripeWebhook(c)

	if got := decodeStatusCode(t, w.Body.Bytes()); got != 400 {
		t.Fatalf("status_code want 400 got %d", got)
	}
}

func TestStripeWebhookRejectsWhenNotConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := New(&provider.Container{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/public/payments/webhook", strings.NewReader(`{}`))

	h.StripeWebhook(c)

	if got := decodeStatusCode(t, w.Body.Bytes()); got != 400 {
		t.Fatalf("status_code want 400 got %d", got)
	}
}
