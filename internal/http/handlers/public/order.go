package public

import (
	"strconv"
	"strings"

	handlershared "github.com/truckmart-next/internal/http/handlers/shared"
	"github.com/truckmart-next/internal/http/response"
	"github.com/truckmart-next/internal/models"
	"github.com/truckmart-next/internal/repository"
	"github.com/truckmart-next/internal/service"

	"github.com/gin-gonic/gin"
)

type createOrderItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

type createOrderRequest struct {
	Items   []createOrderItemRequest `json:"items" binding:"required"`
	Address service.AddressInput     `json:"address" binding:"required"`
	Email   string                   `json:"email"`
}

// orderView 订单详情视图，附带物流展示阶段。
type orderView struct {
	*models.Order
	TrackingStage string `json:"tracking_stage"`
}

func newOrderView(order *models.Order) orderView {
	return orderView{
		Order:         order,
		TrackingStage: service.ProjectTrackingStage(order.Status),
	}
}

// CreateOrder 下单。库存不足时返回 product_id 便于前端定位。
func (h *Handler) CreateOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request payload", err)
		return
	}

	input := service.CreateOrderInput{
		UserID:  userID,
		Email:   req.Email,
		Address: req.Address,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.CreateOrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	order, err := h.OrderService.CreateOrder(input)
	if err != nil {
		respondOrderCreateError(c, err)
		return
	}
	response.Success(c, newOrderView(order))
}

// ListOrders 当前用户订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Status:   c.Query("status"),
	}

	orders, total, err := h.OrderService.ListOrdersByUser(filter)
	if err != nil {
		respondWithMappedError(c, err, orderReadErrorRules, response.CodeInternal, "order list failed")
		return
	}

	views := make([]orderView, 0, len(orders))
	for i := range orders {
		views = append(views, newOrderView(&orders[i]))
	}
	response.SuccessWithPage(c, views, response.BuildPagination(page, pageSize, total))
}

// GetOrder 当前用户订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}

	order, err := h.OrderService.GetOrderByUser(uint(orderID), userID)
	if err != nil {
		respondWithMappedError(c, err, orderReadErrorRules, response.CodeInternal, "order fetch failed")
		return
	}
	response.Success(c, newOrderView(order))
}

// TrackOrder 按支付凭证号查询订单物流阶段
func (h *Handler) TrackOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	paymentRef := strings.TrimSpace(c.Query("payment_ref"))
	if paymentRef == "" {
		respondError(c, response.CodeBadRequest, "payment_ref is required", nil)
		return
	}

	order, err := h.OrderService.GetOrderByPaymentRef(paymentRef)
	if err != nil {
		respondWithMappedError(c, err, orderReadErrorRules, response.CodeInternal, "order fetch failed")
		return
	}
	if order.UserID != userID {
		respondError(c, response.CodeNotFound, "order not found", nil)
		return
	}

	response.Success(c, gin.H{
		"order_no":       order.OrderNo,
		"status":         order.Status,
		"tracking_stage": service.ProjectTrackingStage(order.Status),
		"paid_at":        order.PaidAt,
	})
}

// CreatePayment 对订单发起支付，返回支付所需的 client_secret。
func (h *Handler) CreatePayment(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}

	detail, err := h.PaymentService.InitiatePayment(c.Request.Context(), userID, uint(orderID))
	if err != nil {
		respondWithMappedError(c, err, paymentCreateErrorRules, response.CodeInternal, "payment create failed")
		return
	}
	response.Success(c, detail)
}
