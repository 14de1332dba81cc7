package service

import (
	"fmt"
	"strings"

	"github.com/truckmart-next/internal/constants"
)

// allowedTransitions 订单状态迁移表。同状态迁移视为幂等空操作，不在表内。
var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPending: {
		constants.OrderStatusProcessing: true,
		constants.OrderStatusCancelled:  true,
	},
	constants.OrderStatusProcessing: {
		constants.OrderStatusShipped:   true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusDelivered: true,
		constants.OrderStatusCancelled: true,
	},
}

// isTransitionAllowed 判断状态迁移是否合法（不含同状态空操作）
func isTransitionAllowed(current, target string) bool {
	nexts, ok := allowedTransitions[current]
	if !ok {
		return false
	}
	return nexts[target]
}

// isOrderStatusValid 判断是否为已知订单状态
func isOrderStatusValid(status string) bool {
	switch status {
	case constants.OrderStatusPending,
		constants.OrderStatusProcessing,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
		constants.OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// normalizeOrderStatus 归一化状态输入
func normalizeOrderStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// ProjectTrackingStage 由订单状态投影物流进度阶段。
// 纯函数：pending/processing/cancelled → confirmed，shipped → shipped，
// delivered → delivered。未知状态属于编程错误，直接 panic。
func ProjectTrackingStage(status string) string {
	switch status {
	case constants.OrderStatusPending,
		constants.OrderStatusProcessing,
		constants.OrderStatusCancelled:
		return constants.TrackingStageConfirmed
	case constants.OrderStatusShipped:
		return constants.TrackingStageShipped
	case constants.OrderStatusDelivered:
		return constants.TrackingStageDelivered
	default:
		panic(fmt.Sprintf("unknown order status: %q", status))
	}
}
