package service

import (
	"testing"

	"github.com/truckmart-next/internal/constants"
)

func TestProjectTrackingStage(t *testing.T) {
	cases := []struct {
		status string
		stage  string
	}{
		{constants.OrderStatusPending, constants.TrackingStageConfirmed},
		{constants.OrderStatusProcessing, constants.TrackingStageConfirmed},
		{constants.OrderStatusCancelled, constants.TrackingStageConfirmed},
		{constants.OrderStatusShipped, constants.TrackingStageShipped},
		{constants.OrderStatusDelivered, constants.TrackingStageDelivered},
	}
	for _, tc := range cases {
		if got := ProjectTrackingStage(tc.status); got != tc.stage {
			t.Fatalf("status %s want %s got %s", tc.status, tc.stage, got)
		}
	}
}

func TestProjectTrackingStagePanicsOnUnknown(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("unknown status should panic")
		}
	}()
	ProjectTrackingStage("refunded")
}

func TestIsTransitionAllowedTable(t *testing.T) {
	allowed := map[[2]string]bool{
		{constants.OrderStatusPending, constants.OrderStatusProcessing}:  true,
		{constants.OrderStatusPending, constants.OrderStatusCancelled}:   true,
		{constants.OrderStatusProcessing, constants.OrderStatusShipped}:  true,
		{constants.OrderStatusProcessing, constants.OrderStatusCancelled}: true,
		{constants.OrderStatusShipped, constants.OrderStatusDelivered}:   true,
		{constants.OrderStatusShipped, constants.OrderStatusCancelled}:   true,
	}
	statuses := []string{
		constants.OrderStatusPending,
		constants.OrderStatusProcessing,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
		constants.OrderStatusCancelled,
	}
	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[[2]string{from, to}]
			if got := isTransitionAllowed(from, to); got != want {
				t.Fatalf("%s->%s want %v got %v", from, to, want, got)
			}
		}
	}
}
