package model

import "testing"

func TestStatusTerminal(t *testing.T) {
	terminal := map[Status]bool{
		StatusPendingPayment:     false,
		StatusToBeConfirmed:      false,
		StatusConfirmed:          false,
		StatusDeliveryInProgress: false,
		StatusCompleted:          true,
		StatusCancelled:          true,
	}

	for status, want := range terminal {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}

	if Status("UNKNOWN").Terminal() {
		t.Error("unknown status must not be terminal")
	}
}

func TestCancellableFromEveryNonTerminalState(t *testing.T) {
	for _, status := range []Status{
		StatusPendingPayment, StatusToBeConfirmed, StatusConfirmed, StatusDeliveryInProgress,
	} {
		if !status.CanTransitionTo(StatusCancelled) {
			t.Errorf("cancel from %s should be allowed", status)
		}
	}

	for _, status := range []Status{StatusCompleted, StatusCancelled} {
		if status.CanTransitionTo(StatusCancelled) {
			t.Errorf("cancel from terminal %s should be rejected", status)
		}
	}
}

func TestForwardTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPendingPayment, StatusToBeConfirmed, true},
		{StatusToBeConfirmed, StatusConfirmed, true},
		{StatusConfirmed, StatusDeliveryInProgress, true},
		{StatusDeliveryInProgress, StatusCompleted, true},
		{StatusPendingPayment, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, false},
		{StatusCompleted, StatusDeliveryInProgress, false},
		{StatusCancelled, StatusPendingPayment, false},
	}

	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.want {
			t.Errorf("%s -> %s = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestStatusValid(t *testing.T) {
	if !StatusDeliveryInProgress.Valid() {
		t.Error("DELIVERY_IN_PROGRESS should be valid")
	}
	if Status("PAID").Valid() {
		t.Error("PAID is not a lifecycle status")
	}
}
