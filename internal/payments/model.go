package payments

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// OrderStatus tracks a payment order through settlement.
type OrderStatus string

const (
	// OrderCreated means the gateway order exists and awaits its callback.
	OrderCreated OrderStatus = "created"

	// OrderSettled means a verified callback consumed the order.
	OrderSettled OrderStatus = "settled"

	// OrderReconcile means the callback verified cryptographically but the
	// appointment was no longer payable; money moved, the ledger did not.
	OrderReconcile OrderStatus = "needs_reconciliation"
)

// Order is one payment attempt for an appointment. The amount is always the
// appointment's fee snapshot, never client input.
type Order struct {
	ID            string      `json:"order_id"` // gateway-issued
	AppointmentID uuid.UUID   `json:"appointment_id"`
	AmountCents   int64       `json:"amount"`
	Currency      string      `json:"currency"`
	Status        OrderStatus `json:"status"`
	PaymentRef    string      `json:"payment_ref,omitempty"` // gateway payment id once settled
	CreatedAt     time.Time   `json:"created_at"`
}

var (
	// ErrOrderNotFound is returned when no order exists for the id.
	ErrOrderNotFound = errors.New("payment order not found")

	// ErrNotPayable is returned when the appointment is cancelled or
	// completed; terminal for this payment attempt.
	ErrNotPayable = errors.New("appointment is not payable")

	// ErrSignatureMismatch is returned for callbacks whose signature does not
	// verify. Always logged as a potential tamper attempt.
	ErrSignatureMismatch = errors.New("payment signature mismatch")

	// ErrTooManyAttempts is returned when order creation exceeds the velocity
	// window.
	ErrTooManyAttempts = errors.New("too many payment attempts")
)
