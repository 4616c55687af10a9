package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carebook/carebook-platform/internal/appointments"
	"github.com/carebook/carebook-platform/internal/observability/metrics"
	"github.com/carebook/carebook-platform/pkg/logging"
)

var paymentTracer = otel.Tracer("carebook.internal.payments")

// Ledger is the slice of the appointment store the settlement flow needs.
type Ledger interface {
	Get(ctx context.Context, id uuid.UUID) (*appointments.Appointment, error)
	MarkPaymentPending(ctx context.Context, id uuid.UUID) (bool, error)
	MarkPaid(ctx context.Context, id uuid.UUID) (bool, error)
}

// ReceiptNotifier delivers fire-and-forget payment receipts.
type ReceiptNotifier interface {
	PaymentReceived(ctx context.Context, appt *appointments.Appointment, order *Order)
}

// Service owns the order and settlement lifecycle. Verification never calls
// the gateway back; callbacks are authenticated purely by signature.
type Service struct {
	orders   OrderStore
	ledger   Ledger
	gateway  Gateway
	velocity *VelocityChecker
	secret   string
	currency string
	notifier ReceiptNotifier
	metrics  *metrics.PaymentMetrics
	logger   *logging.Logger
}

// NewService constructs the settlement service.
func NewService(orders OrderStore, ledger Ledger, gateway Gateway, velocity *VelocityChecker, secret, currency string, notifier ReceiptNotifier, m *metrics.PaymentMetrics, logger *logging.Logger) *Service {
	if orders == nil {
		panic("payments: order store required")
	}
	if ledger == nil {
		panic("payments: appointment ledger required")
	}
	if gateway == nil {
		panic("payments: gateway required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		orders:   orders,
		ledger:   ledger,
		gateway:  gateway,
		velocity: velocity,
		secret:   secret,
		currency: currency,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

// CreateOrder opens a payment order for an upcoming appointment. The amount
// is the fee snapshot taken at booking; nothing from the client is trusted.
func (s *Service) CreateOrder(ctx context.Context, apptID, requesterID uuid.UUID) (*Order, error) {
	ctx, span := paymentTracer.Start(ctx, "payments.create_order")
	defer span.End()
	span.SetAttributes(attribute.String("carebook.appointment_id", apptID.String()))

	appt, err := s.ledger.Get(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if appt.PatientID != requesterID {
		return nil, appointments.ErrNotOwner
	}
	if appt.Status != appointments.StatusUpcoming {
		s.metrics.ObserveOrder("rejected")
		return nil, ErrNotPayable
	}
	if appt.PaymentStatus == appointments.PaymentPaid {
		// A settled appointment never re-enters the payment flow.
		s.metrics.ObserveOrder("rejected")
		return nil, ErrNotPayable
	}

	if s.velocity != nil {
		check, err := s.velocity.CheckOrderVelocity(ctx, apptID)
		if err == nil && !check.Allowed {
			s.metrics.ObserveOrder("throttled")
			return nil, ErrTooManyAttempts
		}
	}

	orderID, err := s.gateway.CreateOrder(ctx, appt.FeeCents, s.currency, appt.ID.String())
	if err != nil {
		s.metrics.ObserveOrder("gateway_error")
		span.RecordError(err)
		return nil, fmt.Errorf("payments: create order: %w", err)
	}

	order := &Order{
		ID:            orderID,
		AppointmentID: apptID,
		AmountCents:   appt.FeeCents,
		Currency:      s.currency,
		Status:        OrderCreated,
	}
	if err := s.orders.Insert(ctx, order); err != nil {
		return nil, err
	}

	changed, err := s.ledger.MarkPaymentPending(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if !changed {
		// The appointment went terminal between the status check and here.
		// No money has moved yet; the unpaid gateway order simply expires.
		s.metrics.ObserveOrder("rejected")
		return nil, ErrNotPayable
	}

	s.metrics.ObserveOrder("created")
	s.logger.Info("payment order created",
		"order_id", order.ID,
		"appointment_id", apptID,
		"amount", order.AmountCents,
		"currency", order.Currency,
	)
	return order, nil
}

// VerifyRequest carries a settlement callback.
type VerifyRequest struct {
	OrderID   string
	PaymentID string
	Signature string
}

// Result reports how a callback was applied.
type Result struct {
	Verified               bool
	AlreadySettled         bool
	ReconciliationRequired bool
}

// Verify authenticates a settlement callback and applies it at most once.
// The signature is recomputed over the STORED order id, so a valid signature
// for order A can never settle order B. A replayed callback for a settled
// order is acknowledged without effect.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*Result, error) {
	ctx, span := paymentTracer.Start(ctx, "payments.verify")
	defer span.End()
	span.SetAttributes(attribute.String("carebook.order_id", req.OrderID))

	order, err := s.orders.Get(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	if !VerifySignature(s.secret, order.ID, req.PaymentID, req.Signature) {
		s.metrics.ObserveVerification("rejected")
		s.logger.Warn("payment signature mismatch",
			"order_id", order.ID,
			"payment_id", req.PaymentID,
		)
		return nil, ErrSignatureMismatch
	}

	settled, err := s.orders.Settle(ctx, order.ID, req.PaymentID)
	if err != nil {
		return nil, err
	}
	if !settled {
		s.metrics.ObserveVerification("replay")
		s.logger.Info("settlement callback replayed", "order_id", order.ID)
		return &Result{Verified: true, AlreadySettled: true}, nil
	}

	paid, err := s.ledger.MarkPaid(ctx, order.AppointmentID)
	if err != nil {
		return nil, fmt.Errorf("payments: mark paid: %w", err)
	}
	if !paid {
		// Verified money against an appointment that is no longer upcoming.
		// The cancelled or completed status stays untouched; the order is
		// routed to manual reconciliation instead.
		if err := s.orders.FlagReconciliation(ctx, order.ID, req.PaymentID); err != nil {
			s.logger.Error("reconciliation flag failed", "order_id", order.ID, "error", err)
		}
		s.metrics.ObserveVerification("reconciliation")
		s.metrics.ObserveReconciliation()
		s.logger.Warn("verified payment needs reconciliation",
			"order_id", order.ID,
			"appointment_id", order.AppointmentID,
		)
		return &Result{Verified: true, ReconciliationRequired: true}, nil
	}

	s.metrics.ObserveVerification("settled")
	s.logger.Info("payment settled",
		"order_id", order.ID,
		"appointment_id", order.AppointmentID,
		"payment_id", req.PaymentID,
	)
	if s.notifier != nil {
		if appt, err := s.ledger.Get(ctx, order.AppointmentID); err == nil {
			s.notifier.PaymentReceived(ctx, appt, order)
		}
	}
	return &Result{Verified: true}, nil
}
