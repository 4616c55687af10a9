package payments

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"

	"github.com/carebook/carebook-platform/pkg/logging"
)

// Gateway creates orders at the payment provider. The core never calls the
// gateway during verification; callbacks are verified locally by signature.
type Gateway interface {
	CreateOrder(ctx context.Context, amountCents int64, currency, receipt string) (string, error)
}

// RazorpayGateway creates orders through the Razorpay Orders API.
type RazorpayGateway struct {
	client *razorpay.Client
	logger *logging.Logger
}

// NewRazorpayGateway builds a gateway client from API credentials.
func NewRazorpayGateway(keyID, keySecret string, logger *logging.Logger) *RazorpayGateway {
	if keyID == "" || keySecret == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RazorpayGateway{
		client: razorpay.NewClient(keyID, keySecret),
		logger: logger,
	}
}

// CreateOrder registers an order with Razorpay and returns its id.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amountCents int64, currency, receipt string) (string, error) {
	data := map[string]interface{}{
		"amount":   amountCents,
		"currency": currency,
		"receipt":  receipt,
	}
	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("payments: razorpay order create: %w", err)
	}
	orderID, ok := body["id"].(string)
	if !ok || orderID == "" {
		return "", fmt.Errorf("payments: razorpay response missing order id")
	}
	g.logger.Info("razorpay order created", "order_id", orderID, "amount", amountCents, "currency", currency)
	return orderID, nil
}

var _ Gateway = (*RazorpayGateway)(nil)
