package payments

import (
	"context"
	"fmt"

	"expense-tracker/api/logger"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"go.uber.org/zap"
)

// Order is what the browser needs to open the gateway checkout.
type Order struct {
	ID           string `json:"id"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
	ClientSecret string `json:"client_secret"`
}

// StripeGateway creates premium membership orders as Stripe PaymentIntents.
type StripeGateway struct {
	publishableKey string
	newIntent      func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

func NewStripeGateway(secretKey, publishableKey string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{
		publishableKey: publishableKey,
		newIntent:      paymentintent.New,
	}
}

func (g *StripeGateway) CreateOrder(ctx context.Context, userID string, amount int64, currency string) (*Order, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("user_id", userID)
	params.AddMetadata("product", "premium_membership")
	params.Context = ctx

	pi, err := g.newIntent(params)
	if err != nil {
		logger.Get().Error("failed to create payment intent",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, fmt.Errorf("error creating payment intent: %w", err)
	}

	return &Order{
		ID:           pi.ID,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		ClientSecret: pi.ClientSecret,
	}, nil
}

// PublicKey is handed to the browser together with the order.
func (g *StripeGateway) PublicKey() string {
	return g.publishableKey
}
