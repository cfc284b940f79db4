package services

import (
	"context"
	"fmt"

	"table-reservation-api/apperrors"
	"table-reservation-api/models"
	"table-reservation-api/payment"
)

type PaymentService struct {
	gateway  payment.Gateway
	keyID    string
	currency string
}

func NewPaymentService(gateway payment.Gateway, keyID, currency string) *PaymentService {
	return &PaymentService{gateway: gateway, keyID: keyID, currency: currency}
}

// Checkout is what the client needs to open the gateway's payment form.
type Checkout struct {
	payment.Order
	KeyID string `json:"keyId"`
}

// CreateOrder opens a gateway order for amount, given in rupees.
func (s *PaymentService) CreateOrder(ctx context.Context, caller *models.User, amount float64) (*Checkout, error) {
	if amount <= 0 {
		return nil, apperrors.Validation("amount must be greater than zero")
	}
	receipt := fmt.Sprintf("user_%d_%d", caller.ID, payment.ToMinorUnits(amount))
	order, err := s.gateway.CreateOrder(ctx, payment.ToMinorUnits(amount), s.currency, receipt)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeUnavailable, "payment gateway unavailable")
	}
	return &Checkout{Order: *order, KeyID: s.keyID}, nil
}
