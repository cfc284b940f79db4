package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"math"

	"table-reservation-api/apperrors"
)

// Proof is what the client reports after checkout.
type Proof struct {
	OrderID   string
	PaymentID string
	Signature string
	Amount    *float64
}

// Verifier decides whether a reported payment is genuine and complete.
// It never writes anything.
type Verifier struct {
	gateway Gateway
	secret  string
}

func NewVerifier(gateway Gateway, keySecret string) *Verifier {
	return &Verifier{gateway: gateway, secret: keySecret}
}

// Sign returns the hex HMAC-SHA256 of "orderID|paymentID".
func Sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// ToMinorUnits converts rupees to paise.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (v *Verifier) Verify(ctx context.Context, proof Proof) (*Details, error) {
	if proof.OrderID == "" || proof.PaymentID == "" || proof.Signature == "" || proof.Amount == nil {
		return nil, apperrors.Validation("payment verification details are required")
	}
	if *proof.Amount <= 0 {
		return nil, apperrors.Validation("amount must be greater than zero")
	}

	expected := Sign(proof.OrderID, proof.PaymentID, v.secret)
	if !hmac.Equal([]byte(expected), []byte(proof.Signature)) {
		return nil, apperrors.PaymentVerification("invalid signature", nil)
	}

	details, err := v.gateway.FetchPayment(ctx, proof.PaymentID)
	if err != nil {
		return nil, apperrors.PaymentVerification("could not verify payment with gateway", err)
	}
	if details.Status != "captured" && details.Status != "authorized" {
		return nil, apperrors.PaymentVerification("payment not completed", nil)
	}
	if details.Amount > 0 && details.Amount != ToMinorUnits(*proof.Amount) {
		return nil, apperrors.PaymentVerification("payment amount mismatch", nil)
	}
	return details, nil
}
