package notify

import (
	"context"
	"fmt"

	"table-reservation-api/logger"
	"table-reservation-api/models"
)

const ChannelEmail = "email"

// ClaimStore records which notifications have gone out.
type ClaimStore interface {
	ClaimNotification(ctx context.Context, key string, bookingID uint, channel string) (bool, error)
	ReleaseNotification(ctx context.Context, key string) error
}

// BookingNotifier sends at most one confirmation email per booking. Delivery
// is best effort: failures are logged and never returned.
type BookingNotifier struct {
	mailer Mailer
	claims ClaimStore
}

func NewBookingNotifier(mailer Mailer, claims ClaimStore) *BookingNotifier {
	return &BookingNotifier{mailer: mailer, claims: claims}
}

// ConfirmationKey identifies the confirmation email of a booking.
func ConfirmationKey(bookingID uint) string {
	return fmt.Sprintf("booking:%d:confirmed", bookingID)
}

// BookingConfirmed reports whether an email was handed to the mailer.
func (n *BookingNotifier) BookingConfirmed(ctx context.Context, booking *models.Booking) bool {
	log := logger.FromContext(ctx).With().Uint("booking_id", booking.ID).Logger()
	if booking.Email == "" {
		log.Warn().Msg("confirmation skipped: booking has no email")
		return false
	}

	key := ConfirmationKey(booking.ID)
	claimed, err := n.claims.ClaimNotification(ctx, key, booking.ID, ChannelEmail)
	if err != nil {
		log.Error().Err(err).Msg("confirmation skipped: notification log unavailable")
		return false
	}
	if !claimed {
		log.Debug().Msg("confirmation already sent")
		return false
	}

	email, err := BookingConfirmedEmail(booking)
	if err == nil {
		err = n.mailer.Send(ctx, email)
	}
	if err != nil {
		log.Error().Err(err).Str("to", booking.Email).Msg("failed to send booking confirmation")
		if relErr := n.claims.ReleaseNotification(ctx, key); relErr != nil {
			log.Error().Err(relErr).Msg("failed to release notification claim")
		}
		return false
	}

	log.Info().Str("to", booking.Email).Msg("booking confirmation sent")
	return true
}
