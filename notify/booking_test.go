package notify_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"table-reservation-api/mocks"
	"table-reservation-api/models"
	"table-reservation-api/notify"
	"table-reservation-api/repository"
	"table-reservation-api/testutil"
)

func confirmedBooking(t *testing.T, store *repository.Store) *models.Booking {
	user := testutil.CreateUser(t, store.DB(), &models.User{}, "")
	booking := &models.Booking{
		UserID:         user.ID,
		Name:           "Asha",
		Email:          "asha@example.com",
		Phone:          "9999999999",
		NumberOfGuests: 4,
		Date:           "2026-12-24",
		Time:           "19:30",
		TableNumber:    testutil.IntPtr(5),
		Status:         models.BookingConfirmed,
		PaymentStatus:  models.PaymentPaid,
		PaymentAmount:  1500,
	}
	require.NoError(t, store.CreateBooking(context.Background(), booking, user.ID, "created"))
	return booking
}

func TestBookingConfirmedSendsOnce(t *testing.T) {
	store := repository.New(testutil.NewDB(t))
	booking := confirmedBooking(t, store)

	ctrl := gomock.NewController(t)
	mailer := mocks.NewMockMailer(ctrl)
	mailer.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, email notify.Email) error {
		assert.Equal(t, "asha@example.com", email.To)
		assert.Contains(t, email.Subject, "confirmed")
		assert.Contains(t, email.HTMLBody, "Table: 5")
		return nil
	}).Times(1)

	notifier := notify.NewBookingNotifier(mailer, store)
	assert.True(t, notifier.BookingConfirmed(context.Background(), booking))
	assert.False(t, notifier.BookingConfirmed(context.Background(), booking))
}

func TestBookingConfirmedFailureIsSwallowedAndRetryable(t *testing.T) {
	store := repository.New(testutil.NewDB(t))
	booking := confirmedBooking(t, store)

	ctrl := gomock.NewController(t)
	mailer := mocks.NewMockMailer(ctrl)
	gomock.InOrder(
		mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("smtp down")),
		mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil),
	)

	notifier := notify.NewBookingNotifier(mailer, store)
	assert.False(t, notifier.BookingConfirmed(context.Background(), booking))
	assert.True(t, notifier.BookingConfirmed(context.Background(), booking))
}

func TestBookingConfirmedWithoutEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := notify.NewBookingNotifier(mocks.NewMockMailer(ctrl), nil)
	assert.False(t, notifier.BookingConfirmed(context.Background(), &models.Booking{ID: 9}))
}

func TestTemplates(t *testing.T) {
	email, err := notify.PasswordResetEmail("a@example.com", "Asha", "http://localhost:3000/reset?token=abc", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", email.To)
	assert.Contains(t, email.HTMLBody, "token=abc")

	sms, err := notify.OTPMessage("123456", 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.Contains(sms, "123456"))
	assert.Contains(t, sms, "10m0s")
}
