package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"table-reservation-api/apperrors"
	"table-reservation-api/mocks"
	"table-reservation-api/models"
	"table-reservation-api/notify"
	"table-reservation-api/payment"
	"table-reservation-api/repository"
	"table-reservation-api/slotlock"
	"table-reservation-api/testutil"
)

const keySecret = "rzp_test_secret"

type bookingFixture struct {
	store   *repository.Store
	gateway *mocks.MockGateway
	mailer  *mocks.MockMailer
	svc     *BookingService
	guest   *models.User
	admin   *models.User
}

func newBookingFixture(t *testing.T) *bookingFixture {
	ctrl := gomock.NewController(t)
	store := repository.New(testutil.NewDB(t))
	gateway := mocks.NewMockGateway(ctrl)
	mailer := mocks.NewMockMailer(ctrl)

	svc := NewBookingService(
		store,
		payment.NewVerifier(gateway, keySecret),
		slotlock.NewLocalLocker(),
		notify.NewBookingNotifier(mailer, store),
	)
	return &bookingFixture{
		store:   store,
		gateway: gateway,
		mailer:  mailer,
		svc:     svc,
		guest:   testutil.CreateUser(t, store.DB(), &models.User{Name: "Asha", Email: "asha@example.com", IsApproved: true}, ""),
		admin:   testutil.CreateUser(t, store.DB(), &models.User{Name: "Admin", Role: models.RoleAdmin, IsApproved: true}, ""),
	}
}

func (f *bookingFixture) expectCaptured(paymentID string, paise int64) {
	f.gateway.EXPECT().FetchPayment(gomock.Any(), paymentID).
		Return(&payment.Details{ID: paymentID, Status: "captured", Amount: paise, Method: "card"}, nil)
}

func (f *bookingFixture) countBookings(t *testing.T) int64 {
	var n int64
	require.NoError(t, f.store.DB().Model(&models.Booking{}).Count(&n).Error)
	return n
}

func paidInput(paymentID string, table *int, guests int) CreateBookingInput {
	amount := 1500.0
	return CreateBookingInput{
		Name:           "Asha",
		Email:          "Asha@Example.com",
		Phone:          "9999999999",
		NumberOfGuests: guests,
		Date:           "2026-12-24",
		Time:           "19:30",
		TableNumber:    table,
		OrderID:        "order_" + paymentID,
		PaymentID:      paymentID,
		Signature:      payment.Sign("order_"+paymentID, paymentID, keySecret),
		Amount:         &amount,
	}
}

func requireCode(t *testing.T, err error, code apperrors.Code) *apperrors.AppError {
	t.Helper()
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected AppError, got %v", err)
	require.Equal(t, code, appErr.Code, appErr.Message)
	return appErr
}

func TestCreateBookingMissingPaymentFieldsPersistsNothing(t *testing.T) {
	f := newBookingFixture(t)
	for _, field := range []string{"orderId", "paymentId", "signature", "amount"} {
		in := paidInput("pay_1", nil, 2)
		switch field {
		case "orderId":
			in.OrderID = ""
		case "paymentId":
			in.PaymentID = ""
		case "signature":
			in.Signature = ""
		case "amount":
			in.Amount = nil
		}
		_, err := f.svc.Create(context.Background(), f.guest, in)
		appErr := requireCode(t, err, apperrors.CodeValidation)
		assert.Equal(t, 400, appErr.HTTPStatus(), field)
	}
	assert.Zero(t, f.countBookings(t))
}

func TestCreateBookingInvalidSignature(t *testing.T) {
	f := newBookingFixture(t)
	in := paidInput("pay_1", nil, 2)
	in.Signature = payment.Sign(in.OrderID, in.PaymentID, "not-the-secret")

	_, err := f.svc.Create(context.Background(), f.guest, in)
	appErr := requireCode(t, err, apperrors.CodePaymentVerification)
	assert.Equal(t, "invalid signature", appErr.Message)
	assert.Zero(t, f.countBookings(t))
}

func TestCreateBookingPaymentNotCompleted(t *testing.T) {
	f := newBookingFixture(t)
	f.gateway.EXPECT().FetchPayment(gomock.Any(), "pay_1").Return(&payment.Details{Status: "failed"}, nil)

	_, err := f.svc.Create(context.Background(), f.guest, paidInput("pay_1", nil, 2))
	appErr := requireCode(t, err, apperrors.CodePaymentVerification)
	assert.Equal(t, "payment not completed", appErr.Message)
}

func TestCreateBookingInactiveOrMissingTable(t *testing.T) {
	f := newBookingFixture(t)
	table := testutil.CreateTable(t, f.store.DB(), 5, 4)
	table.IsActive = false
	require.NoError(t, f.store.SaveTable(context.Background(), table))

	f.expectCaptured("pay_1", 150000)
	_, err := f.svc.Create(context.Background(), f.guest, paidInput("pay_1", testutil.IntPtr(5), 2))
	appErr := requireCode(t, err, apperrors.CodeNotFound)
	assert.Equal(t, "table not available", appErr.Message)

	f.expectCaptured("pay_2", 150000)
	_, err = f.svc.Create(context.Background(), f.guest, paidInput("pay_2", testutil.IntPtr(99), 2))
	requireCode(t, err, apperrors.CodeNotFound)
	assert.Zero(t, f.countBookings(t))
}

func TestCreateBookingOverCapacityNamesCapacity(t *testing.T) {
	f := newBookingFixture(t)
	testutil.CreateTable(t, f.store.DB(), 5, 4)
	f.expectCaptured("pay_1", 150000)

	_, err := f.svc.Create(context.Background(), f.guest, paidInput("pay_1", testutil.IntPtr(5), 6))
	appErr := requireCode(t, err, apperrors.CodeValidation)
	assert.Contains(t, appErr.Message, "4")
}

func TestCreateBookingConfirmsAndNotifies(t *testing.T) {
	f := newBookingFixture(t)
	testutil.CreateTable(t, f.store.DB(), 5, 4)
	f.expectCaptured("pay_1", 150000)
	f.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, email notify.Email) error {
		assert.Equal(t, "asha@example.com", email.To)
		return nil
	})

	booking, err := f.svc.Create(context.Background(), f.guest, paidInput("pay_1", testutil.IntPtr(5), 4))
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, booking.Status)
	assert.Equal(t, models.PaymentPaid, booking.PaymentStatus)
	assert.Equal(t, 1500.0, booking.PaymentAmount)
	assert.Equal(t, "card", booking.PaymentMethod)
	require.NotNil(t, booking.Owner)
	assert.Equal(t, "Asha", booking.Owner.Name)
	assert.Equal(t, "asha@example.com", booking.Owner.Email)

	stored, err := f.store.FindBookingByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.Date, stored.Date)
	assert.Equal(t, booking.Time, stored.Time)
	require.NotNil(t, stored.PaymentID)
	assert.Equal(t, "pay_1", *stored.PaymentID)
}

func TestCreateBookingNotifierFailureStillSucceeds(t *testing.T) {
	f := newBookingFixture(t)
	f.expectCaptured("pay_1", 150000)
	f.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(fmt.Errorf("smtp down"))

	booking, err := f.svc.Create(context.Background(), f.guest, paidInput("pay_1", nil, 2))
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, booking.Status)
}

func TestCreateBookingSameSlotConflicts(t *testing.T) {
	f := newBookingFixture(t)
	testutil.CreateTable(t, f.store.DB(), 5, 4)
	f.expectCaptured("pay_1", 150000)
	f.expectCaptured("pay_2", 150000)
	f.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

	_, err := f.svc.Create(context.Background(), f.guest, paidInput("pay_1", testutil.IntPtr(5), 2))
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), f.guest, paidInput("pay_2", testutil.IntPtr(5), 2))
	appErr := requireCode(t, err, apperrors.CodeConflict)
	assert.Equal(t, 409, appErr.HTTPStatus())
	assert.Equal(t, "table already booked for this time", appErr.Message)
	assert.Equal(t, int64(1), f.countBookings(t))
}

func TestCreateBookingConcurrentSameSlot(t *testing.T) {
	f := newBookingFixture(t)
	testutil.CreateTable(t, f.store.DB(), 5, 4)
	f.gateway.EXPECT().FetchPayment(gomock.Any(), gomock.Any()).
		Return(&payment.Details{Status: "captured", Amount: 150000}, nil).AnyTimes()
	f.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Create(context.Background(), f.guest, paidInput(fmt.Sprintf("pay_%d", i), testutil.IntPtr(5), 2))
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperrors.HasCode(err, apperrors.CodeConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, racers-1, conflicts)
	assert.Equal(t, int64(1), f.countBookings(t))
}

func TestCreateBookingRejectsReusedPayment(t *testing.T) {
	f := newBookingFixture(t)
	f.gateway.EXPECT().FetchPayment(gomock.Any(), "pay_1").
		Return(&payment.Details{Status: "captured", Amount: 150000}, nil).Times(2)
	f.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

	first, err := f.svc.Create(context.Background(), f.guest, paidInput("pay_1", nil, 2))
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), f.guest, paidInput("pay_1", nil, 2))
	appErr := requireCode(t, err, apperrors.CodeConflict)
	assert.True(t, strings.HasSuffix(appErr.Message, fmt.Sprintf("#%d", first.ID)))
}

func (f *bookingFixture) pendingBooking(t *testing.T) *models.Booking {
	booking := &models.Booking{
		UserID:         f.guest.ID,
		Name:           "Asha",
		Email:          "asha@example.com",
		Phone:          "9999999999",
		NumberOfGuests: 2,
		Date:           "2026-11-20",
		Time:           "20:00",
		Status:         models.BookingPending,
		PaymentStatus:  models.PaymentPending,
	}
	require.NoError(t, f.store.CreateBooking(context.Background(), booking, f.guest.ID, "requested"))
	return booking
}

func TestAdminConfirmAssignsTableAndNotifies(t *testing.T) {
	f := newBookingFixture(t)
	testutil.CreateTable(t, f.store.DB(), 7, 4)
	booking := f.pendingBooking(t)
	fixed := time.Date(2026, 11, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return fixed }
	f.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	updated, err := f.svc.Transition(context.Background(), f.admin, booking.ID, TransitionInput{
		Status:      models.BookingConfirmed,
		TableNumber: testutil.IntPtr(7),
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, updated.Status)
	require.NotNil(t, updated.TableNumber)
	assert.Equal(t, 7, *updated.TableNumber)
	require.NotNil(t, updated.ConfirmedBy)
	assert.Equal(t, f.admin.ID, *updated.ConfirmedBy)
	require.NotNil(t, updated.ConfirmedAt)
	assert.True(t, fixed.Equal(*updated.ConfirmedAt))

	// Completing afterwards sends nothing more.
	_, err = f.svc.Transition(context.Background(), f.admin, booking.ID, TransitionInput{Status: models.BookingCompleted})
	require.NoError(t, err)
}

func TestTransitionRequiresAdmin(t *testing.T) {
	f := newBookingFixture(t)
	booking := f.pendingBooking(t)

	_, err := f.svc.Transition(context.Background(), f.guest, booking.ID, TransitionInput{Status: models.BookingConfirmed})
	appErr := requireCode(t, err, apperrors.CodeForbidden)
	assert.Equal(t, 403, appErr.HTTPStatus())
}

func TestTransitionRejectsIllegalMoves(t *testing.T) {
	f := newBookingFixture(t)
	booking := f.pendingBooking(t)

	_, err := f.svc.Transition(context.Background(), f.admin, booking.ID, TransitionInput{Status: models.BookingCompleted})
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.Transition(context.Background(), f.admin, booking.ID, TransitionInput{Status: "archived"})
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.Transition(context.Background(), f.admin, 9999, TransitionInput{Status: models.BookingConfirmed})
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestTransitionTableAlreadyTaken(t *testing.T) {
	f := newBookingFixture(t)
	testutil.CreateTable(t, f.store.DB(), 7, 4)
	first := f.pendingBooking(t)
	second := f.pendingBooking(t)
	f.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

	_, err := f.svc.Transition(context.Background(), f.admin, first.ID, TransitionInput{Status: models.BookingConfirmed, TableNumber: testutil.IntPtr(7)})
	require.NoError(t, err)
	_, err = f.svc.Transition(context.Background(), f.admin, second.ID, TransitionInput{Status: models.BookingConfirmed, TableNumber: testutil.IntPtr(7)})
	requireCode(t, err, apperrors.CodeConflict)
}

func TestOwnerCancel(t *testing.T) {
	f := newBookingFixture(t)
	booking := f.pendingBooking(t)
	stranger := testutil.CreateUser(t, f.store.DB(), &models.User{}, "")

	_, err := f.svc.Cancel(context.Background(), stranger, booking.ID, "nope")
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.svc.Cancel(context.Background(), f.guest, booking.ID, " ")
	requireCode(t, err, apperrors.CodeValidation)

	cancelled, err := f.svc.Cancel(context.Background(), f.guest, booking.ID, "plans changed")
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)
	assert.Equal(t, "plans changed", cancelled.CancellationReason)

	_, err = f.svc.Cancel(context.Background(), f.guest, booking.ID, "again")
	requireCode(t, err, apperrors.CodeValidation)
}

func TestListGetDeleteOwnership(t *testing.T) {
	f := newBookingFixture(t)
	mine := f.pendingBooking(t)
	other := testutil.CreateUser(t, f.store.DB(), &models.User{}, "")

	list, err := f.svc.List(context.Background(), other, repository.BookingFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	all, err := f.svc.List(context.Background(), f.admin, repository.BookingFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = f.svc.Get(context.Background(), other, mine.ID)
	requireCode(t, err, apperrors.CodeForbidden)
	requireCode(t, f.svc.Delete(context.Background(), other, mine.ID), apperrors.CodeForbidden)

	got, err := f.svc.Get(context.Background(), f.guest, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)

	require.NoError(t, f.svc.Delete(context.Background(), f.admin, mine.ID))
	_, err = f.svc.Get(context.Background(), f.guest, mine.ID)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestAdminAssignsTableToPaidBooking(t *testing.T) {
	f := newBookingFixture(t)
	testutil.CreateTable(t, f.store.DB(), 7, 4)
	ctx := context.Background()
	f.expectCaptured("pay_1", 150000)
	// One confirmation email for the booking, none again when seating it.
	f.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	created, err := f.svc.Create(ctx, f.guest, paidInput("pay_1", nil, 2))
	require.NoError(t, err)
	require.Equal(t, models.BookingConfirmed, created.Status)
	require.Nil(t, created.TableNumber)

	updated, err := f.svc.Transition(ctx, f.admin, created.ID, TransitionInput{
		Status:      models.BookingConfirmed,
		TableNumber: testutil.IntPtr(7),
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, updated.Status)
	require.NotNil(t, updated.TableNumber)
	assert.Equal(t, 7, *updated.TableNumber)

	history := updated.StatusHistory
	require.NotEmpty(t, history)
	last := history[len(history)-1]
	assert.Equal(t, models.BookingConfirmed, last.FromStatus)
	assert.Equal(t, models.BookingConfirmed, last.ToStatus)
	assert.Equal(t, "table 7 assigned", last.Note)
	assert.Equal(t, f.admin.ID, last.ChangedBy)

	_, err = f.svc.AssignTable(ctx, f.guest, created.ID, 7)
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestAssignTableRespectsSlot(t *testing.T) {
	f := newBookingFixture(t)
	testutil.CreateTable(t, f.store.DB(), 7, 4)
	testutil.CreateTable(t, f.store.DB(), 8, 2)
	ctx := context.Background()
	f.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	f.expectCaptured("pay_1", 150000)
	seated, err := f.svc.Create(ctx, f.guest, paidInput("pay_1", testutil.IntPtr(7), 2))
	require.NoError(t, err)
	f.expectCaptured("pay_2", 150000)
	waiting, err := f.svc.Create(ctx, f.guest, paidInput("pay_2", nil, 3))
	require.NoError(t, err)

	_, err = f.svc.AssignTable(ctx, f.admin, waiting.ID, 7)
	appErr := requireCode(t, err, apperrors.CodeConflict)
	assert.Equal(t, "table already booked for this time", appErr.Message)

	_, err = f.svc.AssignTable(ctx, f.admin, waiting.ID, 8)
	requireCode(t, err, apperrors.CodeValidation)

	// Reassigning a booking to its own table is a no-op.
	same, err := f.svc.AssignTable(ctx, f.admin, seated.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, *same.TableNumber)

	_, err = f.svc.Cancel(ctx, f.guest, seated.ID, "plans changed")
	require.NoError(t, err)
	_, err = f.svc.AssignTable(ctx, f.admin, seated.ID, 8)
	requireCode(t, err, apperrors.CodeValidation)

	moved, err := f.svc.AssignTable(ctx, f.admin, waiting.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, *moved.TableNumber)
}

func TestCreateBookingNormalizesSlot(t *testing.T) {
	f := newBookingFixture(t)
	testutil.CreateTable(t, f.store.DB(), 5, 4)
	ctx := context.Background()
	f.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

	first := paidInput("pay_1", testutil.IntPtr(5), 2)
	first.Time = "09:00"
	f.expectCaptured("pay_1", 150000)
	booking, err := f.svc.Create(ctx, f.guest, first)
	require.NoError(t, err)
	assert.Equal(t, "09:00", booking.Time)

	second := paidInput("pay_2", testutil.IntPtr(5), 2)
	second.Time = "9:00"
	f.expectCaptured("pay_2", 150000)
	_, err = f.svc.Create(ctx, f.guest, second)
	appErr := requireCode(t, err, apperrors.CodeConflict)
	assert.Equal(t, "table already booked for this time", appErr.Message)
	assert.EqualValues(t, 1, f.countBookings(t))

	bookings, err := f.svc.List(ctx, f.admin, repository.BookingFilter{Date: "2026-12-24"})
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func TestNormalizeSlot(t *testing.T) {
	date, timeOfDay, err := NormalizeSlot(" 2026-01-05", "7:05 ")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-05", date)
	assert.Equal(t, "07:05", timeOfDay)

	_, _, err = NormalizeSlot("2026-1-5", "07:05")
	requireCode(t, err, apperrors.CodeValidation)
	_, _, err = NormalizeSlot("2026-01-05", "25:00")
	requireCode(t, err, apperrors.CodeValidation)
}
