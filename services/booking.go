package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"table-reservation-api/apperrors"
	"table-reservation-api/logger"
	"table-reservation-api/models"
	"table-reservation-api/payment"
	"table-reservation-api/repository"
	"table-reservation-api/slotlock"
	"table-reservation-api/statemachine"
)

const (
	msgTableNotAvailable = "table not available"
	msgSlotTaken         = "table already booked for this time"
	msgBookingNotFound   = "booking not found"
)

type BookingStore interface {
	FindTableByNumber(ctx context.Context, number int) (*models.Table, error)
	FindActiveBookingForSlot(ctx context.Context, tableNumber int, date, timeOfDay string) (*models.Booking, error)
	FindBookingByPaymentID(ctx context.Context, paymentID string) (*models.Booking, error)
	FindBookingByID(ctx context.Context, id uint) (*models.Booking, error)
	CreateBooking(ctx context.Context, booking *models.Booking, changedBy uint, note string) error
	ListBookings(ctx context.Context, filter repository.BookingFilter) ([]models.Booking, error)
	TransitionBooking(ctx context.Context, id uint, from models.BookingStatus, change repository.StatusChange) error
	DeleteBooking(ctx context.Context, id uint) error
}

type PaymentVerifier interface {
	Verify(ctx context.Context, proof payment.Proof) (*payment.Details, error)
}

type ConfirmationNotifier interface {
	BookingConfirmed(ctx context.Context, booking *models.Booking) bool
}

type BookingService struct {
	store    BookingStore
	verifier PaymentVerifier
	locker   slotlock.Locker
	notifier ConfirmationNotifier
	now      func() time.Time
}

func NewBookingService(store BookingStore, verifier PaymentVerifier, locker slotlock.Locker, notifier ConfirmationNotifier) *BookingService {
	return &BookingService{
		store:    store,
		verifier: verifier,
		locker:   locker,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type CreateBookingInput struct {
	Name            string
	Email           string
	Phone           string
	NumberOfGuests  int
	Date            string
	Time            string
	TableNumber     *int
	Area            string
	SpecialRequests string

	OrderID   string
	PaymentID string
	Signature string
	Amount    *float64
}

// Create runs the paid-booking pipeline: validate, verify payment, check the
// slot, write, notify. Only the notification step may fail silently.
func (s *BookingService) Create(ctx context.Context, caller *models.User, in CreateBookingInput) (*models.Booking, error) {
	if err := validateGuest(&in); err != nil {
		return nil, err
	}

	details, err := s.verifier.Verify(ctx, payment.Proof{
		OrderID:   in.OrderID,
		PaymentID: in.PaymentID,
		Signature: in.Signature,
		Amount:    in.Amount,
	})
	if err != nil {
		return nil, err
	}

	if existing, err := s.store.FindBookingByPaymentID(ctx, in.PaymentID); err == nil {
		return nil, apperrors.Conflict(fmt.Sprintf("payment already used for booking #%d", existing.ID))
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal("failed to check payment", err)
	}

	booking := &models.Booking{
		UserID:          caller.ID,
		Name:            strings.TrimSpace(in.Name),
		Email:           strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:           strings.TrimSpace(in.Phone),
		NumberOfGuests:  in.NumberOfGuests,
		Date:            in.Date,
		Time:            in.Time,
		TableNumber:     in.TableNumber,
		Area:            in.Area,
		Status:          models.BookingConfirmed,
		SpecialRequests: in.SpecialRequests,
		PaymentStatus:   models.PaymentPaid,
		PaymentAmount:   *in.Amount,
		PaymentID:       &in.PaymentID,
		OrderID:         in.OrderID,
		PaymentMethod:   details.Method,
	}

	if in.TableNumber != nil {
		release, err := s.lockSlot(ctx, *in.TableNumber, in.Date, in.Time)
		if err != nil {
			return nil, err
		}
		defer release()

		if err := s.checkAvailability(ctx, *in.TableNumber, in.Date, in.Time, in.NumberOfGuests, 0); err != nil {
			return nil, err
		}
	}

	if err := s.store.CreateBooking(ctx, booking, caller.ID, "paid online"); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			if _, lookupErr := s.store.FindBookingByPaymentID(ctx, in.PaymentID); lookupErr == nil {
				return nil, apperrors.Conflict("payment already used for another booking")
			}
			return nil, apperrors.Conflict(msgSlotTaken)
		}
		// The payment is already captured at this point.
		logger.FromContext(ctx).Error().Err(err).
			Str("payment_id", in.PaymentID).
			Str("order_id", in.OrderID).
			Msg("paid booking could not be stored")
		return nil, apperrors.Internal("failed to create booking", err)
	}

	created := s.reload(ctx, booking, caller)
	logger.FromContext(ctx).Info().
		Uint("booking_id", created.ID).
		Uint("user_id", caller.ID).
		Str("payment_id", in.PaymentID).
		Msg("booking created")

	s.notifier.BookingConfirmed(ctx, created)
	return created, nil
}

// validateGuest checks the guest fields and rewrites date and time in their
// canonical form, so "9:00" and "09:00" name the same slot.
func validateGuest(in *CreateBookingInput) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return apperrors.Validation("name is required")
	case strings.TrimSpace(in.Email) == "":
		return apperrors.Validation("email is required")
	case strings.TrimSpace(in.Phone) == "":
		return apperrors.Validation("phone is required")
	case in.NumberOfGuests < 1 || in.NumberOfGuests > 20:
		return apperrors.Validation("numberOfGuests must be between 1 and 20")
	}
	date, timeOfDay, err := NormalizeSlot(in.Date, in.Time)
	if err != nil {
		return err
	}
	in.Date, in.Time = date, timeOfDay
	return nil
}

// NormalizeSlot parses a booking date and time and returns them as
// "2006-01-02" and "15:04".
func NormalizeSlot(date, timeOfDay string) (string, string, error) {
	d, err := time.Parse(models.DateLayout, strings.TrimSpace(date))
	if err != nil {
		return "", "", apperrors.Validation("date must be in YYYY-MM-DD format")
	}
	t, err := time.Parse(models.TimeLayout, strings.TrimSpace(timeOfDay))
	if err != nil {
		return "", "", apperrors.Validation("time must be in HH:MM format")
	}
	return d.Format(models.DateLayout), t.Format(models.TimeLayout), nil
}

func (s *BookingService) lockSlot(ctx context.Context, tableNumber int, date, timeOfDay string) (func(), error) {
	release, err := s.locker.Lock(ctx, slotlock.SlotKey(tableNumber, date, timeOfDay))
	if err != nil {
		return nil, apperrors.Unavailable("table is busy, please retry")
	}
	return release, nil
}

// checkAvailability requires an active table that fits the party and no
// other holding booking on the slot. self is ignored when matching.
func (s *BookingService) checkAvailability(ctx context.Context, tableNumber int, date, timeOfDay string, guests int, self uint) error {
	table, err := s.store.FindTableByNumber(ctx, tableNumber)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !table.IsActive) {
		return apperrors.NotFound(msgTableNotAvailable)
	}
	if err != nil {
		return apperrors.Internal("failed to load table", err)
	}

	existing, err := s.store.FindActiveBookingForSlot(ctx, tableNumber, date, timeOfDay)
	switch {
	case err == nil && existing.ID != self:
		return apperrors.Conflict(msgSlotTaken)
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return apperrors.Internal("failed to check availability", err)
	}

	if guests > table.Capacity {
		return apperrors.Validation("table %d seats at most %d guests", table.TableNumber, table.Capacity)
	}
	return nil
}

// reload returns the stored booking with its owner expanded, falling back
// to the in-memory copy.
func (s *BookingService) reload(ctx context.Context, booking *models.Booking, owner *models.User) *models.Booking {
	stored, err := s.store.FindBookingByID(ctx, booking.ID)
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Uint("booking_id", booking.ID).Msg("reload booking failed")
		p := owner.Public()
		booking.Owner = &p
		return booking
	}
	return stored
}

type TransitionInput struct {
	Status             models.BookingStatus
	TableNumber        *int
	CancellationReason string
}

// Transition applies an admin lifecycle change. Confirming stamps the admin
// and time, optionally assigns a table and sends the confirmation email.
func (s *BookingService) Transition(ctx context.Context, caller *models.User, id uint, in TransitionInput) (*models.Booking, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.Forbidden("admin access required")
	}
	if !in.Status.Valid() {
		return nil, apperrors.Validation("status %q is not a valid booking status", in.Status)
	}
	if in.TableNumber != nil && in.Status != models.BookingConfirmed {
		return nil, apperrors.Validation("tableNumber can only be assigned when confirming")
	}

	booking, err := s.store.FindBookingByID(ctx, id)
	if err != nil {
		return nil, storeError(err, msgBookingNotFound, "", "load booking")
	}
	if booking.Status == models.BookingConfirmed && in.Status == models.BookingConfirmed && in.TableNumber != nil {
		return s.assignTable(ctx, caller, booking, *in.TableNumber)
	}
	if err := statemachine.CanTransition(booking.Status, in.Status, statemachine.ActorAdmin); err != nil {
		return nil, apperrors.Validation("%s", err.Error())
	}

	change := repository.StatusChange{
		To:                 in.Status,
		ChangedBy:          caller.ID,
		Note:               "admin " + string(in.Status),
		CancellationReason: strings.TrimSpace(in.CancellationReason),
	}
	if in.Status == models.BookingConfirmed {
		now := s.now()
		change.ConfirmedAt = &now
	}
	if in.TableNumber != nil {
		change.TableNumber = in.TableNumber
		release, err := s.lockSlot(ctx, *in.TableNumber, booking.Date, booking.Time)
		if err != nil {
			return nil, err
		}
		defer release()
		if err := s.checkAvailability(ctx, *in.TableNumber, booking.Date, booking.Time, booking.NumberOfGuests, booking.ID); err != nil {
			return nil, err
		}
	}

	if err := s.applyChange(ctx, booking, change); err != nil {
		return nil, err
	}

	updated, err := s.store.FindBookingByID(ctx, id)
	if err != nil {
		return nil, storeError(err, msgBookingNotFound, "", "load booking")
	}
	logger.FromContext(ctx).Info().
		Uint("booking_id", id).
		Str("from", string(booking.Status)).
		Str("to", string(in.Status)).
		Uint("admin_id", caller.ID).
		Msg("booking transitioned")

	if in.Status == models.BookingConfirmed {
		s.notifier.BookingConfirmed(ctx, updated)
	}
	return updated, nil
}

// AssignTable seats a confirmed booking at a table (admin only). Paid
// bookings are created confirmed, often without a table.
func (s *BookingService) AssignTable(ctx context.Context, caller *models.User, id uint, tableNumber int) (*models.Booking, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.Forbidden("admin access required")
	}
	booking, err := s.store.FindBookingByID(ctx, id)
	if err != nil {
		return nil, storeError(err, msgBookingNotFound, "", "load booking")
	}
	return s.assignTable(ctx, caller, booking, tableNumber)
}

func (s *BookingService) assignTable(ctx context.Context, caller *models.User, booking *models.Booking, tableNumber int) (*models.Booking, error) {
	if booking.Status != models.BookingConfirmed {
		return nil, apperrors.Validation("only confirmed bookings can be assigned a table, booking is %s", booking.Status)
	}
	if tableNumber < 1 {
		return nil, apperrors.Validation("tableNumber must be positive")
	}
	if booking.TableNumber != nil && *booking.TableNumber == tableNumber {
		return booking, nil
	}

	release, err := s.lockSlot(ctx, tableNumber, booking.Date, booking.Time)
	if err != nil {
		return nil, err
	}
	defer release()
	if err := s.checkAvailability(ctx, tableNumber, booking.Date, booking.Time, booking.NumberOfGuests, booking.ID); err != nil {
		return nil, err
	}

	err = s.applyChange(ctx, booking, repository.StatusChange{
		To:          models.BookingConfirmed,
		ChangedBy:   caller.ID,
		Note:        fmt.Sprintf("table %d assigned", tableNumber),
		TableNumber: &tableNumber,
	})
	if err != nil {
		return nil, err
	}
	updated, err := s.store.FindBookingByID(ctx, booking.ID)
	if err != nil {
		return nil, storeError(err, msgBookingNotFound, "", "load booking")
	}
	logger.FromContext(ctx).Info().
		Uint("booking_id", booking.ID).
		Int("table_number", tableNumber).
		Uint("admin_id", caller.ID).
		Msg("table assigned")

	s.notifier.BookingConfirmed(ctx, updated)
	return updated, nil
}

// Cancel lets the owner (or an admin) cancel a pending or confirmed booking.
func (s *BookingService) Cancel(ctx context.Context, caller *models.User, id uint, reason string) (*models.Booking, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.Validation("cancellationReason is required")
	}
	booking, err := s.store.FindBookingByID(ctx, id)
	if err != nil {
		return nil, storeError(err, msgBookingNotFound, "", "load booking")
	}

	actor := statemachine.ActorOwner
	if caller.IsAdmin() {
		actor = statemachine.ActorAdmin
	} else if booking.UserID != caller.ID {
		return nil, apperrors.Forbidden("you can only cancel your own bookings")
	}
	if err := statemachine.CanTransition(booking.Status, models.BookingCancelled, actor); err != nil {
		return nil, apperrors.Validation("%s", err.Error())
	}

	err = s.applyChange(ctx, booking, repository.StatusChange{
		To:                 models.BookingCancelled,
		ChangedBy:          caller.ID,
		Note:               string(actor) + " cancelled",
		CancellationReason: reason,
	})
	if err != nil {
		return nil, err
	}
	updated, err := s.store.FindBookingByID(ctx, id)
	if err != nil {
		return nil, storeError(err, msgBookingNotFound, "", "load booking")
	}
	return updated, nil
}

func (s *BookingService) applyChange(ctx context.Context, booking *models.Booking, change repository.StatusChange) error {
	err := s.store.TransitionBooking(ctx, booking.ID, booking.Status, change)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.Conflict("booking was changed by another request, reload and retry")
	case errors.Is(err, repository.ErrAlreadyExists):
		return apperrors.Conflict(msgSlotTaken)
	default:
		return apperrors.Internal("failed to update booking", err)
	}
}

// Get returns a booking visible to the caller.
func (s *BookingService) Get(ctx context.Context, caller *models.User, id uint) (*models.Booking, error) {
	booking, err := s.store.FindBookingByID(ctx, id)
	if err != nil {
		return nil, storeError(err, msgBookingNotFound, "", "load booking")
	}
	if !caller.IsAdmin() && booking.UserID != caller.ID {
		return nil, apperrors.Forbidden("you do not have access to this booking")
	}
	return booking, nil
}

// List shows admins every booking and everyone else their own.
func (s *BookingService) List(ctx context.Context, caller *models.User, filter repository.BookingFilter) ([]models.Booking, error) {
	if !caller.IsAdmin() {
		filter.UserID = caller.ID
	}
	if filter.Date != "" {
		d, err := time.Parse(models.DateLayout, strings.TrimSpace(filter.Date))
		if err != nil {
			return nil, apperrors.Validation("date must be in YYYY-MM-DD format")
		}
		filter.Date = d.Format(models.DateLayout)
	}
	bookings, err := s.store.ListBookings(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal("failed to list bookings", err)
	}
	return bookings, nil
}

func (s *BookingService) Delete(ctx context.Context, caller *models.User, id uint) error {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return err
	}
	return storeError(s.store.DeleteBooking(ctx, id), msgBookingNotFound, "", "delete booking")
}
