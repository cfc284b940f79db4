package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"table-reservation-api/models"
)

type BookingFilter struct {
	UserID      uint
	Status      models.BookingStatus
	Date        string
	TableNumber *int
}

// CreateBooking inserts the booking and its first history entry atomically.
// A collision on the active-slot or payment-id index surfaces as ErrAlreadyExists.
func (s *Store) CreateBooking(ctx context.Context, booking *models.Booking, changedBy uint, note string) error {
	return translate(s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User", "StatusHistory").Create(booking).Error; err != nil {
			return err
		}
		return tx.Create(&models.BookingStatusHistory{
			BookingID: booking.ID,
			ToStatus:  booking.Status,
			ChangedBy: changedBy,
			Note:      note,
		}).Error
	}))
}

func (s *Store) FindBookingByID(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	err := s.conn(ctx).
		Preload("User").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		First(&booking, id).Error
	if err != nil {
		return nil, translate(err)
	}
	booking.Expand()
	return &booking, nil
}

// FindActiveBookingForSlot returns a pending or confirmed booking holding the slot.
func (s *Store) FindActiveBookingForSlot(ctx context.Context, tableNumber int, date, timeOfDay string) (*models.Booking, error) {
	var booking models.Booking
	err := s.conn(ctx).
		Where("table_number = ? AND date = ? AND time = ? AND status IN ?",
			tableNumber, date, timeOfDay, models.HoldingStatuses).
		First(&booking).Error
	if err != nil {
		return nil, translate(err)
	}
	return &booking, nil
}

func (s *Store) FindBookingByPaymentID(ctx context.Context, paymentID string) (*models.Booking, error) {
	var booking models.Booking
	if err := s.conn(ctx).Where("payment_id = ?", paymentID).First(&booking).Error; err != nil {
		return nil, translate(err)
	}
	return &booking, nil
}

func (s *Store) ListBookings(ctx context.Context, filter BookingFilter) ([]models.Booking, error) {
	var bookings []models.Booking
	query := s.conn(ctx).Preload("User").Order("date desc, time desc, id desc")
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Date != "" {
		query = query.Where("date = ?", filter.Date)
	}
	if filter.TableNumber != nil {
		query = query.Where("table_number = ?", *filter.TableNumber)
	}
	if err := query.Find(&bookings).Error; err != nil {
		return nil, err
	}
	for i := range bookings {
		bookings[i].Expand()
	}
	return bookings, nil
}

// StatusChange describes one lifecycle step applied by TransitionBooking.
type StatusChange struct {
	To                 models.BookingStatus
	ChangedBy          uint
	Note               string
	TableNumber        *int
	ConfirmedAt        *time.Time
	CancellationReason string
}

// TransitionBooking moves a booking out of status from, failing with
// ErrNotFound when another writer changed it first.
func (s *Store) TransitionBooking(ctx context.Context, id uint, from models.BookingStatus, change StatusChange) error {
	return translate(s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		fields := map[string]any{"status": change.To}
		if change.TableNumber != nil {
			fields["table_number"] = *change.TableNumber
		}
		if change.ConfirmedAt != nil {
			fields["confirmed_by"] = change.ChangedBy
			fields["confirmed_at"] = *change.ConfirmedAt
		}
		if change.CancellationReason != "" {
			fields["cancellation_reason"] = change.CancellationReason
		}
		res := tx.Model(&models.Booking{}).Where("id = ? AND status = ?", id, from).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(&models.BookingStatusHistory{
			BookingID:  id,
			FromStatus: from,
			ToStatus:   change.To,
			ChangedBy:  change.ChangedBy,
			Note:       change.Note,
		}).Error
	}))
}

func (s *Store) DeleteBooking(ctx context.Context, id uint) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("booking_id = ?", id).Delete(&models.BookingStatusHistory{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Booking{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
