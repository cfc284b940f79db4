package models

import "time"

// BookingStatus represents all possible states of a reservation
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

// Holding reports whether a booking in this status still occupies its slot.
func (s BookingStatus) Holding() bool {
	return s == BookingPending || s == BookingConfirmed
}

// Slot layouts. Bookings store date and time in exactly these forms, so
// slot collisions are exact string matches.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// HoldingStatuses are the non-terminal statuses that block a table slot.
var HoldingStatuses = []BookingStatus{BookingPending, BookingConfirmed}

// PaymentStatus is the payment outcome recorded on a booking
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// Date and Time hold DateLayout and TimeLayout strings.
type Booking struct {
	ID                 uint                   `json:"id" gorm:"primaryKey"`
	UserID             uint                   `json:"userId" gorm:"not null;index"`
	User               *User                  `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Owner              *PublicProfile         `json:"user,omitempty" gorm:"-"`
	Name               string                 `json:"name" gorm:"not null"`
	Email              string                 `json:"email" gorm:"not null"`
	Phone              string                 `json:"phone" gorm:"not null"`
	NumberOfGuests     int                    `json:"numberOfGuests" gorm:"not null"`
	Date               string                 `json:"date" gorm:"not null;index"`
	Time               string                 `json:"time" gorm:"not null"`
	TableNumber        *int                   `json:"tableNumber,omitempty" gorm:"index"`
	Area               string                 `json:"area,omitempty"`
	Status             BookingStatus          `json:"status" gorm:"not null;default:'pending'"`
	SpecialRequests    string                 `json:"specialRequests,omitempty"`
	PaymentStatus      PaymentStatus          `json:"paymentStatus" gorm:"not null;default:'pending'"`
	PaymentAmount      float64                `json:"paymentAmount"`
	PaymentID          *string                `json:"paymentId,omitempty" gorm:"uniqueIndex"`
	OrderID            string                 `json:"orderId,omitempty"`
	PaymentMethod      string                 `json:"paymentMethod,omitempty"`
	ConfirmedBy        *uint                  `json:"confirmedBy,omitempty"`
	ConfirmedAt        *time.Time             `json:"confirmedAt,omitempty"`
	CancellationReason string                 `json:"cancellationReason,omitempty"`
	StatusHistory      []BookingStatusHistory `json:"statusHistory,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time              `json:"createdAt"`
	UpdatedAt          time.Time              `json:"updatedAt"`
}

// Expand fills Owner from the preloaded User.
func (b *Booking) Expand() {
	if b.User != nil {
		p := b.User.Public()
		b.Owner = &p
	}
}

// BookingStatusHistory tracks every status change of a booking
type BookingStatusHistory struct {
	ID         uint          `json:"id" gorm:"primaryKey"`
	BookingID  uint          `json:"bookingId" gorm:"not null;index"`
	FromStatus BookingStatus `json:"fromStatus"`
	ToStatus   BookingStatus `json:"toStatus" gorm:"not null"`
	ChangedBy  uint          `json:"changedBy"`
	Note       string        `json:"note"`
	CreatedAt  time.Time     `json:"createdAt"`
}
