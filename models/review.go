package models

import "time"

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewPending, ReviewApproved, ReviewRejected:
		return true
	}
	return false
}

type ReviewCategory string

const (
	CategoryFood     ReviewCategory = "food"
	CategoryService  ReviewCategory = "service"
	CategoryAmbiance ReviewCategory = "ambiance"
	CategoryValue    ReviewCategory = "value"
	CategoryOverall  ReviewCategory = "overall"
)

func (c ReviewCategory) Valid() bool {
	switch c {
	case CategoryFood, CategoryService, CategoryAmbiance, CategoryValue, CategoryOverall:
		return true
	}
	return false
}

type Review struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	UserID       uint           `json:"userId" gorm:"not null;index"`
	User         *User          `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Author       *PublicProfile `json:"user,omitempty" gorm:"-"`
	BookingID    *uint          `json:"bookingId,omitempty" gorm:"index"`
	Rating       int            `json:"rating" gorm:"not null"`
	Title        string         `json:"title"`
	Comment      string         `json:"comment" gorm:"not null"`
	Category     ReviewCategory `json:"category" gorm:"not null;default:'overall'"`
	Status       ReviewStatus   `json:"status" gorm:"not null;default:'pending';index"`
	AdminReply   string         `json:"adminReply,omitempty"`
	RepliedAt    *time.Time     `json:"repliedAt,omitempty"`
	HelpfulCount int            `json:"helpfulCount" gorm:"default:0"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

func (r *Review) Expand() {
	if r.User != nil {
		p := r.User.Public()
		r.Author = &p
	}
}
