package models

import "time"

// PasswordResetToken is a single-use secret; only its SHA-256 is stored.
type PasswordResetToken struct {
	ID         uint       `gorm:"primaryKey"`
	TokenHash  string     `gorm:"uniqueIndex;not null"`
	UserID     uint       `gorm:"not null;index"`
	User       *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	ExpiresAt  time.Time  `gorm:"not null"`
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// NotificationLog records delivered notifications; Key is the dedup key.
type NotificationLog struct {
	ID        uint      `gorm:"primaryKey"`
	Key       string    `gorm:"uniqueIndex;not null"`
	BookingID uint      `gorm:"index"`
	Channel   string    `gorm:"not null"`
	SentAt    time.Time `gorm:"not null"`
}

// AuditEvent is an append-only record of privileged actions.
type AuditEvent struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ActorID   uint      `json:"actorId"`
	Action    string    `json:"action" gorm:"not null;index"`
	TargetID  uint      `json:"targetId"`
	Note      string    `json:"note"`
	ClientIP  string    `json:"clientIp"`
	CreatedAt time.Time `json:"createdAt"`
}
