package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"table-reservation-api/models"
)

func (s *Store) CreateResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	return translate(s.conn(ctx).Omit("User").Create(token).Error)
}

// ConsumeResetToken marks the token used and returns its owner. Expired,
// unknown and already consumed tokens all yield ErrNotFound.
func (s *Store) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (uint, error) {
	var userID uint
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var token models.PasswordResetToken
		if err := tx.Where("token_hash = ?", tokenHash).First(&token).Error; err != nil {
			return err
		}
		res := tx.Model(&models.PasswordResetToken{}).
			Where("id = ? AND consumed_at IS NULL AND expires_at > ?", token.ID, now).
			Update("consumed_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return gorm.ErrRecordNotFound
		}
		userID = token.UserID
		return nil
	})
	if err != nil {
		return 0, translate(err)
	}
	return userID, nil
}

// ClaimNotification records that key is being delivered. It reports false
// when the key was already claimed.
func (s *Store) ClaimNotification(ctx context.Context, key string, bookingID uint, channel string) (bool, error) {
	entry := models.NotificationLog{
		Key:       key,
		BookingID: bookingID,
		Channel:   channel,
		SentAt:    time.Now().UTC(),
	}
	err := translate(s.conn(ctx).Create(&entry).Error)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrAlreadyExists):
		return false, nil
	default:
		return false, err
	}
}

// ReleaseNotification drops a claim so a failed delivery can be retried.
func (s *Store) ReleaseNotification(ctx context.Context, key string) error {
	return s.conn(ctx).Where(&models.NotificationLog{Key: key}).Delete(&models.NotificationLog{}).Error
}

func (s *Store) RecordAudit(ctx context.Context, event *models.AuditEvent) error {
	return s.conn(ctx).Create(event).Error
}

func (s *Store) ListAudit(ctx context.Context, action string) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	query := s.conn(ctx).Order("id asc")
	if action != "" {
		query = query.Where("action = ?", action)
	}
	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
