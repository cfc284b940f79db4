package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"table-reservation-api/models"
)

type UserFilter struct {
	Role     models.UserRole
	Approved *bool
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.conn(ctx).Create(user).Error)
}

func (s *Store) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) FindUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).Where("phone = ?", phone).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context, filter UserFilter) ([]models.User, error) {
	var users []models.User
	query := s.conn(ctx).Order("created_at desc")
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Approved != nil {
		query = query.Where("is_approved = ?", *filter.Approved)
	}
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) CountAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&n).Error
	return n, err
}

// bootstrapLockKey serializes first-admin promotions on postgres, where two
// conditional updates of different rows would not see each other.
const bootstrapLockKey = 0x7461626c65

// PromoteFirstAdmin makes the user an approved admin only while no admin
// exists. Of two concurrent callers at most one gets true.
func (s *Store) PromoteFirstAdmin(ctx context.Context, id uint) (bool, error) {
	promoted := false
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", bootstrapLockKey).Error; err != nil {
				return err
			}
		}
		admins := tx.Session(&gorm.Session{NewDB: true}).Model(&models.User{}).Select("1").Where("role = ?", models.RoleAdmin)
		res := tx.Model(&models.User{}).
			Where("id = ? AND NOT EXISTS (?)", id, admins).
			Updates(map[string]any{"role": models.RoleAdmin, "is_approved": true})
		if res.Error != nil {
			return res.Error
		}
		promoted = res.RowsAffected == 1
		return nil
	})
	if err != nil {
		return false, translate(err)
	}
	return promoted, nil
}

// UpdateUser writes the given columns; a missing user is ErrNotFound.
func (s *Store) UpdateUser(ctx context.Context, id uint, fields map[string]any) error {
	res := s.conn(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetOTP(ctx context.Context, userID uint, code string, expiresAt time.Time) error {
	return s.UpdateUser(ctx, userID, map[string]any{"otp_code": code, "otp_expires_at": expiresAt})
}

func (s *Store) ClearOTP(ctx context.Context, userID uint) error {
	return s.UpdateUser(ctx, userID, map[string]any{"otp_code": "", "otp_expires_at": nil})
}

// DeleteUser removes the user together with everything they own.
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		bookingIDs := tx.Model(&models.Booking{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("booking_id IN (?)", bookingIDs).Delete(&models.BookingStatusHistory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Booking{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.PasswordResetToken{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
