package services

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"table-reservation-api/apperrors"
	"table-reservation-api/logger"
	"table-reservation-api/models"
	"table-reservation-api/repository"
)

const (
	AuditApprove         = "user.approve"
	AuditPromote         = "user.promote"
	AuditSelfPromote     = "user.self_promote"
	AuditSelfPromoteDeny = "user.self_promote_denied"
)

const msgAdminExists = "an admin already exists; ask them to promote you"

type UserStore interface {
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, filter repository.UserFilter) ([]models.User, error)
	CountAdmins(ctx context.Context) (int64, error)
	PromoteFirstAdmin(ctx context.Context, id uint) (bool, error)
	UpdateUser(ctx context.Context, id uint, fields map[string]any) error
	DeleteUser(ctx context.Context, id uint) error
	RecordAudit(ctx context.Context, event *models.AuditEvent) error
	ListAudit(ctx context.Context, action string) ([]models.AuditEvent, error)
}

type UserService struct {
	store       UserStore
	adminSecret string
	now         func() time.Time
}

func NewUserService(store UserStore, adminSecret string) *UserService {
	return &UserService{
		store:       store,
		adminSecret: adminSecret,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type ProfileInput struct {
	Name  *string
	Phone *string
}

// UpdateProfile changes name and phone. A new phone number has to be
// verified again.
func (s *UserService) UpdateProfile(ctx context.Context, caller *models.User, in ProfileInput) (*models.User, error) {
	fields := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.Validation("name cannot be empty")
		}
		fields["name"] = name
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		current := ""
		if caller.Phone != nil {
			current = *caller.Phone
		}
		if phone != current {
			if phone == "" {
				fields["phone"] = nil
			} else {
				fields["phone"] = phone
			}
			fields["phone_verified"] = false
			fields["otp_code"] = ""
			fields["otp_expires_at"] = nil
		}
	}
	if len(fields) == 0 {
		return caller, nil
	}

	if err := s.store.UpdateUser(ctx, caller.ID, fields); err != nil {
		return nil, storeError(err, "user not found", "phone number already in use", "update profile")
	}
	user, err := s.store.FindUserByID(ctx, caller.ID)
	if err != nil {
		return nil, storeError(err, "user not found", "", "load user")
	}
	return user, nil
}

// DeleteAccount removes the caller with their bookings and reviews.
func (s *UserService) DeleteAccount(ctx context.Context, caller *models.User) error {
	if err := s.store.DeleteUser(ctx, caller.ID); err != nil {
		return storeError(err, "user not found", "", "delete account")
	}
	logger.FromContext(ctx).Info().Uint("user_id", caller.ID).Msg("account deleted")
	return nil
}

func (s *UserService) List(ctx context.Context, filter repository.UserFilter) ([]models.User, error) {
	users, err := s.store.ListUsers(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal("failed to list users", err)
	}
	return users, nil
}

// Approve lets the user create bookings.
func (s *UserService) Approve(ctx context.Context, admin *models.User, id uint, clientIP string) (*models.User, error) {
	if !admin.IsAdmin() {
		return nil, apperrors.Forbidden("admin access required")
	}
	now := s.now()
	err := s.store.UpdateUser(ctx, id, map[string]any{
		"is_approved": true,
		"approved_by": admin.ID,
		"approved_at": now,
	})
	if err != nil {
		return nil, storeError(err, "user not found", "", "approve user")
	}
	s.audit(ctx, admin.ID, AuditApprove, id, "", clientIP)

	user, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "user not found", "", "load user")
	}
	return user, nil
}

type MakeAdminInput struct {
	Email  string
	Secret string
}

// MakeAdmin promotes a user. Admins promote by email; anyone else may
// promote themselves with the bootstrap secret while no admin exists.
func (s *UserService) MakeAdmin(ctx context.Context, caller *models.User, in MakeAdminInput, clientIP string) (*models.User, error) {
	if caller.IsAdmin() && strings.TrimSpace(in.Email) != "" {
		target, err := s.store.FindUserByEmail(ctx, NormalizeEmail(in.Email))
		if err != nil {
			return nil, storeError(err, "user not found", "", "load user")
		}
		promoted, err := s.promote(ctx, target.ID)
		if err != nil {
			return nil, err
		}
		s.audit(ctx, caller.ID, AuditPromote, target.ID, "", clientIP)
		return promoted, nil
	}

	if in.Secret == "" {
		return nil, apperrors.Forbidden("admin access required")
	}
	if caller.IsAdmin() {
		return caller, nil
	}
	if s.adminSecret == "" {
		return nil, apperrors.Forbidden("self-promotion is disabled")
	}
	if subtle.ConstantTimeCompare([]byte(s.adminSecret), []byte(in.Secret)) != 1 {
		s.audit(ctx, caller.ID, AuditSelfPromoteDeny, caller.ID, "invalid secret", clientIP)
		return nil, apperrors.Forbidden("invalid admin secret")
	}
	admins, err := s.store.CountAdmins(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to count admins", err)
	}
	if admins > 0 {
		s.audit(ctx, caller.ID, AuditSelfPromoteDeny, caller.ID, "admin exists", clientIP)
		return nil, apperrors.Forbidden(msgAdminExists)
	}

	ok, err := s.store.PromoteFirstAdmin(ctx, caller.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to promote user", err)
	}
	if !ok {
		s.audit(ctx, caller.ID, AuditSelfPromoteDeny, caller.ID, "admin exists", clientIP)
		return nil, apperrors.Forbidden(msgAdminExists)
	}
	promoted, err := s.store.FindUserByID(ctx, caller.ID)
	if err != nil {
		return nil, storeError(err, "user not found", "", "load user")
	}
	s.audit(ctx, caller.ID, AuditSelfPromote, caller.ID, "", clientIP)
	return promoted, nil
}

// AuditTrail lists recorded approvals and promotions, oldest first.
func (s *UserService) AuditTrail(ctx context.Context, action string) ([]models.AuditEvent, error) {
	events, err := s.store.ListAudit(ctx, strings.TrimSpace(action))
	if err != nil {
		return nil, apperrors.Internal("failed to list audit events", err)
	}
	return events, nil
}

func (s *UserService) promote(ctx context.Context, id uint) (*models.User, error) {
	err := s.store.UpdateUser(ctx, id, map[string]any{
		"role":        models.RoleAdmin,
		"is_approved": true,
	})
	if err != nil {
		return nil, storeError(err, "user not found", "", "promote user")
	}
	user, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "user not found", "", "load user")
	}
	return user, nil
}

// audit failures are logged only; the action itself already happened.
func (s *UserService) audit(ctx context.Context, actor uint, action string, target uint, note, clientIP string) {
	event := &models.AuditEvent{ActorID: actor, Action: action, TargetID: target, Note: note, ClientIP: clientIP}
	log := logger.FromContext(ctx)
	if err := s.store.RecordAudit(ctx, event); err != nil {
		log.Error().Err(err).Str("action", action).Msg("failed to record audit event")
		return
	}
	log.Info().Str("action", action).Uint("actor_id", actor).Uint("target_id", target).Msg("audit")
}
