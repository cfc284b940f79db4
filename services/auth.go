package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"table-reservation-api/apperrors"
	"table-reservation-api/logger"
	"table-reservation-api/models"
	"table-reservation-api/notify"
	"table-reservation-api/repository"
)

const (
	passwordCost  = 10
	otpTTL        = 10 * time.Minute
	resetTokenTTL = time.Hour

	msgBadCredentials = "invalid email or password"
	msgForgotPassword = "if an account exists for this email, a reset link has been sent"
)

type AccountStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByPhone(ctx context.Context, phone string) (*models.User, error)
	UpdateUser(ctx context.Context, id uint, fields map[string]any) error
	SetOTP(ctx context.Context, userID uint, code string, expiresAt time.Time) error
	ClearOTP(ctx context.Context, userID uint) error
	CreateResetToken(ctx context.Context, token *models.PasswordResetToken) error
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (uint, error)
}

// TokenIssuer signs session tokens for a user.
type TokenIssuer interface {
	Issue(user *models.User) (string, error)
}

type AuthService struct {
	store      AccountStore
	tokens     TokenIssuer
	mailer     notify.Mailer
	sms        notify.SMSSender
	appBaseURL string
	now        func() time.Time
}

func NewAuthService(store AccountStore, tokens TokenIssuer, mailer notify.Mailer, sms notify.SMSSender, appBaseURL string) *AuthService {
	return &AuthService{
		store:      store,
		tokens:     tokens,
		mailer:     mailer,
		sms:        sms,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Session is a signed token and the user it belongs to.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	if len(in.Password) < 6 {
		return nil, apperrors.Validation("password must be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), passwordCost)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        NormalizeEmail(in.Email),
		PasswordHash: string(hash),
		Provider:     models.ProviderCredentials,
		Role:         models.RoleUser,
	}
	if phone := strings.TrimSpace(in.Phone); phone != "" {
		user.Phone = &phone
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, storeError(err, "", "email or phone already registered", "create user")
	}

	logger.FromContext(ctx).Info().Uint("user_id", user.ID).Msg("user signed up")
	return s.session(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.store.FindUserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Unauthorized(msgBadCredentials)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load user", err)
	}
	if user.PasswordHash == "" {
		return nil, apperrors.Unauthorized("this account signs in with Google")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.Unauthorized(msgBadCredentials)
	}
	return s.session(user)
}

// ExternalProfile is an identity asserted by an OAuth provider.
type ExternalProfile struct {
	Email         string
	Name          string
	EmailVerified bool
}

// OAuthLogin signs in a Google identity, creating the account on first use.
func (s *AuthService) OAuthLogin(ctx context.Context, profile ExternalProfile) (*Session, error) {
	email := NormalizeEmail(profile.Email)
	if email == "" || !profile.EmailVerified {
		return nil, apperrors.Unauthorized("google account has no verified email")
	}

	user, err := s.store.FindUserByEmail(ctx, email)
	if err == nil {
		return s.session(user)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal("failed to load user", err)
	}

	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	user = &models.User{
		Name:     name,
		Email:    email,
		Provider: models.ProviderGoogle,
		Role:     models.RoleUser,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, storeError(err, "", "email already registered", "create user")
	}
	logger.FromContext(ctx).Info().Uint("user_id", user.ID).Msg("user signed up with google")
	return s.session(user)
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperrors.Internal("failed to generate token", err)
	}
	return &Session{Token: token, User: user}, nil
}

// SendOTP texts a fresh six digit code to the account holding phone.
func (s *AuthService) SendOTP(ctx context.Context, phone string) error {
	user, err := s.store.FindUserByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		return storeError(err, "no account uses this phone number", "", "load user")
	}

	code, err := otpCode()
	if err != nil {
		return apperrors.Internal("failed to generate otp", err)
	}
	if err := s.store.SetOTP(ctx, user.ID, code, s.now().Add(otpTTL)); err != nil {
		return storeError(err, "user not found", "", "store otp")
	}

	body, err := notify.OTPMessage(code, otpTTL)
	if err != nil {
		return apperrors.Internal("failed to render otp", err)
	}
	if err := s.sms.SendSMS(ctx, *user.Phone, body); err != nil {
		logger.FromContext(ctx).Error().Err(err).Uint("user_id", user.ID).Msg("otp delivery failed")
		return apperrors.Unavailable("could not send verification code")
	}
	return nil
}

// VerifyOTP checks a code. An expired code is cleared so it cannot be
// retried.
func (s *AuthService) VerifyOTP(ctx context.Context, phone, otp string) error {
	otp = strings.TrimSpace(otp)
	if otp == "" {
		return apperrors.Validation("otp is required")
	}
	user, err := s.store.FindUserByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		return storeError(err, "no account uses this phone number", "", "load user")
	}
	if user.OTPCode == "" || user.OTPExpiresAt == nil {
		return apperrors.Validation("no otp was requested for this phone")
	}
	if !s.now().Before(*user.OTPExpiresAt) {
		if err := s.store.ClearOTP(ctx, user.ID); err != nil {
			return storeError(err, "user not found", "", "clear otp")
		}
		return apperrors.Validation("otp has expired")
	}
	if subtle.ConstantTimeCompare([]byte(user.OTPCode), []byte(otp)) != 1 {
		return apperrors.Validation("invalid otp")
	}

	err = s.store.UpdateUser(ctx, user.ID, map[string]any{
		"phone_verified": true,
		"otp_code":       "",
		"otp_expires_at": nil,
	})
	return storeError(err, "user not found", "", "verify phone")
}

func otpCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// ForgotPassword emails a single-use reset link. The outcome is not revealed
// to the caller, so it returns the same message whether or not the account
// exists.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) string {
	log := logger.FromContext(ctx)
	user, err := s.store.FindUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Error().Err(err).Msg("forgot password lookup failed")
		}
		return msgForgotPassword
	}

	raw := uuid.NewString()
	err = s.store.CreateResetToken(ctx, &models.PasswordResetToken{
		TokenHash: hashToken(raw),
		UserID:    user.ID,
		ExpiresAt: s.now().Add(resetTokenTTL),
	})
	if err != nil {
		log.Error().Err(err).Uint("user_id", user.ID).Msg("failed to store reset token")
		return msgForgotPassword
	}

	link := s.appBaseURL + "/reset-password?token=" + url.QueryEscape(raw)
	mail, err := notify.PasswordResetEmail(user.Email, user.Name, link, resetTokenTTL)
	if err == nil {
		err = s.mailer.Send(ctx, mail)
	}
	if err != nil {
		log.Error().Err(err).Uint("user_id", user.ID).Msg("failed to send reset email")
	}
	return msgForgotPassword
}

func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if len(password) < 6 {
		return apperrors.Validation("password must be at least 6 characters")
	}
	if strings.TrimSpace(token) == "" {
		return apperrors.Validation("token is required")
	}

	userID, err := s.store.ConsumeResetToken(ctx, hashToken(strings.TrimSpace(token)), s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.Validation("invalid or expired reset token")
	}
	if err != nil {
		return apperrors.Internal("failed to consume reset token", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return apperrors.Internal("failed to hash password", err)
	}
	if err := s.store.UpdateUser(ctx, userID, map[string]any{"password_hash": string(hash)}); err != nil {
		return storeError(err, "user not found", "", "update password")
	}
	logger.FromContext(ctx).Info().Uint("user_id", userID).Msg("password reset")
	return nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
