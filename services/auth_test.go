package services

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"table-reservation-api/apperrors"
	"table-reservation-api/mocks"
	"table-reservation-api/models"
	"table-reservation-api/notify"
	"table-reservation-api/repository"
	"table-reservation-api/testutil"
)

type fakeTokens struct{}

func (fakeTokens) Issue(user *models.User) (string, error) {
	return fmt.Sprintf("token-%d", user.ID), nil
}

type authFixture struct {
	store  *repository.Store
	mailer *mocks.MockMailer
	sms    *mocks.MockSMSSender
	svc    *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	ctrl := gomock.NewController(t)
	store := repository.New(testutil.NewDB(t))
	mailer := mocks.NewMockMailer(ctrl)
	sms := mocks.NewMockSMSSender(ctrl)
	return &authFixture{
		store:  store,
		mailer: mailer,
		sms:    sms,
		svc:    NewAuthService(store, fakeTokens{}, mailer, sms, "http://localhost:3000/"),
	}
}

func TestSignupAndLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	session, err := f.svc.Signup(ctx, SignupInput{Name: "Asha", Email: " Asha@Example.com ", Password: "secret1", Phone: "9999999999"})
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", session.User.Email)
	assert.Equal(t, models.RoleUser, session.User.Role)
	assert.False(t, session.User.IsApproved)
	assert.Equal(t, fmt.Sprintf("token-%d", session.User.ID), session.Token)

	cost, err := bcrypt.Cost([]byte(session.User.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, 10, cost)

	_, err = f.svc.Signup(ctx, SignupInput{Name: "Dup", Email: "asha@example.com", Password: "secret1"})
	requireCode(t, err, apperrors.CodeConflict)

	_, err = f.svc.Signup(ctx, SignupInput{Name: "Short", Email: "s@example.com", Password: "123"})
	requireCode(t, err, apperrors.CodeValidation)

	logged, err := f.svc.Login(ctx, "ASHA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, logged.User.ID)

	_, err = f.svc.Login(ctx, "asha@example.com", "wrong")
	requireCode(t, err, apperrors.CodeUnauthorized)
	_, err = f.svc.Login(ctx, "nobody@example.com", "secret1")
	requireCode(t, err, apperrors.CodeUnauthorized)
}

func TestOAuthLoginCreatesThenReuses(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	profile := ExternalProfile{Email: "g@example.com", Name: "Gita", EmailVerified: true}

	first, err := f.svc.OAuthLogin(ctx, profile)
	require.NoError(t, err)
	assert.Equal(t, models.ProviderGoogle, first.User.Provider)

	second, err := f.svc.OAuthLogin(ctx, profile)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)

	_, err = f.svc.Login(ctx, "g@example.com", "anything")
	requireCode(t, err, apperrors.CodeUnauthorized)

	_, err = f.svc.OAuthLogin(ctx, ExternalProfile{Email: "x@example.com"})
	requireCode(t, err, apperrors.CodeUnauthorized)
}

var sixDigits = regexp.MustCompile(`\b(\d{6})\b`)

func TestOTPFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	phone := "+919999999999"
	user := testutil.CreateUser(t, f.store.DB(), &models.User{Phone: &phone}, "")

	var code string
	f.sms.EXPECT().SendSMS(gomock.Any(), phone, gomock.Any()).DoAndReturn(func(_ context.Context, _, body string) error {
		code = sixDigits.FindString(body)
		return nil
	})
	require.NoError(t, f.svc.SendOTP(ctx, phone))
	require.Len(t, code, 6)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	requireCode(t, f.svc.VerifyOTP(ctx, phone, wrong), apperrors.CodeValidation)
	requireCode(t, f.svc.VerifyOTP(ctx, phone, ""), apperrors.CodeValidation)
	require.NoError(t, f.svc.VerifyOTP(ctx, phone, code))

	got, err := f.store.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.PhoneVerified)
	assert.Empty(t, got.OTPCode)

	// The code is single use.
	requireCode(t, f.svc.VerifyOTP(ctx, phone, code), apperrors.CodeValidation)
}

func TestExpiredOTPIsCleared(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	phone := "+918888888888"
	user := testutil.CreateUser(t, f.store.DB(), &models.User{Phone: &phone}, "")
	require.NoError(t, f.store.SetOTP(ctx, user.ID, "123456", time.Now().UTC().Add(-time.Minute)))

	err := f.svc.VerifyOTP(ctx, phone, "123456")
	appErr := requireCode(t, err, apperrors.CodeValidation)
	assert.Equal(t, "otp has expired", appErr.Message)

	got, err := f.store.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, got.OTPCode)
	assert.Nil(t, got.OTPExpiresAt)
	assert.False(t, got.PhoneVerified)
}

func TestSendOTPUnknownPhoneAndDeliveryFailure(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	requireCode(t, f.svc.SendOTP(ctx, "+910000000000"), apperrors.CodeNotFound)

	phone := "+917777777777"
	testutil.CreateUser(t, f.store.DB(), &models.User{Phone: &phone}, "")
	f.sms.EXPECT().SendSMS(gomock.Any(), phone, gomock.Any()).Return(fmt.Errorf("twilio down"))
	requireCode(t, f.svc.SendOTP(ctx, phone), apperrors.CodeUnavailable)
}

func TestForgotAndResetPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.store.DB(), &models.User{Email: "reset@example.com"}, "oldpass")

	var link string
	f.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, email notify.Email) error {
		assert.Equal(t, "reset@example.com", email.To)
		link = regexp.MustCompile(`href="([^"]+)"`).FindStringSubmatch(email.HTMLBody)[1]
		return nil
	})

	known := f.svc.ForgotPassword(ctx, "reset@example.com")
	unknown := f.svc.ForgotPassword(ctx, "ghost@example.com")
	assert.Equal(t, known, unknown)

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/reset-password", parsed.Path)
	token := parsed.Query().Get("token")
	require.NotEmpty(t, token)

	var stored models.PasswordResetToken
	require.NoError(t, f.store.DB().First(&stored).Error)
	assert.NotEqual(t, token, stored.TokenHash)

	requireCode(t, f.svc.ResetPassword(ctx, token, "123"), apperrors.CodeValidation)
	require.NoError(t, f.svc.ResetPassword(ctx, token, "newpass1"))
	requireCode(t, f.svc.ResetPassword(ctx, token, "newpass2"), apperrors.CodeValidation)

	_, err = f.svc.Login(ctx, user.Email, "newpass1")
	require.NoError(t, err)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.store.DB(), &models.User{}, "oldpass")
	require.NoError(t, f.store.CreateResetToken(ctx, &models.PasswordResetToken{
		TokenHash: hashToken("stale"),
		UserID:    user.ID,
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}))

	err := f.svc.ResetPassword(ctx, "stale", "newpass1")
	appErr := requireCode(t, err, apperrors.CodeValidation)
	assert.Equal(t, "invalid or expired reset token", appErr.Message)
}
