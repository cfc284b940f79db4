package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"table-reservation-api/apperrors"
	"table-reservation-api/logger"
	"table-reservation-api/oauth"
	"table-reservation-api/services"
)

const oauthStateCookie = "oauth_state"

type AuthHandler struct {
	auth   *services.AuthService
	google *oauth.Google
	secure bool
}

func NewAuthHandler(auth *services.AuthService, google *oauth.Google, secureCookies bool) *AuthHandler {
	return &AuthHandler{auth: auth, google: google, secure: secureCookies}
}

type SignupRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone" binding:"omitempty,min=7,max=20"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type PhoneRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type VerifyOTPRequest struct {
	Phone string `json:"phone" binding:"required"`
	OTP   string `json:"otp"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

// Signup creates a new account awaiting approval
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.auth.Signup(c.Request.Context(), services.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created successfully. An admin must approve it before you can book.",
		"token":   session.Token,
		"user":    session.User,
	})
}

// Login authenticates a user and returns a JWT
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   session.Token,
		"user":    session.User,
	})
}

// GoogleLogin redirects to Google's consent screen
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	state := uuid.NewString()
	target, err := h.google.AuthCodeURL(state)
	if errors.Is(err, oauth.ErrDisabled) {
		respondError(c, apperrors.Unavailable("Google sign-in is not configured"))
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, 600, "/api/auth/google", "", h.secure, true)
	c.Redirect(http.StatusTemporaryRedirect, target)
}

// GoogleCallback finishes the code flow and signs the user in
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		respondError(c, apperrors.Validation("invalid oauth state"))
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/api/auth/google", "", h.secure, true)

	code := c.Query("code")
	if code == "" {
		respondError(c, apperrors.Validation("missing authorization code"))
		return
	}
	profile, err := h.google.Exchange(c.Request.Context(), code)
	if errors.Is(err, oauth.ErrDisabled) {
		respondError(c, apperrors.Unavailable("Google sign-in is not configured"))
		return
	}
	if err != nil {
		logger.FromContext(c.Request.Context()).Warn().Err(err).Msg("google exchange failed")
		respondError(c, apperrors.Unauthorized("Google sign-in failed"))
		return
	}

	session, err := h.auth.OAuthLogin(c.Request.Context(), services.ExternalProfile{
		Email:         profile.Email,
		Name:          profile.Name,
		EmailVerified: profile.VerifiedEmail,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   session.Token,
		"user":    session.User,
	})
}

// SendOTP texts a verification code to the account's phone
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req PhoneRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.auth.SendOTP(c.Request.Context(), req.Phone); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent"})
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.auth.VerifyOTP(c.Request.Context(), req.Phone, req.OTP); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Phone number verified"})
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	msg := h.auth.ForgotPassword(c.Request.Context(), req.Email)
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}
