package routes

import (
	"github.com/gin-gonic/gin"

	"table-reservation-api/handlers"
	"table-reservation-api/middleware"
	"table-reservation-api/models"
	"table-reservation-api/validation"
)

// Handlers is everything the router needs, built once in main.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Users    *handlers.UserHandler
	Tables   *handlers.TableHandler
	Bookings *handlers.BookingHandler
	Payments *handlers.PaymentHandler
	Reviews  *handlers.ReviewHandler
	Chat     *handlers.ChatHandler

	Authenticator *middleware.Authenticator
	AdminLimiter  *middleware.KeyedLimiter
	DB            handlers.Pinger
	CORSOrigins   []string
}

// NewRouter builds the engine with the global middleware and every route.
func NewRouter(h Handlers) *gin.Engine {
	validation.Register()

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.CORS(h.CORSOrigins))
	r.GET("/health", handlers.Health(h.DB))

	SetupRoutes(r, h)
	return r
}

func SetupRoutes(r *gin.Engine, h Handlers) {
	authRequired := h.Authenticator.AuthRequired()
	adminOnly := middleware.RoleRequired(models.RoleAdmin)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth/signup", h.Auth.Signup)
		public.POST("/auth/login", h.Auth.Login)
		public.GET("/auth/google/login", h.Auth.GoogleLogin)
		public.GET("/auth/google/callback", h.Auth.GoogleCallback)
		public.POST("/auth/send-otp", h.Auth.SendOTP)
		public.POST("/auth/verify-otp", h.Auth.VerifyOTP)
		public.POST("/auth/forgot-password", h.Auth.ForgotPassword)
		public.POST("/auth/reset-password", h.Auth.ResetPassword)

		public.GET("/booking-lifecycle", handlers.Lifecycle)
		public.POST("/chat", h.Authenticator.OptionalAuth(), h.Chat.Reply)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(authRequired)
	{
		auth.GET("/profile", h.Users.Profile)
		auth.PATCH("/profile", h.Users.UpdateProfile)
		auth.DELETE("/users", h.Users.DeleteAccount)

		auth.GET("/tables", h.Tables.List)
		auth.POST("/payment", h.Payments.CreateOrder)

		auth.POST("/bookings", middleware.ApprovalRequired(), h.Bookings.Create)
		auth.GET("/bookings", h.Bookings.List)
		auth.GET("/bookings/:id", h.Bookings.Get)
		auth.POST("/bookings/:id/cancel", h.Bookings.Cancel)
		auth.DELETE("/bookings/:id", h.Bookings.Delete)
		auth.PATCH("/bookings/:id", adminOnly, h.Bookings.Transition)
		auth.PATCH("/bookings/:id/table", adminOnly, h.Bookings.AssignTable)

		auth.GET("/reviews", h.Reviews.List)
		auth.POST("/reviews", h.Reviews.Create)
		auth.POST("/reviews/:id/helpful", h.Reviews.Helpful)
		auth.PATCH("/reviews/:id", adminOnly, h.Reviews.Moderate)
		auth.DELETE("/reviews/:id", adminOnly, h.Reviews.Delete)

		// Non-admins may reach this to bootstrap the first admin.
		auth.POST("/admin/make-admin", middleware.RateLimit(h.AdminLimiter), h.Users.MakeAdmin)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(authRequired, adminOnly)
	{
		admin.GET("/users", h.Users.ListUsers)
		admin.PATCH("/users/:id/approve", h.Users.Approve)
		admin.GET("/audit", h.Users.ListAudit)

		admin.POST("/tables", h.Tables.Create)
		admin.PUT("/tables/:id", h.Tables.Update)
		admin.DELETE("/tables/:id", h.Tables.Delete)
	}
}
