package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"table-reservation-api/chat"
	"table-reservation-api/config"
	"table-reservation-api/handlers"
	"table-reservation-api/logger"
	"table-reservation-api/middleware"
	"table-reservation-api/notify"
	"table-reservation-api/oauth"
	"table-reservation-api/payment"
	"table-reservation-api/repository"
	"table-reservation-api/routes"
	"table-reservation-api/services"
	"table-reservation-api/slotlock"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Init("table-reservation-api", cfg.Env)
	if envErr != nil {
		log.Info().Msg("no .env file found; relying on existing environment")
	}

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	} else if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.OpenDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("init database")
	}
	store := repository.New(db)

	locker := newLocker(cfg)
	mailer, sms := newSenders(cfg)

	gateway := payment.NewRazorpayGateway(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
	tokens := middleware.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)

	authSvc := services.NewAuthService(store, tokens, mailer, sms, cfg.AppBaseURL)
	bookingSvc := services.NewBookingService(
		store,
		payment.NewVerifier(gateway, cfg.Razorpay.KeySecret),
		locker,
		notify.NewBookingNotifier(mailer, store),
	)

	r := routes.NewRouter(routes.Handlers{
		Auth:     handlers.NewAuthHandler(authSvc, oauth.NewGoogle(cfg.Google), !cfg.IsDevelopment()),
		Users:    handlers.NewUserHandler(services.NewUserService(store, cfg.AdminSecret)),
		Tables:   handlers.NewTableHandler(services.NewTableService(store)),
		Bookings: handlers.NewBookingHandler(bookingSvc),
		Payments: handlers.NewPaymentHandler(services.NewPaymentService(gateway, cfg.Razorpay.KeyID, cfg.Razorpay.Currency)),
		Reviews:  handlers.NewReviewHandler(services.NewReviewService(store)),
		Chat:     handlers.NewChatHandler(chat.NewClient(cfg.Chat)),

		Authenticator: middleware.NewAuthenticator(tokens, store),
		AdminLimiter:  middleware.NewKeyedLimiter(middleware.PerMinute(5)),
		DB:            store,
		CORSOrigins:   cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddress()).Msg("table reservation API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// newLocker serializes slot reservations across instances when Redis is
// configured, and within this process otherwise.
func newLocker(cfg config.Config) slotlock.Locker {
	if cfg.RedisURL == "" {
		return slotlock.NewLocalLocker()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := slotlock.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	return slotlock.NewRedisLocker(client)
}

func newSenders(cfg config.Config) (notify.Mailer, notify.SMSSender) {
	var (
		mailer notify.Mailer    = notify.NewLogMailer(log.Logger)
		sms    notify.SMSSender = notify.NewLogSMSSender(log.Logger)
	)
	if cfg.SMTP.Enabled() {
		mailer = notify.NewSMTPMailer(cfg.SMTP)
	} else {
		log.Warn().Msg("SMTP not configured; emails are only logged")
	}
	if cfg.Twilio.Enabled() {
		sms = notify.NewTwilioSender(cfg.Twilio)
	} else {
		log.Warn().Msg("Twilio not configured; OTP messages are only logged")
	}
	return mailer, sms
}
