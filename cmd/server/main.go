package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/runpool/internal/auth"
	"github.com/mmynk/runpool/internal/campaign"
	"github.com/mmynk/runpool/internal/config"
	"github.com/mmynk/runpool/internal/invite"
	"github.com/mmynk/runpool/internal/membership"
	"github.com/mmynk/runpool/internal/middleware"
	"github.com/mmynk/runpool/internal/notify"
	"github.com/mmynk/runpool/internal/payment"
	"github.com/mmynk/runpool/internal/processor"
	"github.com/mmynk/runpool/internal/service"
	"github.com/mmynk/runpool/internal/storage/sqldb"
	"github.com/mmynk/runpool/pkg/api/apiconnect"
	"github.com/mmynk/runpool/pkg/logging"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.App.Environment, cfg.App.LogLevel)
	slog.Info("Starting RunPool", "environment", cfg.App.Environment)

	store, err := sqldb.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, sqldb.Options{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.Database.Driver)

	jwtManager, err := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		slog.Error("Failed to initialize JWT manager", "error", err)
		os.Exit(1)
	}

	registry, err := campaign.LoadRegistry(cfg.Campaign.RegistryFile)
	if err != nil {
		slog.Error("Failed to load campaign registry", "error", err)
		os.Exit(1)
	}

	tracker := payment.NewTracker(store, newVerifier(cfg.Stripe), newProcessor(cfg.Stripe))
	admission := membership.NewAdmission(store)
	authenticator := auth.NewPasswordAuthenticator(store)

	dispatcher := campaign.NewDispatcher(registry, store, newSender(cfg), campaign.Options{
		SendTimeout: cfg.Campaign.SendTimeout,
		Rate:        cfg.Campaign.Rate,
		Burst:       cfg.Campaign.Burst,
		BaseURL:     cfg.Server.PublicURL,
	})

	schedulerSecret, err := auth.NewSharedSecret(cfg.Campaign.SchedulerSecret)
	if err != nil {
		slog.Warn("CAMPAIGN_SCHEDULER_SECRET not set; campaign RPCs are disabled")
	}

	groupService := service.NewGroupService(store, invite.NewResolver(store), admission, tracker, service.GroupOptions{
		InviteTTL: cfg.Auth.InviteTTL,
		PublicURL: cfg.Server.PublicURL,
		Currency:  cfg.Stripe.Currency,
	})

	// OptionalAuth runs first so the logging interceptor sees the user.
	public := connect.WithInterceptors(
		middleware.OptionalAuth(jwtManager),
		middleware.LoggingInterceptor(),
	)
	private := connect.WithInterceptors(
		middleware.OptionalAuth(jwtManager),
		middleware.LoggingInterceptor(),
		middleware.RequireAuth(),
	)
	scheduler := connect.WithInterceptors(
		middleware.LoggingInterceptor(),
		middleware.RequireSharedSecret(schedulerSecret),
	)

	mux := http.NewServeMux()

	// Register Connect services
	authService := service.NewAuthService(authenticator, store, jwtManager, slog.Default()).
		WithSecureCookies(cfg.Server.SecureCookies)
	mux.Handle(apiconnect.NewAuthServiceHandler(authService, public))
	mux.Handle(apiconnect.NewGroupServiceHandler(groupService, private))
	mux.Handle(apiconnect.NewPaymentServiceHandler(service.NewPaymentService(store, admission, tracker, service.PayoutURLs{
		Return:  cfg.Server.URL("/payouts/done"),
		Refresh: cfg.Server.URL("/payouts/refresh"),
	}), private))
	mux.Handle(apiconnect.NewCampaignServiceHandler(service.NewCampaignService(dispatcher), scheduler))

	// Plain HTTP endpoints
	mux.Handle("/join", middleware.Session(jwtManager)(service.JoinHandler(groupService, cfg.Server.URL(cfg.Server.SigninPath))))
	mux.Handle("/webhooks/stripe", service.WebhookHandler(tracker))
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		hostname, _ := os.Hostname()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","service":"runpool","hostname":%q}`, hostname)
	})
	mux.HandleFunc("/health/db", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := store.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"error","message":"database unavailable"}`))
			return
		}
		fmt.Fprintf(w, `{"status":"ok","driver":%q}`, store.Driver())
	})

	if cfg.Server.StaticDir != "" {
		staticDir, err := filepath.Abs(cfg.Server.StaticDir)
		if err != nil {
			slog.Error("Failed to resolve static path", "error", err)
			os.Exit(1)
		}
		slog.Info("Serving static files", "path", staticDir)
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}

	server := &http.Server{
		Addr:           cfg.Server.GetServerAddr(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
		// Wrap with h2c for HTTP/2 without TLS (required for Connect)
		Handler: h2c.NewHandler(middleware.Logging(middleware.CORS(mux)), &http2.Server{}),
	}

	go func() {
		slog.Info("Connect server starting", "address", server.Addr, "url", cfg.Server.PublicURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		return
	}
	slog.Info("Server exited gracefully")
}

// newVerifier returns nil when no webhook secret is configured, which makes
// the webhook endpoint refuse every delivery.
func newVerifier(cfg config.StripeConfig) payment.Verifier {
	v, err := processor.NewVerifier(cfg.WebhookSecret)
	if err != nil {
		slog.Warn("STRIPE_WEBHOOK_SECRET not set; webhooks will be refused")
		return nil
	}
	return v
}

// newProcessor returns nil when no API key is configured; payments are then
// recorded without a processor intent.
func newProcessor(cfg config.StripeConfig) payment.Processor {
	c, err := processor.NewClient(processor.Config{
		SecretKey: cfg.SecretKey,
		APIBase:   cfg.APIBase,
	})
	if err != nil {
		slog.Warn("STRIPE_SECRET_KEY not set; payment intents and payouts are disabled")
		return nil
	}
	return c
}

func newSender(cfg *config.Config) notify.Sender {
	smtp := cfg.SMTP
	if smtp.Host == "" && !cfg.App.IsProduction() {
		slog.Warn("SMTP_HOST not set; campaign e-mails are logged, not sent")
		return notify.LogSender{}
	}
	sender, err := notify.NewSMTPSender(notify.SMTPConfig{
		Host:     smtp.Host,
		Port:     smtp.Port,
		Username: smtp.Username,
		Password: smtp.Password,
		From:     smtp.From,
	})
	if err != nil {
		slog.Error("Failed to configure SMTP", "error", err)
		os.Exit(1)
	}
	return sender
}
