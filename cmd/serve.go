package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/shiplog/internal/api"
	"github.com/joescharf/shiplog/internal/auth"
	"github.com/joescharf/shiplog/internal/config"
	"github.com/joescharf/shiplog/internal/logging"
	"github.com/joescharf/shiplog/internal/mail"
	"github.com/joescharf/shiplog/internal/otp"
	webui "github.com/joescharf/shiplog/internal/ui"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Ship Log web server",
	Long: `Start the HTTP server with the login page, the board and the JSON API.
By default it listens on port 8080. Use --port to change it.

The server refuses to start without a JWT signing secret (JWT_SECRET).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveRun(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	_ = viper.BindPFlag(config.KeyPort, serveCmd.Flags().Lookup("port"))
}

// buildServer assembles the HTTP handler from configuration.
func buildServer(cfg *config.Config) (http.Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	tokens, err := auth.NewTokenManager(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	if len(cfg.AllowedEmails) == 0 {
		log.Warn().Msg("allow-list is empty, nobody can sign in")
	}
	if !cfg.MailConfigured() {
		log.Warn().Msg("mailgun is not configured, OTP emails will fail")
	}
	sender := mail.NewMailgunSender(mail.Config{
		APIKey:  cfg.MailgunAPIKey,
		Domain:  cfg.MailgunDomain,
		BaseURL: cfg.MailgunBaseURL,
	}, &http.Client{Timeout: cfg.HTTPTimeout})

	otpSvc := otp.NewService(otp.NewStore(), sender, tokens, otp.Config{
		AllowList: cfg.AllowedEmails,
		TTL:       cfg.OTPTTL,
	})

	boards, err := newBoardService(cfg, log)
	if err != nil {
		return nil, err
	}

	uiHandler, err := webui.Handler()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize UI handler: %w", err)
	}

	srv := api.NewServer(otpSvc, tokens, boards, uiHandler, api.Options{
		CutoffYear:    cfg.CutoffYear,
		SecureCookie:  cfg.SecureCookie,
		RatePerMinute: cfg.RatePerMinute,
		RateBurst:     cfg.RateBurst,
		Logger:        log,
	})
	return srv.Router(), nil
}

func serveRun(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	handler, err := buildServer(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, shutdownSignals()...)
	defer stop()

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()
	ui.Success("Serving Ship Log at http://localhost%s", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	ui.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if dataStore != nil {
		_ = dataStore.Close()
	}
	return nil
}
