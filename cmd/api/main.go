package main

import (
	"context"
	"expvar"
	"fmt"
	"os"
	"runtime"
	"time"

	"barangay/internal/auth"
	"barangay/internal/database"
	"barangay/internal/domain/documents"
	"barangay/internal/domain/storage"
	"barangay/internal/mailer"
	"barangay/internal/metrics"
	"barangay/internal/notifications"
	"barangay/internal/ratelimiter"
	"barangay/internal/workflow"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a new zap logger with color at the given level
// (debug, info, warn or error).
func NewLogger(level string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)

	core := zapcore.NewCore(consoleEncoder, zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), lvl)

	return zap.New(core).Sugar(), nil
}

var version = "1.0.0"

//	@title			Barangay Portal API
//	@description	API for the barangay e-government portal: document requests, barangay membership and official verification.

//	@contact.name	API Support
//	@contact.url	http://www.swagger.io/support
//	@contact.email	support@swagger.io

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@BasePath					/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logger, err := NewLogger(cfg.logLevel)
	if err != nil {
		fmt.Println("Error creating logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Database
	pool, err := database.New(database.PoolConfig{
		Addr:        cfg.db.addr,
		MaxConns:    cfg.db.maxConns,
		MaxIdleTime: cfg.db.maxIdleTime,
	})
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()
	logger.Info("database connection pool established")

	store := storage.NewContainer(pool)

	files, err := newCloudinaryStore(cfg.cloudinary)
	if err != nil {
		logger.Fatal(err)
	}

	smtp, err := mailer.NewSMTPClient(cfg.mail.host, cfg.mail.port, cfg.mail.username, cfg.mail.password, cfg.mail.fromEmail)
	if err != nil {
		logger.Fatal(err)
	}

	notifier := notifications.New(notifications.Config{
		QueueSize:     cfg.notify.queueSize,
		RatePerSecond: cfg.notify.ratePerSecond,
	}, smtp, notifications.NewExpoAdapter(cfg.expoToken), store.PushTokens, logger)
	notifier.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := notifier.Close(ctx); err != nil {
			logger.Warnw("notifications not drained", "error", err)
		}
	}()

	refs, err := documents.NewReferences(cfg.hashidsSalt)
	if err != nil {
		logger.Fatal(err)
	}

	service := workflow.NewService(store, notifier, refs, logger, workflow.Config{
		RequireDenialReason: cfg.workflow.requireDenialReason,
	})

	// Rate limiter
	var limiter ratelimiter.Limiter
	if cfg.rateLimiter.Enabled {
		rl := ratelimiter.NewFixedWindowLimiter(
			cfg.rateLimiter.RequestsPerTimeFrame,
			cfg.rateLimiter.TimeFrame,
		)
		defer rl.Stop()
		limiter = rl
	}

	// Authenticator
	jwtAuthenticator := auth.NewJWTAuthenticator(auth.TokenConfig{
		Secret:        cfg.auth.token.secret,
		RefreshSecret: cfg.auth.token.refreshSecret,
		Issuer:        cfg.auth.token.iss,
		Audience:      cfg.auth.token.iss,
		AccessTTL:     cfg.auth.token.accessTokenExp,
		RefreshTTL:    cfg.auth.token.refreshTokenExp,
	})

	app := &application{
		config:        cfg,
		logger:        logger,
		store:         store,
		workflow:      service,
		files:         files,
		notifier:      notifier,
		authenticator: jwtAuthenticator,
		rateLimiter:   limiter,
	}

	if cfg.turnstile.secretKey != "" {
		app.captcha = newTurnstileVerifier(cfg.turnstile.secretKey, cfg.turnstile.expectedHostname)
	} else if cfg.env == "production" {
		logger.Warn("TURNSTILE_SECRET_KEY not set; sign-up is not captcha protected")
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	pruned := app.prunePushTokens(bgCtx, cfg.pushTokens.pruneEvery, cfg.pushTokens.staleAfter)
	defer func() {
		stopBackground()
		<-pruned
	}()

	metrics.Init()

	//Metrics collected http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("database", expvar.Func(func() any {
		s := pool.Stat()
		return map[string]any{
			"total_conns":    s.TotalConns(),
			"idle_conns":     s.IdleConns(),
			"acquired_conns": s.AcquiredConns(),
			"max_conns":      s.MaxConns(),
		}
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	if err := app.run(mux); err != nil {
		logger.Errorw("server stopped", "error", err)
	}
}
