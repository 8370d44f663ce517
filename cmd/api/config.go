package main

import (
	"fmt"
	"os"
	"time"

	"barangay/internal/ratelimiter"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type config struct {
	addr        string
	db          dbConfig
	env         string
	apiURL      string
	frontendURL string
	logLevel    string
	mail        mailConfig
	auth        authConfig
	cloudinary  string
	expoToken   string
	hashidsSalt string
	notify      notifyConfig
	rateLimiter ratelimiter.Config
	workflow    workflowConfig
	turnstile   turnstileConfig
	pushTokens  pushTokenConfig
}

type turnstileConfig struct {
	secretKey        string
	expectedHostname string
}

type pushTokenConfig struct {
	pruneEvery time.Duration
	staleAfter time.Duration
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	refreshSecret   string
	secret          string
	accessTokenExp  time.Duration
	refreshTokenExp time.Duration
	iss             string
}

type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
}

type dbConfig struct {
	addr        string
	maxConns    int32
	maxIdleTime string
}

type notifyConfig struct {
	ratePerSecond float64
	queueSize     int
}

type workflowConfig struct {
	requireDenialReason bool
}

// envSpec is the process environment as envconfig sees it.
type envSpec struct {
	Addr        string `envconfig:"ADDR" default:":8080"`
	Env         string `envconfig:"ENV" default:"development"`
	ExternalURL string `envconfig:"EXTERNAL_URL" default:"localhost:8080"`
	FrontendURL string `envconfig:"FRONTEND_URL" default:"http://localhost:5173"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DBAddr        string `envconfig:"DB_ADDR" required:"true"`
	DBMaxConns    int32  `envconfig:"DB_MAX_CONNS" default:"30"`
	DBMaxIdleTime string `envconfig:"DB_MAX_IDLE_TIME" default:"15m"`

	TokenSecret        string        `envconfig:"AUTH_TOKEN_SECRET" required:"true"`
	TokenRefreshSecret string        `envconfig:"AUTH_TOKEN_REFRESH_SECRET" required:"true"`
	AccessTokenExp     time.Duration `envconfig:"AUTH_TOKEN_EXP" default:"72h"`
	RefreshTokenExp    time.Duration `envconfig:"AUTH_REFRESH_TOKEN_EXP" default:"216h"`
	BasicUser          string        `envconfig:"AUTH_BASIC_USER" default:"admin"`
	BasicPass          string        `envconfig:"AUTH_BASIC_PASS" required:"true"`

	CloudinaryURL string `envconfig:"CLOUDINARY_URL" required:"true"`

	SMTPHost     string `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	MailFrom     string `envconfig:"MAIL_FROM" default:"no-reply@barangay.local"`

	ExpoAccessToken  string  `envconfig:"EXPO_ACCESS_TOKEN"`
	NotifyRatePerSec float64 `envconfig:"NOTIFY_RATE_PER_SEC" default:"5"`
	NotifyQueueSize  int     `envconfig:"NOTIFY_QUEUE_SIZE" default:"256"`

	HashidsSalt string `envconfig:"HASHIDS_SALT" required:"true"`

	RateLimiterEnabled bool          `envconfig:"RATE_LIMITER_ENABLED" default:"false"`
	RateLimiterCount   int           `envconfig:"RATELIMITER_REQUESTS_COUNT" default:"200"`
	RateLimiterWindow  time.Duration `envconfig:"RATELIMITER_TIME_FRAME" default:"5s"`

	DocumentDenialReasonRequired bool `envconfig:"DOCUMENT_DENIAL_REASON_REQUIRED" default:"false"`

	TurnstileSecretKey string `envconfig:"TURNSTILE_SECRET_KEY"`
	TurnstileHostname  string `envconfig:"TURNSTILE_EXPECTED_HOSTNAME"`

	PushTokenPruneEvery time.Duration `envconfig:"PUSH_TOKEN_PRUNE_EVERY" default:"24h"`
	PushTokenStaleAfter time.Duration `envconfig:"PUSH_TOKEN_STALE_AFTER" default:"1680h"`
}

// loadConfig reads .env when present and then the process environment. A
// missing .env is only fatal in production.
func loadConfig() (config, error) {
	if err := godotenv.Load(); err != nil && os.Getenv("ENV") == "production" {
		return config{}, fmt.Errorf("loading .env file: %w", err)
	}

	var spec envSpec
	if err := envconfig.Process("", &spec); err != nil {
		return config{}, err
	}

	return config{
		addr:        spec.Addr,
		env:         spec.Env,
		apiURL:      spec.ExternalURL,
		frontendURL: spec.FrontendURL,
		logLevel:    spec.LogLevel,
		db: dbConfig{
			addr:        spec.DBAddr,
			maxConns:    spec.DBMaxConns,
			maxIdleTime: spec.DBMaxIdleTime,
		},
		mail: mailConfig{
			host:      spec.SMTPHost,
			port:      spec.SMTPPort,
			username:  spec.SMTPUsername,
			password:  spec.SMTPPassword,
			fromEmail: spec.MailFrom,
		},
		auth: authConfig{
			basic: basicConfig{
				user: spec.BasicUser,
				pass: spec.BasicPass,
			},
			token: tokenConfig{
				refreshSecret:   spec.TokenRefreshSecret,
				secret:          spec.TokenSecret,
				accessTokenExp:  spec.AccessTokenExp,
				refreshTokenExp: spec.RefreshTokenExp,
				iss:             "barangay",
			},
		},
		cloudinary:  spec.CloudinaryURL,
		expoToken:   spec.ExpoAccessToken,
		hashidsSalt: spec.HashidsSalt,
		notify: notifyConfig{
			ratePerSecond: spec.NotifyRatePerSec,
			queueSize:     spec.NotifyQueueSize,
		},
		rateLimiter: ratelimiter.Config{
			RequestsPerTimeFrame: spec.RateLimiterCount,
			TimeFrame:            spec.RateLimiterWindow,
			Enabled:              spec.RateLimiterEnabled,
		},
		workflow: workflowConfig{
			requireDenialReason: spec.DocumentDenialReasonRequired,
		},
		turnstile: turnstileConfig{
			secretKey:        spec.TurnstileSecretKey,
			expectedHostname: spec.TurnstileHostname,
		},
		pushTokens: pushTokenConfig{
			pruneEvery: spec.PushTokenPruneEvery,
			staleAfter: spec.PushTokenStaleAfter,
		},
	}, nil
}
