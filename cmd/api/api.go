package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"barangay/docs" //this is required to generate swagger docs
	"barangay/internal/auth"
	"barangay/internal/domain/storage"
	"barangay/internal/metrics"
	"barangay/internal/ratelimiter"
	"barangay/internal/rbac"
	"barangay/internal/workflow"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

const proofCleanupTimeout = 15 * time.Second

type application struct {
	config        config
	store         storage.Store
	workflow      *workflow.Service
	logger        *zap.SugaredLogger
	files         fileStore
	notifier      workflow.Notifier
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
	captcha       captchaVerifier
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Instrument)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{app.config.frontendURL, "https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Use(app.RateLimiterMiddleware)

	//Set a timeout value on the request context (ctx), that will signal through ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)
		r.With(app.BasicAuthMiddleware()).Handle("/metrics", metrics.Handler())

		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		// Public routes
		r.Route("/authentication", func(r chi.Router) {
			r.Post("/user", app.registerUserHandler)
			r.Post("/token", app.createTokenHandler)
			r.Post("/refresh", app.refreshTokenHandler)
		})

		r.Route("/access", func(r chi.Router) {
			r.With(app.OptionalAuthTokenMiddleware).Get("/route", app.routeDecisionHandler)
			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.Get("/me", app.accessProfileHandler)
				r.Get("/permissions", app.permissionGateHandler)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/me", app.getCurrentUserHandler)
			r.Post("/logout", app.logoutHandler)
			r.Post("/push-tokens", app.savePushTokenHandler)
			r.Delete("/push-tokens", app.removePushTokenHandler)
		})

		r.Route("/municipalities", func(r chi.Router) {
			r.Get("/", app.listMunicipalitiesHandler)
			r.With(app.AuthTokenMiddleware, app.requirePermission(rbac.PermManageMunicipalities)).
				Post("/", app.createMunicipalityHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)

			r.Route("/membership-requests", func(r chi.Router) {
				r.Post("/", app.submitMembershipHandler)
				r.Get("/mine", app.myMembershipRequestsHandler)
				r.Delete("/{requestID}", app.cancelMembershipHandler)

				r.Group(func(r chi.Router) {
					r.Use(app.requirePermission(rbac.PermManageBarangayRequests))
					r.Get("/", app.membershipQueueHandler)
					r.Post("/{requestID}/approve", app.approveMembershipHandler)
					r.Post("/{requestID}/reject", app.rejectMembershipHandler)
				})
			})

			r.Route("/verification-requests", func(r chi.Router) {
				r.Post("/", app.submitVerificationHandler)
				r.Get("/eligibility", app.verificationEligibilityHandler)
				r.Get("/mine", app.myVerificationRequestsHandler)
				r.Delete("/{requestID}", app.cancelVerificationHandler)

				r.Group(func(r chi.Router) {
					r.Use(app.requireAnyPermission(rbac.PermManageVerifications, rbac.PermManageAllVerifications))
					r.Get("/", app.verificationQueueHandler)
					r.Post("/{requestID}/approve", app.approveVerificationHandler)
					r.Post("/{requestID}/reject", app.rejectVerificationHandler)
				})
			})

			r.Route("/document-requests", func(r chi.Router) {
				r.Get("/types", app.documentTypesHandler)
				r.Post("/", app.submitDocumentHandler)
				r.Get("/mine", app.myDocumentRequestsHandler)
				r.Get("/ref/{reference}", app.documentByReferenceHandler)
				r.Get("/{requestID}", app.getDocumentHandler)

				r.Group(func(r chi.Router) {
					r.Use(app.requirePermission(rbac.PermViewAllRequests))
					r.Get("/", app.documentQueueHandler)
					r.Post("/{requestID}/approve", app.approveDocumentHandler)
					r.Post("/{requestID}/deny", app.denyDocumentHandler)
					r.Post("/{requestID}/complete", app.completeDocumentHandler)
				})
			})

			r.With(app.requirePermission(rbac.PermManageResidents)).Get("/residents", app.listResidentsHandler)
			r.With(app.requirePermission(rbac.PermViewActivity)).Get("/activity", app.recentActivityHandler)
			r.With(app.requirePermission(rbac.PermViewReports)).Get("/dashboard", app.dashboardHandler)
			r.With(app.requirePermission(rbac.PermViewReports)).Get("/reports/documents", app.documentReportHandler)
		})
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
