package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/RubachokBoss/faculty-evaluation/internal/config"
	"github.com/RubachokBoss/faculty-evaluation/internal/delivery/httpd"
	"github.com/RubachokBoss/faculty-evaluation/internal/repository"
	"github.com/RubachokBoss/faculty-evaluation/internal/service"
	"github.com/RubachokBoss/faculty-evaluation/internal/service/integration"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

type App struct {
	server    *http.Server
	logger    zerolog.Logger
	config    *config.Config
	db        *sql.DB
	publisher integration.EventPublisher
}

func New(cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	loc, err := cfg.Evaluation.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load evaluation timezone: %w", err)
	}
	clock := service.NewClock(loc)

	// Broker and object storage are optional; the service runs without them.
	var publisher integration.EventPublisher
	if cfg.RabbitMQ.Enabled {
		publisher, err = integration.NewRabbitMQPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create RabbitMQ publisher, events disabled")
			publisher = nil
		}
	}

	var storage integration.ReportStorage
	if cfg.Storage.Enabled {
		storage, err = integration.NewMinIOReportStorage(
			cfg.Storage.Endpoint,
			cfg.Storage.AccessKey,
			cfg.Storage.SecretKey,
			cfg.Storage.Bucket,
			cfg.Storage.Region,
			cfg.Storage.UseSSL,
			log,
		)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create report storage, exports disabled")
			storage = nil
		}
	}

	formRepo := repository.NewFormRepository(db, log)
	assignmentRepo := repository.NewAssignmentRepository(db, log)
	studentRepo := repository.NewStudentRepository(db, log)
	facultyRepo := repository.NewFacultyRepository(db, log)
	classRepo := repository.NewClassRepository(db, log)
	relationshipRepo := repository.NewRelationshipRepository(db, log)
	yearRepo := repository.NewAcademicYearRepository(db, log)
	reportRepo := repository.NewReportRepository(db, log)
	health := repository.NewPostgresRepository(db, log)

	services := httpd.Services{
		Forms: service.NewFormService(formRepo, assignmentRepo, facultyRepo, classRepo, yearRepo, clock, log),
		Assignments: service.NewAssignmentService(
			formRepo,
			facultyRepo,
			studentRepo,
			classRepo,
			relationshipRepo,
			assignmentRepo,
			publisher,
			clock,
			log,
		),
		Submissions:   service.NewSubmissionService(assignmentRepo, formRepo, publisher, clock, log),
		AcademicYears: service.NewAcademicYearService(yearRepo, clock, log),
		Directory:     service.NewDirectoryService(studentRepo, facultyRepo, classRepo, relationshipRepo, yearRepo, clock, log),
		Reports: service.NewReportService(
			formRepo,
			assignmentRepo,
			facultyRepo,
			reportRepo,
			storage,
			cfg.Storage.PresignExpiry,
			clock,
			log,
		),
		Ping: health.Ping,
	}

	auth := httpd.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	handler := httpd.NewHandler(services, auth, log)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(httpd.RequestLogger(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		server:    server,
		logger:    log,
		config:    cfg,
		db:        db,
		publisher: publisher,
	}, nil
}

func (a *App) Handler() http.Handler {
	return a.server.Handler
}

func (a *App) Run() error {
	a.logger.Info().Msgf("Starting faculty evaluation service on %s", a.config.Server.Address)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down faculty evaluation service...")

	// Stop accepting requests before closing what they depend on.
	err := a.server.Shutdown(ctx)

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	return err
}
