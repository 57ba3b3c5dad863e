package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	appControllers "github.com/afterschool/sessions-api/internal/app/controllers"
	appMigrations "github.com/afterschool/sessions-api/internal/app/migrations"
	appRepos "github.com/afterschool/sessions-api/internal/app/repositories"
	appRoutes "github.com/afterschool/sessions-api/internal/app/routes"
	appServices "github.com/afterschool/sessions-api/internal/app/services"
	"github.com/afterschool/sessions-api/internal/config"
	"github.com/afterschool/sessions-api/internal/db"
	appMiddleware "github.com/afterschool/sessions-api/internal/middleware"
	pkgAuth "github.com/afterschool/sessions-api/internal/pkg/auth"
	"github.com/afterschool/sessions-api/internal/pkg/email"
	"github.com/afterschool/sessions-api/internal/pkg/helpers"
	"github.com/afterschool/sessions-api/internal/pkg/logger"
	"github.com/afterschool/sessions-api/internal/pkg/ratelimit"
	"github.com/afterschool/sessions-api/internal/pkg/websocket"
	"github.com/afterschool/sessions-api/internal/seed"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// notificationQueueSize bounds alerts waiting for the mail worker
const notificationQueueSize = 256

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos *appRepos.Repositories

	JWTService           *pkgAuth.JWTService
	AuthService          *appServices.AuthService
	LocationService      appServices.LocationService
	BlockService         appServices.BlockService
	ExclusionService     appServices.ExclusionService
	SessionService       appServices.SessionService
	OccurrenceService    appServices.OccurrenceService
	CalendarService      appServices.CalendarService
	SignupService        appServices.SignupService
	CommunicationService appServices.CommunicationService
	CatalogService       appServices.CatalogService
	NotificationService  *appServices.NotificationService
	LiveHub              *websocket.Hub

	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware

	// Nil when rate limiting is disabled
	RateLimiter  *ratelimit.KeyedStore
	LoginLimiter *ratelimit.KeyedStore

	Logger zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	if err := runMigrations(cfg, database, lgr); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

func runMigrations(cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) error {
	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Str("path", migrationsDir).Msg("Running database migrations...")
	migrator, err := appMigrations.NewMigrator(database.Pool, lgr)
	if err != nil {
		return err
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			lgr.Warn().Err(err).Msg("Failed to close migrator")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}
	return nil
}

// SeedDefaultData creates the admin account and this year's special block.
// Failures are logged; startup continues.
func SeedDefaultData(cfg *config.Config, repos *appRepos.Repositories, lgr zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := seed.CreateDefaultData(ctx, repos.Store, seed.Options{
		AdminEmail:    cfg.Admin.Email,
		AdminName:     cfg.Admin.Name,
		AdminPassword: cfg.Admin.Password,
		Timezone:      cfg.Organization.Timezone,
		Now:           time.Now(),
	}, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}
	zone := cfg.Location()

	deps.Repos = appRepos.NewRepositories(database.Pool)
	store := deps.Repos.Store
	transactor := appServices.NewTransactor(deps.Repos.Tx)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 12*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	mailer := email.NewEmailService(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		UseTLS:    cfg.SMTP.UseTLS,
		DryRun:    cfg.SMTP.DryRun,
		OrgName:   cfg.Organization.Name,
	}, logger.Component("email"))

	deps.NotificationService = appServices.NewNotificationService(store, mailer, appServices.NotificationConfig{
		Zone:          zone,
		PublicBaseURL: cfg.Organization.PublicBaseURL,
		QueueSize:     notificationQueueSize,
	}, logger.Component("notifications"))
	deps.LiveHub = websocket.NewHub(logger.Component("live"))
	notifier := appServices.ChangeNotifiers{
		deps.NotificationService,
		appServices.NewLiveNotifier(deps.LiveHub),
	}

	deps.AuthService = appServices.NewAuthService(store, deps.JWTService, lgr)
	deps.LocationService = appServices.NewLocationService(store, lgr)
	deps.BlockService = appServices.NewBlockService(store, cfg.Organization.Timezone, lgr)
	deps.ExclusionService = appServices.NewExclusionService(store, lgr)
	deps.SessionService = appServices.NewSessionService(store, transactor, lgr)
	deps.OccurrenceService = appServices.NewOccurrenceService(
		store, transactor, notifier, zone, logger.Component("occurrences"),
	)
	deps.CalendarService = appServices.NewCalendarService(store, appServices.CalendarConfig{
		OrgName:      cfg.Organization.Name,
		Zone:         zone,
		Domain:       cfg.Organization.CalendarDomain,
		RefreshHours: cfg.Organization.CalendarRefreshHours,
	}, lgr)
	deps.SignupService = appServices.NewSignupService(store, deps.NotificationService, logger.Component("signups"))
	deps.CommunicationService = appServices.NewCommunicationService(store, deps.NotificationService, lgr)
	deps.CatalogService = appServices.NewCatalogService(store, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.Controllers = appRoutes.Controllers{
		Auth:       appControllers.NewAuthController(deps.AuthService, lgr),
		Block:      appControllers.NewBlockController(deps.BlockService),
		Exclusion:  appControllers.NewExclusionController(deps.ExclusionService, zone),
		Location:   appControllers.NewLocationController(deps.LocationService, deps.SessionService),
		Session:    appControllers.NewSessionController(deps.SessionService),
		Occurrence: appControllers.NewOccurrenceController(deps.OccurrenceService, lgr),
		Calendar:   appControllers.NewCalendarController(deps.CalendarService, cfg.Organization.CalendarRefreshHours),
		Live:       appControllers.NewLiveController(deps.SessionService, deps.LiveHub, lgr),
		Signup:     appControllers.NewSignupController(deps.SignupService, deps.CommunicationService),
		Catalog:    appControllers.NewCatalogController(deps.CatalogService),
		Health:     appControllers.NewHealthController(database.Pool, lgr),
	}

	if cfg.RateLimitActive() {
		if !cfg.RateLimit.Enabled {
			lgr.Warn().Str("mode", cfg.Server.Mode).Msg("Rate limiting can only be disabled in development mode, keeping it on")
		}
		deps.RateLimiter = ratelimit.NewKeyedStore(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, cfg.RateLimit.MaxKeys)
		deps.LoginLimiter = ratelimit.NewKeyedStore(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginPerMinute, cfg.RateLimit.MaxKeys).
			WithHourlyCap(cfg.RateLimit.LoginPerHour)
	} else {
		lgr.Warn().Msg("Rate limiting is disabled")
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger(lgr))

	if deps.RateLimiter != nil {
		router.Use(appMiddleware.RateLimit(deps.RateLimiter, appMiddleware.RateLimitRules{
			Strict: map[string]ratelimit.Limiter{appRoutes.LoginPath: deps.LoginLimiter},
		}, lgr))
	}

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)
	return router
}

// StartBackground launches the notification worker, the live event hub and
// the rate limiter sweepers. They stop when ctx is done.
func (d *Dependencies) StartBackground(ctx context.Context, cfg *config.Config) {
	d.NotificationService.Start(ctx)
	go d.LiveHub.Run(ctx)

	idle := helpers.ParseDuration(cfg.RateLimit.IdleTTL, 10*time.Minute)
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	for _, limiter := range []*ratelimit.KeyedStore{d.RateLimiter, d.LoginLimiter} {
		if limiter != nil {
			go limiter.RunSweeper(ctx, idle/2, idle)
		}
	}
}

// StopBackground drains queued notifications
func (d *Dependencies) StopBackground() {
	d.NotificationService.Stop()
}
