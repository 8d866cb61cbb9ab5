package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectoinject/ectocontainer"
	"github.com/Gobusters/ectologger"
	"github.com/asterhq/aster/config"
	accountrepo "github.com/asterhq/aster/internal/repositories/account"
	cityrepo "github.com/asterhq/aster/internal/repositories/city"
	commentrepo "github.com/asterhq/aster/internal/repositories/comment"
	favoriterepo "github.com/asterhq/aster/internal/repositories/favorite"
	messagerepo "github.com/asterhq/aster/internal/repositories/message"
	orderrepo "github.com/asterhq/aster/internal/repositories/order"
	ratingrepo "github.com/asterhq/aster/internal/repositories/rating"
	reportrepo "github.com/asterhq/aster/internal/repositories/report"
	sectionrepo "github.com/asterhq/aster/internal/repositories/section"
	socialrepo "github.com/asterhq/aster/internal/repositories/social"
	tagrepo "github.com/asterhq/aster/internal/repositories/tag"
	userrepo "github.com/asterhq/aster/internal/repositories/user"
	"github.com/asterhq/aster/pkg/auth"
	"github.com/asterhq/aster/pkg/database"
	"github.com/asterhq/aster/pkg/events"
	"github.com/asterhq/aster/pkg/importer"
	"github.com/asterhq/aster/pkg/kafka"
	"github.com/asterhq/aster/pkg/logging"
	"github.com/asterhq/aster/pkg/mail"
	"github.com/asterhq/aster/pkg/middleware"
	asterredis "github.com/asterhq/aster/pkg/redis"
	accountroutes "github.com/asterhq/aster/pkg/routes/account"
	authroutes "github.com/asterhq/aster/pkg/routes/auth"
	commentroutes "github.com/asterhq/aster/pkg/routes/comment"
	directoryroutes "github.com/asterhq/aster/pkg/routes/directory"
	favoriteroutes "github.com/asterhq/aster/pkg/routes/favorite"
	"github.com/asterhq/aster/pkg/routes/health"
	importerroutes "github.com/asterhq/aster/pkg/routes/importer"
	messageroutes "github.com/asterhq/aster/pkg/routes/message"
	orderroutes "github.com/asterhq/aster/pkg/routes/order"
	ratingroutes "github.com/asterhq/aster/pkg/routes/rating"
	sectionroutes "github.com/asterhq/aster/pkg/routes/section"
	userroutes "github.com/asterhq/aster/pkg/routes/user"
	"github.com/asterhq/aster/pkg/startup"
	"github.com/asterhq/aster/pkg/storage"
	"github.com/asterhq/aster/pkg/tracing"
	"github.com/asterhq/aster/pkg/tracing/exporters"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to bind config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(&cfg, logger); err != nil {
		logger.WithError(err).Error("service exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger ectologger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		exporter, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
			Endpoint: cfg.TracingOTLPEndpoint,
			Protocol: cfg.TracingOTLPProtocol,
			Insecure: true,
			Timeout:  10 * time.Second,
		})
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		shutdown, err := tracing.InitProvider(ctx, cfg.AppName, exporter)
		if err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
		defer shutdown(context.Background())
	}

	// Database
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName,
		cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
	)
	sqlxDB, err := sqlx.Connect(cfg.DatabaseDriver, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer sqlxDB.Close()
	sqlxDB.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	sqlxDB.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	sqlxDB.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	driver, err := migratepg.WithInstance(sqlxDB.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
	})
	if err := migrations.Migrate(cfg.DatabaseName, driver); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	db := database.NewDatabaseInstance(sqlxDB, logger)

	// Redis
	redisClient, err := asterredis.NewClient(asterredis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	// Kafka producer (optional)
	var producer *kafka.Producer
	if cfg.KafkaEnabled {
		producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()
	}
	emitter := events.NewEmitter(producer, logger)

	// Media storage
	var store storage.Store
	var sftpStore *storage.SFTPStore
	if cfg.StorageBackend == "sftp" {
		sftpStore = storage.NewSFTPStore(storage.SFTPConfig{
			Host:           cfg.SFTPHost,
			Port:           cfg.SFTPPort,
			User:           cfg.SFTPUsername,
			Password:       cfg.SFTPPassword,
			BasePath:       cfg.SFTPBasePath,
			PublicBaseURL:  cfg.StoragePublicURL,
			PoolSize:       cfg.SFTPPoolSize,
			AcquireTimeout: cfg.SFTPAcquireTimeout,
			DialTimeout:    cfg.SFTPConnectTimeout,
		}, logger)
		store = sftpStore
		defer sftpStore.Close()
	} else {
		store = storage.NewLocalStore(cfg.StorageLocalRoot, cfg.StoragePublicURL, logger)
	}

	// Repositories
	accounts := accountrepo.NewRepository(db, logger)
	cities := cityrepo.NewRepository(db, logger)
	tags := tagrepo.NewRepository(db, logger)
	socials := socialrepo.NewRepository(db, logger)
	users := userrepo.NewRepository(db, logger)
	comments := commentrepo.NewRepository(db, logger)
	ratings := ratingrepo.NewRepository(db, logger)
	favorites := favoriterepo.NewRepository(db, logger)
	messages := messagerepo.NewRepository(db, logger)
	orders := orderrepo.NewRepository(db, logger)
	reports := reportrepo.NewRepository(db, logger)
	sections := sectionrepo.NewRepository(db, logger)

	// Services
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	hasher := auth.NewHasher(cfg.BCryptCost)
	captcha := auth.NewCaptcha(redisClient, cfg.CaptchaTTL, logger)
	recovery := auth.NewRecovery(redisClient, cfg.RecoveryCodeTTL)
	mailer := mail.NewMailer(mail.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		From:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		Subject:  cfg.MailSubject,
		Body:     cfg.MailBody,
	}, logger)

	reconciler := importer.NewReconciler(cities, tags, socials, logger)
	imp := importer.NewImporter(
		db, accounts, tags, socials, reconciler,
		store, emitter,
		importer.MissingDatePolicy(cfg.ImportOnMissingDate), logger,
	)

	// DI container backing the route handlers
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return fmt.Errorf("failed to create DI container: %w", err)
	}
	if err := registerDependencies(container,
		accounts, cities, tags, socials, users, comments, ratings,
		favorites, messages, orders, reports, sections,
		tokens, hasher, captcha, recovery, mailer, emitter, store, imp,
	); err != nil {
		return fmt.Errorf("failed to register dependencies: %w", err)
	}

	// HTTP server
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Metrics())
	e.Use(middleware.Authentication(tokens, users, logger))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	checker := health.NewChecker(sqlxDB, redisClient, version)
	checker.RegisterRoutes(e)

	api := e.Group("/api/v1")
	importerroutes.Register(api)
	accountroutes.Register(api)
	authroutes.Register(api)
	userroutes.Register(api)
	commentroutes.Register(api)
	favoriteroutes.Register(api)
	ratingroutes.Register(api)
	messageroutes.Register(api)
	orderroutes.Register(api)
	sectionroutes.Register(api)
	directoryroutes.Register(api)

	boot := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	boot.AddDependency(&pingDependency{name: "postgres", ping: sqlxDB.Ping})
	boot.AddDependency(&pingDependency{name: "redis", ping: func() error { return redisClient.Ping(ctx) }})
	if err := boot.Start(ctx); err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}
	checker.SetReady(true)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		ReadTimeout:  time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(map[string]any{"port": cfg.Port}).Info("starting http server")
		if err := e.StartServer(server); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	checker.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// pingDependency adapts a health ping into the startup sequence.
type pingDependency struct {
	name string
	ping func() error
}

func (d *pingDependency) GetName() string                 { return d.name }
func (d *pingDependency) DependsOn() []string             { return nil }
func (d *pingDependency) Start(ctx context.Context) error { return d.ping() }
func (d *pingDependency) Stop(ctx context.Context) error  { return nil }

func registerDependencies(
	container ectocontainer.DIContainer,
	accounts *accountrepo.Repository,
	cities *cityrepo.Repository,
	tags *tagrepo.Repository,
	socials *socialrepo.Repository,
	users *userrepo.Repository,
	comments *commentrepo.Repository,
	ratings *ratingrepo.Repository,
	favorites *favoriterepo.Repository,
	messages *messagerepo.Repository,
	orders *orderrepo.Repository,
	reports *reportrepo.Repository,
	sections *sectionrepo.Repository,
	tokens *auth.TokenService,
	hasher *auth.Hasher,
	captcha *auth.Captcha,
	recovery *auth.Recovery,
	mailer *mail.Mailer,
	emitter *events.Emitter,
	store storage.Store,
	imp *importer.Importer,
) error {
	if err := ectoinject.RegisterInstance[*accountrepo.Repository](container, accounts); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*cityrepo.Repository](container, cities); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*tagrepo.Repository](container, tags); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*socialrepo.Repository](container, socials); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*userrepo.Repository](container, users); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*commentrepo.Repository](container, comments); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*ratingrepo.Repository](container, ratings); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*favoriterepo.Repository](container, favorites); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*messagerepo.Repository](container, messages); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*orderrepo.Repository](container, orders); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*reportrepo.Repository](container, reports); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*sectionrepo.Repository](container, sections); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*auth.TokenService](container, tokens); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*auth.Hasher](container, hasher); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*auth.Captcha](container, captcha); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*auth.Recovery](container, recovery); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*mail.Mailer](container, mailer); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*events.Emitter](container, emitter); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[storage.Store](container, store); err != nil {
		return err
	}
	return ectoinject.RegisterInstance[*importer.Importer](container, imp)
}
