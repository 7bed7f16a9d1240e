package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/templui/hrvault/internal/config"
	"github.com/templui/hrvault/internal/db"
	"github.com/templui/hrvault/internal/gateway"
	"github.com/templui/hrvault/internal/repository"
	"github.com/templui/hrvault/internal/service"
	"github.com/templui/hrvault/internal/storage"
	"github.com/templui/hrvault/internal/validation"
)

type App struct {
	Cfg              *config.Config
	DB               *sqlx.DB
	Gateway          gateway.Gateway
	AuthService      *service.AuthService
	EmailService     *service.EmailService
	VaultService     *service.VaultService
	ShareLinkService *service.ShareLinkService
	AuditLogger      *service.AuditLogger
	UploadConfig     service.UploadConfig
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Storage
	fileStorage, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	return Wire(cfg, database, fileStorage)
}

// Wire builds the services on top of an open database and a storage
// backend. Tests call it with in-memory sqlite and a fake storage.
func Wire(cfg *config.Config, database *sqlx.DB, fileStorage storage.Storage) (*App, error) {
	// Repositories
	fileRepository := repository.NewFileRepository(database)
	shareLinkRepository := repository.NewShareLinkRepository(database)

	constraints := validation.NewFileConstraints(cfg.VaultAcceptedTypes, cfg.VaultMaxUploadSize)
	fileCache := service.NewFileCache(cfg.VaultFileCacheSize, cfg.VaultFileCacheTTL)

	// Gateway and server-side procedures
	procs := gateway.NewProcedures()
	service.RegisterVaultProcedures(procs, service.NewVaultProcedures(
		fileRepository,
		shareLinkRepository,
		fileStorage,
		constraints,
		fileCache,
	))
	gw := gateway.NewSQLGateway(database, procs)

	// Services
	authService, err := service.NewAuthService(service.AuthConfig{
		JWTSecret:    cfg.JWTSecret,
		JWTExpiry:    cfg.JWTExpiry,
		JWKSURL:      cfg.JWKSURL,
		JWKSRefresh:  cfg.JWKSRefresh,
		Issuer:       cfg.JWTIssuer,
		IsProduction: cfg.IsProduction(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %v", err)
	}

	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppName,
		cfg.IsDevelopment(),
	)

	auditLogger := service.NewAuditLogger(gw, service.AuditConfig{
		Enabled:       cfg.AuditEnabled,
		BatchSize:     cfg.AuditBatchSize,
		FlushInterval: cfg.AuditFlushInterval,
	})
	auditLogger.Start()

	vaultService := service.NewVaultService(gw, fileRepository, fileStorage, auditLogger, fileCache)
	shareLinkService := service.NewShareLinkService(gw, cfg.VaultOrigin)

	return &App{
		Cfg:              cfg,
		DB:               database,
		Gateway:          gw,
		AuthService:      authService,
		EmailService:     emailService,
		VaultService:     vaultService,
		ShareLinkService: shareLinkService,
		AuditLogger:      auditLogger,
		UploadConfig:     service.UploadConfig{Constraints: constraints},
	}, nil
}

// Close flushes pending audit events and closes the database.
func (a *App) Close(ctx context.Context) error {
	if a.AuditLogger != nil {
		a.AuditLogger.Close(ctx)
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
