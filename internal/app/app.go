// Package app wires configuration, storage, services, and HTTP surfaces
// into a runnable gift card ledger server.
package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/storefront-ops/giftcard-ledger/internal/cache"
	"github.com/storefront-ops/giftcard-ledger/internal/config"
	"github.com/storefront-ops/giftcard-ledger/internal/db"
	"github.com/storefront-ops/giftcard-ledger/internal/giftcard"
	adminapi "github.com/storefront-ops/giftcard-ledger/internal/http/api/admin"
	"github.com/storefront-ops/giftcard-ledger/internal/http/api/checkout"
	"github.com/storefront-ops/giftcard-ledger/internal/http/api/front"
	"github.com/storefront-ops/giftcard-ledger/internal/mail"
	"github.com/storefront-ops/giftcard-ledger/internal/models"
	"github.com/storefront-ops/giftcard-ledger/internal/security"
)

// Run boots the server and blocks until SIGINT/SIGTERM.
func Run(configPath string) error {
	cfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return errLoad
	}
	setupLogging(cfg.Log)

	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errSeed := ensureAdmin(conn, cfg.Admin); errSeed != nil {
		return errSeed
	}

	viewCache := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.RedisTTL())
	if viewCache != nil {
		defer func() { _ = viewCache.Close() }()
		log.Infof("balance view cache enabled (redis=%s)", cfg.Redis.Addr)
	}

	var mailer mail.Mailer = mail.NopMailer{}
	if strings.TrimSpace(cfg.Mail.Endpoint) != "" {
		mailer = mail.NewHTTPMailer(cfg.Mail.Endpoint, cfg.MailTimeout())
	}

	ledger := giftcard.NewLedger(conn, viewCache)
	issuer := giftcard.NewIssuer(conn, mailer)
	redeemer := giftcard.NewRedeemer(conn, ledger)
	lookup := giftcard.NewLookupService(ledger, viewCache)
	adminSvc := giftcard.NewAdminService(conn, viewCache)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Sweeper.Enabled {
		giftcard.NewExpirySweeper(conn, viewCache, cfg.SweepInterval()).Start(ctx)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	front.RegisterFrontRoutes(engine, issuer, lookup)
	checkout.RegisterCheckoutRoutes(engine, redeemer, cfg.Internal.ServiceToken)
	adminapi.RegisterAdminRoutes(engine, conn, cfg.JWT, ledger, adminSvc)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("gift card ledger listening on %s", cfg.Server.Addr)
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
		}
	}()

	select {
	case errServe := <-errCh:
		return errServe
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return server.Shutdown(shutdownCtx)
}

// setupLogging configures logrus level and optional rotating file output.
func setupLogging(cfg config.LogConfig) {
	level, errParse := log.ParseLevel(cfg.Level)
	if errParse != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if strings.TrimSpace(cfg.File) != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	}
}

// ensureAdmin seeds the bootstrap operator account when configured and
// absent. Existing accounts are never overwritten.
func ensureAdmin(conn *gorm.DB, cfg config.AdminConfig) error {
	username := strings.TrimSpace(cfg.Username)
	if username == "" || cfg.Password == "" {
		return nil
	}

	var count int64
	if errCount := conn.Model(&models.Admin{}).
		Where("username = ?", username).
		Count(&count).Error; errCount != nil {
		return errCount
	}
	if count > 0 {
		return nil
	}

	hash, errHash := security.HashPassword(cfg.Password)
	if errHash != nil {
		return errHash
	}
	admin := models.Admin{Username: username, PasswordHash: hash}
	if errCreate := conn.Create(&admin).Error; errCreate != nil {
		return errCreate
	}
	log.Infof("bootstrap admin %q created", username)
	return nil
}

// requestLogger emits one structured line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).String(),
		}).Debug("request")
	}
}
