package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/echoface/mediation-adapter/internal/config"
	"github.com/echoface/mediation-adapter/internal/observability"
	"github.com/echoface/mediation-adapter/internal/server"
	pkgconfig "github.com/echoface/mediation-adapter/pkg/config"
	"github.com/echoface/mediation-adapter/pkg/jsonx"
	"github.com/echoface/mediation-adapter/pkg/logger"
	"github.com/echoface/mediation-adapter/pkg/utils"
)

func main() {
	// Load configuration based on RUN_TYPE
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lc := cfg.Logging
	appLog, err := logger.FromConfig(lc.Backend, logger.ParseEnvironment(cfg.RunType), lc.Level, lc.FilePath)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	appLog = appLog.With("service", config.ServiceName, "run_type", cfg.RunType)
	cfgView := jsonx.LzJSON(cfg)
	if cfg.RunType == pkgconfig.RunTypeDev {
		cfgView = jsonx.LzPretty(cfg)
	}
	appLog.Debug("config loaded", "file", cfg.ConfigFile, "config", cfgView)

	if cfg.RunType == pkgconfig.RunTypeProd {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Monitoring.Tracing.Enabled,
		ServiceName: config.ServiceName,
		Environment: cfg.RunType,
		SampleRatio: cfg.Monitoring.Tracing.SampleRatio,
	}, os.Stdout)
	if err != nil {
		appLog.Fatal("Failed to init tracing", "error", err.Error())
	}

	appCtx := server.NewAppContext(cfg, appLog, tp)
	if err := appCtx.AddSimPartners(); err != nil {
		appLog.Fatal("Failed to register partners", "error", err.Error())
	}
	go appCtx.SetupPartners(ctx)

	srv := &http.Server{
		Addr:         cfg.GetAddress(),
		Handler:      server.NewRouter(appCtx),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		appLog.Info("mediation server starting", "addr", srv.Addr, "partners", appCtx.PartnerIDs())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("Failed to start server", "error", err.Error())
		}
	}()

	<-ctx.Done()
	appCtx.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	utils.IgnoreErr(appLog, srv.Shutdown(shutdownCtx), "server shutdown")
	utils.IgnoreErr(appLog, shutdownTracing(shutdownCtx), "tracing shutdown")
	appLog.Info("mediation server stopped")
}
