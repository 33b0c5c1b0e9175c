package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"geminicli2api-go/internal/config"
	"geminicli2api-go/internal/constants"
	"geminicli2api-go/internal/credential"
	"geminicli2api-go/internal/discovery"
	common "geminicli2api-go/internal/handlers/common"
	"geminicli2api-go/internal/logging"
	tracing "geminicli2api-go/internal/monitoring/tracing"
	"geminicli2api-go/internal/oauth"
	srv "geminicli2api-go/internal/server"
	upgem "geminicli2api-go/internal/upstream/gemini"
	"geminicli2api-go/internal/usage"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (config.yaml in the working directory when present)")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	// .env 仅在存在时加载；authctl export 产出的片段可直接落盘使用。
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("could not load .env file")
	}

	cfg, err := config.LoadWithFile(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if *debug {
		cfg.Server.Debug = true
	}

	if err := logging.Setup(cfg); err != nil {
		log.WithError(err).Fatal("failed to configure logging")
	}

	traceShutdown, err := tracing.Setup(context.Background())
	if err != nil {
		log.WithError(err).Warn("failed to initialize tracing")
	}

	log.Infof("Starting %s %s", constants.AppName, constants.AppVersion)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	oauthMgr := oauth.NewManager(cfg.OAuth)
	creds := credential.NewStore(cfg.Credentials, cfg.OAuth, oauthMgr)
	if err := creds.Load(ctx); err != nil {
		// 降级启动：没有可用凭据时照常监听，请求级返回认证错误。
		log.WithError(err).Warn("no usable credentials; serving in degraded mode until authentication succeeds")
		log.Warn("run 'authctl auth add' or set GEMINI_CREDENTIALS to authenticate")
	}
	if cfg.Credentials.WatchFile {
		creds.WatchFile(ctx)
	}

	usageStorage, err := usage.NewStorage(cfg.Usage)
	if err != nil {
		log.WithError(err).Warnf("usage storage backend %q unavailable; falling back to memory", cfg.Usage.Backend)
		usageStorage = usage.NewMemoryStorage()
	}
	tracker := usage.NewTracker(usageStorage)
	if err := tracker.Start(ctx); err != nil {
		log.WithError(err).Warn("usage tracker failed to restore persisted stats")
	}

	client := upgem.New(cfg, creds)
	resolver := discovery.NewProjectResolver(cfg, creds, client)
	onboarder := discovery.NewOnboarder(cfg, client)
	broker := common.NewBroker(cfg, client, resolver, onboarder, tracker)

	engine := srv.BuildEngine(cfg, srv.Dependencies{Broker: broker})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpSrv := &http.Server{Addr: addr, Handler: engine}

	go func() {
		log.Infof("listening on %s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("http server: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("Shutdown signal received")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), constants.ServerShutdownTimeout)
	defer cancelShutdown()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http server shutdown")
	}
	if err := tracker.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("usage tracker shutdown")
	}
	if err := usageStorage.Close(); err != nil {
		log.WithError(err).Warn("usage storage close")
	}
	if traceShutdown != nil {
		if err := traceShutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("failed to shutdown tracing")
		}
	}
	log.Info("Server stopped")
}
