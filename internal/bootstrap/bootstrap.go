// Package bootstrap owns the service lifecycle: ordered init steps,
// supervised servers and signal-driven graceful shutdown.
package bootstrap

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/asaskevich/EventBus"
	"golang.org/x/sync/errgroup"

	"lobsterboard-server-go/internal/domain/authgate"
	"lobsterboard-server-go/internal/domain/proxy"
	"lobsterboard-server-go/internal/domain/secrets"
	"lobsterboard-server-go/internal/domain/stats"
	"lobsterboard-server-go/internal/domain/templates"
	platformconfig "lobsterboard-server-go/internal/platform/config"
	platformerrors "lobsterboard-server-go/internal/platform/errors"
	platformlogging "lobsterboard-server-go/internal/platform/logging"
	platformstorage "lobsterboard-server-go/internal/platform/storage"
	httptransport "lobsterboard-server-go/internal/transport/http"
	httpwebapi "lobsterboard-server-go/internal/transport/http/webapi"
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	config     *platformconfig.Config
	configPath string
	logger     *platformlogging.Logger

	bus       EventBus.Bus
	configDoc *platformstorage.Document[map[string]any]
	todosDoc  *platformstorage.Document[[]any]
	notesDoc  *platformstorage.Document[map[string]any]
	secrets   *secrets.Store
	gate      *authgate.Gate
	client    *proxy.Client
	releases  *proxy.ReleaseChecker
	usage     *proxy.UsageService
	collector *stats.Collector
	hub       *stats.Hub
	templates *templates.Library
}

// Run starts the whole service lifecycle: config, logging, documents,
// collectors and the HTTP server, then blocks until shutdown.
func Run(ctx context.Context) error {
	state := &appState{}

	if err := executeInitSteps(ctx, InitGraph(), state); err != nil {
		return err
	}

	config := state.config
	logger := state.logger
	if config == nil || logger == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"config/logger not initialised",
		)
	}

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	state.collector.Start(groupCtx)
	defer state.collector.Stop()
	defer state.hub.Close()

	if _, err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	if err := waitForShutdown(signalCtx, cancel, logger, group); err != nil {
		return err
	}

	logger.InfoTag("BOOT", "server stopped cleanly")
	logger.Close()
	return nil
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if stderrors.As(err, &typed) {
				return err
			}
			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init-provider",
			Title:     "Initialise logging provider",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "storage:init-documents",
			Title:     "Initialise data documents",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindStore,
			Execute:   initDocumentsStep,
		},
		{
			ID:        "services:init",
			Title:     "Initialise domain services",
			DependsOn: []string{"storage:init-documents"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initServicesStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	result, err := platformconfig.NewLoader().WithDotEnv(true).Load()
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindConfig, "config:load", "failed to load configuration", err)
	}
	state.config = result.Config
	state.configPath = result.Path
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state.config == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"logging:init-provider",
			"config not loaded",
		)
	}

	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init-provider", "failed to initialize logging provider", err)
	}
	state.logger = logger
	logger.InfoTag("BOOT", "logging ready [%s] %s", state.config.Log.Level, state.configPath)
	return nil
}

func initDocumentsStep(_ context.Context, state *appState) error {
	cfg := state.config
	slogger := state.logger.Slog()

	state.configDoc = platformstorage.NewDocument(cfg.Data.ConfigFile, slogger, func() map[string]any {
		return map[string]any{
			"canvas":  map[string]any{"width": 1920, "height": 1080},
			"widgets": []any{},
		}
	})
	state.todosDoc = platformstorage.NewDocument(cfg.Data.TodosFile, slogger, func() []any {
		return []any{}
	})
	state.notesDoc = platformstorage.NewDocument(cfg.Data.NotesFile, slogger, func() map[string]any {
		return map[string]any{}
	})
	state.secrets = secrets.NewStore(
		platformstorage.NewDocument(cfg.Data.SecretsFile, slogger, secrets.EmptyValues))
	state.gate = authgate.NewGate(
		platformstorage.NewDocument(cfg.Data.AuthFile, slogger, authgate.EmptyState))
	return nil
}

func initServicesStep(_ context.Context, state *appState) error {
	cfg := state.config

	state.bus = EventBus.New()
	state.client = proxy.NewClient(cfg.Proxy.Timeout, cfg.Proxy.MaxRedirects, cfg.Proxy.MaxBodyBytes)
	state.releases = proxy.NewReleaseChecker(state.client, cfg.Proxy.ReleaseTTL)
	state.usage = proxy.NewUsageService(state.client)
	state.collector = stats.NewCollector(state.logger, state.bus, stats.DefaultIntervals())

	hub, err := stats.NewHub(state.bus, cfg.Stats.MaxSubscribers)
	if err != nil {
		return err
	}
	state.hub = hub

	state.templates = templates.NewLibrary(cfg.Data.TemplatesDir, state.configDoc, state.logger)
	return nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) (*http.Server, error) {
	cfg := state.config
	logger := state.logger

	router, err := httptransport.Build(httptransport.Options{
		Config:     cfg,
		Logger:     logger,
		StaticRoot: cfg.Web.StaticDir,
	})
	if err != nil {
		return nil, err
	}

	service, err := httpwebapi.NewService(httpwebapi.Deps{
		Config:    cfg,
		Logger:    logger,
		ConfigDoc: state.configDoc,
		Secrets:   state.secrets,
		Gate:      state.gate,
		Client:    state.client,
		Releases:  state.releases,
		Usage:     state.usage,
		Collector: state.collector,
		Hub:       state.hub,
		Templates: state.templates,
		Todos:     state.todosDoc,
		Notes:     state.notesDoc,
	})
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "webapi:new-service", "failed to create webapi service", err)
	}
	service.Register(router)

	httpServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler: router.Engine,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "dashboard server listening on http://%s", httpServer.Addr)

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "server shutdown failed: %v", err)
			} else {
				logger.InfoTag("HTTP", "server shut down cleanly")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "server failed: %v", err)
			return err
		}
		return nil
	})

	return httpServer, nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	<-ctx.Done()
	logger.InfoTag("BOOT", "received signal %v, cleaning up", context.Cause(ctx))

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("BOOT", "error during shutdown: %v", err)
			return err
		}
		logger.InfoTag("BOOT", "all services stopped")
	case <-time.After(15 * time.Second):
		logger.ErrorTag("BOOT", "shutdown timed out, forcing exit")
		return stderrors.New("shutdown timed out")
	}
	return nil
}
