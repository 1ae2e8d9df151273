package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/vovakirdan/syncwatch-server/internal/auth"
	"github.com/vovakirdan/syncwatch-server/internal/config"
	"github.com/vovakirdan/syncwatch-server/internal/core"
	logpkg "github.com/vovakirdan/syncwatch-server/internal/log"
	"github.com/vovakirdan/syncwatch-server/internal/store"
	"github.com/vovakirdan/syncwatch-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/syncwatch-server/internal/transport/http"
)

// noticeGrace is how long writers get to deliver the shutdown notice before
// connections are torn down.
const noticeGrace = 250 * time.Millisecond

// App wires together core and transport layers.
type App struct {
	server           *stdhttp.Server
	shutdownTimeout  time.Duration
	logFlushInterval time.Duration
	hub              *core.Hub
	store            store.Store
	sink             *logpkg.Sink
	log              *zerolog.Logger
	stop             chan error
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger, sink *logpkg.Sink) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	authService := auth.NewService(st, JWTConfig(cfg))

	a := &App{
		shutdownTimeout:  cfg.ShutdownTimeout,
		logFlushInterval: cfg.LogFlushInterval,
		store:            st,
		sink:             sink,
		log:              logger,
		stop:             make(chan error, 1),
	}

	a.hub = core.NewHub(core.Options{
		MaxRoomCapacity:       cfg.MaxRoomCapacity,
		MaxAdminLoginAttempts: cfg.MaxAdminLoginAttempts,
		Credentials:           authService,
		Tokens:                authService,
		Logs:                  sink,
		OnShutdown:            a.requestStop,
		Logger:                logger,
	})
	sink.OnLine(a.hub.PublishLog)

	a.server = transporthttp.NewServer(a.hub, authService, cfg, logger)
	return a, nil
}

// JWTConfig derives admin token settings from the server config.
func JWTConfig(cfg config.Config) *auth.JWTConfig {
	return &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   "syncwatch",
		Audience: "syncwatch-admin",
		TTL:      12 * time.Hour,
	}
}

func (a *App) requestStop(err error) {
	select {
	case a.stop <- err:
	default:
	}
}

// Run starts the HTTP server and blocks until context cancellation, an admin
// shutdown or a fatal hub fault. The fault, if any, is returned.
func (a *App) Run(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	sinkCtx, stopSink := context.WithCancel(context.Background())
	defer stopSink()
	connCtx, closeConns := context.WithCancel(context.Background())
	defer closeConns()

	var wg conc.WaitGroup
	wg.Go(func() { a.hub.Run(hubCtx) })
	wg.Go(func() {
		if err := a.sink.Run(sinkCtx, a.logFlushInterval); err != nil {
			a.log.Warn().Err(err).Msg("log flush failed")
		}
	})

	a.server.BaseContext = func(net.Listener) context.Context { return connCtx }
	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()
	a.log.Info().Str("addr", a.server.Addr).Msg("listening")

	var runErr error
	select {
	case runErr = <-serverErr:
		serverErr <- nil
	case <-ctx.Done():
		a.log.Info().Msg("signal received")
	case runErr = <-a.stop:
		if runErr != nil {
			a.log.Error().Err(runErr).Msg("fatal fault")
		} else {
			a.log.Info().Msg("shutdown requested")
		}
		time.Sleep(noticeGrace)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	a.log.Info().Msg("shutting down http server")
	closeConns()
	if err := a.server.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	if err := <-serverErr; err != nil && runErr == nil {
		runErr = err
	}

	stopHub()
	stopSink()
	wg.Wait()
	a.cleanup()
	return runErr
}

// cleanup closes database and flushes what is left of the log.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
	if err := a.sink.Flush(); err != nil {
		a.log.Warn().Err(err).Msg("final log flush failed")
	}
}
