// Package server hosts the HTTP API around the plan execution engine and
// the cron scheduler for recurring automations.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/taskpilot/taskpilot/config"
	"github.com/taskpilot/taskpilot/internal/agent"
	"github.com/taskpilot/taskpilot/internal/memory"
	"github.com/taskpilot/taskpilot/internal/runtime"
	"github.com/taskpilot/taskpilot/internal/store"
	"github.com/taskpilot/taskpilot/internal/telemetry"
	"github.com/taskpilot/taskpilot/internal/tools"
	"github.com/taskpilot/taskpilot/provider"
)

// Server wires all dependencies and serves the API.
type Server struct {
	cfg       *config.Config
	e         *echo.Echo
	runner    *Runner
	scheduler *Scheduler
	rdb       *redis.Client
	logger    *log.Logger
}

// NewRunner wires the full execution stack from configuration: LLM
// provider, planner, one controller per tools profile, run history and the
// optional Postgres archive. The returned Redis client is nil when Redis is
// not configured.
func NewRunner(ctx context.Context, cfg *config.Config) (*Runner, *memory.History, *redis.Client, error) {
	logger := log.New(log.Writer(), "[RUNNER] ", log.LstdFlags)

	llm, err := provider.NewLLM(cfg.LLM)
	if err != nil {
		if !errors.Is(err, provider.ErrNotConfigured) {
			return nil, nil, nil, err
		}
		llm = nil
	}
	planner := agent.NewPlanner(cfg, llm)

	var metrics *telemetry.Metrics
	if cfg.Telemetry.Enabled {
		metrics = telemetry.New(prometheus.DefaultRegisterer)
	}

	controllers, err := buildControllers(cfg, llm, metrics)
	if err != nil {
		return nil, nil, nil, err
	}

	var rdb *redis.Client
	var runStore memory.Store
	if cfg.Storage.Redis.Host != "" {
		rdb, err = memory.Conn(ctx, cfg.Storage.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		runStore = memory.NewRedisStore(rdb)
	} else {
		runStore = memory.NewInMemoryStore(0)
	}
	history, err := memory.NewHistory(runStore)
	if err != nil {
		return nil, nil, nil, err
	}

	var archive *store.Archive
	if cfg.Storage.Postgres.Configured() {
		if err := store.Migrate("file://migrations", cfg.Storage.Postgres, "up", 0); err != nil {
			logger.Printf("migrations: %v", err)
		}
		archive, err = store.Open(ctx, cfg.Storage.Postgres)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	defaultProfile := cfg.Tools.Profile
	if defaultProfile == "" {
		defaultProfile = config.ToolsProfileEnhanced
	}
	runner := &Runner{
		planner:        planner,
		controllers:    controllers,
		defaultProfile: defaultProfile,
		history:        history,
		archive:        archive,
		logger:         logger,
	}
	return runner, history, rdb, nil
}

// New builds the HTTP server around a fully wired Runner.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	runner, history, rdb, err := NewRunner(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:    cfg,
		runner: runner,
		rdb:    rdb,
		logger: log.New(log.Writer(), "[SERVER] ", log.LstdFlags),
	}
	s.e = s.buildEcho(history)

	if len(cfg.Schedules) > 0 {
		s.scheduler = NewScheduler(cfg.Schedules, rdb, runner)
	}
	return s, nil
}

func buildControllers(cfg *config.Config, llm provider.LLM, metrics *telemetry.Metrics) (map[string]*agent.Controller, error) {
	controllers := make(map[string]*agent.Controller, 2)
	for _, profile := range []string{config.ToolsProfileBasic, config.ToolsProfileEnhanced} {
		profileCfg := *cfg
		profileCfg.Tools.Profile = profile
		registry, err := tools.NewRegistry(&profileCfg, llm)
		if err != nil {
			return nil, err
		}
		controllers[profile] = agent.NewController(registry, agent.WithMetrics(metrics))
	}
	return controllers, nil
}

func (s *Server) buildEcho(history *memory.History) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	httpLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		httpLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if s.cfg.Telemetry.Enabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	api := e.Group("/api")
	if s.cfg.Server.JWTSecret != "" {
		api.Use(runtime.EchoAuthMiddleware([]byte(s.cfg.Server.JWTSecret)))
	}
	(&RunsHandler{Runner: s.runner, History: history}).Register(api)
	return e
}

// Start runs the scheduler (if any) and serves HTTP until Shutdown.
func (s *Server) Start() error {
	if s.scheduler != nil {
		s.scheduler.Start()
	}
	addr := s.cfg.Server.Address
	if addr == "" {
		addr = ":8080"
	}
	s.logger.Printf("listening on %s", addr)
	return s.e.Start(addr)
}

// Shutdown stops the scheduler and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if s.rdb != nil {
		defer s.rdb.Close()
	}
	return s.e.Shutdown(ctx)
}
