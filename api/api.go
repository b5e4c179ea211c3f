package api

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/walletfeed/chainfeed/api/handler"
	"github.com/walletfeed/chainfeed/api/handler/common"
	"github.com/walletfeed/chainfeed/config"
	"github.com/walletfeed/chainfeed/orm"
)

type Api struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *orm.Database
	sources handler.Sources
	app     *fiber.App
}

// New builds the API. db may be nil when persistence is disabled.
func New(cfg *config.Config, logger *slog.Logger, db *orm.Database, sources handler.Sources) *Api {
	a := &Api{
		cfg:     cfg,
		logger:  logger.With("component", "api"),
		db:      db,
		sources: sources,
	}
	a.app = a.newApp()
	return a
}

// App exposes the underlying fiber app, mainly for tests.
func (a *Api) App() *fiber.App {
	return a.app
}

func (a *Api) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Chainfeed API",
		DisableStartupMessage: true,
		ErrorHandler:          common.NewErrorHandler(a.logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(metricsMiddleware())
	addCORS(app, a.cfg, a.logger)

	app.Get("/health", health)

	handler.Register(app, a.db, a.cfg, a.sources, a.logger)

	return app
}

func (a *Api) Start() error {
	port := a.cfg.GetListenPort()
	a.logger.Info("starting API server", slog.String("addr", fmt.Sprintf("http://localhost:%s", port)))
	return a.app.Listen(":" + port)
}

func (a *Api) Shutdown() error {
	return a.app.Shutdown()
}

// addCORS installs the CORS middleware when it is enabled. A wildcard origin
// answers "*" unless credentials are allowed, which config validation rejects.
func addCORS(app *fiber.App, cfg *config.Config, logger *slog.Logger) {
	corsCfg := cfg.GetCORSConfig()
	if corsCfg == nil || !corsCfg.Enabled {
		return
	}

	origins := strings.Join(corsCfg.AllowOrigin, ",")
	if corsCfg.Wildcard() {
		origins = "*"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     strings.Join(corsCfg.AllowMethods, ","),
		AllowHeaders:     strings.Join(corsCfg.AllowHeaders, ","),
		AllowCredentials: corsCfg.AllowCredentials,
		MaxAge:           corsCfg.MaxAge,
	}))

	logger.Info("CORS enabled",
		slog.String("origins", origins),
		slog.Bool("credentials", corsCfg.AllowCredentials))
}

// health handles GET /health
func health(c *fiber.Ctx) error {
	return c.SendString("OK")
}
