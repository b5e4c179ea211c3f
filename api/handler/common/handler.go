package common

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/walletfeed/chainfeed/config"
	"github.com/walletfeed/chainfeed/metrics"
	"github.com/walletfeed/chainfeed/orm"
)

type HandlerRegistrar interface {
	Register(router fiber.Router)
}

// BaseHandler carries what every handler group shares. db is nil when the
// service runs without persistence.
type BaseHandler struct {
	db     *orm.Database
	cfg    *config.Config
	logger *slog.Logger
}

func NewBaseHandler(db *orm.Database, cfg *config.Config, logger *slog.Logger) *BaseHandler {
	return &BaseHandler{
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

func (h *BaseHandler) GetDatabase() *orm.Database { return h.db }
func (h *BaseHandler) HasDatabase() bool          { return h.db != nil }
func (h *BaseHandler) GetConfig() *config.Config  { return h.cfg }
func (h *BaseHandler) GetLogger() *slog.Logger    { return h.logger }
func (h *BaseHandler) GetChainConfig() *config.ChainConfig {
	return h.cfg.GetChainConfig()
}

func (h *BaseHandler) GetAddressPrefix() string {
	return h.cfg.GetChainConfig().AddressPrefix
}

// TrackError tracks errors in handlers
func (h *BaseHandler) TrackError(errorType string) {
	metrics.TrackError("api", errorType)
}
