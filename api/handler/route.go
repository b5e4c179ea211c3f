package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/walletfeed/chainfeed/api/handler/address"
	"github.com/walletfeed/chainfeed/api/handler/common"
	"github.com/walletfeed/chainfeed/api/handler/dex"
	"github.com/walletfeed/chainfeed/api/handler/price"
	"github.com/walletfeed/chainfeed/config"
	"github.com/walletfeed/chainfeed/orm"
	"github.com/walletfeed/chainfeed/worker"
)

// Sources are the live data behind the handlers. Prices may be nil.
type Sources struct {
	Prices     worker.PriceSource
	PriceCache *worker.PriceCache
	Pools      worker.PoolSource
}

func Register(router fiber.Router, db *orm.Database, cfg *config.Config, sources Sources, logger *slog.Logger) {
	base := common.NewBaseHandler(db, cfg, logger)
	handlers := []common.HandlerRegistrar{
		price.NewPriceHandler(base, sources.Prices, sources.PriceCache),
		address.NewAddressHandler(base),
	}
	if sources.Pools != nil {
		handlers = append(handlers, dex.NewDexHandler(base, sources.Pools))
	}

	for _, handler := range handlers {
		handler.Register(router)
	}
}
