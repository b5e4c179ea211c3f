package price

import (
	"github.com/gofiber/fiber/v2"

	"github.com/walletfeed/chainfeed/api/handler/common"
	"github.com/walletfeed/chainfeed/worker"
)

// MaxTokensPerRequest bounds the tokens query parameter.
const MaxTokensPerRequest = 100

type PriceHandler struct {
	*common.BaseHandler
	source worker.PriceSource
	cache  *worker.PriceCache
}

var _ common.HandlerRegistrar = (*PriceHandler)(nil)

// NewPriceHandler serves quotes from priceCache, falling back to source on a
// miss. source may be nil, in which case only cached and persisted quotes are
// served.
func NewPriceHandler(base *common.BaseHandler, source worker.PriceSource, priceCache *worker.PriceCache) *PriceHandler {
	return &PriceHandler{
		BaseHandler: base,
		source:      source,
		cache:       priceCache,
	}
}

func (h *PriceHandler) Register(router fiber.Router) {
	prices := router.Group("/v1/prices")
	prices.Get("/", h.GetPrices)
	prices.Get("/:address", h.GetPrice)
}
