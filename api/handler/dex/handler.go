package dex

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/walletfeed/chainfeed/api/cache"
	"github.com/walletfeed/chainfeed/api/handler/common"
	"github.com/walletfeed/chainfeed/types"
	"github.com/walletfeed/chainfeed/worker"
)

const PoolsCacheExpiration = 30 * time.Second

type DexHandler struct {
	*common.BaseHandler
	source worker.PoolSource
}

var _ common.HandlerRegistrar = (*DexHandler)(nil)

func NewDexHandler(base *common.BaseHandler, source worker.PoolSource) *DexHandler {
	return &DexHandler{
		BaseHandler: base,
		source:      source,
	}
}

func (h *DexHandler) Register(router fiber.Router) {
	dex := router.Group("/v1/dex")
	dex.Get("/pools", cache.WithExpiration(PoolsCacheExpiration), h.GetPools)
}

type PoolResponse struct {
	Token        string `json:"token"`
	ZilReserve   string `json:"zil_reserve"`
	TokenReserve string `json:"token_reserve"`
}

// GetPools handles GET /v1/dex/pools
//
// Reads the DEX contract live. When the chain is unreachable and a stored
// snapshot exists, the snapshot is served instead.
func (h *DexHandler) GetPools(c *fiber.Ctx) error {
	pools, err := h.source.Pools(c.UserContext(), h.GetChainConfig().DexContract)
	if err == nil {
		return common.OK(c, toResponse(worker.PoolRows(pools, time.Now().UTC())))
	}
	if !h.HasDatabase() {
		return err
	}

	h.GetLogger().Warn("live pool read failed, serving stored snapshot", slog.Any("error", err))
	rows, dbErr := h.GetDatabase().ListPools(c.UserContext())
	if dbErr != nil || len(rows) == 0 {
		return err
	}
	return common.OK(c, toResponse(rows))
}

func toResponse(rows []types.CollectedDexPool) []PoolResponse {
	out := make([]PoolResponse, len(rows))
	for i, row := range rows {
		out[i] = PoolResponse{
			Token:        row.TokenAddress,
			ZilReserve:   row.ZilReserve,
			TokenReserve: row.TokenReserve,
		}
	}
	return out
}
