package price

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/walletfeed/chainfeed/api/handler/common"
	"github.com/walletfeed/chainfeed/types"
	"github.com/walletfeed/chainfeed/worker"
)

// GetPrices handles GET /v1/prices?tokens=a,b
//
// Without tokens it lists every known quote. With tokens, cached quotes are
// returned as is and the rest are quoted live; results follow the order of
// the query and tokens without a usable quote are left out.
func (h *PriceHandler) GetPrices(c *fiber.Ctx) error {
	raw := strings.TrimSpace(c.Query("tokens"))
	if raw == "" {
		return h.listPrices(c)
	}

	tokens := worker.UniqueTokens(strings.Split(raw, ","))
	if len(tokens) == 0 {
		return types.NewBadRequestError("tokens must name at least one address")
	}
	if len(tokens) > MaxTokensPerRequest {
		return types.NewBadRequestError(fmt.Sprintf("at most %d tokens per request", MaxTokensPerRequest))
	}

	keys := make([]string, len(tokens))
	for i, token := range tokens {
		keys[i] = worker.CacheKey(token)
	}

	byKey := make(map[string]PriceResponse, len(keys))
	hits, misses := h.cache.GetMany(keys)
	for _, hit := range hits {
		byKey[worker.CacheKey(hit.Address)] = fromQuoted(hit)
	}

	if len(misses) > 0 && h.source != nil {
		quoted, err := h.source.GetPrices(c.UserContext(), misses)
		if err != nil {
			h.GetLogger().Warn("live quote failed", slog.Int("tokens", len(misses)), slog.Any("error", err))
			return err
		}
		for _, p := range quoted {
			if p.AmountOut == nil || p.AmountOut.Sign() == 0 {
				continue
			}
			key := worker.CacheKey(p.Address)
			h.cache.Set(key, p)
			byKey[key] = fromQuoted(p)
		}
	}

	out := make([]PriceResponse, 0, len(keys))
	for _, key := range keys {
		if p, ok := byKey[key]; ok {
			out = append(out, p)
		}
	}
	return common.OK(c, out)
}

// GetPrice handles GET /v1/prices/:address
func (h *PriceHandler) GetPrice(c *fiber.Ctx) error {
	key := worker.CacheKey(c.Params("address"))
	if key == "" {
		return types.NewBadRequestError("address is required")
	}

	if h.HasDatabase() {
		row, err := h.GetDatabase().GetQuote(c.UserContext(), key)
		if err == nil {
			return common.OK(c, fromRow(*row))
		}
		if !types.IsErrorType(err, types.ErrTypeNotFound) {
			return err
		}
	}

	if cached, ok := h.cache.Get(key); ok {
		return common.OK(c, fromQuoted(cached))
	}
	return types.NewNotFoundError(fmt.Sprintf("quote for %s", key))
}

func (h *PriceHandler) listPrices(c *fiber.Ctx) error {
	if h.HasDatabase() {
		rows, err := h.GetDatabase().ListQuotes(c.UserContext())
		if err != nil {
			return err
		}
		out := make([]PriceResponse, len(rows))
		for i, row := range rows {
			out[i] = fromRow(row)
		}
		return common.OK(c, out)
	}

	values := h.cache.Values()
	out := make([]PriceResponse, len(values))
	for i, v := range values {
		out[i] = fromQuoted(v)
	}
	return common.OK(c, out)
}
