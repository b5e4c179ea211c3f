package price

import (
	"time"

	"github.com/walletfeed/chainfeed/quoter"
	"github.com/walletfeed/chainfeed/types"
)

type PriceResponse struct {
	Address   string     `json:"address"`
	AmountOut string     `json:"amount_out"`
	Price     float64    `json:"price"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func fromQuoted(p quoter.QuotedPrice) PriceResponse {
	amount := "0"
	if p.AmountOut != nil {
		amount = p.AmountOut.String()
	}
	return PriceResponse{
		Address:   p.Address,
		AmountOut: amount,
		Price:     p.PriceInReferenceAsset,
	}
}

func fromRow(row types.CollectedTokenQuote) PriceResponse {
	updatedAt := row.Timestamp.UTC()
	return PriceResponse{
		Address:   row.TokenAddress,
		AmountOut: row.AmountOut,
		Price:     row.EthPrice,
		UpdatedAt: &updatedAt,
	}
}
