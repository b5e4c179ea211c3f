package address

import (
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gofiber/fiber/v2"

	"github.com/walletfeed/chainfeed/api/handler/common"
	"github.com/walletfeed/chainfeed/types"
	"github.com/walletfeed/chainfeed/util/address"
)

type AddressHandler struct {
	*common.BaseHandler
}

var _ common.HandlerRegistrar = (*AddressHandler)(nil)

func NewAddressHandler(base *common.BaseHandler) *AddressHandler {
	return &AddressHandler{BaseHandler: base}
}

func (h *AddressHandler) Register(router fiber.Router) {
	addr := router.Group("/v1/address")
	addr.Get("/:address", h.GetAddress)
	if h.HasDatabase() {
		addr.Get("/:address/deployments", h.GetDeployments)
	}
}

type AddressResponse struct {
	Hex    string `json:"hex"`
	Bech32 string `json:"bech32"`
}

type DeploymentResponse struct {
	TxID            string `json:"tx_id"`
	ContractAddress string `json:"contract_address"`
	OwnerBech32     string `json:"owner_bech32"`
	Height          int64  `json:"height"`
}

// GetAddress handles GET /v1/address/:address
//
// Accepts either form and returns both.
func (h *AddressHandler) GetAddress(c *fiber.Ctx) error {
	prefix := h.GetAddressPrefix()
	addr, err := address.Parse(prefix, strings.TrimSpace(c.Params("address")))
	if err != nil {
		return err
	}

	text, err := address.ToBech32(prefix, addr.Hex())
	if err != nil {
		return err
	}
	return common.OK(c, AddressResponse{Hex: hexutil.Encode(addr.Bytes()), Bech32: text})
}

// GetDeployments handles GET /v1/address/:address/deployments
func (h *AddressHandler) GetDeployments(c *fiber.Ctx) error {
	addr, err := address.Parse(h.GetAddressPrefix(), strings.TrimSpace(c.Params("address")))
	if err != nil {
		return err
	}

	rows, err := h.GetDatabase().ListDeploymentsByOwner(c.UserContext(), hex.EncodeToString(addr.Bytes()))
	if err != nil {
		return err
	}

	out := make([]DeploymentResponse, len(rows))
	for i, row := range rows {
		out[i] = fromRow(row)
	}
	return common.OK(c, out)
}

func fromRow(row types.CollectedDeployment) DeploymentResponse {
	return DeploymentResponse{
		TxID:            row.TxID,
		ContractAddress: row.ContractAddress,
		OwnerBech32:     row.OwnerBech32,
		Height:          row.Height,
	}
}
