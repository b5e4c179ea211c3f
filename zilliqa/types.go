package zilliqa

import (
	"encoding/json"
	"math/big"
)

type BlockchainInfo struct {
	NumTxBlocks      string `json:"NumTxBlocks"`
	NumDSBlocks      string `json:"NumDSBlocks"`
	CurrentMiniEpoch string `json:"CurrentMiniEpoch"`
}

type poolState struct {
	Pools map[string]poolEntry `json:"pools"`
}

type poolEntry struct {
	Arguments []string `json:"arguments"`
}

// Reserves of one DEX pool, in the smallest units of each side.
type Reserves struct {
	Zil   *big.Int `json:"zil_reserve"`
	Token *big.Int `json:"token_reserve"`
}

type txnBody struct {
	ID      string     `json:"ID"`
	ToAddr  string     `json:"toAddr"`
	Data    string     `json:"data"`
	Receipt txnReceipt `json:"receipt"`
}

type txnReceipt struct {
	Success bool `json:"success"`
}

type initParam struct {
	VName string          `json:"vname"`
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// Deployment is a successful contract deployment whose init names an admin key.
type Deployment struct {
	TxID            string `json:"tx_id"`
	Height          uint64 `json:"height"`
	OwnerAddress    string `json:"owner_address"`
	OwnerBech32     string `json:"owner_bech32"`
	ContractAddress string `json:"contract_address,omitempty"`
}
