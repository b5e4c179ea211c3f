// Package zilliqa reads chain state from Zilliqa JSON-RPC providers through
// the failover batch transport.
package zilliqa

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"

	"github.com/walletfeed/chainfeed/cache"
	"github.com/walletfeed/chainfeed/types"
	"github.com/walletfeed/chainfeed/util/address"
	"github.com/walletfeed/chainfeed/util/jsonrpc"
)

// ContractCacheSize bounds the resolved tx id -> contract address entries.
const ContractCacheSize = 4096

type Reader struct {
	client    *jsonrpc.Client
	prefix    string
	contracts *cache.Cache[string, string]
	logger    *slog.Logger
}

func NewReader(client *jsonrpc.Client, prefix string, logger *slog.Logger) *Reader {
	return &Reader{
		client:    client,
		prefix:    prefix,
		contracts: cache.New[string, string](ContractCacheSize),
		logger:    logger.With("component", "zilliqa"),
	}
}

// LatestTxBlock returns the number of tx blocks the chain reports.
func (r *Reader) LatestTxBlock(ctx context.Context) (uint64, error) {
	res, err := r.client.SendOne(ctx, MethodGetBlockchainInfo)
	if err != nil {
		return 0, err
	}

	var info BlockchainInfo
	if err := res.Decode(&info); err != nil {
		return 0, err
	}

	height, err := strconv.ParseUint(info.NumTxBlocks, 10, 64)
	if err != nil {
		return 0, types.NewMalformedResponseError(fmt.Sprintf("NumTxBlocks %q is not a block number", info.NumTxBlocks), err)
	}
	return height, nil
}

// Pools returns the reserves of every pool of the DEX contract keyed by token
// address. Pools with an empty side are left out.
func (r *Reader) Pools(ctx context.Context, dexContract string) (map[string]Reserves, error) {
	contract := strings.TrimPrefix(strings.ToLower(dexContract), "0x")
	res, err := r.client.SendOne(ctx, MethodGetSmartContractSubState, contract, PoolsField, []any{})
	if err != nil {
		return nil, err
	}

	var state poolState
	if err := res.Decode(&state); err != nil {
		return nil, err
	}

	pools := make(map[string]Reserves, len(state.Pools))
	for token, entry := range state.Pools {
		if len(entry.Arguments) != 2 {
			return nil, types.NewMalformedResponseError(fmt.Sprintf("pool %s has %d arguments", token, len(entry.Arguments)), nil)
		}
		zil, ok := parseReserve(entry.Arguments[0])
		if !ok {
			return nil, types.NewMalformedResponseError(fmt.Sprintf("pool %s zil reserve %q", token, entry.Arguments[0]), nil)
		}
		tokens, ok := parseReserve(entry.Arguments[1])
		if !ok {
			return nil, types.NewMalformedResponseError(fmt.Sprintf("pool %s token reserve %q", token, entry.Arguments[1]), nil)
		}
		if zil.Sign() == 0 || tokens.Sign() == 0 {
			continue
		}
		pools[token] = Reserves{Zil: zil, Token: tokens}
	}
	return pools, nil
}

// ScanDeployments collects successful contract deployments in the given tx
// blocks whose init carries an admin public key. A block without any response
// fails the scan so the caller does not move past it.
func (r *Reader) ScanDeployments(ctx context.Context, blocks []uint64) ([]Deployment, error) {
	if len(blocks) == 0 {
		return []Deployment{}, nil
	}

	requests := make([]types.JSONRPCRequest, len(blocks))
	for i, block := range blocks {
		requests[i] = jsonrpc.NewRequest(i+1, MethodGetTxnBodiesForTxBlock, strconv.FormatUint(block, 10))
	}

	responses, err := r.client.Send(ctx, requests)
	if err != nil {
		return nil, err
	}
	byID, err := jsonrpc.IndexByID(responses)
	if err != nil {
		return nil, err
	}

	if missing := countMissing(byID, len(blocks)); missing > 0 {
		return nil, types.NewMissingResponsesError(MethodGetTxnBodiesForTxBlock, missing, len(blocks))
	}

	deployments := make([]Deployment, 0)
	for i, block := range blocks {
		res := byID[i+1]

		var bodies []txnBody
		if err := res.Decode(&bodies); err != nil {
			// blocks without transactions answer with an RPC error
			r.logger.Debug("skipping block", slog.Uint64("block", block), slog.Any("error", err))
			continue
		}

		for _, tx := range bodies {
			if d, ok := r.deploymentFromTx(tx, block); ok {
				deployments = append(deployments, d)
			}
		}
	}
	return deployments, nil
}

// ResolveContracts fills ContractAddress of each deployment. Deployments the
// providers answer with an RPC error are dropped, while requests that got no
// response at all fail the call. Resolved addresses are remembered, so
// rescanning a range only asks for new transactions.
func (r *Reader) ResolveContracts(ctx context.Context, deployments []Deployment) ([]Deployment, error) {
	if len(deployments) == 0 {
		return []Deployment{}, nil
	}

	txIDs := make([]string, len(deployments))
	for i, d := range deployments {
		txIDs[i] = d.TxID
	}
	known, missing := r.contracts.Lookup(txIDs)

	if len(missing) > 0 {
		fetched, err := r.fetchContracts(ctx, missing)
		if err != nil {
			return nil, err
		}
		for txID, contract := range fetched {
			r.contracts.Set(txID, contract)
			known[txID] = contract
		}
	}

	resolved := make([]Deployment, 0, len(deployments))
	for _, d := range deployments {
		contract, ok := known[d.TxID]
		if !ok {
			continue
		}
		d.ContractAddress = contract
		resolved = append(resolved, d)
	}
	return resolved, nil
}

func (r *Reader) fetchContracts(ctx context.Context, txIDs []string) (map[string]string, error) {
	requests := make([]types.JSONRPCRequest, len(txIDs))
	for i, txID := range txIDs {
		requests[i] = jsonrpc.NewRequest(i+1, MethodGetContractAddressFromTransactionID, txID)
	}

	responses, err := r.client.Send(ctx, requests)
	if err != nil {
		return nil, err
	}
	byID, err := jsonrpc.IndexByID(responses)
	if err != nil {
		return nil, err
	}

	if missing := countMissing(byID, len(txIDs)); missing > 0 {
		return nil, types.NewMissingResponsesError(MethodGetContractAddressFromTransactionID, missing, len(txIDs))
	}

	contracts := make(map[string]string, len(txIDs))
	for i, txID := range txIDs {
		res := byID[i+1]

		var contract string
		if err := res.Decode(&contract); err != nil {
			r.logger.Warn("cannot resolve contract", slog.String("tx_id", txID), slog.Any("error", err))
			continue
		}
		contracts[txID] = strings.TrimPrefix(strings.ToLower(contract), "0x")
	}
	return contracts, nil
}

// countMissing counts the ids 1..n that have no response.
func countMissing(byID map[int]types.JSONRPCResponse, n int) int {
	missing := 0
	for id := 1; id <= n; id++ {
		if _, ok := byID[id]; !ok {
			missing++
		}
	}
	return missing
}

func (r *Reader) deploymentFromTx(tx txnBody, block uint64) (Deployment, bool) {
	if strings.TrimPrefix(strings.ToLower(tx.ToAddr), "0x") != address.ZeroAddress || !tx.Receipt.Success {
		return Deployment{}, false
	}
	if tx.ID == "" {
		return Deployment{}, false
	}

	pubKey, err := AdminPubKey(tx.Data)
	if err != nil {
		r.logger.Debug("deployment without admin key", slog.String("tx_id", tx.ID), slog.Any("error", err))
		return Deployment{}, false
	}

	owner, err := address.FromPublicKey(pubKey)
	if err != nil {
		return Deployment{}, false
	}
	ownerText, err := address.ToBech32(r.prefix, owner)
	if err != nil {
		return Deployment{}, false
	}

	return Deployment{
		TxID:         tx.ID,
		Height:       block,
		OwnerAddress: owner,
		OwnerBech32:  ownerText,
	}, true
}

// AdminPubKey extracts the init_admin_pubkey value from the JSON init list a
// deployment transaction carries in its data field.
func AdminPubKey(data string) (string, error) {
	if data == "" {
		return "", types.NewMalformedResponseError("deployment has no init data", nil)
	}

	var params []initParam
	if err := json.Unmarshal([]byte(data), &params); err != nil {
		return "", types.NewMalformedResponseError("init data is not a parameter list", err)
	}

	for _, p := range params {
		if p.VName != InitAdminPubKey {
			continue
		}
		var pubKey string
		if err := json.Unmarshal(p.Value, &pubKey); err != nil || len(pubKey) < MinPubKeyHexLength {
			return "", types.NewMalformedResponseError(fmt.Sprintf("%s is not a public key", InitAdminPubKey), err)
		}
		return pubKey, nil
	}
	return "", types.NewMalformedResponseError(fmt.Sprintf("init has no %s", InitAdminPubKey), nil)
}

func parseReserve(s string) (*big.Int, bool) {
	if s == "" || s[0] == '-' || s[0] == '+' {
		return nil, false
	}
	return new(big.Int).SetString(s, 10)
}
