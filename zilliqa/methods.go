package zilliqa

// JSON-RPC methods of the Zilliqa API used by Reader.
const (
	MethodGetNetworkID                        = "GetNetworkId"
	MethodGetBlockchainInfo                   = "GetBlockchainInfo"
	MethodGetNumTxBlocks                      = "GetNumTxBlocks"
	MethodGetBalance                          = "GetBalance"
	MethodGetSmartContractState               = "GetSmartContractState"
	MethodGetSmartContractSubState            = "GetSmartContractSubState"
	MethodGetSmartContractInit                = "GetSmartContractInit"
	MethodGetTxnBodiesForTxBlock              = "GetTxnBodiesForTxBlock"
	MethodGetContractAddressFromTransactionID = "GetContractAddressFromTransactionID"
)

const (
	PoolsField         = "pools"
	InitAdminPubKey    = "init_admin_pubkey"
	MinPubKeyHexLength = 68 // 0x plus a 33-byte compressed key
)
