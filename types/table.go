package types

import (
	"time"
)

type Table struct {
	Model interface{}
	Name  string
}

// CollectedSeqInfo stores named cursors, e.g. the last scanned tx block.
type CollectedSeqInfo struct {
	Name     string `gorm:"type:text;primaryKey"`
	Sequence int64  `gorm:"type:bigint"`
}

// CollectedTokenQuote is the latest quote of a token against the reference asset.
type CollectedTokenQuote struct {
	TokenAddress string    `gorm:"type:text;primaryKey"`
	AmountOut    string    `gorm:"type:text"`
	EthPrice     float64   `gorm:"type:double precision"`
	Timestamp    time.Time `gorm:"index:token_quote_timestamp_desc,sort:desc"`
}

// CollectedDexPool is a liquidity pool snapshot with both reserves non-zero.
type CollectedDexPool struct {
	TokenAddress string    `gorm:"type:text;primaryKey"`
	ZilReserve   string    `gorm:"type:text"`
	TokenReserve string    `gorm:"type:text"`
	UpdatedAt    time.Time
}

// CollectedDeployment links a deployed contract to the owner derived from its
// init_admin_pubkey.
type CollectedDeployment struct {
	TxID            string `gorm:"type:text;primaryKey"`
	ContractAddress string `gorm:"type:text;index:deployment_contract"`
	OwnerAddress    string `gorm:"type:text;index:deployment_owner"`
	OwnerBech32     string `gorm:"type:text"`
	Height          int64  `gorm:"type:bigint;index:deployment_height"`
}

const SeqInfoScanHeight = "scan_height"

func (CollectedSeqInfo) TableName() string {
	return "seq_info"
}

func (CollectedTokenQuote) TableName() string {
	return "token_quote"
}

func (CollectedDexPool) TableName() string {
	return "dex_pool"
}

func (CollectedDeployment) TableName() string {
	return "deployment"
}

// AllTables lists every model managed by the schema migration.
func AllTables() []Table {
	return []Table{
		{Model: &CollectedSeqInfo{}, Name: CollectedSeqInfo{}.TableName()},
		{Model: &CollectedTokenQuote{}, Name: CollectedTokenQuote{}.TableName()},
		{Model: &CollectedDexPool{}, Name: CollectedDexPool{}.TableName()},
		{Model: &CollectedDeployment{}, Name: CollectedDeployment{}.TableName()},
	}
}
