package plugins

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOperationType(t *testing.T) {
	testcases := map[string]string{
		"":                                  "UNKNOWN",
		"  select * from token_quote":       "SELECT",
		"INSERT INTO `dex_pool` VALUES (1)": "INSERT",
		"UPDATE seq_info SET sequence = 1":  "UPDATE",
		"DELETE FROM dex_pool":              "DELETE",
		"CREATE TABLE deployment (id int)":  "CREATE",
		"PRAGMA foreign_keys = ON":          "OTHER",
	}
	for sql, expected := range testcases {
		require.Equal(t, expected, OperationType(sql), "sql %q", sql)
	}
}

func TestTableFromSQL(t *testing.T) {
	require.Equal(t, "token_quote", TableFromSQL(`SELECT * FROM "token_quote" WHERE token_address = $1`))
	require.Equal(t, "dex_pool", TableFromSQL("INSERT INTO `dex_pool` (`token_address`) VALUES (?)"))
	require.Equal(t, "dex_pool", TableFromSQL(`DELETE FROM "dex_pool" WHERE token_address NOT IN ($1)`))
	require.Equal(t, "seq_info", TableFromSQL(`UPDATE "seq_info" SET "sequence"=$1`))
	require.Equal(t, "", TableFromSQL("PRAGMA foreign_keys = ON"))
}
