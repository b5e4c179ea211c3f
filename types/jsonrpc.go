package types

import (
	"encoding/json"
	"fmt"
)

const JSONRPCVersion = "2.0"

// JSONRPCRequest represents a JSON-RPC 2.0 request
type JSONRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response. Result is kept raw so
// an absent result can be told apart from a zero value.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
	ID      int             `json:"id"`
}

// HasResult reports whether the response carried a result member.
func (r JSONRPCResponse) HasResult() bool {
	return len(r.Result) > 0
}

// Valid reports whether the response carries either a result or an error.
func (r JSONRPCResponse) Valid() bool {
	return r.HasResult() || r.Error != nil
}

// Decode unmarshals the result into v, turning an RPC-level error into an
// RPC_ERROR and a missing result into MALFORMED_RESPONSE.
func (r JSONRPCResponse) Decode(v any) error {
	if r.Error != nil {
		return NewRPCError(r.ID, r.Error.Code, r.Error.Message)
	}
	if !r.HasResult() || string(r.Result) == "null" {
		return NewMalformedResponseError(fmt.Sprintf("response %d has no result", r.ID), nil)
	}
	if err := json.Unmarshal(r.Result, v); err != nil {
		return NewMalformedResponseError(fmt.Sprintf("cannot decode result of response %d", r.ID), err)
	}
	return nil
}

type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
