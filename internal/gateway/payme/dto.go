package payme

import (
	"encoding/json"
	"strconv"

	"github.com/khiva-labs/hotelier/internal/domain"
)

// Request is the inbound JSON-RPC envelope. The gateway sends {id, method,
// params}; params shape depends on the method.
type Request struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params Params          `json:"params"`
}

// Params is the union of all method parameter sets
type Params struct {
	ID      string         `json:"id"`
	Time    int64          `json:"time"`
	Amount  int64          `json:"amount"`
	Account map[string]any `json:"account"`
	Reason  *int           `json:"reason"`
	From    int64          `json:"from"`
	To      int64          `json:"to"`
}

// BookingID extracts and parses the configured account field. The gateway
// forwards account values as the payer typed them, so both string and number
// encodings arrive in the wild.
func (p Params) BookingID(accountField string) (int64, bool) {
	raw, exists := p.Account[accountField]
	if !exists {
		return 0, false
	}

	var id int64
	switch v := raw.(type) {
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		id = parsed
	case float64:
		id = int64(v)
	case json.Number:
		parsed, err := v.Int64()
		if err != nil {
			return 0, false
		}
		id = parsed
	default:
		return 0, false
	}

	if id <= 0 {
		return 0, false
	}
	return id, true
}

// Response is the outbound JSON-RPC envelope
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// CheckPerformResult is returned by CheckPerformTransaction
type CheckPerformResult struct {
	Allow bool `json:"allow"`
}

// CreateResult is returned by CreateTransaction
type CreateResult struct {
	CreateTime  int64             `json:"create_time"`
	Transaction string            `json:"transaction"`
	State       domain.PaymeState `json:"state"`
}

// PerformResult is returned by PerformTransaction
type PerformResult struct {
	PerformTime int64             `json:"perform_time"`
	Transaction string            `json:"transaction"`
	State       domain.PaymeState `json:"state"`
}

// CancelResult is returned by CancelTransaction
type CancelResult struct {
	CancelTime  int64             `json:"cancel_time"`
	Transaction string            `json:"transaction"`
	State       domain.PaymeState `json:"state"`
}

// CheckResult is returned by CheckTransaction
type CheckResult struct {
	CreateTime  int64             `json:"create_time"`
	PerformTime int64             `json:"perform_time"`
	CancelTime  int64             `json:"cancel_time"`
	Transaction string            `json:"transaction"`
	State       domain.PaymeState `json:"state"`
	Reason      *int              `json:"reason"`
}

// StatementResult is returned by GetStatement
type StatementResult struct {
	Transactions []StatementEntry `json:"transactions"`
}

// StatementEntry is one transaction in a statement
type StatementEntry struct {
	ID          string            `json:"id"`
	Time        int64             `json:"time"`
	Amount      int64             `json:"amount"`
	Account     map[string]string `json:"account"`
	CreateTime  int64             `json:"create_time"`
	PerformTime int64             `json:"perform_time"`
	CancelTime  int64             `json:"cancel_time"`
	Transaction string            `json:"transaction"`
	State       domain.PaymeState `json:"state"`
	Reason      *int              `json:"reason"`
}
