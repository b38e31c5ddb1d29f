package payme

// Error is a JSON-RPC error payload in the gateway's own vocabulary. The
// gateway retries on codes in the -31050..-31099 range only when told to, so
// each condition maps to its fixed code.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	CodeUnauthorized       = -32504
	CodeMethodNotFound     = -32601
	CodeParseError         = -32700
	CodeInvalidAmount      = -31001
	CodeTransactionMissing = -31003
	CodeUnableToPerform    = -31008
	CodeOrderNotFound      = -31050
	CodeOrderAlreadyPaid   = -31051
	CodeOrderCancelled     = -31052
	CodeAlreadyProcessed   = -31053
)

var (
	errUnauthorized       = &Error{Code: CodeUnauthorized, Message: "insufficient privileges"}
	errMethodNotFound     = &Error{Code: CodeMethodNotFound, Message: "method not found"}
	errParse              = &Error{Code: CodeParseError, Message: "parse error"}
	errInvalidAmount      = &Error{Code: CodeInvalidAmount, Message: "invalid amount"}
	errTransactionMissing = &Error{Code: CodeTransactionMissing, Message: "transaction not found"}
	errUnableToPerform    = &Error{Code: CodeUnableToPerform, Message: "unable to perform operation"}
	errOrderNotFound      = &Error{Code: CodeOrderNotFound, Message: "order not found"}
	errOrderAlreadyPaid   = &Error{Code: CodeOrderAlreadyPaid, Message: "order already paid"}
	errOrderCancelled     = &Error{Code: CodeOrderCancelled, Message: "order cancelled"}
	errAlreadyProcessed   = &Error{Code: CodeAlreadyProcessed, Message: "transaction already processed"}
)
