package click

// Gateway error vocabulary. Success is 0; every failure condition has its
// own fixed negative code, returned in the flat response body with HTTP 200.
const (
	CodeSuccess          = 0
	CodeSignatureFailed  = -1
	CodeInvalidAmount    = -2
	CodeActionNotFound   = -3
	CodeAlreadyPaid      = -4
	CodeOrderNotFound    = -5
	CodeTransactionError = -6
	CodeBadRequest       = -8
	CodeCancelled        = -9
)

var errorNotes = map[int]string{
	CodeSuccess:          "Success",
	CodeSignatureFailed:  "SIGN CHECK FAILED",
	CodeInvalidAmount:    "Incorrect parameter amount",
	CodeActionNotFound:   "Action not found",
	CodeAlreadyPaid:      "Already paid",
	CodeOrderNotFound:    "Order not found",
	CodeTransactionError: "Transaction error",
	CodeBadRequest:       "Error in request",
	CodeCancelled:        "Transaction cancelled",
}

func errorNote(code int) string {
	return errorNotes[code]
}
