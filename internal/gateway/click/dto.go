package click

// PrepareRequest is the form payload of the prepare webhook. Amount arrives
// as a major-unit decimal string and is only converted after the signature
// check passes.
type PrepareRequest struct {
	ClickTransID    int64  `form:"click_trans_id"`
	ServiceID       string `form:"service_id"`
	ClickPaydocID   int64  `form:"click_paydoc_id"`
	MerchantTransID string `form:"merchant_trans_id"`
	Amount          string `form:"amount"`
	Action          int    `form:"action"`
	Error           int    `form:"error"`
	ErrorNote       string `form:"error_note"`
	SignTime        string `form:"sign_time"`
	SignString      string `form:"sign_string"`
}

// CompleteRequest is the form payload of the complete webhook
type CompleteRequest struct {
	ClickTransID      int64  `form:"click_trans_id"`
	ServiceID         string `form:"service_id"`
	ClickPaydocID     int64  `form:"click_paydoc_id"`
	MerchantTransID   string `form:"merchant_trans_id"`
	MerchantPrepareID int64  `form:"merchant_prepare_id"`
	Amount            string `form:"amount"`
	Action            int    `form:"action"`
	Error             int    `form:"error"`
	ErrorNote         string `form:"error_note"`
	SignTime          string `form:"sign_time"`
	SignString        string `form:"sign_string"`
}

// PrepareResponse is the flat prepare response body
type PrepareResponse struct {
	ClickTransID      int64  `json:"click_trans_id"`
	MerchantTransID   string `json:"merchant_trans_id"`
	MerchantPrepareID int64  `json:"merchant_prepare_id"`
	Error             int    `json:"error"`
	ErrorNote         string `json:"error_note"`
}

// CompleteResponse is the flat complete response body
type CompleteResponse struct {
	ClickTransID      int64  `json:"click_trans_id"`
	MerchantTransID   string `json:"merchant_trans_id"`
	MerchantConfirmID int64  `json:"merchant_confirm_id"`
	Error             int    `json:"error"`
	ErrorNote         string `json:"error_note"`
}
