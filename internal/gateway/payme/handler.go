package payme

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler terminates the gateway's single JSON-RPC endpoint. The credential
// check runs before the body is parsed, and every code path resolves to a
// protocol-correct envelope; the gateway never sees a bare HTTP error.
type Handler struct {
	service    *Service
	merchantID string
	secretKey  string
	logger     *zap.Logger
}

// NewHandler creates a new webhook handler
func NewHandler(service *Service, merchantID, secretKey string, logger *zap.Logger) *Handler {
	return &Handler{
		service:    service,
		merchantID: merchantID,
		secretKey:  secretKey,
		logger:     logger,
	}
}

// RegisterRoutes mounts the webhook endpoint
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.POST("/webhooks/payme", h.Handle)
}

// Handle dispatches a JSON-RPC request
func (h *Handler) Handle(c *gin.Context) {
	if !h.authorized(c.GetHeader("Authorization")) {
		h.respond(c, nil, nil, errUnauthorized)
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.respond(c, nil, nil, errParse)
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		h.respond(c, nil, nil, errParse)
		return
	}

	ctx := c.Request.Context()
	var result any
	var gwErr *Error

	switch req.Method {
	case "CheckPerformTransaction":
		result, gwErr = h.service.CheckPerformTransaction(ctx, req.Params)
	case "CreateTransaction":
		result, gwErr = h.service.CreateTransaction(ctx, req.Params)
	case "PerformTransaction":
		result, gwErr = h.service.PerformTransaction(ctx, req.Params)
	case "CancelTransaction":
		result, gwErr = h.service.CancelTransaction(ctx, req.Params)
	case "CheckTransaction":
		result, gwErr = h.service.CheckTransaction(ctx, req.Params)
	case "GetStatement":
		result, gwErr = h.service.GetStatement(ctx, req.Params)
	default:
		gwErr = errMethodNotFound
	}

	if gwErr != nil {
		h.logger.Warn("gateway request rejected",
			zap.String("method", req.Method),
			zap.Int("code", gwErr.Code))
	}
	h.respond(c, req.ID, result, gwErr)
}

// authorized verifies the Basic credential against the configured merchant
// identity. Comparison is constant time; the credential itself is never
// logged.
func (h *Handler) authorized(header string) bool {
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return false
	}

	login, password, found := strings.Cut(string(decoded), ":")
	if !found {
		return false
	}

	loginOK := subtle.ConstantTimeCompare([]byte(login), []byte(h.merchantID)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(password), []byte(h.secretKey)) == 1
	return loginOK && passwordOK
}

func (h *Handler) respond(c *gin.Context, id json.RawMessage, result any, gwErr *Error) {
	resp := Response{JSONRPC: "2.0", ID: id}
	if gwErr != nil {
		resp.Error = gwErr
	} else {
		resp.Result = result
	}
	// The gateway expects HTTP 200 for both success and protocol errors.
	c.JSON(http.StatusOK, resp)
}
