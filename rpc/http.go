// Package rpc exposes the platform workflows over JSON-RPC 2.0. Caller
// identity arrives as an already-verified principal address supplied by the
// host gateway; this layer does no signature checking of its own.
package rpc

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"crowdledger/core/types"
	"crowdledger/native/platform"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeRateLimited    = -32020
)

// Server dispatches JSON-RPC requests onto the platform engine.
type Server struct {
	engine  *platform.Engine
	limiter *rate.Limiter
}

// NewServer constructs an RPC server over the supplied engine. The limiter
// bounds mutating request throughput across all callers.
func NewServer(engine *platform.Engine) *Server {
	return &Server{
		engine:  engine,
		limiter: rate.NewLimiter(rate.Limit(50), 100),
	}
}

// Handler returns the HTTP mux serving the RPC endpoint alongside metrics
// and health probes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
	return mux
}

// RPCRequest is the JSON-RPC 2.0 request envelope.
type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

// RPCResponse is the JSON-RPC 2.0 response envelope.
type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError carries a failure reason back to the caller.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeRPCError(w, nil, codeParseError, "unable to read request body")
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeRPCError(w, nil, codeParseError, "invalid JSON payload")
		return
	}
	if req.JSONRPC != jsonRPCVersion {
		writeRPCError(w, req.ID, codeInvalidRequest, "jsonrpc must be 2.0")
		return
	}
	if mutatesState(req.Method) && !s.limiter.Allow() {
		writeRPCError(w, req.ID, codeRateLimited, "rate limit exceeded")
		return
	}
	s.dispatch(w, &req)
}

func mutatesState(method string) bool {
	switch method {
	case "platform_upload", "platform_like", "platform_dislike",
		"platform_harvest", "platform_delete", "platform_voluntarilyDelete",
		"platform_reply", "platform_withdraw",
		"identity_createUser", "identity_updateMetadata":
		return true
	}
	return false
}

func (s *Server) dispatch(w http.ResponseWriter, req *RPCRequest) {
	switch req.Method {
	case "platform_upload":
		s.handleUpload(w, req)
	case "platform_like":
		s.handleLike(w, req)
	case "platform_dislike":
		s.handleDislike(w, req)
	case "platform_harvest":
		s.handleHarvest(w, req)
	case "platform_delete":
		s.handleDelete(w, req)
	case "platform_voluntarilyDelete":
		s.handleVoluntarilyDelete(w, req)
	case "platform_reply":
		s.handleReply(w, req)
	case "platform_withdraw":
		s.handleWithdraw(w, req)
	case "identity_createUser":
		s.handleCreateUser(w, req)
	case "identity_updateMetadata":
		s.handleUpdateMetadata(w, req)
	case "identity_getProfile":
		s.handleGetProfile(w, req)
	case "identity_usernameOwner":
		s.handleUsernameOwner(w, req)
	case "activity_currentMAU":
		s.handleCurrentMAU(w, req)
	case "activity_historicMAU":
		s.handleHistoricMAU(w, req)
	case "content_get":
		s.handleContentGet(w, req)
	case "content_libraryLength":
		s.handleLibraryLength(w, req)
	case "content_repliesOf":
		s.handleRepliesOf(w, req)
	case "content_repliedBy":
		s.handleRepliedBy(w, req)
	default:
		writeRPCError(w, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %q", req.Method))
	}
}

func parseParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) == 0 {
		return fmt.Errorf("params required")
	}
	return json.Unmarshal(req.Params[0], out)
}

func parseAddress(raw string) (types.Address, error) {
	trimmed := strings.TrimSpace(raw)
	if !common.IsHexAddress(trimmed) {
		return types.Address{}, fmt.Errorf("invalid address %q", raw)
	}
	return common.HexToAddress(trimmed), nil
}

func parseHash(raw string) (types.Hash, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return types.ZeroHash, nil
	}
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		trimmed = trimmed[2:]
	}
	if len(trimmed) != 64 {
		return types.ZeroHash, fmt.Errorf("digest must be 32 bytes")
	}
	return common.HexToHash(trimmed), nil
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func writeRPCError(w http.ResponseWriter, id interface{}, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(RPCResponse{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	})
}

func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	writeRPCError(w, id, codeServerError, err.Error())
}
