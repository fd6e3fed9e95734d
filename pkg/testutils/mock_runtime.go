package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
)

// RPCHandler produces the result for one JSON-RPC method call. A returned
// error becomes a JSON-RPC error response.
type RPCHandler func(params []json.RawMessage) (interface{}, error)

// MockRuntime is an HTTP JSON-RPC endpoint standing in for a runtime node.
// Unhandled methods yield a method-not-found error.
type MockRuntime struct {
	server *httptest.Server

	mu       sync.Mutex
	handlers map[string]RPCHandler
	calls    map[string]int
}

// NewMockRuntime starts the mock endpoint. Callers must Close it.
func NewMockRuntime() *MockRuntime {
	m := &MockRuntime{
		handlers: make(map[string]RPCHandler),
		calls:    make(map[string]int),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.serve))
	return m
}

// Handle registers the handler for a method.
func (m *MockRuntime) Handle(method string, handler RPCHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[method] = handler
}

// HandleResult registers a handler returning a fixed result.
func (m *MockRuntime) HandleResult(method string, result interface{}) {
	m.Handle(method, func([]json.RawMessage) (interface{}, error) {
		return result, nil
	})
}

// Calls reports how many times a method has been invoked.
func (m *MockRuntime) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// URL returns the endpoint address.
func (m *MockRuntime) URL() string {
	return m.server.URL
}

// Close shuts the endpoint down.
func (m *MockRuntime) Close() {
	m.server.Close()
}

type rpcRequest struct {
	Version string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

// Result is always present, a null result means "not found". Clients treat
// a missing result field as a protocol error.
type rpcResponse struct {
	Version string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (m *MockRuntime) serve(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.calls[req.Method]++
	handler, ok := m.handlers[req.Method]
	m.mu.Unlock()

	resp := rpcResponse{Version: "2.0", ID: req.ID}
	if !ok {
		resp.Error = &rpcError{Code: -32601, Message: "the method " + req.Method + " does not exist"}
	} else if result, err := handler(req.Params); err != nil {
		resp.Error = &rpcError{Code: -32000, Message: err.Error()}
	} else {
		resp.Result = result
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(&resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
