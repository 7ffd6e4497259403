package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. Header reads and idle keep-alives are bounded;
// request bodies are not, since certificate batch issuance can run long.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
