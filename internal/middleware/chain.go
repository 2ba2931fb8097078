package middleware

import (
	"encoding/json"
	"net/http"
)

// Chain applies middleware in the order given: the first one sees the request first.
//
//	handler := Chain(mux,
//	    Config(cfg),      // executes first
//	    RequestLogging,   // executes second
//	)
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
