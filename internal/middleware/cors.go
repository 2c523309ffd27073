package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// BootstrapHeader marks a client's startup probe. The server only needs to
// let it through CORS; its meaning lives entirely in the client.
const BootstrapHeader = "X-Auth-Bootstrap"

// CORS allows the configured site origins with credentials, since the whole
// session rides on cookies.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"http://localhost:4200"}
	}

	handler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{
			"Content-Type",
			"X-Requested-With",
			CSRFHeader,
			BootstrapHeader,
		},
		ExposedHeaders:   []string{"X-Request-ID"},
		MaxAge:           600,
		AllowCredentials: true,
	})

	return handler.Handler
}
