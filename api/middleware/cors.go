package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

const localDevOrigin = "http://localhost:5173"

// CORS returns middleware that allows the frontend origin plus local dev.
func CORS(frontendURL string) func(http.Handler) http.Handler {
	origins := []string{localDevOrigin, "http://localhost:3000"}
	if u := strings.TrimRight(strings.TrimSpace(frontendURL), "/"); u != "" {
		origins = append(origins, u)
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
