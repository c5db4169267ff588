package mid

import (
	"context"
	"net/http"

	"github.com/ardanlabs/archive/foundation/web"
)

// Cors sets the response headers needed for Cross-Origin Resource Sharing so
// the browser terminal can read the archive from another origin.
func Cors(origin string) web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Origin, Accept, Content-Type, Content-Length, Accept-Encoding, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag, X-Archive-Source")

			return handler(ctx, w, r)
		}

		return h
	}

	return m
}
