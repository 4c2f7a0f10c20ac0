// Package apicors provides CORS middleware for the API-key routes under
// /api/maintenance. Those requests carry no cookies, so credentials are never
// allowed and any origin may be accepted.
package apicors

import (
	"net/http"
)

const (
	allowMethods = "GET, POST, OPTIONS"
	allowHeaders = "Authorization, Content-Type, Accept"
	maxAge       = "86400" // 24 hours
)

// Middleware allows any origin.
//
//	r.Route("/api/maintenance", func(r chi.Router) {
//	    r.Use(apicors.Middleware())
//	    r.Use(auth.APIKeyAuth(appCfg.APIKey, logger))
//	    r.Post("/sweep", h.HandleAPISweep)
//	})
func Middleware() func(http.Handler) http.Handler {
	return middleware(func(string) string { return "*" })
}

// MiddlewareWithOrigins echoes the Origin header back only when it is in
// allowedOrigins. Other origins get no Allow-Origin header and the browser
// blocks the response.
func MiddlewareWithOrigins(allowedOrigins ...string) func(http.Handler) http.Handler {
	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originSet[o] = struct{}{}
	}
	return middleware(func(origin string) string {
		if _, ok := originSet[origin]; ok {
			return origin
		}
		return ""
	})
}

func middleware(allow func(origin string) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if o := allow(r.Header.Get("Origin")); o != "" {
				h.Set("Access-Control-Allow-Origin", o)
				if o != "*" {
					h.Add("Vary", "Origin")
				}
			}
			h.Set("Access-Control-Allow-Methods", allowMethods)
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			h.Set("Access-Control-Max-Age", maxAge)

			// Preflight
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
