// Package web serves the static landing page and crawler assets embedded at
// build time.
package web

import (
	_ "embed"
	"net/http"
)

//go:embed index.html
var indexHTML []byte

//go:embed robots.txt
var robotsTxt []byte

// IndexHandler serves the landing page at the web root. The page is static;
// an hour of caching with revalidation is plenty.
func IndexHandler() http.Handler {
	return staticHandler(indexHTML, "text/html; charset=utf-8", "public, max-age=3600, must-revalidate")
}

// RobotsHandler serves robots.txt, keeping crawlers off the API surface.
func RobotsHandler() http.Handler {
	return staticHandler(robotsTxt, "text/plain; charset=utf-8", "public, max-age=86400")
}

func staticHandler(body []byte, contentType, cacheControl string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", cacheControl)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	})
}
