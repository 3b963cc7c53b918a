package util

import (
	"net/http"
	"strings"
)

// GatewayPrefixes are the per service prefixes a gateway in front of the api may add.
var GatewayPrefixes = []string{
	"/file-upload",
	"/file-metadata",
	"/file-conversion",
	"/file-download",
}

// GatewayApiRewrite removes a gateway prefix from the path so
// /file-download/download/{id} is served as /download/{id}.
func GatewayApiRewrite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range GatewayPrefixes {
			rest, ok := strings.CutPrefix(r.URL.Path, prefix)
			if !ok || (rest != "" && !strings.HasPrefix(rest, "/")) {
				continue
			}
			if rest == "" {
				rest = "/"
			}
			r.URL.Path = rest
			r.URL.RawPath = ""
			break
		}

		next.ServeHTTP(w, r)
	})
}
