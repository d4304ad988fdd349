package api

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/kilianp07/omnidispatch/api/respond"
	"github.com/kilianp07/omnidispatch/core/logger"
	"github.com/kilianp07/omnidispatch/core/monitoring"
)

// withCORS answers preflight requests and tags responses for allowed
// origins. An origin list containing "*" allows every origin.
func withCORS(next http.Handler, origins []string) http.Handler {
	allowAll := slices.Contains(origins, "*")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowAll || slices.Contains(origins, origin)) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
					h.Set("Access-Control-Allow-Headers", req)
				}
				h.Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// withRecover turns a handler panic into a 500 and reports it.
func withRecover(next http.Handler, log logger.Logger) http.Handler {
	log = logger.OrNop(log)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err := fmt.Errorf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
			log.Errorf("%v", err)
			monitoring.CaptureException(err, map[string]string{"module": "api", "path": r.URL.Path})
			respond.Error(w, err)
		}()
		next.ServeHTTP(w, r)
	})
}
