package handlers

import "net/http"

// HandleHealth is a liveness probe. It reports "ok" whenever the
// process is serving, regardless of wizard state.
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
