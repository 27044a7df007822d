package handlers

import (
	"context"
	"net/http"
	"time"
)

// Root responds with a liveness message.
func (a *App) Root(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"message": "Avatar API is running"})
}

// Health reports liveness plus a best-effort store reachability probe. The
// probe is diagnostic only; a failing store never flips liveness itself.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	if a.StorePing != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.StorePing(ctx); err != nil {
			status["storage"] = "unreachable"
		} else {
			status["storage"] = "ok"
		}
	}
	a.json(w, http.StatusOK, status)
}
