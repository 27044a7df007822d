package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"avatarapi/internal/domain"
	"avatarapi/internal/infra"
	"avatarapi/internal/service"
)

// App is the handler container. Dependencies are injected once at startup;
// handlers hold no mutable state of their own.
type App struct {
	Service *service.Generation
	Logger  infra.Logger
	// StorePing is a best-effort reachability probe for the document store,
	// used only by the health endpoint. It never participates in the
	// generation pipeline.
	StorePing func(ctx context.Context) error
}

// NewApp wires the handler container.
func NewApp(svc *service.Generation, logger infra.Logger) *App {
	return &App{Service: svc, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func (a *App) error(w http.ResponseWriter, code int, kind, detail string) {
	a.json(w, code, errorResponse{Error: kind, Detail: detail})
}

// writeError maps pipeline failures onto stable error kinds and HTTP codes.
// No error is downgraded to success and no partial-success shape exists.
func (a *App) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidPrompt):
		a.error(w, http.StatusBadRequest, "bad_request", "prompt must not be empty")
	case errors.Is(err, domain.ErrQuotaExceeded):
		a.error(w, http.StatusForbidden, "quota_exceeded",
			fmt.Sprintf("Avatar generation limit (%d) reached for this user.", domain.QuotaLimit))
	case errors.Is(err, domain.ErrProviderQuotaExceeded):
		a.error(w, http.StatusServiceUnavailable, "provider_quota", "image provider quota exhausted, retry later")
	case errors.Is(err, domain.ErrProviderUnavailable):
		a.error(w, http.StatusServiceUnavailable, "provider_unavailable", "image provider unreachable, retry later")
	case errors.Is(err, domain.ErrProviderNoImageData):
		a.error(w, http.StatusBadGateway, "provider_no_image", "provider returned no image data for this prompt")
	case errors.Is(err, domain.ErrProviderRequestRejected):
		a.error(w, http.StatusBadGateway, "provider_rejected", err.Error())
	case errors.Is(err, domain.ErrStorageUnavailable):
		a.error(w, http.StatusServiceUnavailable, "storage_unavailable", "storage unreachable")
	case errors.Is(err, domain.ErrStorageWriteFailed):
		a.error(w, http.StatusInternalServerError, "storage_write_failed", "failed to store generated avatar")
	default:
		a.Logger.Error().Err(err).Msg("unhandled error")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
