package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"avatarapi/internal/middleware"
)

type storeAvatarRequest struct {
	UserID  string `json:"user_id"`
	Country string `json:"country"`
	Prompt  string `json:"prompt"`
}

type storeAvatarResponse struct {
	Message     string    `json:"message"`
	Prompt      string    `json:"prompt"`
	ImageBase64 string    `json:"image_base64"`
	CreatedAt   time.Time `json:"created_at"`
}

// StoreUserAvatar handles POST /store-user-avatar: quota check, provider
// call, durable insert, then the encoded image back to the caller.
func (a *App) StoreUserAvatar(w http.ResponseWriter, r *http.Request) {
	var req storeAvatarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "user_id is required")
		return
	}

	country := strings.TrimSpace(req.Country)
	if country == "" {
		country = middleware.CountryFromContext(r.Context())
	}

	record, err := a.Service.StoreUserAvatar(r.Context(), req.UserID, country, req.Prompt)
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.json(w, http.StatusOK, storeAvatarResponse{
		Message:     "User and avatar details stored successfully!",
		Prompt:      record.Prompt,
		ImageBase64: base64.StdEncoding.EncodeToString(record.ImageBytes),
		CreatedAt:   record.CreatedAt,
	})
}

type avatarListItem struct {
	UserID      string    `json:"user_id"`
	Country     string    `json:"country"`
	Prompt      string    `json:"prompt"`
	Timestamp   time.Time `json:"timestamp"`
	ImageBase64 string    `json:"image_base64"`
}

// ListAvatars handles GET /avatars?userId=: the user's records newest first.
// Records with missing or corrupt image data are reported with an empty
// image field rather than failing the listing.
func (a *App) ListAvatars(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "userId is required")
		return
	}

	records, err := a.Service.ListAvatars(r.Context(), userID)
	if err != nil {
		a.writeError(w, err)
		return
	}

	items := make([]avatarListItem, 0, len(records))
	for _, rec := range records {
		items = append(items, avatarListItem{
			UserID:      rec.UserID,
			Country:     rec.Country,
			Prompt:      rec.Prompt,
			Timestamp:   rec.CreatedAt,
			ImageBase64: base64.StdEncoding.EncodeToString(rec.ImageBytes),
		})
	}
	a.json(w, http.StatusOK, items)
}

type avatarCountResponse struct {
	Count     int `json:"count"`
	Remaining int `json:"remaining"`
}

// AvatarCount handles GET /avatar-count?userId=: the derived quota state.
func (a *App) AvatarCount(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "userId is required")
		return
	}

	state, err := a.Service.GetQuota(r.Context(), userID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.json(w, http.StatusOK, avatarCountResponse{Count: state.Used, Remaining: state.Remaining})
}
