package domain

import "time"

// QuotaLimit is the fixed number of successful generations allowed per user.
// The count of stored records is the authoritative usage; no separate counter
// exists, so quota and storage cannot silently diverge.
const QuotaLimit = 10

// AvatarRecord represents one persisted generation result. Records are
// written exactly once after a successful provider call and are never
// updated or deleted.
type AvatarRecord struct {
	ID         string    `bson:"_id,omitempty" json:"id,omitempty"`
	UserID     string    `bson:"user_id" json:"user_id"`
	Country    string    `bson:"country" json:"country"`
	Prompt     string    `bson:"prompt" json:"prompt"`
	ImageBytes []byte    `bson:"image_binary" json:"-"`
	CreatedAt  time.Time `bson:"timestamp" json:"timestamp"`
}

// QuotaState is derived on demand from the record count for a user.
type QuotaState struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

// NewQuotaState computes the quota view for a given usage count.
func NewQuotaState(used int) QuotaState {
	remaining := QuotaLimit - used
	if remaining < 0 {
		remaining = 0
	}
	return QuotaState{Used: used, Limit: QuotaLimit, Remaining: remaining}
}
