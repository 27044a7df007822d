package service

import (
	"context"

	"avatarapi/internal/domain"
)

// QuotaGuard enforces the fixed per-user generation cap against the persisted
// record history. The stored count is the only source of truth; there is no
// separate counter to drift.
type QuotaGuard struct {
	repo domain.AvatarRepository
}

// NewQuotaGuard constructs a quota guard over the given repository.
func NewQuotaGuard(repo domain.AvatarRepository) *QuotaGuard {
	return &QuotaGuard{repo: repo}
}

// CheckAndReserve reports whether the user may generate another avatar. It is
// a check, not a reservation: no placeholder record is written. Callers that
// need atomicity across the check and the insert must serialize around it.
func (g *QuotaGuard) CheckAndReserve(ctx context.Context, userID string) error {
	used, err := g.repo.CountByUser(ctx, userID)
	if err != nil {
		return err
	}
	if used >= domain.QuotaLimit {
		return domain.ErrQuotaExceeded
	}
	return nil
}

// Count returns the current quota view for the user.
func (g *QuotaGuard) Count(ctx context.Context, userID string) (domain.QuotaState, error) {
	used, err := g.repo.CountByUser(ctx, userID)
	if err != nil {
		return domain.QuotaState{}, err
	}
	return domain.NewQuotaState(used), nil
}
