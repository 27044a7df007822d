package service

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"avatarapi/internal/domain"
	"avatarapi/internal/infra"
)

// UnknownCountry is stored when the caller supplies no country and no
// fallback resolver produced one.
const UnknownCountry = "unknown"

// ImageGenerator is the provider contract consumed by the generation service.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// Generation orchestrates quota check, provider call, and persistence as one
// logical operation. The pipeline is all-or-nothing from the caller's view: a
// record exists iff the provider call succeeded and the insert was durable.
//
// Invocations for the same user are serialized with a per-user mutex held
// across all three steps, which closes the check-then-insert race within a
// single process. Across processes the race remains open; no multi-document
// transaction spans the check and the insert.
type Generation struct {
	quota     *QuotaGuard
	generator ImageGenerator
	repo      domain.AvatarRepository
	logger    *infra.Logger
	now       func() time.Time

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

// NewGeneration wires the generation pipeline. A nil logger is replaced with
// a discard logger.
func NewGeneration(quota *QuotaGuard, generator ImageGenerator, repo domain.AvatarRepository, logger *infra.Logger) *Generation {
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Generation{
		quota:     quota,
		generator: generator,
		repo:      repo,
		logger:    logger,
		now:       time.Now,
		userLocks: make(map[string]*sync.Mutex),
	}
}

// StoreUserAvatar runs the generate-and-store pipeline for one request.
//
// Failure contract: a quota denial makes no provider call; any provider
// failure writes no record and consumes no quota; a failed insert discards
// the generated bytes so the caller never receives an image that was not
// durably recorded.
func (s *Generation) StoreUserAvatar(ctx context.Context, userID, country, prompt string) (*domain.AvatarRecord, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, domain.ErrInvalidPrompt
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.quota.CheckAndReserve(ctx, userID); err != nil {
		return nil, err
	}

	img, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	record := &domain.AvatarRecord{
		UserID:     userID,
		Country:    normalizeCountry(country),
		Prompt:     prompt,
		ImageBytes: img,
		CreatedAt:  s.now().UTC(),
	}
	id, err := s.repo.Insert(ctx, record)
	if err != nil {
		return nil, err
	}
	record.ID = id

	s.logger.Info().
		Str("user_id", userID).
		Int("bytes", len(img)).
		Msg("stored generated avatar")

	return record, nil
}

// GetQuota returns the derived quota state for the user.
func (s *Generation) GetQuota(ctx context.Context, userID string) (domain.QuotaState, error) {
	return s.quota.Count(ctx, userID)
}

// ListAvatars returns the user's stored records ordered by recency.
func (s *Generation) ListAvatars(ctx context.Context, userID string) ([]domain.AvatarRecord, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Generation) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	return lock
}

// normalizeCountry tidies the informational country field: short values are
// treated as ISO codes and uppercased, longer free text is title-cased, and a
// missing value becomes "unknown".
func normalizeCountry(country string) string {
	country = strings.TrimSpace(country)
	if country == "" {
		return UnknownCountry
	}
	if len(country) <= 3 {
		return strings.ToUpper(country)
	}
	return cases.Title(language.Und).String(country)
}
