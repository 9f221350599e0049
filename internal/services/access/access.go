// Package access отдаёт статус доступа пользователя.
//
// Профиль и число оставшихся дней кэшируются на короткое время, но сам статус
// вычисляется заново при каждом чтении, поэтому истечение пробного периода
// видно сразу, без ожидания инвалидации кэша.
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/minigestor/internal/entitlement"
	"github.com/magabrotheeeer/minigestor/internal/lib/sl"
	"github.com/magabrotheeeer/minigestor/internal/models"
	"github.com/magabrotheeeer/minigestor/internal/storage/repository"
)

// ProfileRepository источник профилей.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userUID string) (*models.Profile, error)
	TrialDaysRemaining(ctx context.Context, userUID string) (int, error)
}

// Cache версионируемый кэш снимков профиля.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Version(ctx context.Context, key string) (int64, error)
	SetIfVersion(ctx context.Context, key string, version int64, value any, expiration time.Duration) (bool, error)
	Invalidate(ctx context.Context, key string) error
}

type cachedProfile struct {
	Profile       *models.Profile `json:"profile"`
	DaysRemaining int             `json:"days_remaining"`
}

// Service читает профиль и вычисляет статус доступа.
type Service struct {
	log      *slog.Logger
	profiles ProfileRepository
	cache    Cache
	ttl      time.Duration
	now      func() time.Time
}

// NewService создаёт Service. cache может быть nil.
func NewService(log *slog.Logger, profiles ProfileRepository, cache Cache, ttl time.Duration) *Service {
	return &Service{
		log:      log,
		profiles: profiles,
		cache:    cache,
		ttl:      ttl,
		now:      time.Now,
	}
}

// CacheKey ключ кэша профиля пользователя.
func CacheKey(userUID string) string {
	return "profile:" + userUID
}

// Snapshot загружает профиль. Отсутствие профиля не ошибка: возвращается
// снимок в состоянии Missing.
func (s *Service) Snapshot(ctx context.Context, userUID string) (entitlement.Snapshot, error) {
	const op = "access.Snapshot"
	log := s.log.With(slog.String("op", op), slog.String("user_uid", userUID))

	// Версия читается до похода в хранилище: если профиль изменят и
	// инвалидируют, пока идёт чтение, старый снимок в кэш не попадёт.
	version, cacheable := int64(0), false
	if s.cache != nil {
		var cached cachedProfile
		found, err := s.cache.Get(ctx, CacheKey(userUID), &cached)
		if err != nil {
			log.Warn("profile cache read failed", sl.Err(err))
		}
		if found && cached.Profile != nil {
			return entitlement.Snapshot{State: entitlement.Loaded, Profile: cached.Profile, DaysRemaining: cached.DaysRemaining}, nil
		}
		if version, err = s.cache.Version(ctx, CacheKey(userUID)); err != nil {
			log.Warn("profile cache version read failed", sl.Err(err))
		} else {
			cacheable = true
		}
	}

	profile, err := s.profiles.GetProfile(ctx, userUID)
	if errors.Is(err, repository.ErrProfileNotFound) {
		return entitlement.Snapshot{State: entitlement.Missing}, nil
	}
	if err != nil {
		return entitlement.Snapshot{State: entitlement.Loading}, fmt.Errorf("%s: %w", op, err)
	}
	days, err := s.profiles.TrialDaysRemaining(ctx, userUID)
	if err != nil {
		return entitlement.Snapshot{State: entitlement.Loading}, fmt.Errorf("%s: %w", op, err)
	}

	if cacheable {
		stored, err := s.cache.SetIfVersion(ctx, CacheKey(userUID), version, cachedProfile{Profile: profile, DaysRemaining: days}, s.ttl)
		if err != nil {
			log.Warn("profile cache write failed", sl.Err(err))
		} else if !stored {
			log.Debug("profile changed while loading, cache write skipped")
		}
	}
	return entitlement.Snapshot{State: entitlement.Loaded, Profile: profile, DaysRemaining: days}, nil
}

// Status вычисляет статус доступа на текущий момент.
//
// При ошибке чтения возвращается предварительный статус вместе с ошибкой:
// его можно показать, но нельзя использовать для разрешения изменений.
func (s *Service) Status(ctx context.Context, userUID string) (entitlement.Status, error) {
	snap, err := s.Snapshot(ctx, userUID)
	if err != nil {
		return entitlement.Provisional(), err
	}
	return snap.Resolve(s.now()), nil
}

// Invalidate сбрасывает кэш профиля после его изменения.
func (s *Service) Invalidate(ctx context.Context, userUID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, CacheKey(userUID)); err != nil {
		s.log.Warn("profile cache invalidation failed",
			slog.String("op", "access.Invalidate"),
			slog.String("user_uid", userUID),
			sl.Err(err))
	}
}
