package service

import (
	"coachdesk/internal/domain"
	"coachdesk/internal/repository"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProfileCacheStore is the slice of the Redis profile cache the services
// need. Satisfied by *cache.ProfileCache; faked in tests.
type ProfileCacheStore interface {
	GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.User, []primitive.ObjectID, error)
	Set(ctx context.Context, user *domain.User) error
	Invalidate(ctx context.Context, id primitive.ObjectID) error
}

// profileLookup resolves batches of user profiles for the denormalizing joins
// (chat counterpart, roster entries). Cache first, then one $in query for the
// misses, then best-effort backfill. Never one read per profile.
type profileLookup struct {
	userRepo repository.UserRepository
	cache    ProfileCacheStore
}

// GetProfiles resolves the given IDs to profiles. IDs that no longer resolve
// to a user are absent from the result; callers skip those entries the same
// way the original views skipped deleted counterpart profiles.
func (l *profileLookup) GetProfiles(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.User, error) {
	if len(ids) == 0 {
		return map[primitive.ObjectID]domain.User{}, nil
	}

	found := map[primitive.ObjectID]domain.User{}
	missing := ids
	if l.cache != nil {
		cached, misses, err := l.cache.GetMany(ctx, ids)
		if err == nil {
			found = cached
			missing = misses
		}
		// On cache error fall through with every ID missing; the
		// database remains the source of truth.
	}

	if len(missing) == 0 {
		return found, nil
	}

	users, err := l.userRepo.GetByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = "" // Joins never carry credentials
		found[users[i].ID] = users[i]
		if l.cache != nil {
			_ = l.cache.Set(ctx, &users[i]) // Best effort
		}
	}
	return found, nil
}
