package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/itchan-dev/threads/shared/config"
	"github.com/itchan-dev/threads/shared/domain"
)

// UserActivityService lists what a user has posted.
type UserActivityService interface {
	GetUserThreads(ctx context.Context, userId domain.UserId) ([]*domain.Thread, error)
}

type UserActivity struct {
	expander
	storage UserActivityStorage
	cfg     *config.Public
}

type UserActivityStorage interface {
	expandStorage
	GetUser(ctx context.Context, id domain.UserId) (domain.User, error)
}

func NewUserActivity(storage UserActivityStorage, cfg *config.Public) UserActivityService {
	return &UserActivity{
		expander: expander{storage: storage},
		storage:  storage,
		cfg:      cfg,
	}
}

// GetUserThreads returns the most recent posts of a user, newest first, with
// one level of replies. Posts are taken from the user's own thread list,
// ids of deleted threads are skipped.
func (s *UserActivity) GetUserThreads(ctx context.Context, userId domain.UserId) ([]*domain.Thread, error) {
	user, err := s.storage.GetUser(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to get user threads: %w", err)
	}

	limit := s.cfg.UserThreadsLimit
	if limit <= 0 {
		limit = s.cfg.ThreadsPerPage
	}
	ids := slices.Clone(user.Threads)
	slices.Reverse(ids)
	ids = domain.Unique(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	if len(ids) == 0 {
		return []*domain.Thread{}, nil
	}

	found, err := s.storage.GetThreadsByIds(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get user threads: %w", err)
	}
	threads := toPointers(found)
	if err := s.expandFeed(ctx, threads); err != nil {
		return nil, fmt.Errorf("failed to get user threads: %w", err)
	}
	return threads, nil
}
