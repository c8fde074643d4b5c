// Package memory is a process-local document store with the same semantics as
// the mongo and pg stores. It backs the "memory" driver and the service tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/itchan-dev/threads/shared/domain"
	"github.com/itchan-dev/threads/shared/errors"
)

type Storage struct {
	mu          sync.RWMutex
	threads     map[domain.ThreadId]domain.Thread
	users       map[domain.UserId]domain.User
	communities map[domain.CommunityId]domain.Community
	now         func() time.Time
}

func New() *Storage {
	return &Storage{
		threads:     make(map[domain.ThreadId]domain.Thread),
		users:       make(map[domain.UserId]domain.User),
		communities: make(map[domain.CommunityId]domain.Community),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the source of created_at timestamps
func (s *Storage) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Storage) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Storage) Cleanup() error {
	return nil
}

// ===== threads =====

func (s *Storage) CreateThread(ctx context.Context, data domain.ThreadCreationData) (domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := data.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	thread := domain.Thread{
		Id:          uuid.NewString(),
		Text:        data.Text,
		AuthorId:    data.Author,
		CommunityId: clonePtr(data.Community),
		ParentId:    clonePtr(data.ParentId),
		ChildIds:    []domain.ThreadId{},
		CreatedAt:   createdAt,
	}
	s.threads[thread.Id] = thread
	return cloneThread(thread), nil
}

func (s *Storage) GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	thread, ok := s.threads[id]
	if !ok {
		return domain.Thread{}, errors.NotFound("Thread not found")
	}
	return cloneThread(thread), nil
}

func (s *Storage) GetThreadsByIds(ctx context.Context, ids []domain.ThreadId) ([]domain.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Thread, 0, len(ids))
	for _, id := range ids {
		if thread, ok := s.threads[id]; ok {
			result = append(result, cloneThread(thread))
		}
	}
	return result, nil
}

func (s *Storage) GetRootThreads(ctx context.Context, offset, limit int) ([]domain.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roots := make([]domain.Thread, 0)
	for _, thread := range s.threads {
		if thread.ParentId == nil {
			roots = append(roots, thread)
		}
	}
	sort.Slice(roots, func(i, j int) bool {
		if !roots[i].CreatedAt.Equal(roots[j].CreatedAt) {
			return roots[i].CreatedAt.After(roots[j].CreatedAt)
		}
		return roots[i].Id > roots[j].Id
	})

	if offset < 0 || limit < 0 {
		return nil, errors.BadRequest("offset and limit must not be negative")
	}
	if offset >= len(roots) {
		return []domain.Thread{}, nil
	}
	end := len(roots)
	if limit < end-offset {
		end = offset + limit
	}
	page := make([]domain.Thread, 0, end-offset)
	for _, thread := range roots[offset:end] {
		page = append(page, cloneThread(thread))
	}
	return page, nil
}

func (s *Storage) CountRootThreads(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, thread := range s.threads {
		if thread.ParentId == nil {
			count++
		}
	}
	return count, nil
}

func (s *Storage) GetChildThreads(ctx context.Context, parentIds []domain.ThreadId) ([]domain.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	parents := toSet(parentIds)
	children := make([]domain.Thread, 0)
	for _, thread := range s.threads {
		if thread.ParentId == nil {
			continue
		}
		if _, ok := parents[*thread.ParentId]; ok {
			children = append(children, cloneThread(thread))
		}
	}
	sort.Slice(children, func(i, j int) bool {
		if !children[i].CreatedAt.Equal(children[j].CreatedAt) {
			return children[i].CreatedAt.Before(children[j].CreatedAt)
		}
		return children[i].Id < children[j].Id
	})
	return children, nil
}

func (s *Storage) AppendChild(ctx context.Context, parentId, childId domain.ThreadId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, ok := s.threads[parentId]
	if !ok {
		return errors.NotFound("Thread not found")
	}
	parent.ChildIds = append(slices.Clone(parent.ChildIds), childId)
	s.threads[parentId] = parent
	return nil
}

func (s *Storage) RemoveChild(ctx context.Context, parentId, childId domain.ThreadId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, ok := s.threads[parentId]
	if !ok {
		return errors.NotFound("Thread not found")
	}
	parent.ChildIds = without(parent.ChildIds, toSet([]domain.ThreadId{childId}))
	s.threads[parentId] = parent
	return nil
}

func (s *Storage) DeleteThreads(ctx context.Context, ids []domain.ThreadId) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for _, id := range ids {
		if _, ok := s.threads[id]; ok {
			delete(s.threads, id)
			deleted++
		}
	}
	return deleted, nil
}

// ===== users =====

func (s *Storage) CreateUser(ctx context.Context, data domain.UserCreationData) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ExternalId == data.ExternalId {
			return domain.User{}, errors.Conflict("User already exists")
		}
	}
	user := domain.User{
		Id:         uuid.NewString(),
		ExternalId: data.ExternalId,
		Username:   data.Username,
		Name:       data.Name,
		Image:      data.Image,
		Bio:        data.Bio,
		Threads:    []domain.ThreadId{},
	}
	s.users[user.Id] = user
	return cloneUser(user), nil
}

func (s *Storage) GetUser(ctx context.Context, id domain.UserId) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return domain.User{}, errors.NotFound("User not found")
	}
	return cloneUser(user), nil
}

func (s *Storage) GetUsers(ctx context.Context, ids []domain.UserId) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			users = append(users, cloneUser(user))
		}
	}
	return users, nil
}

// AppendUserThread on a missing user is a no-op, like an update matching nothing.
func (s *Storage) AppendUserThread(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user, ok := s.users[userId]; ok {
		user.Threads = append(slices.Clone(user.Threads), threadId)
		s.users[userId] = user
	}
	return nil
}

func (s *Storage) PullUserThreads(ctx context.Context, userIds []domain.UserId, threadIds []domain.ThreadId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pulled := toSet(threadIds)
	for _, id := range userIds {
		if user, ok := s.users[id]; ok {
			user.Threads = without(user.Threads, pulled)
			s.users[id] = user
		}
	}
	return nil
}

// ===== communities =====

func (s *Storage) CreateCommunity(ctx context.Context, data domain.CommunityCreationData) (domain.Community, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.communities {
		if c.ExternalId == data.ExternalId {
			return domain.Community{}, errors.Conflict("Community already exists")
		}
	}
	community := domain.Community{
		Id:         uuid.NewString(),
		ExternalId: data.ExternalId,
		Username:   data.Username,
		Name:       data.Name,
		Image:      data.Image,
		Bio:        data.Bio,
		CreatedBy:  clonePtr(data.CreatedBy),
		Threads:    []domain.ThreadId{},
	}
	s.communities[community.Id] = community
	return cloneCommunity(community), nil
}

func (s *Storage) GetCommunityByExternalId(ctx context.Context, externalId domain.ExternalId) (domain.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.communities {
		if c.ExternalId == externalId {
			return cloneCommunity(c), nil
		}
	}
	return domain.Community{}, errors.NotFound("Community not found")
}

func (s *Storage) GetCommunities(ctx context.Context, ids []domain.CommunityId) ([]domain.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	communities := make([]domain.Community, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.communities[id]; ok {
			communities = append(communities, cloneCommunity(c))
		}
	}
	return communities, nil
}

func (s *Storage) AppendCommunityThread(ctx context.Context, communityId domain.CommunityId, threadId domain.ThreadId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.communities[communityId]; ok {
		c.Threads = append(slices.Clone(c.Threads), threadId)
		s.communities[communityId] = c
	}
	return nil
}

func (s *Storage) PullCommunityThreads(ctx context.Context, communityIds []domain.CommunityId, threadIds []domain.ThreadId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pulled := toSet(threadIds)
	for _, id := range communityIds {
		if c, ok := s.communities[id]; ok {
			c.Threads = without(c.Threads, pulled)
			s.communities[id] = c
		}
	}
	return nil
}

// ===== helpers =====

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func without(ids []string, drop map[string]struct{}) []string {
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := drop[id]; !ok {
			kept = append(kept, id)
		}
	}
	return kept
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneThread(t domain.Thread) domain.Thread {
	t.CommunityId = clonePtr(t.CommunityId)
	t.ParentId = clonePtr(t.ParentId)
	t.ChildIds = slices.Clone(t.ChildIds)
	return t
}

func cloneUser(u domain.User) domain.User {
	u.Threads = slices.Clone(u.Threads)
	return u
}

func cloneCommunity(c domain.Community) domain.Community {
	c.CreatedBy = clonePtr(c.CreatedBy)
	c.Threads = slices.Clone(c.Threads)
	return c
}
