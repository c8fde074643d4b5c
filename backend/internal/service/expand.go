package service

import (
	"context"

	"github.com/itchan-dev/threads/shared/domain"
)

type expandStorage interface {
	GetThreadsByIds(ctx context.Context, ids []domain.ThreadId) ([]domain.Thread, error)
	GetUsers(ctx context.Context, ids []domain.UserId) ([]domain.User, error)
	GetCommunities(ctx context.Context, ids []domain.CommunityId) ([]domain.Community, error)
}

// expander resolves author, community and child references of loaded threads
// with one batched query per kind and level.
type expander struct {
	storage expandStorage
}

// expandFeed fills full authors and community summaries of feed threads,
// and one level of children with author summaries.
func (s *expander) expandFeed(ctx context.Context, threads []*domain.Thread) error {
	if len(threads) == 0 {
		return nil
	}
	if err := s.expandAuthors(ctx, threads, true); err != nil {
		return err
	}
	if err := s.expandCommunities(ctx, threads); err != nil {
		return err
	}
	children, err := s.expandChildren(ctx, threads)
	if err != nil {
		return err
	}
	return s.expandAuthors(ctx, children, false)
}

// expandThread fills a single thread two reply levels deep. Replies of the
// second level keep only their ChildIds.
func (s *expander) expandThread(ctx context.Context, thread *domain.Thread) error {
	root := []*domain.Thread{thread}
	if err := s.expandCommunities(ctx, root); err != nil {
		return err
	}
	children, err := s.expandChildren(ctx, root)
	if err != nil {
		return err
	}
	grandchildren, err := s.expandChildren(ctx, children)
	if err != nil {
		return err
	}

	withAuthors := make([]*domain.Thread, 0, 1+len(children)+len(grandchildren))
	withAuthors = append(withAuthors, thread)
	withAuthors = append(withAuthors, children...)
	withAuthors = append(withAuthors, grandchildren...)
	return s.expandAuthors(ctx, withAuthors, false)
}

// expandChildren loads the children of all parents in one query and attaches
// them in ChildIds order. Ids pointing at deleted threads are dropped.
func (s *expander) expandChildren(ctx context.Context, parents []*domain.Thread) ([]*domain.Thread, error) {
	var ids []domain.ThreadId
	for _, p := range parents {
		ids = append(ids, p.ChildIds...)
	}
	ids = domain.Unique(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	found, err := s.storage.GetThreadsByIds(ctx, ids)
	if err != nil {
		return nil, err
	}
	byId := make(map[domain.ThreadId]*domain.Thread, len(found))
	for i := range found {
		byId[found[i].Id] = &found[i]
	}

	all := make([]*domain.Thread, 0, len(found))
	for _, p := range parents {
		p.Children = make([]*domain.Thread, 0, len(p.ChildIds))
		for _, id := range p.ChildIds {
			if child, ok := byId[id]; ok {
				p.Children = append(p.Children, child)
				all = append(all, child)
			}
		}
	}
	return all, nil
}

func (s *expander) expandAuthors(ctx context.Context, threads []*domain.Thread, full bool) error {
	ids := make([]domain.UserId, 0, len(threads))
	for _, t := range threads {
		ids = append(ids, t.AuthorId)
	}
	ids = domain.Unique(ids)
	if len(ids) == 0 {
		return nil
	}

	users, err := s.storage.GetUsers(ctx, ids)
	if err != nil {
		return err
	}
	byId := make(map[domain.UserId]domain.User, len(users))
	for _, u := range users {
		byId[u.Id] = u
	}

	for _, t := range threads {
		u, ok := byId[t.AuthorId]
		if !ok {
			continue
		}
		if full {
			author := u
			t.Author = &author
		} else {
			t.Author = u.Summary()
		}
	}
	return nil
}

func (s *expander) expandCommunities(ctx context.Context, threads []*domain.Thread) error {
	var ids []domain.CommunityId
	for _, t := range threads {
		if t.CommunityId != nil {
			ids = append(ids, *t.CommunityId)
		}
	}
	ids = domain.Unique(ids)
	if len(ids) == 0 {
		return nil
	}

	communities, err := s.storage.GetCommunities(ctx, ids)
	if err != nil {
		return err
	}
	byId := make(map[domain.CommunityId]domain.Community, len(communities))
	for _, c := range communities {
		byId[c.Id] = c
	}

	for _, t := range threads {
		if t.CommunityId == nil {
			continue
		}
		if c, ok := byId[*t.CommunityId]; ok {
			t.Community = c.Summary()
		}
	}
	return nil
}

func toPointers(threads []domain.Thread) []*domain.Thread {
	out := make([]*domain.Thread, len(threads))
	for i := range threads {
		out[i] = &threads[i]
	}
	return out
}
