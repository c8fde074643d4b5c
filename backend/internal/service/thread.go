package service

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/itchan-dev/threads/backend/internal/service/utils"
	"github.com/itchan-dev/threads/shared/config"
	"github.com/itchan-dev/threads/shared/domain"
	"github.com/itchan-dev/threads/shared/errors"
	"github.com/itchan-dev/threads/shared/logger"
	"github.com/itchan-dev/threads/shared/middleware/metrics"
)

type ThreadService interface {
	Create(ctx context.Context, data domain.ThreadCreationData, path string) (domain.ThreadId, error)
	GetFeed(ctx context.Context, page, pageSize int) (domain.ThreadPage, error)
	Get(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	AddComment(ctx context.Context, data domain.CommentCreationData, path string) (domain.ThreadId, error)
	Delete(ctx context.Context, id domain.ThreadId, path string) error
}

type Thread struct {
	expander
	storage     ThreadTreeStorage
	validator   ThreadValidator
	revalidator Revalidator
	cfg         config.Public
}

// ThreadTreeStorage is the document store seen by the thread service.
// Threads, users and communities keep denormalised references to each other
// (children, user threads, community threads); the store does not maintain
// them, the service does. Writes are independent: there is no transaction
// spanning several calls.
type ThreadTreeStorage interface {
	CreateThread(ctx context.Context, data domain.ThreadCreationData) (domain.Thread, error)
	GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	// GetThreadsByIds returns found threads in the order of ids, missing ids are skipped.
	GetThreadsByIds(ctx context.Context, ids []domain.ThreadId) ([]domain.Thread, error)
	// GetRootThreads returns threads without parent, newest first.
	GetRootThreads(ctx context.Context, offset, limit int) ([]domain.Thread, error)
	CountRootThreads(ctx context.Context) (int, error)
	// GetChildThreads returns every thread whose parent is in parentIds.
	GetChildThreads(ctx context.Context, parentIds []domain.ThreadId) ([]domain.Thread, error)
	AppendChild(ctx context.Context, parentId, childId domain.ThreadId) error
	RemoveChild(ctx context.Context, parentId, childId domain.ThreadId) error
	DeleteThreads(ctx context.Context, ids []domain.ThreadId) (int64, error)

	GetUser(ctx context.Context, id domain.UserId) (domain.User, error)
	GetUsers(ctx context.Context, ids []domain.UserId) ([]domain.User, error)
	AppendUserThread(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error
	PullUserThreads(ctx context.Context, userIds []domain.UserId, threadIds []domain.ThreadId) error

	GetCommunityByExternalId(ctx context.Context, externalId domain.ExternalId) (domain.Community, error)
	GetCommunities(ctx context.Context, ids []domain.CommunityId) ([]domain.Community, error)
	AppendCommunityThread(ctx context.Context, communityId domain.CommunityId, threadId domain.ThreadId) error
	PullCommunityThreads(ctx context.Context, communityIds []domain.CommunityId, threadIds []domain.ThreadId) error
}

type ThreadValidator interface {
	Text(text domain.ThreadText) error
}

// Revalidator tells the presentation layer that pages under path are stale.
type Revalidator interface {
	Revalidate(ctx context.Context, path string) error
}

func NewThread(storage ThreadTreeStorage, validator ThreadValidator, revalidator Revalidator, cfg config.Public) ThreadService {
	return &Thread{expander: expander{storage: storage}, storage: storage, validator: validator, revalidator: revalidator, cfg: cfg}
}

// Create inserts a root thread, or a reply when data.ParentId is set, and
// links it to its author and, if the external community id resolves, to the
// community. An unknown community is not an error: the thread is posted
// without one.
func (s *Thread) Create(ctx context.Context, data domain.ThreadCreationData, path string) (domain.ThreadId, error) {
	if data.ParentId != nil {
		return s.AddComment(ctx, domain.CommentCreationData{ThreadId: *data.ParentId, Text: data.Text, Author: data.Author}, path)
	}

	text, err := s.cleanText(data.Text)
	if err != nil {
		return "", err
	}
	data.Text = text

	if _, err := s.storage.GetUser(ctx, data.Author); err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}

	data.Community = nil
	if data.CommunityExternalId != nil && *data.CommunityExternalId != "" {
		community, err := s.storage.GetCommunityByExternalId(ctx, *data.CommunityExternalId)
		switch {
		case err == nil:
			data.Community = &community.Id
		case errors.IsNotFound(err):
			logger.Log.Debug("community not found, posting without community", "community_external_id", *data.CommunityExternalId)
		default:
			return "", fmt.Errorf("failed to create thread: %w", err)
		}
	}

	thread, err := s.storage.CreateThread(ctx, data)
	if err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}

	if err := s.storage.AppendUserThread(ctx, data.Author, thread.Id); err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}
	if data.Community != nil {
		if err := s.storage.AppendCommunityThread(ctx, *data.Community, thread.Id); err != nil {
			return "", fmt.Errorf("failed to create thread: %w", err)
		}
	}

	metrics.ThreadsCreated.WithLabelValues(strconv.FormatBool(data.Community != nil)).Inc()
	logger.Log.Info("thread created", "thread_id", thread.Id, "author", data.Author)
	s.revalidate(ctx, path)
	return thread.Id, nil
}

// GetFeed returns a page of root threads with one level of replies expanded.
func (s *Thread) GetFeed(ctx context.Context, page, pageSize int) (domain.ThreadPage, error) {
	if page < 1 {
		return domain.ThreadPage{}, errors.BadRequest("page must be a positive number")
	}
	if pageSize < 1 {
		return domain.ThreadPage{}, errors.BadRequest("page size must be a positive number")
	}
	if s.cfg.MaxPageSize > 0 && pageSize > s.cfg.MaxPageSize {
		pageSize = s.cfg.MaxPageSize
	}
	// pages this far out cannot exist and their offset would overflow
	if page-1 > (math.MaxInt-pageSize)/pageSize {
		return domain.ThreadPage{Threads: []*domain.Thread{}}, nil
	}
	offset := (page - 1) * pageSize

	total, err := s.storage.CountRootThreads(ctx)
	if err != nil {
		return domain.ThreadPage{}, fmt.Errorf("failed to fetch threads: %w", err)
	}
	roots, err := s.storage.GetRootThreads(ctx, offset, pageSize)
	if err != nil {
		return domain.ThreadPage{}, fmt.Errorf("failed to fetch threads: %w", err)
	}

	threads := toPointers(roots)
	if err := s.expandFeed(ctx, threads); err != nil {
		return domain.ThreadPage{}, fmt.Errorf("failed to fetch threads: %w", err)
	}

	return domain.ThreadPage{
		Threads: threads,
		HasNext: total > offset+len(threads),
	}, nil
}

// Get returns a thread with its replies and their replies expanded.
func (s *Thread) Get(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	thread, err := s.storage.GetThread(ctx, id)
	if err != nil {
		return domain.Thread{}, fmt.Errorf("failed to fetch thread: %w", err)
	}
	if err := s.expandThread(ctx, &thread); err != nil {
		return domain.Thread{}, fmt.Errorf("failed to fetch thread: %w", err)
	}
	return thread, nil
}

// AddComment stores the reply first and links it to the parent second.
// A failure between the two leaves the reply without a back-reference.
func (s *Thread) AddComment(ctx context.Context, data domain.CommentCreationData, path string) (domain.ThreadId, error) {
	id, err := s.addComment(ctx, data)
	if err != nil {
		logger.Log.Error("error while adding comment", "thread_id", data.ThreadId, "author", data.Author, "error", err)
		return "", fmt.Errorf("unable to add comment: %w", err)
	}
	metrics.CommentsAdded.Inc()
	s.revalidate(ctx, path)
	return id, nil
}

func (s *Thread) addComment(ctx context.Context, data domain.CommentCreationData) (domain.ThreadId, error) {
	parent, err := s.storage.GetThread(ctx, data.ThreadId)
	if err != nil {
		return "", err
	}
	text, err := s.cleanText(data.Text)
	if err != nil {
		return "", err
	}
	if _, err := s.storage.GetUser(ctx, data.Author); err != nil {
		return "", err
	}

	comment, err := s.storage.CreateThread(ctx, domain.ThreadCreationData{
		Text:     text,
		Author:   data.Author,
		ParentId: &parent.Id,
	})
	if err != nil {
		return "", err
	}

	if err := s.storage.AppendChild(ctx, parent.Id, comment.Id); err != nil {
		return "", err
	}
	return comment.Id, nil
}

// Delete removes the thread with its whole reply subtree and pulls the
// removed ids out of every user, community and surviving parent that
// references them. Steps run one after another without rollback.
func (s *Thread) Delete(ctx context.Context, id domain.ThreadId, path string) error {
	target, err := s.storage.GetThread(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}

	descendants, err := collectDescendants(ctx, s.storage, target.Id)
	if err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}

	subtree := append([]domain.Thread{target}, descendants...)
	ids := make([]domain.ThreadId, 0, len(subtree))
	authors := make([]domain.UserId, 0, len(subtree))
	communities := make([]domain.CommunityId, 0, 1)
	for _, t := range subtree {
		ids = append(ids, t.Id)
		authors = append(authors, t.AuthorId)
		if t.CommunityId != nil {
			communities = append(communities, *t.CommunityId)
		}
	}
	authors = domain.Unique(authors)
	communities = domain.Unique(communities)

	deleted, err := s.storage.DeleteThreads(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}
	if err := s.storage.PullUserThreads(ctx, authors, ids); err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}
	if len(communities) > 0 {
		if err := s.storage.PullCommunityThreads(ctx, communities, ids); err != nil {
			return fmt.Errorf("failed to delete thread: %w", err)
		}
	}
	if target.ParentId != nil {
		err := s.storage.RemoveChild(ctx, *target.ParentId, target.Id)
		if err != nil && !errors.IsNotFound(err) {
			return fmt.Errorf("failed to delete thread: %w", err)
		}
	}

	metrics.ThreadsDeleted.Add(float64(deleted))
	metrics.DeleteSubtreeSize.Observe(float64(len(ids)))
	logger.Log.Info("thread deleted", "thread_id", target.Id, "subtree_size", len(ids), "deleted", deleted)
	s.revalidate(ctx, path)
	return nil
}

func (s *Thread) cleanText(text domain.ThreadText) (domain.ThreadText, error) {
	text = utils.SanitizeText(text)
	if err := s.validator.Text(text); err != nil {
		return "", err
	}
	return text, nil
}

// revalidate runs after the mutation is stored, so a failure here is only logged.
func (s *Thread) revalidate(ctx context.Context, path string) {
	if path == "" || s.revalidator == nil {
		return
	}
	if err := s.revalidator.Revalidate(ctx, path); err != nil {
		logger.Log.Warn("failed to revalidate path", "path", path, "error", err)
	}
}
