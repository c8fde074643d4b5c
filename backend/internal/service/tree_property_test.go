package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/itchan-dev/threads/backend/internal/storage/memory"
	"github.com/itchan-dev/threads/backend/internal/utils"
	"github.com/itchan-dev/threads/shared/domain"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// buildForest creates len(parents)+1 threads. Thread 0 is a root; thread i>0
// is a root when parents[i-1] is negative and a reply to thread parents[i-1]%i otherwise.
func buildForest(ctx context.Context, service ThreadService, author domain.UserId, parents []int) ([]domain.ThreadId, []int, error) {
	ids := []domain.ThreadId{}
	links := []int{-1}

	root, err := service.Create(ctx, domain.ThreadCreationData{Text: "thread 0", Author: author}, "")
	if err != nil {
		return nil, nil, err
	}
	ids = append(ids, root)

	for i, p := range parents {
		n := i + 1
		text := fmt.Sprintf("thread %d", n)
		var id domain.ThreadId
		if p < 0 {
			id, err = service.Create(ctx, domain.ThreadCreationData{Text: text, Author: author}, "")
			links = append(links, -1)
		} else {
			parent := p % n
			id, err = service.AddComment(ctx, domain.CommentCreationData{ThreadId: ids[parent], Text: text, Author: author}, "")
			links = append(links, parent)
		}
		if err != nil {
			return nil, nil, err
		}
		ids = append(ids, id)
	}
	return ids, links, nil
}

// subtreeOf returns indexes of target and everything below it.
func subtreeOf(links []int, target int) map[int]bool {
	inside := map[int]bool{target: true}
	// parents always precede children, one forward pass is enough
	for i := target + 1; i < len(links); i++ {
		if links[i] >= 0 && inside[links[i]] {
			inside[i] = true
		}
	}
	return inside
}

func TestProperty_DeleteRemovesExactlyTheSubtree(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("delete removes the subtree and leaves no dangling references", prop.ForAll(
		func(parents []int, pick int) bool {
			ctx := context.Background()
			storage := memory.New()
			storage.SetClock(tickingClock())
			service := NewThread(storage, utils.NewTextValidator(100), nil, testConfig())
			author, err := storage.CreateUser(ctx, domain.UserCreationData{ExternalId: "author"})
			if err != nil {
				return false
			}

			ids, links, err := buildForest(ctx, service, author.Id, parents)
			if err != nil {
				return false
			}
			target := pick % len(ids)
			if err := service.Delete(ctx, ids[target], ""); err != nil {
				return false
			}

			removed := subtreeOf(links, target)
			deleted := map[domain.ThreadId]bool{}
			for i, id := range ids {
				_, err := storage.GetThread(ctx, id)
				if removed[i] != (err != nil) {
					return false
				}
				if removed[i] {
					deleted[id] = true
				}
			}

			for i, id := range ids {
				if removed[i] {
					continue
				}
				thread, err := storage.GetThread(ctx, id)
				if err != nil {
					return false
				}
				for _, child := range thread.ChildIds {
					if deleted[child] {
						return false
					}
				}
			}

			user, err := storage.GetUser(ctx, author.Id)
			if err != nil {
				return false
			}
			for _, id := range user.Threads {
				if deleted[id] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(-1, 40)),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}

func TestProperty_FeedPagesCoverAllRoots(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("walking the feed yields every root once, newest first", prop.ForAll(
		func(parents []int, pageSize int) bool {
			ctx := context.Background()
			storage := memory.New()
			storage.SetClock(tickingClock())
			service := NewThread(storage, utils.NewTextValidator(100), nil, testConfig())
			author, err := storage.CreateUser(ctx, domain.UserCreationData{ExternalId: "author"})
			if err != nil {
				return false
			}

			ids, links, err := buildForest(ctx, service, author.Id, parents)
			if err != nil {
				return false
			}
			var expected []domain.ThreadId
			for i := len(ids) - 1; i >= 0; i-- {
				if links[i] < 0 {
					expected = append(expected, ids[i])
				}
			}

			var walked []domain.ThreadId
			for page := 1; ; page++ {
				result, err := service.GetFeed(ctx, page, pageSize)
				if err != nil || len(result.Threads) > pageSize {
					return false
				}
				walked = append(walked, domain.ThreadIds(result.Threads)...)
				if !result.HasNext {
					break
				}
				if page > len(ids) {
					return false
				}
			}

			if len(walked) != len(expected) {
				return false
			}
			for i := range expected {
				if walked[i] != expected[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(-3, 20)),
		gen.IntRange(1, 7),
	))

	properties.TestingRun(t)
}
