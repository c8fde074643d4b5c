package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/itchan-dev/threads/shared/domain"
)

var ErrThreadCycle = errors.New("thread replies form a cycle")

type childFinder interface {
	GetChildThreads(ctx context.Context, parentIds []domain.ThreadId) ([]domain.Thread, error)
}

// collectDescendants walks the reply tree under rootId one level per query.
// Result is level ordered: all children of root, then all grandchildren, and so on.
// A thread reached twice means parent links loop back, which would never end.
func collectDescendants(ctx context.Context, store childFinder, rootId domain.ThreadId) ([]domain.Thread, error) {
	visited := map[domain.ThreadId]struct{}{rootId: {}}
	var descendants []domain.Thread

	frontier := []domain.ThreadId{rootId}
	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		children, err := store.GetChildThreads(ctx, frontier)
		if err != nil {
			return nil, err
		}

		next := make([]domain.ThreadId, 0, len(children))
		for _, child := range children {
			if _, seen := visited[child.Id]; seen {
				return nil, fmt.Errorf("%w: thread %s reached twice under %s", ErrThreadCycle, child.Id, rootId)
			}
			visited[child.Id] = struct{}{}
			descendants = append(descendants, child)
			next = append(next, child.Id)
		}
		frontier = next
	}
	return descendants, nil
}
