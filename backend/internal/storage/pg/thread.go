package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/itchan-dev/threads/shared/domain"

	"github.com/lib/pq"
)

const threadColumns = "id, text, author, community, parent_id, children, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanThread(row rowScanner) (domain.Thread, error) {
	var (
		t         domain.Thread
		community sql.NullString
		parent    sql.NullString
		children  []string
	)
	if err := row.Scan(&t.Id, &t.Text, &t.AuthorId, &community, &parent, pq.Array(&children), &t.CreatedAt); err != nil {
		return domain.Thread{}, err
	}
	if community.Valid {
		t.CommunityId = &community.String
	}
	if parent.Valid {
		t.ParentId = &parent.String
	}
	if children == nil {
		children = []string{}
	}
	t.ChildIds = children
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

func (s *Storage) CreateThread(ctx context.Context, data domain.ThreadCreationData) (domain.Thread, error) {
	row := s.db.QueryRowContext(ctx, `
        INSERT INTO threads (id, text, author, community, parent_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING `+threadColumns,
		uuid.NewString(), data.Text, data.Author, data.Community, data.ParentId, s.timestamp(data.CreatedAt),
	)
	thread, err := scanThread(row)
	if err != nil {
		return domain.Thread{}, fmt.Errorf("failed to insert thread: %w", err)
	}
	return thread, nil
}

func (s *Storage) GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+threadColumns+" FROM threads WHERE id = $1", id)
	thread, err := scanThread(row)
	if err != nil {
		return domain.Thread{}, notFound(err, "Thread")
	}
	return thread, nil
}

func (s *Storage) GetThreadsByIds(ctx context.Context, ids []domain.ThreadId) ([]domain.Thread, error) {
	if len(ids) == 0 {
		return []domain.Thread{}, nil
	}
	found, err := s.queryThreads(ctx, "SELECT "+threadColumns+" FROM threads WHERE id = ANY($1::text[])", pq.Array(ids))
	if err != nil {
		return nil, err
	}
	byId := make(map[domain.ThreadId]domain.Thread, len(found))
	for _, t := range found {
		byId[t.Id] = t
	}
	result := make([]domain.Thread, 0, len(found))
	for _, id := range ids {
		if t, ok := byId[id]; ok {
			result = append(result, t)
		}
	}
	return result, nil
}

func (s *Storage) GetRootThreads(ctx context.Context, offset, limit int) ([]domain.Thread, error) {
	return s.queryThreads(ctx, `
        SELECT `+threadColumns+`
        FROM threads
        WHERE parent_id IS NULL
        ORDER BY created_at DESC, id DESC
        OFFSET $1 LIMIT $2
    `, offset, limit)
}

func (s *Storage) CountRootThreads(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM threads WHERE parent_id IS NULL").Scan(&count)
	return count, err
}

func (s *Storage) GetChildThreads(ctx context.Context, parentIds []domain.ThreadId) ([]domain.Thread, error) {
	if len(parentIds) == 0 {
		return []domain.Thread{}, nil
	}
	return s.queryThreads(ctx, `
        SELECT `+threadColumns+`
        FROM threads
        WHERE parent_id = ANY($1::text[])
        ORDER BY created_at, id
    `, pq.Array(parentIds))
}

func (s *Storage) AppendChild(ctx context.Context, parentId, childId domain.ThreadId) error {
	res, err := s.db.ExecContext(ctx, "UPDATE threads SET children = array_append(children, $2) WHERE id = $1", parentId, childId)
	if err != nil {
		return err
	}
	return requireAffected(res, "Thread")
}

func (s *Storage) RemoveChild(ctx context.Context, parentId, childId domain.ThreadId) error {
	res, err := s.db.ExecContext(ctx, "UPDATE threads SET children = array_remove(children, $2) WHERE id = $1", parentId, childId)
	if err != nil {
		return err
	}
	return requireAffected(res, "Thread")
}

func (s *Storage) DeleteThreads(ctx context.Context, ids []domain.ThreadId) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM threads WHERE id = ANY($1::text[])", pq.Array(ids))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Storage) queryThreads(ctx context.Context, query string, args ...any) ([]domain.Thread, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	threads := make([]domain.Thread, 0)
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}
