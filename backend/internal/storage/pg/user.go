package pg

import (
	"context"

	"github.com/google/uuid"
	"github.com/itchan-dev/threads/shared/domain"

	"github.com/lib/pq"
)

const userColumns = "id, external_id, username, name, image, bio, threads"

func scanUser(row rowScanner) (domain.User, error) {
	var u domain.User
	var threads []string
	if err := row.Scan(&u.Id, &u.ExternalId, &u.Username, &u.Name, &u.Image, &u.Bio, pq.Array(&threads)); err != nil {
		return domain.User{}, err
	}
	if threads == nil {
		threads = []string{}
	}
	u.Threads = threads
	return u, nil
}

func (s *Storage) CreateUser(ctx context.Context, data domain.UserCreationData) (domain.User, error) {
	row := s.db.QueryRowContext(ctx, `
        INSERT INTO users (id, external_id, username, name, image, bio)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING `+userColumns,
		uuid.NewString(), data.ExternalId, data.Username, data.Name, data.Image, data.Bio,
	)
	user, err := scanUser(row)
	if err != nil {
		return domain.User{}, conflict(err, "User")
	}
	return user, nil
}

func (s *Storage) GetUser(ctx context.Context, id domain.UserId) (domain.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if err != nil {
		return domain.User{}, notFound(err, "User")
	}
	return user, nil
}

func (s *Storage) GetUsers(ctx context.Context, ids []domain.UserId) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ANY($1::text[])", pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0, len(ids))
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Storage) AppendUserThread(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error {
	return s.push(ctx, "users", userId, threadId)
}

func (s *Storage) PullUserThreads(ctx context.Context, userIds []domain.UserId, threadIds []domain.ThreadId) error {
	return s.pull(ctx, "users", userIds, threadIds)
}
