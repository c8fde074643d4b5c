package pg

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/itchan-dev/threads/shared/domain"

	"github.com/lib/pq"
)

const communityColumns = "id, external_id, username, name, image, bio, created_by, threads"

func scanCommunity(row rowScanner) (domain.Community, error) {
	var c domain.Community
	var createdBy sql.NullString
	var threads []string
	if err := row.Scan(&c.Id, &c.ExternalId, &c.Username, &c.Name, &c.Image, &c.Bio, &createdBy, pq.Array(&threads)); err != nil {
		return domain.Community{}, err
	}
	if createdBy.Valid {
		c.CreatedBy = &createdBy.String
	}
	if threads == nil {
		threads = []string{}
	}
	c.Threads = threads
	return c, nil
}

func (s *Storage) CreateCommunity(ctx context.Context, data domain.CommunityCreationData) (domain.Community, error) {
	row := s.db.QueryRowContext(ctx, `
        INSERT INTO communities (id, external_id, username, name, image, bio, created_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING `+communityColumns,
		uuid.NewString(), data.ExternalId, data.Username, data.Name, data.Image, data.Bio, data.CreatedBy,
	)
	community, err := scanCommunity(row)
	if err != nil {
		return domain.Community{}, conflict(err, "Community")
	}
	return community, nil
}

func (s *Storage) GetCommunityByExternalId(ctx context.Context, externalId domain.ExternalId) (domain.Community, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+communityColumns+" FROM communities WHERE external_id = $1", externalId)
	community, err := scanCommunity(row)
	if err != nil {
		return domain.Community{}, notFound(err, "Community")
	}
	return community, nil
}

func (s *Storage) GetCommunities(ctx context.Context, ids []domain.CommunityId) ([]domain.Community, error) {
	if len(ids) == 0 {
		return []domain.Community{}, nil
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+communityColumns+" FROM communities WHERE id = ANY($1::text[])", pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	communities := make([]domain.Community, 0, len(ids))
	for rows.Next() {
		c, err := scanCommunity(rows)
		if err != nil {
			return nil, err
		}
		communities = append(communities, c)
	}
	return communities, rows.Err()
}

func (s *Storage) AppendCommunityThread(ctx context.Context, communityId domain.CommunityId, threadId domain.ThreadId) error {
	return s.push(ctx, "communities", communityId, threadId)
}

func (s *Storage) PullCommunityThreads(ctx context.Context, communityIds []domain.CommunityId, threadIds []domain.ThreadId) error {
	return s.pull(ctx, "communities", communityIds, threadIds)
}
