package mongo

import (
	"context"

	"github.com/google/uuid"
	"github.com/itchan-dev/threads/shared/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type communityDoc struct {
	Id         string   `bson:"_id"`
	ExternalId string   `bson:"external_id"`
	Username   string   `bson:"username"`
	Name       string   `bson:"name"`
	Image      string   `bson:"image"`
	Bio        string   `bson:"bio"`
	CreatedBy  *string  `bson:"created_by,omitempty"`
	Threads    []string `bson:"threads"`
}

func (d communityDoc) toDomain() domain.Community {
	threads := d.Threads
	if threads == nil {
		threads = []domain.ThreadId{}
	}
	return domain.Community{
		Id:         d.Id,
		ExternalId: d.ExternalId,
		Username:   d.Username,
		Name:       d.Name,
		Image:      d.Image,
		Bio:        d.Bio,
		CreatedBy:  d.CreatedBy,
		Threads:    threads,
	}
}

func (s *Storage) CreateCommunity(ctx context.Context, data domain.CommunityCreationData) (domain.Community, error) {
	doc := communityDoc{
		Id:         uuid.NewString(),
		ExternalId: data.ExternalId,
		Username:   data.Username,
		Name:       data.Name,
		Image:      data.Image,
		Bio:        data.Bio,
		CreatedBy:  data.CreatedBy,
		Threads:    []string{},
	}
	if _, err := s.communities().InsertOne(ctx, doc); err != nil {
		return domain.Community{}, conflict(err, "Community")
	}
	return doc.toDomain(), nil
}

func (s *Storage) GetCommunityByExternalId(ctx context.Context, externalId domain.ExternalId) (domain.Community, error) {
	var doc communityDoc
	if err := s.communities().FindOne(ctx, bson.M{"external_id": externalId}).Decode(&doc); err != nil {
		return domain.Community{}, notFound(err, "Community")
	}
	return doc.toDomain(), nil
}

func (s *Storage) GetCommunities(ctx context.Context, ids []domain.CommunityId) ([]domain.Community, error) {
	if len(ids) == 0 {
		return []domain.Community{}, nil
	}
	cur, err := s.communities().Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var docs []communityDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	communities := make([]domain.Community, 0, len(docs))
	for _, d := range docs {
		communities = append(communities, d.toDomain())
	}
	return communities, nil
}

func (s *Storage) AppendCommunityThread(ctx context.Context, communityId domain.CommunityId, threadId domain.ThreadId) error {
	return push(ctx, s.communities(), communityId, "threads", threadId)
}

func (s *Storage) PullCommunityThreads(ctx context.Context, communityIds []domain.CommunityId, threadIds []domain.ThreadId) error {
	return pullMany(ctx, s.communities(), communityIds, "threads", threadIds)
}
