package mongo

import (
	"context"

	"github.com/google/uuid"
	"github.com/itchan-dev/threads/shared/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type userDoc struct {
	Id         string   `bson:"_id"`
	ExternalId string   `bson:"external_id"`
	Username   string   `bson:"username"`
	Name       string   `bson:"name"`
	Image      string   `bson:"image"`
	Bio        string   `bson:"bio"`
	Threads    []string `bson:"threads"`
}

func (d userDoc) toDomain() domain.User {
	threads := d.Threads
	if threads == nil {
		threads = []domain.ThreadId{}
	}
	return domain.User{
		Id:         d.Id,
		ExternalId: d.ExternalId,
		Username:   d.Username,
		Name:       d.Name,
		Image:      d.Image,
		Bio:        d.Bio,
		Threads:    threads,
	}
}

func (s *Storage) CreateUser(ctx context.Context, data domain.UserCreationData) (domain.User, error) {
	doc := userDoc{
		Id:         uuid.NewString(),
		ExternalId: data.ExternalId,
		Username:   data.Username,
		Name:       data.Name,
		Image:      data.Image,
		Bio:        data.Bio,
		Threads:    []string{},
	}
	if _, err := s.users().InsertOne(ctx, doc); err != nil {
		return domain.User{}, conflict(err, "User")
	}
	return doc.toDomain(), nil
}

func (s *Storage) GetUser(ctx context.Context, id domain.UserId) (domain.User, error) {
	var doc userDoc
	if err := s.users().FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return domain.User{}, notFound(err, "User")
	}
	return doc.toDomain(), nil
}

func (s *Storage) GetUsers(ctx context.Context, ids []domain.UserId) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	cur, err := s.users().Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toDomain())
	}
	return users, nil
}

func (s *Storage) AppendUserThread(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error {
	return push(ctx, s.users(), userId, "threads", threadId)
}

func (s *Storage) PullUserThreads(ctx context.Context, userIds []domain.UserId, threadIds []domain.ThreadId) error {
	return pullMany(ctx, s.users(), userIds, "threads", threadIds)
}
