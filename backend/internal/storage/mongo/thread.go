package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/itchan-dev/threads/shared/domain"
	internal_errors "github.com/itchan-dev/threads/shared/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type threadDoc struct {
	Id        string    `bson:"_id"`
	Text      string    `bson:"text"`
	Author    string    `bson:"author"`
	Community *string   `bson:"community,omitempty"`
	ParentId  *string   `bson:"parent_id,omitempty"`
	Children  []string  `bson:"children"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d threadDoc) toDomain() domain.Thread {
	children := d.Children
	if children == nil {
		children = []domain.ThreadId{}
	}
	return domain.Thread{
		Id:          d.Id,
		Text:        d.Text,
		AuthorId:    d.Author,
		CommunityId: d.Community,
		ParentId:    d.ParentId,
		ChildIds:    children,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

func (s *Storage) CreateThread(ctx context.Context, data domain.ThreadCreationData) (domain.Thread, error) {
	doc := threadDoc{
		Id:        uuid.NewString(),
		Text:      data.Text,
		Author:    data.Author,
		Community: data.Community,
		ParentId:  data.ParentId,
		Children:  []string{},
		CreatedAt: s.timestamp(data.CreatedAt),
	}
	if _, err := s.threads().InsertOne(ctx, doc); err != nil {
		return domain.Thread{}, err
	}
	return doc.toDomain(), nil
}

func (s *Storage) GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	var doc threadDoc
	if err := s.threads().FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return domain.Thread{}, notFound(err, "Thread")
	}
	return doc.toDomain(), nil
}

func (s *Storage) GetThreadsByIds(ctx context.Context, ids []domain.ThreadId) ([]domain.Thread, error) {
	if len(ids) == 0 {
		return []domain.Thread{}, nil
	}
	found, err := s.findThreads(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
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

// parent_id: null matches both a null and a missing field.
var rootFilter = bson.M{"parent_id": nil}

func (s *Storage) GetRootThreads(ctx context.Context, offset, limit int) ([]domain.Thread, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	return s.findThreads(ctx, rootFilter, opts)
}

func (s *Storage) CountRootThreads(ctx context.Context) (int, error) {
	count, err := s.threads().CountDocuments(ctx, rootFilter)
	return int(count), err
}

func (s *Storage) GetChildThreads(ctx context.Context, parentIds []domain.ThreadId) ([]domain.Thread, error) {
	if len(parentIds) == 0 {
		return []domain.Thread{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return s.findThreads(ctx, bson.M{"parent_id": bson.M{"$in": parentIds}}, opts)
}

func (s *Storage) AppendChild(ctx context.Context, parentId, childId domain.ThreadId) error {
	res, err := s.threads().UpdateOne(ctx, bson.M{"_id": parentId}, bson.M{"$push": bson.M{"children": childId}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return internal_errors.NotFound("Thread not found")
	}
	return nil
}

func (s *Storage) RemoveChild(ctx context.Context, parentId, childId domain.ThreadId) error {
	res, err := s.threads().UpdateOne(ctx, bson.M{"_id": parentId}, bson.M{"$pull": bson.M{"children": childId}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return internal_errors.NotFound("Thread not found")
	}
	return nil
}

func (s *Storage) DeleteThreads(ctx context.Context, ids []domain.ThreadId) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.threads().DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Storage) findThreads(ctx context.Context, filter bson.M, opts *options.FindOptionsBuilder) ([]domain.Thread, error) {
	var cursorOpts []options.Lister[options.FindOptions]
	if opts != nil {
		cursorOpts = append(cursorOpts, opts)
	}
	cur, err := s.threads().Find(ctx, filter, cursorOpts...)
	if err != nil {
		return nil, err
	}
	var docs []threadDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	threads := make([]domain.Thread, 0, len(docs))
	for _, d := range docs {
		threads = append(threads, d.toDomain())
	}
	return threads, nil
}
